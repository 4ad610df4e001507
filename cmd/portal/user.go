package main

import (
	"fmt"

	"opsportal/internal/repository"
	"opsportal/internal/service"

	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage portal accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user account",
	Example: `  portal user create --username root --email root@example.com \
    --password 's3cret!' --role admin --phone +15550000001`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		db, closeDB, err := openDatabase(cfg, log)
		if err != nil {
			return err
		}
		defer closeDB()

		secret, err := cfg.Secret()
		if err != nil {
			return err
		}

		var req service.CreateUserRequest
		req.Username, _ = cmd.Flags().GetString("username")
		req.Email, _ = cmd.Flags().GetString("email")
		req.Phone, _ = cmd.Flags().GetString("phone")
		req.Password, _ = cmd.Flags().GetString("password")
		req.Role, _ = cmd.Flags().GetString("role")

		users := service.NewUserService(repository.NewUserRepository(db), secret)
		created, err := users.CreateUser(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (%s)\n", created.Role, created.Username, created.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)

	userCreateCmd.Flags().String("username", "", "Login name")
	userCreateCmd.Flags().String("email", "", "Email address")
	userCreateCmd.Flags().String("phone", "", "Phone number for SMS notifications")
	userCreateCmd.Flags().String("password", "", "Initial password (min 6 characters)")
	userCreateCmd.Flags().String("role", "staff", "admin or staff")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")
}
