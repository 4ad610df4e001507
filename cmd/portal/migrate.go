package main

import (
	"opsportal/internal/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Create or update the tables for users, audit logs and every request kind.
The command uses the database configuration from the environment.`,
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

		log.Info("running database migrations")
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info("database migrations completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
