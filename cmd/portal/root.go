package main

import (
	"fmt"
	"os"

	"opsportal/internal/config"
	"opsportal/internal/database"
	"opsportal/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "portal",
	Short: "Business operations portal",
	Long: `Portal runs the request approval service: employees submit purchase
requests, cash demands, expense records and registrations; administrators
approve or reject them and requesters are notified by SMS.`,
	SilenceUsage: true,
}

// Execute runs the root command. It is called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("env-file", "configs/.env", "Path to a .env file (optional)")
}

// bootstrap loads configuration and builds the logger shared by all commands.
func bootstrap(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(cfg), nil
}

func openDatabase(cfg *config.Config, log logrus.FieldLogger) (*gorm.DB, func(), error) {
	log.WithFields(logrus.Fields{
		"host": cfg.Database.Host,
		"name": cfg.Database.Name,
	}).Info("connecting to database")

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect database: %w", err)
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, closeFn, nil
}
