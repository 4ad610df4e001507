package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "Show which optional integrations are configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cfg.ServiceStatus())
	},
}

func init() {
	rootCmd.AddCommand(servicesCmd)
}
