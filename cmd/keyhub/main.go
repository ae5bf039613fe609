package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/orris-inc/keyhub/internal/interfaces/cli/migrate"
	"github.com/orris-inc/keyhub/internal/interfaces/cli/server"
)

// @title KeyHub API
// @version 1.0
// @description VPN access key reselling backend.
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{
		Use:   "keyhub",
		Short: "KeyHub - VPN access key reselling backend",
		Long:  `KeyHub issues, activates and replaces VPN access keys, provisions servers and panels, and notifies users through reseller bots.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
