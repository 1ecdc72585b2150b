/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ssargent/gatewire/pkg/config"
)

func newInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a gatewire configuration with a generated API key",
		Long: `Create the configuration file and data directory for gatewire.

A 256-bit API key is generated and written to the config file with 0600
permissions. An existing config is left alone unless --force is given.

Examples:
  gatewire init
  gatewire init --config ./gatewire.yaml --data-dir ./data --print-key`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			printKey, _ := cmd.Flags().GetBool("print-key")

			if config.ConfigExists(a.configPath) && !force {
				cmd.Printf("Configuration already exists at %s. Use --force to overwrite.\n", a.configPath)
				return nil
			}

			cfg, err := config.BootstrapConfig(a.configPath, a.cfg.DataDir)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}

			a.logger.Info().Str("config", a.configPath).Str("data_dir", cfg.DataDir).Msg("configuration created")
			cmd.Printf("✅ Configuration created at %s\n", a.configPath)
			cmd.Printf("📁 Data directory: %s\n", cfg.DataDir)
			if printKey {
				cmd.Printf("🔑 API key: %s\n", cfg.Security.APIKey)
			}
			cmd.Printf("\nStart the server with:\n  gatewire serve --config %s\n", a.configPath)
			return nil
		},
	}

	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration")
	initCmd.Flags().Bool("print-key", false, "Print the generated API key")
	return initCmd
}
