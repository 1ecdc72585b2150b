/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/ssargent/gatewire/pkg/config"
	"github.com/ssargent/gatewire/pkg/di"
	"github.com/ssargent/gatewire/pkg/logging"
)

var container *di.Container

// SetContainer injects the dependency container used by store and server commands.
func SetContainer(c *di.Container) {
	container = c
}

type appKey struct{}

// app is the per-invocation state shared with subcommands.
type app struct {
	cfg        *config.Config
	configPath string
	logger     zerolog.Logger
}

func appFrom(cmd *cobra.Command) (*app, error) {
	a, ok := cmd.Context().Value(appKey{}).(*app)
	if !ok {
		return nil, errors.New("command context not initialized")
	}
	return a, nil
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gatewire",
		Short: "gatewire - Erlang External Term Format toolkit",
		Long: `gatewire encodes and decodes Erlang External Term Format (ETF) payloads as
spoken by chat gateways, captures raw frames for later inspection and serves
both over a small REST API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			dataDir, _ := cmd.Flags().GetString("data-dir")
			logLevel, _ := cmd.Flags().GetString("log-level")

			if configPath == "" {
				configPath = config.GetDefaultConfigPath()
			}

			cfg := config.DefaultConfig()
			if config.ConfigExists(configPath) {
				loaded, err := config.LoadConfig(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if dataDir != "" {
				cfg.DataDir = dataDir
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				App:    "gatewire",
			}, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("failed to configure logging: %w", err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, appKey{}, &app{
				cfg:        cfg,
				configPath: configPath,
				logger:     logger,
			}))
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: OS-specific location)")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "", "Data directory, overrides the config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newInitCmd(),
		newEncodeCmd(),
		newDecodeCmd(),
		newCaptureCmd(),
		newServeCmd(),
	)
	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
