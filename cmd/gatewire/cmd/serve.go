/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ssargent/gatewire/pkg/api"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start the gatewire REST API server.

The server exposes ETF/JSON transcoding and the capture store under /api/v1,
guarded by the X-API-Key header, plus Prometheus metrics at /metrics. Run
'gatewire init' first to create a config with an API key.

Examples:
  gatewire serve
  gatewire serve --config ./gatewire.yaml --port 9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				a.cfg.Port, _ = cmd.Flags().GetInt("port")
			}
			if cmd.Flags().Changed("bind") {
				a.cfg.Bind, _ = cmd.Flags().GetString("bind")
			}
			if key, _ := cmd.Flags().GetString("api-key"); key != "" {
				a.cfg.Security.APIKey = key
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			if container == nil {
				return errors.New("dependency container not initialized")
			}

			store, err := openCaptureStore(a)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info().
				Str("bind", a.cfg.Bind).
				Int("port", a.cfg.Port).
				Str("data_dir", a.cfg.DataDir).
				Msg("starting server")

			starter := container.GetServerFactory().CreateServerStarter()
			return starter.StartServer(ctx, store, api.ServerConfig{
				Port:    a.cfg.Port,
				Bind:    a.cfg.Bind,
				APIKey:  a.cfg.Security.APIKey,
				Limits:  a.cfg.Codec.Limits(),
				Encoder: a.cfg.Codec.Encoder(),
			}, a.logger)
		},
	}

	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on, overrides the config file")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind to, overrides the config file")
	serveCmd.Flags().String("api-key", "", "API key, overrides the config file")
	return serveCmd
}
