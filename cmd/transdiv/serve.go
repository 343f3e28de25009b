package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/example/go-transdiv/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the transdiv HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc, err := buildService(ctx, cfg, slog.Default())
			if err != nil {
				return err
			}
			defer closeService(svc)

			return server.New(cfg, svc).Start(ctx)
		},
	}

	return cmd
}

