package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"playlistscanner/internal/app"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(false)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			application, err := app.New(ctx, cfg, log)
			if err != nil {
				log.Error("Failed to create application", zap.Error(err))
				return err
			}
			return application.Run(ctx)
		},
	}
}
