package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"playlistscanner/internal/app"
	"playlistscanner/internal/config"
	"playlistscanner/pkg/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "scanner",
		Short:         "Playlist scanner finds where an artist or track is placed in curated playlists.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newScanCmd(), newPlaylistsCmd())
	return root
}

// setup загружает конфигурацию и создает логгер. CLI пишет логи только в stderr.
func setup(cli bool) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	opts := logger.Options{Level: cfg.LogLevel}
	if cli {
		opts.Console = os.Stderr
		opts.NoFile = true
		if os.Getenv("LOG_LEVEL") == "" {
			opts.Level = "warn"
		}
	}
	return cfg, logger.NewWithOptions(opts), nil
}

// signalContext отменяется по SIGINT/SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// components собирает сервисы для CLI команд
func components(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app.Components, error) {
	c, err := app.NewComponentFactory(cfg, log).CreateComponents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create components: %w", err)
	}
	return c, nil
}
