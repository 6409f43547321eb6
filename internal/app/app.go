package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"playlistscanner/internal/config"
	"playlistscanner/internal/server"
)

const shutdownTimeout = 10 * time.Second

// App веб-приложение сканера
type App struct {
	config     *config.Config
	components *Components
	server     *server.Server
	logger     *zap.Logger
}

// New создает приложение через фабрику компонентов
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	factory := NewComponentFactory(cfg, logger)
	components, err := factory.CreateComponents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create components: %w", err)
	}

	srv, err := factory.CreateServer(components)
	if err != nil {
		_ = components.Close()
		return nil, err
	}

	return &App{config: cfg, components: components, server: srv, logger: logger}, nil
}

// Run запускает HTTP сервер и блокируется до отмены ctx
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start(a.config.ListenAddr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutdown signal received")
	case runErr = <-errCh:
		if runErr != nil {
			a.logger.Error("HTTP server stopped with error", zap.Error(runErr))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	stopErr := a.server.Stop(shutdownCtx)
	closeErr := a.components.Close()
	if err := errors.Join(runErr, stopErr, closeErr); err != nil {
		return err
	}

	a.logger.Info("Application stopped successfully")
	return nil
}

// Components возвращает сервисы приложения
func (a *App) Components() *Components {
	return a.components
}
