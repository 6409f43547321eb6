// Package app собирает компоненты сканера из конфигурации.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"playlistscanner/internal/config"
	"playlistscanner/internal/domain/playlist"
	"playlistscanner/internal/domain/scan"
	"playlistscanner/internal/gateway/deezer"
	"playlistscanner/internal/gateway/httpclient"
	"playlistscanner/internal/gateway/scraper"
	"playlistscanner/internal/gateway/spotify"
	"playlistscanner/internal/infrastructure/cache"
	"playlistscanner/internal/infrastructure/health"
	"playlistscanner/internal/infrastructure/metrics"
	"playlistscanner/internal/report"
	"playlistscanner/internal/server"
	"playlistscanner/internal/service"
	"playlistscanner/internal/storage"
	"playlistscanner/internal/storage/reports"
)

// ComponentFactory создает компоненты приложения
type ComponentFactory struct {
	config *config.Config
	logger *zap.Logger
}

// NewComponentFactory создает новую фабрику компонентов
func NewComponentFactory(config *config.Config, logger *zap.Logger) *ComponentFactory {
	if logger == nil {
		panic("Logger cannot be nil")
	}
	if config == nil {
		logger.Fatal("Config cannot be nil")
	}

	return &ComponentFactory{
		config: config,
		logger: logger,
	}
}

// CreateAppDataDirectory создает директорию данных приложения
func (f *ComponentFactory) CreateAppDataDirectory() error {
	if err := os.MkdirAll(f.config.AppDataDir, 0o755); err != nil {
		f.logger.Error("Failed to create app data directory", zap.String("dir", f.config.AppDataDir), zap.Error(err))
		return fmt.Errorf("failed to create app data directory: %w", err)
	}
	f.logger.Info("App data directory ready", zap.String("dir", f.config.AppDataDir))
	return nil
}

// CreateHTTPClient создает HTTP клиент с ограничением частоты запросов
func (f *ComponentFactory) CreateHTTPClient(perSecond float64) *http.Client {
	return httpclient.NewRateLimitedClient(f.config.HTTPClientConfig, perSecond, f.logger)
}

// CreateTokenSource создает источник токена Spotify
func (f *ComponentFactory) CreateTokenSource(httpClient *http.Client) *spotify.TokenSource {
	if !f.config.HasSpotifyCredentials() && f.config.SpotifyBearerToken == "" {
		f.logger.Warn("Spotify credentials not provided, Spotify playlists will be reported as token_unavailable")
	}
	return spotify.NewTokenSource(spotify.TokenConfig{
		ClientID:      f.config.SpotifyClientID,
		ClientSecret:  f.config.SpotifyClientSecret,
		StaticToken:   f.config.SpotifyBearerToken,
		CacheFile:     f.config.SpotifyTokenFile,
		ProbePlaylist: f.config.SpotifyProbePlaylist,
	}, httpClient, f.logger)
}

// CreateCache создает кэш обогащения: Redis, если он настроен, иначе in-memory
func (f *ComponentFactory) CreateCache(ctx context.Context) (cache.Cache, error) {
	if !f.config.RedisConfig.Enabled() {
		f.logger.Info("Using in-memory enrichment cache")
		return cache.NewMemory(10000), nil
	}

	redisCache, err := cache.NewRedis(ctx, f.config.RedisConfig, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis cache: %w", err)
	}
	return redisCache, nil
}

// CreateSources создает клиенты Spotify и Deezer
func (f *ComponentFactory) CreateSources(tokens spotify.TokenProvider, enrichCache cache.Cache, m metrics.Interface) (*spotify.Client, *deezer.Client) {
	spotifyClient := spotify.NewClient(f.CreateHTTPClient(f.config.SpotifyRateLimit), tokens, spotify.Options{
		RequestTimeout: f.config.ProviderRequestTimeout,
		Cache:          enrichCache,
		CacheTTL:       f.config.EnrichCacheTTL,
		CacheStats:     m,
	}, f.logger)

	deezerClient := deezer.NewClient(f.CreateHTTPClient(f.config.DeezerRateLimit), deezer.Options{
		RequestTimeout: f.config.ProviderRequestTimeout,
		Covers:         spotifyClient,
	}, f.logger)

	f.logger.Info("Provider clients created",
		zap.Float64("spotify_rate_limit", f.config.SpotifyRateLimit),
		zap.Float64("deezer_rate_limit", f.config.DeezerRateLimit))
	return spotifyClient, deezerClient
}

// CreateRegistry создает реестр плейлистов
func (f *ComponentFactory) CreateRegistry() *playlist.Registry {
	resolver := scraper.NewResolver(
		httpclient.NewTransport(f.config.HTTPClientConfig),
		f.config.ScraperTimeout,
		scraper.RetryConfig{
			MaxRetries:        f.config.ScraperRetry.MaxRetries,
			InitialDelay:      f.config.ScraperRetry.InitialDelay,
			MaxDelay:          f.config.ScraperRetry.MaxDelay,
			BackoffMultiplier: f.config.ScraperRetry.BackoffMultiplier,
		},
		f.logger,
	)
	return playlist.NewRegistry(f.config.PlaylistsFile, resolver, f.logger)
}

// CreateReportStore создает хранилище PDF: MinIO, если он настроен, иначе in-memory
func (f *ComponentFactory) CreateReportStore(ctx context.Context) (reports.Store, error) {
	if !f.config.MinioConfig.Enabled() {
		f.logger.Info("Using in-memory report store",
			zap.Duration("ttl", f.config.ReportTTL),
			zap.Int("max_stored", f.config.ReportMaxStored))
		return reports.NewMemory(f.config.ReportTTL, f.config.ReportMaxStored), nil
	}

	store, err := reports.NewMinio(ctx, f.config.MinioConfig, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create minio report store: %w", err)
	}
	return store, nil
}

// CreateDatabase подключает историю сканирований. Без DB_DSN возвращает nil.
func (f *ComponentFactory) CreateDatabase(ctx context.Context) (*storage.Postgres, error) {
	if f.config.DatabaseURL == "" {
		f.logger.Info("DB_DSN not set, scan history is disabled")
		return nil, nil
	}

	db, err := storage.NewPostgres(ctx, f.config.DatabaseURL, storage.DefaultConnectOptions, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	f.logger.Info("Database connection created successfully")
	return db, nil
}

// CreateRenderer создает построитель отчетов
func (f *ComponentFactory) CreateRenderer() *report.Renderer {
	return report.NewRenderer(
		httpclient.NewHTTPClient(f.config.HTTPClientConfig, f.logger),
		report.Options{BackgroundURL: f.config.ReportBackgroundURL},
		f.logger,
	)
}

// Components собранные сервисы и ресурсы, которые нужно закрыть при остановке
type Components struct {
	Scans     *service.ScanService
	Playlists *service.PlaylistService
	Health    *health.Checker
	Metrics   *metrics.Metrics
	Registry  *playlist.Registry

	closers []func() error
}

// Close освобождает соединения с Redis и PostgreSQL
func (c *Components) Close() error {
	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// CreateComponents создает все сервисы со всеми зависимостями
func (f *ComponentFactory) CreateComponents(ctx context.Context) (*Components, error) {
	if err := f.CreateAppDataDirectory(); err != nil {
		return nil, err
	}

	c := &Components{
		Metrics: metrics.NewMetrics(f.logger),
		Health:  health.NewChecker(f.logger),
	}

	tokens := f.CreateTokenSource(f.CreateHTTPClient(f.config.SpotifyRateLimit))

	enrichCache, err := f.CreateCache(ctx)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, enrichCache.Close)
	if redisCache, ok := enrichCache.(*cache.Redis); ok {
		c.Health.Register("redis", redisCache.Ping)
	}

	spotifyClient, deezerClient := f.CreateSources(tokens, enrichCache, c.Metrics)
	sources := []scan.Source{spotifyClient, deezerClient}

	c.Registry = f.CreateRegistry()
	c.Health.Register("registry", func(context.Context) error {
		_, err := c.Registry.Load()
		return err
	})

	if f.config.HasSpotifyCredentials() || f.config.SpotifyBearerToken != "" {
		c.Health.Register("spotify_token", func(ctx context.Context) error {
			_, err := tokens.Token(ctx)
			return err
		})
	}

	store, err := f.CreateReportStore(ctx)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	deps := service.ScanDeps{
		Registry:   c.Registry,
		Aggregator: scan.NewAggregator(sources, f.config.ScanWorkers, f.logger),
		Tokens:     tokens,
		Renderer:   f.CreateRenderer(),
		Reports:    store,
		Metrics:    c.Metrics,
	}

	db, err := f.CreateDatabase(ctx)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	if db != nil {
		c.closers = append(c.closers, db.Close)
		c.Health.Register("database", db.Ping)
		deps.History = db.GetScanRunRepository()
	}

	c.Scans = service.NewScanService(deps, f.logger)
	c.Playlists = service.NewPlaylistService(c.Registry, sources, f.config.ScanWorkers, f.logger)

	f.logger.Info("Components created successfully",
		zap.String("playlists_file", f.config.PlaylistsFile),
		zap.Int("scan_workers", f.config.ScanWorkers),
		zap.Bool("redis", f.config.RedisConfig.Enabled()),
		zap.Bool("minio", f.config.MinioConfig.Enabled()),
		zap.Bool("history", db != nil))
	return c, nil
}

// CreateServer создает HTTP сервер
func (f *ComponentFactory) CreateServer(c *Components) (*server.Server, error) {
	templates, err := report.NewTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return server.New(server.Deps{
		Scans:      c.Scans,
		Playlists:  c.Playlists,
		Health:     c.Health,
		Metrics:    c.Metrics,
		Templates:  templates,
		ScanLimit:  f.config.ScanRateLimit,
		ScanWindow: f.config.ScanRateWindow,
	}, f.logger), nil
}
