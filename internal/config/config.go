// Package config содержит загрузку и валидацию конфигурации.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config представляет конфигурацию приложения
type Config struct {
	// HTTP
	ListenAddr string

	// Spotify
	SpotifyClientID      string
	SpotifyClientSecret  string
	SpotifyBearerToken   string
	SpotifyTokenFile     string
	SpotifyProbePlaylist string

	// Playlists
	PlaylistsFile string

	// Scan
	ScanWorkers            int
	ProviderRequestTimeout time.Duration
	SpotifyRateLimit       float64
	DeezerRateLimit        float64
	EnrichCacheTTL         time.Duration

	// Scraper (короткие ссылки и og:title)
	ScraperTimeout time.Duration
	ScraperRetry   RetryConfig

	// Server
	ScanRateLimit  int
	ScanRateWindow time.Duration

	// Report
	ReportBackgroundURL string
	ReportTTL           time.Duration
	ReportMaxStored     int

	// Logging
	LogLevel string

	// HTTP Client
	HTTPClientConfig HTTPClientConfig

	// Database (optional, scan history)
	DatabaseURL string

	// Redis (optional, enrichment cache)
	RedisConfig RedisConfig

	// MinIO (optional, report archive)
	MinioConfig MinioConfig

	// App Data Directory
	AppDataDir string
}

// HTTPClientConfig представляет конфигурацию HTTP клиента
type HTTPClientConfig struct {
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	IdleConnTimeout       time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration
	DisableKeepAlives     bool
}

// RetryConfig представляет конфигурацию retry механизма
type RetryConfig struct {
	MaxRetries        int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
}

// RedisConfig представляет конфигурацию Redis
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled проверяет, настроен ли Redis
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// MinioConfig представляет конфигурацию MinIO
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Enabled проверяет, настроен ли MinIO
func (c MinioConfig) Enabled() bool {
	return c.Endpoint != ""
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	// Загружаем .env файл если он существует
	_ = godotenv.Load()

	config := &Config{
		ListenAddr:             getEnv("LISTEN_ADDR", ":8080"),
		SpotifyClientID:        getEnv("SPOTIFY_CLIENT_ID", ""),
		SpotifyClientSecret:    getEnv("SPOTIFY_CLIENT_SECRET", ""),
		SpotifyBearerToken:     getEnv("SPOTIFY_BEARER_TOKEN", ""),
		SpotifyTokenFile:       getEnv("SPOTIFY_TOKEN_FILE", "token.txt"),
		SpotifyProbePlaylist:   getEnv("SPOTIFY_PROBE_PLAYLIST", "37i9dQZF1DX4JAvHpjipBk"),
		PlaylistsFile:          getEnv("PLAYLISTS_FILE", "playlists.json"),
		ScanWorkers:            getEnvInt("SCAN_WORKERS", 10),
		ProviderRequestTimeout: getEnvDuration("PROVIDER_REQUEST_TIMEOUT", 15*time.Second),
		SpotifyRateLimit:       getEnvFloat("SPOTIFY_RATE_LIMIT", 20),
		DeezerRateLimit:        getEnvFloat("DEEZER_RATE_LIMIT", 40),
		EnrichCacheTTL:         getEnvDuration("ENRICH_CACHE_TTL", 6*time.Hour),
		ScraperTimeout:         getEnvDuration("SCRAPER_TIMEOUT", 20*time.Second),
		ScraperRetry: RetryConfig{
			MaxRetries:        getEnvInt("SCRAPER_MAX_RETRIES", 3),
			InitialDelay:      getEnvDuration("SCRAPER_INITIAL_DELAY", time.Second),
			MaxDelay:          getEnvDuration("SCRAPER_MAX_DELAY", 10*time.Second),
			BackoffMultiplier: getEnvFloat("SCRAPER_BACKOFF_MULTIPLIER", 2.0),
		},
		ScanRateLimit:          getEnvInt("SCAN_RATE_LIMIT", 10),
		ScanRateWindow:         getEnvDuration("SCAN_RATE_WINDOW", time.Minute),
		ReportBackgroundURL:    getEnv("REPORT_BACKGROUND_URL", "https://iili.io/3dchREl.jpg"),
		ReportTTL:              getEnvDuration("REPORT_TTL", time.Hour),
		ReportMaxStored:        getEnvInt("REPORT_MAX_STORED", 50),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		HTTPClientConfig: HTTPClientConfig{
			MaxIdleConns:          getEnvInt("HTTP_MAX_IDLE_CONNS", 100),
			MaxIdleConnsPerHost:   getEnvInt("HTTP_MAX_IDLE_CONNS_PER_HOST", 10),
			IdleConnTimeout:       getEnvDuration("HTTP_IDLE_CONN_TIMEOUT", 90*time.Second),
			TLSHandshakeTimeout:   getEnvDuration("HTTP_TLS_HANDSHAKE_TIMEOUT", 10*time.Second),
			ResponseHeaderTimeout: getEnvDuration("HTTP_RESPONSE_HEADER_TIMEOUT", 30*time.Second),
			DisableKeepAlives:     getEnvBool("HTTP_DISABLE_KEEP_ALIVES", false),
		},
		DatabaseURL: getEnv("DB_DSN", ""),
		RedisConfig: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		MinioConfig: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "playlist-reports"),
			Region:    getEnv("MINIO_REGION", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", true),
		},
		AppDataDir: getEnv("APP_DATA_DIR", "./data"),
	}

	// Валидация обязательных полей
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	if c.PlaylistsFile == "" {
		return fmt.Errorf("PLAYLISTS_FILE is required")
	}

	// Spotify требует либо client credentials, либо готовый токен
	if c.SpotifyBearerToken == "" && (c.SpotifyClientID == "") != (c.SpotifyClientSecret == "") {
		return fmt.Errorf("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set together")
	}

	if c.ScanWorkers <= 0 {
		return fmt.Errorf("SCAN_WORKERS must be positive, got %d", c.ScanWorkers)
	}

	if c.ProviderRequestTimeout <= 0 {
		return fmt.Errorf("PROVIDER_REQUEST_TIMEOUT must be positive")
	}

	if c.SpotifyRateLimit <= 0 || c.DeezerRateLimit <= 0 {
		return fmt.Errorf("provider rate limits must be positive")
	}

	if c.ScanRateLimit < 0 {
		return fmt.Errorf("SCAN_RATE_LIMIT must not be negative")
	}

	if c.MinioConfig.Enabled() && (c.MinioConfig.AccessKey == "" || c.MinioConfig.SecretKey == "") {
		return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
	}

	return nil
}

// HasSpotifyCredentials проверяет наличие client credentials
func (c *Config) HasSpotifyCredentials() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != ""
}

// getEnv получает переменную окружения с значением по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает переменную окружения как int
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration получает переменную окружения как time.Duration
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvBool получает переменную окружения как bool
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvFloat получает переменную окружения как float64
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
