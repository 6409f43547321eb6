// Package httpclient содержит фабрику HTTP клиентов для внешних каталогов.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"playlistscanner/internal/config"
)

// NewHTTPClient создает HTTP клиент с пулом соединений.
// Таймаут запроса задается через context на стороне вызывающего.
func NewHTTPClient(cfg config.HTTPClientConfig, logger *zap.Logger) *http.Client {
	return &http.Client{
		Transport: NewTransport(cfg),
		Timeout:   60 * time.Second,
	}
}

// NewTransport создает http.Transport с настройками из конфигурации
func NewTransport(cfg config.HTTPClientConfig) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		DisableKeepAlives:     cfg.DisableKeepAlives,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

// NewRateLimitedClient создает клиент, ограничивающий частоту исходящих запросов
func NewRateLimitedClient(cfg config.HTTPClientConfig, perSecond float64, logger *zap.Logger) *http.Client {
	client := NewHTTPClient(cfg, logger)
	client.Transport = NewRateLimitedTransport(client.Transport, perSecond)

	logger.Debug("HTTP client created",
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
		zap.Int("max_idle_conns_per_host", cfg.MaxIdleConnsPerHost),
		zap.Duration("idle_conn_timeout", cfg.IdleConnTimeout),
		zap.Float64("rate_limit", perSecond))

	return client
}
