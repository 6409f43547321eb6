// Package server реализует веб-интерфейс и JSON API сканера.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"playlistscanner/internal/infrastructure/health"
	"playlistscanner/internal/infrastructure/metrics"
	"playlistscanner/internal/report"
	"playlistscanner/internal/service"
)

// Deps зависимости HTTP сервера
type Deps struct {
	Scans     service.ScanServiceInterface
	Playlists service.PlaylistServiceInterface
	Health    health.CheckerInterface
	Metrics   metrics.Interface
	Templates *report.Templates
	// ScanLimit число сканирований с одного адреса за ScanWindow, 0 отключает лимит
	ScanLimit  int
	ScanWindow time.Duration
}

// Server HTTP сервер на echo
type Server struct {
	echo    *echo.Echo
	deps    Deps
	limiter *RateLimiter
	stop    chan struct{}
	logger  *zap.Logger
}

// templateRenderer подключает шаблоны отчета к echo
type templateRenderer struct {
	templates *report.Templates
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.templates.Execute(w, name, data)
}

// New создает сервер и регистрирует маршруты
func New(deps Deps, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = &templateRenderer{templates: deps.Templates}

	s := &Server{echo: e, deps: deps, stop: make(chan struct{}), logger: logger}
	e.HTTPErrorHandler = s.errorHandler

	e.Use(RecoveryMiddleware(logger))
	e.Use(LoggingMiddleware(logger))

	scanLimit := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if deps.ScanLimit > 0 {
		s.limiter = NewRateLimiter(deps.ScanLimit, deps.ScanWindow, logger)
		scanLimit = RateLimitMiddleware(s.limiter)
	}

	e.GET("/", s.handleIndex)
	e.GET("/scan", s.handleScanPage, scanLimit)
	e.GET("/api/scan", s.handleScanAPI, scanLimit)
	e.GET("/api/scan/stream", s.handleScanStream, scanLimit)
	e.GET("/api/scans", s.handleHistory)
	e.GET("/scans/:id/report.pdf", s.handleReport)
	e.GET("/playlists", s.handlePlaylists)
	e.POST("/playlists", s.handleAddPlaylist)
	e.DELETE("/playlists/:provider/:id", s.handleRemovePlaylist)
	e.GET("/health", s.handleHealth)
	e.GET("/ready", s.handleReady)
	e.GET("/metrics", s.handleMetrics)

	return s
}

// Handler возвращает http.Handler сервера
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start запускает сервер и блокируется до остановки
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	if s.limiter != nil {
		go s.cleanupLoop()
	}
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop останавливает сервер, дожидаясь текущих запросов
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	return s.echo.Shutdown(ctx)
}

func (s *Server) cleanupLoop() {
	ticker := time.NewTicker(s.limiter.window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.limiter.Cleanup()
		case <-s.stop:
			return
		}
	}
}

// errorHandler пишет ошибки в JSON для /api и текстом для остальных страниц
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
		if s.deps.Metrics != nil {
			s.deps.Metrics.RecordError()
		}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else if isAPI(c) {
		err = c.JSON(code, map[string]string{"error": message})
	} else {
		err = c.String(code, message)
	}
	if err != nil {
		s.logger.Error("Failed to write error response", zap.Error(err))
	}
}

func isAPI(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}
