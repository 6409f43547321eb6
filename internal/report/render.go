// Package report строит HTML-представление и PDF-отчет по результату сканирования.
package report

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"playlistscanner/internal/model"
)

// Options настройки рендерера
type Options struct {
	// BackgroundURL фон страниц PDF. Пустая строка отключает фон.
	BackgroundURL string
	ImageTimeout  time.Duration
	Now           func() time.Time
}

// Renderer строит отчеты. Изображения загружаются заново для каждого отчета.
type Renderer struct {
	client *http.Client
	opts   Options
	logger *zap.Logger
}

// NewRenderer создает рендерер
func NewRenderer(client *http.Client, opts Options, logger *zap.Logger) *Renderer {
	if client == nil {
		client = http.DefaultClient
	}
	if opts.ImageTimeout <= 0 {
		opts.ImageTimeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Renderer{client: client, opts: opts, logger: logger}
}

// Render возвращает представление и PDF для результата
func (r *Renderer) Render(ctx context.Context, result *model.ScanResult) (*View, []byte, error) {
	pdf, err := r.RenderPDF(ctx, result)
	if err != nil {
		return nil, nil, err
	}
	return BuildView(result), pdf, nil
}

// RenderPDF строит PDF-документ. Ошибки загрузки изображений не прерывают рендер.
func (r *Renderer) RenderPDF(ctx context.Context, result *model.ScanResult) ([]byte, error) {
	start := time.Now()
	images := newImageLoader(r.client, MaxImageSide, r.logger)

	var background []byte
	if r.opts.BackgroundURL != "" {
		bgCtx, cancel := context.WithTimeout(ctx, r.opts.ImageTimeout)
		bg, err := images.LoadFull(bgCtx, r.opts.BackgroundURL)
		cancel()
		if err != nil {
			r.logger.Warn("Background image unavailable", zap.String("url", r.opts.BackgroundURL), zap.Error(err))
		} else {
			background = bg
		}
	}

	w := newPDFWriter(images, background, r.opts.Now())
	data, err := w.write(ctx, result)
	if err != nil {
		r.logger.Error("Failed to render report", zap.String("scan_id", result.ID), zap.Error(err))
		return nil, err
	}

	r.logger.Info("Report rendered",
		zap.String("scan_id", result.ID),
		zap.Int("entries", len(result.Order)),
		zap.Int("bytes", len(data)),
		zap.Duration("duration", time.Since(start)))
	return data, nil
}
