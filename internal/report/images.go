package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"sync"

	// декодеры обложек
	_ "image/gif"
	_ "image/png"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// MaxImageSide ограничивает размер встраиваемых изображений
	MaxImageSide = 200

	maxImageBytes = 10 << 20
	jpegQuality   = 95
)

var errEmptyImageURL = errors.New("empty image url")

// imageLoader загружает и уменьшает изображения. Живет в пределах одного отчета.
type imageLoader struct {
	client  *http.Client
	logger  *zap.Logger
	maxSide int

	mu    sync.Mutex
	cache map[string]imageResult
}

type imageResult struct {
	data []byte
	err  error
}

func newImageLoader(client *http.Client, maxSide int, logger *zap.Logger) *imageLoader {
	return &imageLoader{
		client:  client,
		logger:  logger,
		maxSide: maxSide,
		cache:   make(map[string]imageResult),
	}
}

// Load возвращает JPEG, вписанный в maxSide×maxSide. Повторные запросы берутся из кэша.
func (l *imageLoader) Load(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, errEmptyImageURL
	}

	l.mu.Lock()
	if res, ok := l.cache[url]; ok {
		l.mu.Unlock()
		return res.data, res.err
	}
	l.mu.Unlock()

	data, err := l.fetch(ctx, url, l.maxSide)
	if err != nil {
		l.logger.Warn("Image skipped", zap.String("url", url), zap.Error(err))
	}

	l.mu.Lock()
	l.cache[url] = imageResult{data: data, err: err}
	l.mu.Unlock()
	return data, err
}

// LoadFull загружает изображение без уменьшения (фон страницы)
func (l *imageLoader) LoadFull(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, errEmptyImageURL
	}
	return l.fetch(ctx, url, 0)
}

func (l *imageLoader) fetch(ctx context.Context, url string, maxSide int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image request returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	return toJPEG(raw, maxSide)
}

// toJPEG декодирует изображение, при необходимости уменьшает его и кодирует в JPEG
func toJPEG(raw []byte, maxSide int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	img := src
	if maxSide > 0 {
		img = thumbnail(src, maxSide)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// thumbnail вписывает изображение в квадрат maxSide с сохранением пропорций.
// Изображение меньше квадрата не увеличивается.
func thumbnail(src image.Image, maxSide int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return src
	}

	if w >= h {
		h = max(1, h*maxSide/w)
		w = maxSide
	} else {
		w = max(1, w*maxSide/h)
		h = maxSide
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
