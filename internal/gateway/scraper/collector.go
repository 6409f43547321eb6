// Package scraper читает публичные страницы плейлистов: короткие ссылки и og-метаданные.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// PageMeta метаданные страницы плейлиста
type PageMeta struct {
	// URL итоговый адрес после редиректов либо og:url
	URL   string
	Title string
}

// Resolver открывает страницы через colly
type Resolver struct {
	transport http.RoundTripper
	timeout   time.Duration
	retry     RetryConfig
	logger    *zap.Logger
}

// NewResolver создает Resolver. transport может быть nil.
func NewResolver(transport http.RoundTripper, timeout time.Duration, retry RetryConfig, logger *zap.Logger) *Resolver {
	if transport == nil {
		transport = &http.Transport{
			ResponseHeaderTimeout: 30 * time.Second,
			DisableKeepAlives:     true,
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Resolver{transport: transport, timeout: timeout, retry: retry, logger: logger}
}

// newCollector создает коллектор для одной страницы
func (r *Resolver) newCollector(ctx context.Context) *colly.Collector {
	collector := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.MaxDepth(1),
		colly.StdlibContext(ctx),
	)
	collector.WithTransport(r.transport)
	collector.SetRequestTimeout(r.timeout)
	return collector
}

// Resolve открывает ссылку, следует редиректам и читает og:url / og:title
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (PageMeta, error) {
	var meta PageMeta
	err := WithRetry(ctx, r.logger, r.retry, func() error {
		m, err := r.visit(ctx, rawURL)
		if err != nil {
			return err
		}
		meta = m
		return nil
	})
	if err != nil {
		return PageMeta{}, fmt.Errorf("failed to resolve %s: %w", rawURL, err)
	}
	return meta, nil
}

func (r *Resolver) visit(ctx context.Context, rawURL string) (PageMeta, error) {
	var meta PageMeta
	var visitErr error

	collector := r.newCollector(ctx)

	collector.OnRequest(func(req *colly.Request) {
		r.logger.Debug("Visiting URL", zap.String("url", req.URL.String()))
	})

	collector.OnResponse(func(resp *colly.Response) {
		meta.URL = resp.Request.URL.String()
	})

	collector.OnHTML("head", func(e *colly.HTMLElement) {
		if ogURL := metaContent(e.DOM, "og:url"); ogURL != "" {
			meta.URL = ogURL
		}
		meta.Title = CleanTitle(metaContent(e.DOM, "og:title"))
		if meta.Title == "" {
			meta.Title = CleanTitle(e.DOM.Find("title").First().Text())
		}
	})

	collector.OnError(func(resp *colly.Response, err error) {
		r.logger.Warn("Failed to fetch page",
			zap.String("url", resp.Request.URL.String()),
			zap.Int("status", resp.StatusCode),
			zap.Error(err))
		visitErr = err
	})

	if err := collector.Visit(rawURL); err != nil {
		return PageMeta{}, err
	}
	collector.Wait()

	if visitErr != nil {
		return PageMeta{}, visitErr
	}
	if meta.URL == "" {
		return PageMeta{}, errors.New("empty response")
	}
	return meta, nil
}

func metaContent(doc *goquery.Selection, property string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q]`, property)).First()
	if sel.Length() == 0 {
		sel = doc.Find(fmt.Sprintf(`meta[name=%q]`, property)).First()
	}
	return strings.TrimSpace(sel.AttrOr("content", ""))
}

// CleanTitle убирает из заголовка страницы суффикс каталога
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	for _, suffix := range []string{" | Spotify Playlist", " | Spotify", " | Deezer"} {
		title = strings.TrimSuffix(title, suffix)
	}
	return strings.TrimSpace(title)
}
