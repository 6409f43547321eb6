// Package service содержит бизнес-логику приложения.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"playlistscanner/internal/domain/playlist"
	"playlistscanner/internal/domain/scan"
	"playlistscanner/internal/gateway/spotify"
	"playlistscanner/internal/infrastructure/metrics"
	"playlistscanner/internal/model"
	"playlistscanner/internal/report"
	"playlistscanner/internal/storage/reports"
)

// ErrEmptyQuery пустой поисковый запрос
var ErrEmptyQuery = errors.New("search query is empty")

const historyTimeout = 5 * time.Second

// Outcome итог одного сканирования
type Outcome struct {
	Result *model.ScanResult
	View   *report.View
	// ReportErr ошибка построения PDF. Результат при этом остается валидным.
	ReportErr error
}

// ScanDeps зависимости сервиса сканирования. Tokens, History и Metrics необязательны.
type ScanDeps struct {
	Registry   playlist.RegistryInterface
	Aggregator *scan.Aggregator
	Tokens     spotify.TokenProvider
	Renderer   Renderer
	Reports    reports.Store
	History    model.ScanRunRepository
	Metrics    metrics.Interface
}

// ScanService проводит сканирование: токен, реестр, агрегатор, отчет, история
type ScanService struct {
	deps   ScanDeps
	logger *zap.Logger
}

var _ ScanServiceInterface = (*ScanService)(nil)

// NewScanService создает сервис сканирования
func NewScanService(deps ScanDeps, logger *zap.Logger) *ScanService {
	return &ScanService{deps: deps, logger: logger}
}

// Scan ищет query во всех отслеживаемых плейлистах
func (s *ScanService) Scan(ctx context.Context, query string, progress scan.ProgressFunc) (*Outcome, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	refs, err := s.deps.Registry.Refs()
	if err != nil {
		return nil, fmt.Errorf("failed to load playlists: %w", err)
	}

	opts := []scan.Option{}
	if progress != nil {
		opts = append(opts, scan.WithProgress(progress))
	}
	if hasProvider(refs, model.ProviderSpotify) {
		if err := s.checkToken(ctx); err != nil {
			s.logger.Warn("Spotify token unavailable, scanning Deezer only", zap.Error(err))
			opts = append(opts, scan.WithUnavailableProvider(model.ProviderSpotify, model.FailureTokenUnavailable, err))
		}
	}

	result := s.deps.Aggregator.Scan(ctx, refs, query, opts...)
	summary := result.Summary()
	s.recordMetrics(result, summary)

	outcome := &Outcome{Result: result, View: report.BuildView(result)}

	start := time.Now()
	pdf, err := s.deps.Renderer.RenderPDF(ctx, result)
	if err != nil {
		outcome.ReportErr = err
		outcome.View.PDFURL = ""
	} else {
		if s.deps.Metrics != nil {
			s.deps.Metrics.RecordReport(len(pdf), time.Since(start))
		}
		if err := s.deps.Reports.Save(ctx, result.ID, pdf); err != nil {
			s.logger.Error("Failed to store report", zap.String("scan_id", result.ID), zap.Error(err))
			outcome.ReportErr = err
			outcome.View.PDFURL = ""
		}
	}

	s.saveHistory(ctx, result)
	return outcome, nil
}

// checkToken проверяет, что для Spotify есть действующий токен
func (s *ScanService) checkToken(ctx context.Context) error {
	if s.deps.Tokens == nil {
		return model.ErrTokenUnavailable
	}
	if _, err := s.deps.Tokens.Token(ctx); err != nil {
		if errors.Is(err, model.ErrTokenUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", model.ErrTokenUnavailable, err)
	}
	return nil
}

func (s *ScanService) recordMetrics(result *model.ScanResult, summary model.ScanSummary) {
	if s.deps.Metrics == nil {
		return
	}
	s.deps.Metrics.RecordScan(summary, result.FinishedAt.Sub(result.StartedAt))
	for _, f := range result.Failures {
		s.deps.Metrics.RecordPlaylistFailure(f.Reason)
	}
}

// saveHistory сохраняет сводку сканирования. Ошибка не влияет на результат.
func (s *ScanService) saveHistory(ctx context.Context, result *model.ScanResult) {
	if s.deps.History == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
	defer cancel()

	if err := s.deps.History.Create(ctx, model.NewScanRun(result)); err != nil {
		s.logger.Warn("Failed to save scan history", zap.String("scan_id", result.ID), zap.Error(err))
	}
}

// Report возвращает PDF ранее выполненного сканирования
func (s *ScanService) Report(ctx context.Context, scanID string) ([]byte, error) {
	return s.deps.Reports.Load(ctx, scanID)
}

// History возвращает последние сканирования. Без базы данных история пуста.
func (s *ScanService) History(ctx context.Context, limit int) ([]model.ScanRun, error) {
	if s.deps.History == nil {
		return nil, nil
	}
	return s.deps.History.GetRecent(ctx, limit)
}

func hasProvider(refs []model.PlaylistRef, p model.Provider) bool {
	for _, ref := range refs {
		if ref.Provider == p {
			return true
		}
	}
	return false
}
