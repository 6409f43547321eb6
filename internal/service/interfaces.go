package service

import (
	"context"

	"playlistscanner/internal/domain/scan"
	"playlistscanner/internal/model"
	"playlistscanner/internal/report"
)

// ScanServiceInterface определяет интерфейс сервиса сканирования
type ScanServiceInterface interface {
	Scan(ctx context.Context, query string, progress scan.ProgressFunc) (*Outcome, error)
	Report(ctx context.Context, scanID string) ([]byte, error)
	History(ctx context.Context, limit int) ([]model.ScanRun, error)
}

// PlaylistServiceInterface определяет интерфейс работы с отслеживаемыми плейлистами
type PlaylistServiceInterface interface {
	List() ([]model.PlaylistRef, error)
	Add(ctx context.Context, rawURL, name string) (model.PlaylistRef, error)
	Remove(provider model.Provider, id string) error
	Overview(ctx context.Context) report.PlaylistsView
}

// Renderer строит отчеты
type Renderer interface {
	RenderPDF(ctx context.Context, result *model.ScanResult) ([]byte, error)
}
