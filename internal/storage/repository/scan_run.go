// Package repository содержит репозитории для работы с базой данных.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"playlistscanner/internal/model"
)

// ScanRunRepository реализует хранение истории сканирований
type ScanRunRepository struct {
	db     bun.IDB
	logger *zap.Logger
}

// NewScanRunRepository создает новый репозиторий истории
func NewScanRunRepository(db bun.IDB, logger *zap.Logger) *ScanRunRepository {
	return &ScanRunRepository{
		db:     db,
		logger: logger,
	}
}

// Create сохраняет запись о сканировании
func (r *ScanRunRepository) Create(ctx context.Context, run *model.ScanRun) error {
	if err := run.Validate(); err != nil {
		return err
	}

	_, err := r.db.NewInsert().
		Model(run).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create scan run: %w", err)
	}

	r.logger.Debug("Scan run stored", zap.String("scan_id", run.ScanID), zap.Int("id", run.ID))
	return nil
}

// GetByScanID возвращает запись по идентификатору сканирования, nil если ее нет
func (r *ScanRunRepository) GetByScanID(ctx context.Context, scanID string) (*model.ScanRun, error) {
	run := new(model.ScanRun)

	err := r.db.NewSelect().
		Model(run).
		Where("scan_id = ?", scanID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query scan run: %w", err)
	}

	return run, nil
}

// GetRecent возвращает последние сканирования, новые первыми
func (r *ScanRunRepository) GetRecent(ctx context.Context, limit int) ([]model.ScanRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []model.ScanRun

	err := r.db.NewSelect().
		Model(&runs).
		Order("started_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent scan runs: %w", err)
	}

	return runs, nil
}
