// Package model содержит модели данных.
//
// Группа: ENTITIES - Основные сущности
// Содержит: ScanRun, ScanRunRepository
package model

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// ScanRun хранит историю сканирований. Сам агрегат не сохраняется.
type ScanRun struct {
	bun.BaseModel `bun:"table:scan_runs"`

	ID              int                    `bun:"id,pk,autoincrement" json:"id"`
	ScanID          string                 `bun:"scan_id,unique,notnull" json:"scan_id"`
	Query           string                 `bun:"query,notnull" json:"query"`
	DistinctSongs   int                    `bun:"distinct_songs,notnull,default:0" json:"distinct_songs"`
	DistinctLists   int                    `bun:"distinct_playlists,notnull,default:0" json:"distinct_playlists"`
	TotalListings   int                    `bun:"total_listings,notnull,default:0" json:"total_listings"`
	PlaylistsTotal  int                    `bun:"playlists_total,notnull,default:0" json:"playlists_total"`
	PlaylistsFailed int                    `bun:"playlists_failed,notnull,default:0" json:"playlists_failed"`
	Failures        map[string]interface{} `bun:"failures,type:jsonb" json:"failures"`
	StartedAt       time.Time              `bun:"started_at,notnull" json:"started_at"`
	FinishedAt      time.Time              `bun:"finished_at,notnull" json:"finished_at"`
	CreatedAt       time.Time              `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// NewScanRun строит запись истории по результату сканирования
func NewScanRun(r *ScanResult) *ScanRun {
	summary := r.Summary()
	failures := make(map[string]interface{}, len(r.Failures))
	for _, f := range r.Failures {
		failures[string(f.Ref.Provider)+":"+f.Ref.ID] = string(f.Reason)
	}

	return &ScanRun{
		ScanID:          r.ID,
		Query:           r.Query,
		DistinctSongs:   summary.DistinctSongs,
		DistinctLists:   summary.DistinctLists,
		TotalListings:   summary.TotalListings,
		PlaylistsTotal:  summary.PlaylistsTotal,
		PlaylistsFailed: summary.PlaylistsFailed,
		Failures:        failures,
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
	}
}

// Validate проверяет валидность записи
func (s *ScanRun) Validate() error {
	var errors ValidationErrors

	if err := ValidateRequired("scan_id", s.ScanID); err != nil {
		errors = append(errors, err.(ValidationError))
	}

	if s.StartedAt.IsZero() {
		errors = append(errors, ValidationError{Field: "started_at", Message: "is required"})
	}

	if len(errors) > 0 {
		return errors
	}

	return nil
}

// ScanRunRepository определяет интерфейс для работы с историей сканирований
type ScanRunRepository interface {
	Create(ctx context.Context, run *ScanRun) error
	GetByScanID(ctx context.Context, scanID string) (*ScanRun, error)
	GetRecent(ctx context.Context, limit int) ([]ScanRun, error)
}
