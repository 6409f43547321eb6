package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
)

// StatsRecorder принимает статистику попаданий
type StatsRecorder interface {
	RecordCacheHit()
	RecordCacheMiss()
}

// Typed обертка над Cache, хранящая значения в JSON
type Typed[T any] struct {
	backend Cache
	ttl     time.Duration
	logger  *zap.Logger
	stats   StatsRecorder
}

// NewTyped создает типизированный кэш
func NewTyped[T any](backend Cache, ttl time.Duration, logger *zap.Logger) *Typed[T] {
	return &Typed[T]{backend: backend, ttl: ttl, logger: logger}
}

// WithStats подключает учет попаданий
func (t *Typed[T]) WithStats(stats StatsRecorder) *Typed[T] {
	t.stats = stats
	return t
}

func (t *Typed[T]) record(hit bool) {
	switch {
	case t.stats == nil:
	case hit:
		t.stats.RecordCacheHit()
	default:
		t.stats.RecordCacheMiss()
	}
}

// Get достает значение. Ошибки бэкенда считаются промахом.
func (t *Typed[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	if t == nil || t.backend == nil {
		return zero, false
	}

	raw, err := t.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			t.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		t.record(false)
		return zero, false
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.logger.Warn("Cache entry is malformed", zap.String("key", key), zap.Error(err))
		t.record(false)
		return zero, false
	}
	t.record(true)
	return v, true
}

// Set сохраняет значение, ошибки только логируются
func (t *Typed[T]) Set(ctx context.Context, key string, v T) {
	if t == nil || t.backend == nil {
		return
	}

	raw, err := json.Marshal(v)
	if err != nil {
		t.logger.Warn("Failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := t.backend.Set(ctx, key, raw, t.ttl); err != nil {
		t.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}
