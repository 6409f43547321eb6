// Package cache содержит кэш результатов обогащения треков.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss ключ отсутствует или устарел
var ErrMiss = errors.New("cache miss")

// Cache хранилище байтовых значений с TTL
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Entry запись in-memory кэша
type Entry struct {
	Value     []byte
	ExpiresAt time.Time
}

func (e Entry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}
