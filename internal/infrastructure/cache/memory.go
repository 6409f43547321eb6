package cache

import (
	"context"
	"sync"
	"time"
)

// Memory in-memory кэш процесса
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
	maxSize int
	now     func() time.Time
}

var _ Cache = (*Memory)(nil)

// NewMemory создает in-memory кэш. maxSize <= 0 снимает ограничение размера.
func NewMemory(maxSize int) *Memory {
	return &Memory{
		entries: make(map[string]Entry),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get возвращает значение или ErrMiss
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrMiss
	}
	if entry.expired(m.now()) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, ErrMiss
	}
	return entry.Value, nil
}

// Set сохраняет значение. ttl <= 0 означает бессрочное хранение.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxSize > 0 && len(m.entries) >= m.maxSize {
		if _, exists := m.entries[key]; !exists {
			m.evictLocked()
		}
	}

	entry := Entry{Value: value}
	if ttl > 0 {
		entry.ExpiresAt = m.now().Add(ttl)
	}
	m.entries[key] = entry
	return nil
}

// Len возвращает число записей, включая устаревшие
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close очищает кэш
func (m *Memory) Close() error {
	m.mu.Lock()
	m.entries = make(map[string]Entry)
	m.mu.Unlock()
	return nil
}

// evictLocked удаляет устаревшие записи, а если таких нет, запись с ближайшим истечением
func (m *Memory) evictLocked() {
	now := m.now()
	removed := false
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
			removed = true
		}
	}
	if removed {
		return
	}

	var oldestKey string
	var oldest time.Time
	for k, e := range m.entries {
		if oldestKey == "" || (!e.ExpiresAt.IsZero() && (oldest.IsZero() || e.ExpiresAt.Before(oldest))) {
			oldestKey, oldest = k, e.ExpiresAt
		}
	}
	delete(m.entries, oldestKey)
}
