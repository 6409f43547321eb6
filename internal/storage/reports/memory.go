package reports

import (
	"context"
	"fmt"
	"sync"
	"time"

	"playlistscanner/internal/model"
)

type memoryItem struct {
	data      []byte
	expiresAt time.Time
	storedAt  time.Time
}

// Memory хранит отчеты в памяти процесса с TTL и ограничением количества
type Memory struct {
	mu       sync.Mutex
	items    map[string]memoryItem
	ttl      time.Duration
	maxItems int
	now      func() time.Time
}

// NewMemory создает хранилище. ttl <= 0 отключает устаревание.
func NewMemory(ttl time.Duration, maxItems int) *Memory {
	if maxItems <= 0 {
		maxItems = 50
	}
	return &Memory{
		items:    make(map[string]memoryItem),
		ttl:      ttl,
		maxItems: maxItems,
		now:      time.Now,
	}
}

// Save сохраняет отчет, вытесняя самые старые при переполнении
func (m *Memory) Save(_ context.Context, scanID string, pdf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.evictExpired(now)

	if _, exists := m.items[scanID]; !exists {
		for len(m.items) >= m.maxItems {
			m.evictOldest()
		}
	}

	item := memoryItem{data: pdf, storedAt: now}
	if m.ttl > 0 {
		item.expiresAt = now.Add(m.ttl)
	}
	m.items[scanID] = item
	return nil
}

// Load возвращает отчет
func (m *Memory) Load(_ context.Context, scanID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[scanID]
	if !ok {
		return nil, fmt.Errorf("scan %s: %w", scanID, model.ErrReportNotFound)
	}
	if !item.expiresAt.IsZero() && m.now().After(item.expiresAt) {
		delete(m.items, scanID)
		return nil, fmt.Errorf("scan %s: %w", scanID, model.ErrReportNotFound)
	}
	return item.data, nil
}

// Len возвращает число хранимых отчетов
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory) evictExpired(now time.Time) {
	for id, item := range m.items {
		if !item.expiresAt.IsZero() && now.After(item.expiresAt) {
			delete(m.items, id)
		}
	}
}

func (m *Memory) evictOldest() {
	var oldestID string
	var oldest time.Time
	for id, item := range m.items {
		if oldestID == "" || item.storedAt.Before(oldest) {
			oldestID, oldest = id, item.storedAt
		}
	}
	delete(m.items, oldestID)
}
