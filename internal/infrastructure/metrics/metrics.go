// Package metrics реализует счетчики сканирований для /metrics.
package metrics

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"playlistscanner/internal/model"
)

// Metrics представляет систему метрик сканера
type Metrics struct {
	mu sync.RWMutex

	// Сканирования
	totalScans      int64
	emptyScans      int64
	totalListings   int64
	avgScanDuration time.Duration
	lastScan        time.Time

	// Плейлисты
	failures map[model.FailureReason]int64

	// Отчеты
	reports       int64
	reportBytes   int64
	avgReportTime time.Duration

	// Кэш обогащения
	cacheHitRate float64
	cacheMisses  int64
	cacheHits    int64

	errorCount int64
	uptime     time.Time

	logger *zap.Logger
}

var _ Interface = (*Metrics)(nil)

// NewMetrics создает новую систему метрик
func NewMetrics(logger *zap.Logger) *Metrics {
	return &Metrics{
		failures: make(map[model.FailureReason]int64),
		uptime:   time.Now(),
		logger:   logger,
	}
}

// RecordScan записывает завершенное сканирование
func (m *Metrics) RecordScan(summary model.ScanSummary, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalScans++
	if !summary.Found {
		m.emptyScans++
	}
	m.totalListings += int64(summary.TotalListings)
	m.avgScanDuration = movingAverage(m.avgScanDuration, duration)
	m.lastScan = time.Now()
}

// RecordPlaylistFailure записывает пропущенный плейлист
func (m *Metrics) RecordPlaylistFailure(reason model.FailureReason) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failures[reason]++
}

// RecordReport записывает построенный отчет
func (m *Metrics) RecordReport(size int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reports++
	m.reportBytes += int64(size)
	m.avgReportTime = movingAverage(m.avgReportTime, duration)
}

// RecordCacheHit записывает попадание в кэш
func (m *Metrics) RecordCacheHit() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cacheHits++
	m.updateCacheHitRate()
}

// RecordCacheMiss записывает промах кэша
func (m *Metrics) RecordCacheMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cacheMisses++
	m.updateCacheHitRate()
}

// RecordError записывает ошибку
func (m *Metrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errorCount++
}

// GetStats возвращает все метрики в виде map
func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	failures := make(map[string]int64, len(m.failures))
	for reason, n := range m.failures {
		failures[string(reason)] = n
	}

	return map[string]interface{}{
		"scans": map[string]interface{}{
			"total_scans":       m.totalScans,
			"empty_scans":       m.emptyScans,
			"total_listings":    m.totalListings,
			"avg_scan_duration": m.formatDuration(m.avgScanDuration),
			"last_scan":         m.formatTime(m.lastScan),
		},
		"playlist_failures": failures,
		"reports": map[string]interface{}{
			"rendered":        m.reports,
			"total_bytes":     m.reportBytes,
			"avg_render_time": m.formatDuration(m.avgReportTime),
		},
		"enrich_cache": map[string]interface{}{
			"cache_hit_rate": m.cacheHitRate,
			"cache_hits":     m.cacheHits,
			"cache_misses":   m.cacheMisses,
		},
		"system": map[string]interface{}{
			"uptime":      m.formatDuration(time.Since(m.uptime)),
			"error_count": m.errorCount,
		},
	}
}

// movingAverage простое скользящее среднее
func movingAverage(avg, d time.Duration) time.Duration {
	if avg == 0 {
		return d
	}
	return (avg + d) / 2
}

// updateCacheHitRate обновляет процент попаданий в кэш
func (m *Metrics) updateCacheHitRate() {
	total := m.cacheHits + m.cacheMisses
	if total > 0 {
		m.cacheHitRate = float64(m.cacheHits) / float64(total) * 100
	}
}

// formatTime форматирует время или возвращает "never"
func (m *Metrics) formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("02.01.06 15:04")
}

// formatDuration форматирует duration с двумя знаками после запятой
func (m *Metrics) formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}
