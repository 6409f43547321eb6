package metrics

import (
	"time"

	"playlistscanner/internal/model"
)

// Interface определяет интерфейс для системы метрик
type Interface interface {
	// RecordScan записывает завершенное сканирование
	RecordScan(summary model.ScanSummary, duration time.Duration)

	// RecordPlaylistFailure записывает пропущенный плейлист
	RecordPlaylistFailure(reason model.FailureReason)

	// RecordReport записывает построенный отчет
	RecordReport(size int, duration time.Duration)

	// RecordCacheHit записывает попадание в кэш обогащения
	RecordCacheHit()

	// RecordCacheMiss записывает промах кэша обогащения
	RecordCacheMiss()

	// RecordError записывает ошибку обработки запроса
	RecordError()

	// GetStats возвращает все метрики в виде map
	GetStats() map[string]interface{}
}
