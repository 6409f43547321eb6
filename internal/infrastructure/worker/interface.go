// Package worker содержит интерфейсы пула воркеров сканирования.
package worker

import (
	"context"
	"time"
)

// PoolInterface определяет интерфейс для пула воркеров
type PoolInterface interface {
	// Start запускает пул воркеров
	Start()

	// Stop останавливает пул и дожидается завершения текущих задач
	Stop()

	// Submit добавляет задачу в очередь без ожидания
	Submit(job Job) error

	// SubmitWait добавляет задачу, ожидая свободного места в очереди
	SubmitWait(ctx context.Context, job Job) error

	// GetMetrics возвращает снимок метрик
	GetMetrics() Metrics

	GetProcessedJobs() int64
	GetFailedJobs() int64
	GetProcessingTime() time.Duration
}
