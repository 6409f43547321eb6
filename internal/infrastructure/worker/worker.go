// Package worker реализует ограниченный пул воркеров для параллельной обработки плейлистов.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pool пул воркеров
type Pool struct {
	workers  int
	jobQueue chan Job
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	logger   *zap.Logger
	metrics  *Metrics
	stopOnce sync.Once
	stopped  bool
	mu       sync.RWMutex
}

// Убеждаемся, что Pool реализует PoolInterface
var _ PoolInterface = (*Pool)(nil)

// Job задача для пула
type Job struct {
	ID      string
	Name    string
	Handler func(ctx context.Context) error
}

// Metrics метрики воркер пула
type Metrics struct {
	mu             sync.RWMutex
	processedJobs  int64
	failedJobs     int64
	processingTime time.Duration
	queueSize      int
}

// Ошибки пула
var (
	ErrQueueFull   = errors.New("job queue is full")
	ErrPoolStopped = errors.New("worker pool is stopped")
)

// NewWorkerPool создает новый пул воркеров
func NewWorkerPool(workers int, queueSize int, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers:  workers,
		jobQueue: make(chan Job, queueSize),
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
		metrics:  &Metrics{},
	}
}

// Start запускает пул воркеров
func (wp *Pool) Start() {
	wp.logger.Debug("Starting worker pool", zap.Int("workers", wp.workers))

	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop закрывает очередь и ждет, пока воркеры доработают уже принятые задачи
func (wp *Pool) Stop() {
	wp.stopOnce.Do(func() {
		wp.mu.Lock()
		wp.stopped = true
		close(wp.jobQueue)
		wp.mu.Unlock()
	})

	wp.wg.Wait()
	wp.cancel()
	wp.logger.Debug("Worker pool stopped")
}

// Submit добавляет задачу в очередь
func (wp *Pool) Submit(job Job) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.stopped {
		return ErrPoolStopped
	}

	select {
	case wp.jobQueue <- job:
		wp.updateQueueSize()
		return nil
	default:
		return ErrQueueFull
	}
}

// SubmitWait блокируется, пока задача не будет принята или не отменится ctx
func (wp *Pool) SubmitWait(ctx context.Context, job Job) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.stopped {
		return ErrPoolStopped
	}

	select {
	case wp.jobQueue <- job:
		wp.updateQueueSize()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (wp *Pool) updateQueueSize() {
	wp.metrics.mu.Lock()
	wp.metrics.queueSize = len(wp.jobQueue)
	wp.metrics.mu.Unlock()
}

// worker основной цикл воркера
func (wp *Pool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		wp.processJob(job, id)
	}
	wp.logger.Debug("Worker stopping", zap.Int("worker_id", id))
}

// processJob выполняет задачу и обновляет метрики
func (wp *Pool) processJob(job Job, workerID int) {
	startTime := time.Now()
	err := wp.runHandler(job)
	elapsed := time.Since(startTime)

	wp.metrics.mu.Lock()
	if err != nil {
		wp.metrics.failedJobs++
	} else {
		wp.metrics.processedJobs++
	}
	wp.metrics.processingTime += elapsed
	wp.metrics.mu.Unlock()

	if err != nil {
		wp.logger.Debug("Job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID),
			zap.String("job", job.Name),
			zap.Error(err))
		return
	}
	wp.logger.Debug("Job processed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID),
		zap.Duration("duration", elapsed))
}

// runHandler изолирует панику задачи, чтобы не терять воркер
func (wp *Pool) runHandler(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error("Job panicked", zap.String("job", job.Name), zap.Any("panic", r))
			err = errors.New("job panicked")
		}
	}()
	return job.Handler(wp.ctx)
}

// GetMetrics возвращает текущие метрики
func (wp *Pool) GetMetrics() Metrics {
	wp.metrics.mu.RLock()
	defer wp.metrics.mu.RUnlock()

	return Metrics{
		processedJobs:  wp.metrics.processedJobs,
		failedJobs:     wp.metrics.failedJobs,
		processingTime: wp.metrics.processingTime,
		queueSize:      wp.metrics.queueSize,
	}
}

// GetProcessedJobs возвращает количество успешно обработанных задач
func (wp *Pool) GetProcessedJobs() int64 {
	wp.metrics.mu.RLock()
	defer wp.metrics.mu.RUnlock()
	return wp.metrics.processedJobs
}

// GetFailedJobs возвращает количество неудачных задач
func (wp *Pool) GetFailedJobs() int64 {
	wp.metrics.mu.RLock()
	defer wp.metrics.mu.RUnlock()
	return wp.metrics.failedJobs
}

// GetProcessingTime возвращает общее время обработки
func (wp *Pool) GetProcessingTime() time.Duration {
	wp.metrics.mu.RLock()
	defer wp.metrics.mu.RUnlock()
	return wp.metrics.processingTime
}
