package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWorkerPool(t *testing.T) {
	pool := NewWorkerPool(2, 10, zap.NewNop())
	pool.Start()

	var results sync.Map
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(1)
		jobID := i
		job := Job{
			Name: "test",
			Handler: func(_ context.Context) error {
				defer wg.Done()
				results.Store(jobID, true)
				return nil
			},
		}
		require.NoError(t, pool.Submit(job))
	}

	wg.Wait()
	pool.Stop()

	for i := 0; i < 5; i++ {
		_, ok := results.Load(i)
		assert.True(t, ok, "job %d was not processed", i)
	}
	assert.Equal(t, int64(5), pool.GetProcessedJobs())
	assert.Equal(t, int64(0), pool.GetFailedJobs())
}

func TestWorkerPoolWithErrors(t *testing.T) {
	pool := NewWorkerPool(1, 5, zap.NewNop())
	pool.Start()

	require.NoError(t, pool.Submit(Job{Name: "error_test", Handler: func(_ context.Context) error {
		return errors.New("test error")
	}}))
	require.NoError(t, pool.Submit(Job{Name: "panic_test", Handler: func(_ context.Context) error {
		panic("boom")
	}}))

	pool.Stop()

	assert.Equal(t, int64(2), pool.GetFailedJobs())
	assert.Equal(t, int64(0), pool.GetProcessedJobs())
}

func TestWorkerPoolQueueFull(t *testing.T) {
	pool := NewWorkerPool(1, 1, zap.NewNop())

	// воркеры не запущены, очередь вмещает одну задачу
	noop := Job{Handler: func(_ context.Context) error { return nil }}
	require.NoError(t, pool.Submit(noop))
	assert.ErrorIs(t, pool.Submit(noop), ErrQueueFull)

	pool.Start()
	pool.Stop()
	assert.ErrorIs(t, pool.Submit(noop), ErrPoolStopped)
}

func TestWorkerPoolSubmitWait(t *testing.T) {
	pool := NewWorkerPool(3, 0, zap.NewNop())
	pool.Start()

	var inFlight, maxInFlight int32
	var done int32
	for i := 0; i < 12; i++ {
		err := pool.SubmitWait(context.Background(), Job{Handler: func(_ context.Context) error {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				m := atomic.LoadInt32(&maxInFlight)
				if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			atomic.AddInt32(&done, 1)
			return nil
		}})
		require.NoError(t, err)
	}
	pool.Stop()

	assert.Equal(t, int32(12), atomic.LoadInt32(&done))
	assert.LessOrEqual(t, atomic.LoadInt32(&maxInFlight), int32(3))
}

func TestWorkerPoolSubmitWaitCancelled(t *testing.T) {
	pool := NewWorkerPool(1, 0, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// без запущенных воркеров задачу некому принять
	err := pool.SubmitWait(ctx, Job{Handler: func(_ context.Context) error { return nil }})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	pool.Start()
	pool.Stop()
}
