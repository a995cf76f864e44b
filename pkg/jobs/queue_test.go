package jobs

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

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	done := make(chan Job, 1)
	q := NewQueue("actions", func(_ context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("relayer busy")
		}
		done <- job
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: 5 * time.Millisecond, Logger: zap.NewNop()})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Type: "accept"}))

	select {
	case job := <-done:
		assert.Equal(t, "job-1", job.ID)
		assert.Equal(t, 2, job.Attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
}

func TestQueuePermanentFailureSkipsRetry(t *testing.T) {
	var (
		mu        sync.Mutex
		exhausted []string
		calls     int32
	)
	finished := make(chan struct{})
	q := NewQueue("actions", func(context.Context, Job) error {
		atomic.AddInt32(&calls, 1)
		return errors.Join(ErrPermanent, errors.New("escrow not pending"))
	}, QueueConfig{MaxRetries: 5, RetryDelay: time.Millisecond, OnExhausted: func(job Job, err error) {
		mu.Lock()
		exhausted = append(exhausted, job.ID)
		mu.Unlock()
		close(finished)
	}})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-2"}))
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("exhausted callback not invoked")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"job-2"}, exhausted)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("actions", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "job-3"}))
}
