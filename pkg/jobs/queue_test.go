package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan string, 1)
	q := NewQueue("test", func(_ context.Context, job Job) error {
		done <- job.ID
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Type: "probe"}))

	select {
	case id := <-done:
		assert.Equal(t, "job-1", id)
	case <-time.After(time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueRetriesFailures(t *testing.T) {
	var attempts int32
	finished := make(chan struct{})
	q := NewQueue("retry", func(_ context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("flaky")
		}
		close(finished)
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-2"}))

	select {
	case <-finished:
		assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	case <-time.After(time.Second):
		t.Fatal("job never succeeded")
	}
}

func TestQueueRejectsWhenStopped(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.ErrorIs(t, q.Enqueue(Job{ID: "x"}), ErrNotRunning)

	q.Start(context.Background())
	q.Stop()
	assert.ErrorIs(t, q.Enqueue(Job{ID: "y"}), ErrNotRunning)
}

func TestQueueEveryEnqueuesImmediately(t *testing.T) {
	seen := make(chan struct{}, 4)
	q := NewQueue("ticker", func(context.Context, Job) error {
		seen <- struct{}{}
		return nil
	}, QueueConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)

	q.Every(ctx, time.Hour, func() Job { return Job{ID: "tick"} })

	select {
	case <-seen:
	case <-time.After(time.Second):
		t.Fatal("first tick not enqueued")
	}
	cancel()
	q.Stop()
}
