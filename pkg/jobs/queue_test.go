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
	var handled int32
	done := make(chan struct{}, 3)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&handled, 1)
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 2})

	require.Error(t, q.Enqueue(Job{ID: "early"}))

	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "job", Type: "export_cleanup"}))
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("job not processed")
		}
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&handled))
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	attempts := make(chan int, 4)
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		attempts <- job.Attempt
		if job.Attempt < 2 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: 10 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "r1"}))

	seen := make([]int, 0, 3)
	for len(seen) < 3 {
		select {
		case a := <-attempts:
			seen = append(seen, a)
		case <-time.After(2 * time.Second):
			t.Fatalf("expected 3 attempts, got %v", seen)
		}
	}
	assert.Equal(t, []int{0, 1, 2}, seen)
}

func TestQueueEvery(t *testing.T) {
	ticks := make(chan Job, 8)
	q := NewQueue("sched", func(ctx context.Context, job Job) error {
		select {
		case ticks <- job:
		default:
		}
		return nil
	}, QueueConfig{})

	require.Error(t, q.Every(time.Millisecond, func(time.Time) Job { return Job{} }))

	q.Start(context.Background())
	require.Error(t, q.Every(0, func(time.Time) Job { return Job{} }))
	require.NoError(t, q.Every(5*time.Millisecond, func(tick time.Time) Job {
		return Job{ID: tick.Format(time.RFC3339Nano), Type: "export_cleanup"}
	}))

	select {
	case job := <-ticks:
		assert.Equal(t, "export_cleanup", job.Type)
		assert.False(t, job.Enqueued.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled job never ran")
	}
	q.Stop()
}

func TestQueueStatsCountOutcomes(t *testing.T) {
	finished := make(chan struct{}, 2)
	q := NewQueue("stats", func(ctx context.Context, job Job) error {
		defer func() { finished <- struct{}{} }()
		if job.ID == "bad" {
			return errors.New("permanent")
		}
		return nil
	}, QueueConfig{MaxRetries: 0})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "ok"}))
	require.NoError(t, q.Enqueue(Job{ID: "bad"}))
	for i := 0; i < 2; i++ {
		select {
		case <-finished:
		case <-time.After(2 * time.Second):
			t.Fatal("job not processed")
		}
	}
	q.Stop()

	stats := q.Stats()
	assert.Equal(t, uint64(1), stats.Succeeded)
	assert.Equal(t, uint64(1), stats.Failed)
	assert.Zero(t, stats.Retried)
	assert.ErrorIs(t, q.Enqueue(Job{ID: "late"}), ErrNotRunning)
}

func TestQueueJobTimeout(t *testing.T) {
	errs := make(chan error, 1)
	q := NewQueue("slow", func(ctx context.Context, job Job) error {
		<-ctx.Done()
		errs <- ctx.Err()
		return ctx.Err()
	}, QueueConfig{JobTimeout: 20 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "slow"}))
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("attempt was not bounded")
	}
}
