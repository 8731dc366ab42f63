package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrNotRunning is returned when work is submitted outside Start/Stop.
var ErrNotRunning = errors.New("queue is not running")

// Job is one unit of background maintenance work.
type Job struct {
	ID       string
	Type     string
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// QueueConfig tunes a Queue. RetryDelay is the first backoff and doubles on every
// further attempt; JobTimeout bounds one attempt and is unbounded when zero.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	JobTimeout time.Duration
	Logger     *zap.Logger
}

// Stats counts job outcomes since the queue was built.
type Stats struct {
	Succeeded uint64
	Failed    uint64
	Retried   uint64
	Dropped   uint64
}

// Queue runs jobs on a fixed pool of goroutines. Retries happen on the worker
// that picked the job up, so a failing job never holds more than one slot.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	logger  *zap.Logger
	jobs    chan Job

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	succeeded atomic.Uint64
	failed    atomic.Uint64
	retried   atomic.Uint64
	dropped   atomic.Uint64
}

// NewQueue builds a stopped queue.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		logger:  logger.With(zap.String("queue", name)),
		jobs:    make(chan Job, cfg.BufferSize),
	}
}

// Name returns the queue name.
func (q *Queue) Name() string {
	return q.name
}

// Start launches the workers. Later calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ctx != nil {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.work(q.ctx)
	}
	q.logger.Info("queue started", zap.Int("workers", q.cfg.Workers), zap.Int("max_retries", q.cfg.MaxRetries))
}

// Stop cancels the workers and every schedule, then waits for them to return.
func (q *Queue) Stop() {
	q.mu.Lock()
	cancel := q.cancel
	q.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	q.wg.Wait()

	s := q.Stats()
	q.logger.Info("queue stopped",
		zap.Uint64("succeeded", s.Succeeded),
		zap.Uint64("failed", s.Failed),
		zap.Uint64("retried", s.Retried),
		zap.Uint64("dropped", s.Dropped),
	)
}

// Enqueue hands a job to the workers, blocking while the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	ctx := q.running()
	if ctx == nil {
		return fmt.Errorf("enqueue on %s: %w", q.name, ErrNotRunning)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue on %s: %w", q.name, ErrNotRunning)
	case q.jobs <- job:
		return nil
	}
}

// Every submits the job built by next on each tick until the queue stops.
// A tick that finds the buffer full is dropped and counted.
func (q *Queue) Every(interval time.Duration, next func(time.Time) Job) error {
	if interval <= 0 {
		return fmt.Errorf("schedule on %s: interval must be positive", q.name)
	}
	ctx := q.running()
	if ctx == nil {
		return fmt.Errorf("schedule on %s: %w", q.name, ErrNotRunning)
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case tick := <-ticker.C:
				job := next(tick)
				if job.Enqueued.IsZero() {
					job.Enqueued = tick.UTC()
				}
				select {
				case q.jobs <- job:
				default:
					q.dropped.Add(1)
					q.logger.Warn("scheduled job dropped, queue full", zap.String("type", job.Type))
				}
			}
		}
	}()
	return nil
}

// Stats returns a snapshot of the outcome counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Succeeded: q.succeeded.Load(),
		Failed:    q.failed.Load(),
		Retried:   q.retried.Load(),
		Dropped:   q.dropped.Load(),
	}
}

func (q *Queue) running() context.Context {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ctx
}

func (q *Queue) work(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.jobs:
			q.process(ctx, job)
		}
	}
}

func (q *Queue) process(ctx context.Context, job Job) {
	delay := q.cfg.RetryDelay
	for {
		err := q.attempt(ctx, job)
		if err == nil {
			q.succeeded.Add(1)
			return
		}
		if job.Attempt >= q.cfg.MaxRetries || ctx.Err() != nil {
			q.failed.Add(1)
			q.logger.Error("job failed", zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempts", job.Attempt+1), zap.Error(err))
			return
		}

		job.Attempt++
		q.retried.Add(1)
		q.logger.Warn("job failed, retrying", zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempt", job.Attempt), zap.Duration("backoff", delay), zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			q.failed.Add(1)
			return
		case <-timer.C:
		}
		delay *= 2
	}
}

func (q *Queue) attempt(ctx context.Context, job Job) error {
	if q.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.cfg.JobTimeout)
		defer cancel()
	}
	return q.handler(ctx, job)
}
