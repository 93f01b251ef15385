package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/stwalsh4118/laundry/api/internal/logger"
	"github.com/stwalsh4118/laundry/api/internal/metrics"
)

// Queue defaults.
const (
	DefaultTimeout     = 20 * time.Minute
	DefaultMaxAttempts = 3
)

var (
	// ErrQueueFull is returned by Enqueue when the buffer is at capacity.
	ErrQueueFull = errors.New("job queue is full")

	// ErrQueueClosed is returned by Enqueue after Stop.
	ErrQueueClosed = errors.New("job queue is closed")

	// ErrSkipped is returned by a job that decided not to run. It is not retried.
	ErrSkipped = errors.New("job skipped")
)

// Job is a unit of background work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type envelope struct {
	job Job
	id  string
}

// Queue runs jobs one at a time on a single worker. Each attempt gets its own
// timeout and failed attempts are retried with exponential backoff.
type Queue struct {
	ch          chan envelope
	done        chan struct{}
	newBackOff  func() backoff.BackOff
	metrics     *metrics.ImportMetrics
	log         *logger.Logger
	timeout     time.Duration
	maxAttempts uint
	mu          sync.RWMutex
	closed      bool
	started     bool
}

// Option configures a Queue.
type Option func(*Queue)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(q *Queue) { q.timeout = d }
}

// WithMaxAttempts sets how many times a failing job runs in total.
func WithMaxAttempts(n uint) Option {
	return func(q *Queue) { q.maxAttempts = n }
}

// WithBackOff sets the retry schedule factory.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(q *Queue) { q.newBackOff = fn }
}

// NewQueue creates a queue buffering up to size jobs.
func NewQueue(size int, m *metrics.ImportMetrics, log *logger.Logger, opts ...Option) *Queue {
	if size < 1 {
		size = 1
	}
	q := &Queue{
		ch:          make(chan envelope, size),
		done:        make(chan struct{}),
		metrics:     m,
		log:         log.WithComponent("jobs"),
		timeout:     DefaultTimeout,
		maxAttempts: DefaultMaxAttempts,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 5 * time.Second
			b.MaxInterval = time.Minute
			return b
		},
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Start launches the worker. ctx bounds every job; cancelling it abandons
// the running job and any retries.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true

	go func() {
		defer close(q.done)
		for env := range q.ch {
			q.execute(ctx, env)
		}
	}()
	q.log.Info("Job worker started", logger.Fields{"capacity": cap(q.ch)})
}

// Enqueue schedules job and returns its id without waiting for it to run.
func (q *Queue) Enqueue(job Job) (string, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return "", ErrQueueClosed
	}

	env := envelope{id: uuid.NewString(), job: job}
	select {
	case q.ch <- env:
		q.log.Info("Job enqueued", logger.Fields{"job": job.Name(), "job_id": env.id})
		return env.id, nil
	default:
		return "", ErrQueueFull
	}
}

// Stop refuses new jobs and waits for queued ones to finish, or for ctx.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	started := q.started
	q.mu.Unlock()

	if !started {
		return nil
	}
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for jobs to drain: %w", ctx.Err())
	}
}

func (q *Queue) execute(ctx context.Context, env envelope) {
	fields := logger.Fields{"job": env.job.Name(), "job_id": env.id}
	start := time.Now()
	attempt := 0

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, q.timeout)
		defer cancel()

		err := q.runSafely(attemptCtx, env.job)
		if errors.Is(err, ErrSkipped) {
			return struct{}{}, backoff.Permanent(err)
		}
		if err != nil {
			q.log.Warn("Job attempt failed", logger.Fields{
				"job":     env.job.Name(),
				"job_id":  env.id,
				"attempt": attempt,
				"error":   err.Error(),
			})
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(q.newBackOff()),
		backoff.WithMaxTries(q.maxAttempts),
		backoff.WithMaxElapsedTime(q.timeout*time.Duration(q.maxAttempts)+time.Hour),
	)

	fields["attempts"] = attempt
	fields["duration_ms"] = time.Since(start).Milliseconds()

	switch {
	case err == nil:
		q.metrics.IncJob(env.job.Name(), metrics.StatusSuccess)
		q.log.Info("Job finished", fields)
	case errors.Is(err, ErrSkipped):
		q.metrics.IncJob(env.job.Name(), metrics.StatusSkipped)
		q.log.Info("Job skipped", fields)
	default:
		q.metrics.IncJob(env.job.Name(), metrics.StatusFailure)
		q.log.Error("Job failed", err, fields)
	}
}

// runSafely turns a panic in job into an error so the worker survives.
func (q *Queue) runSafely(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job.Run(ctx)
}
