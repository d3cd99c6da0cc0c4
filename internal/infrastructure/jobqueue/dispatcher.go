package jobqueue

import (
	"context"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"

	"github.com/fortifiedfantasy/fein-engine/internal/platform/id"
	"github.com/fortifiedfantasy/fein-engine/internal/platform/logging"
)

var (
	// ErrClosed rejects dispatches after Close.
	ErrClosed = crerr.New("dispatcher is closed")
	// ErrSaturated rejects dispatches while every worker is busy.
	// Callers surface it as a retryable condition.
	ErrSaturated = crerr.New("dispatcher is saturated")
)

type DispatcherConfig struct {
	// Workers bounds how many jobs run at once. Submissions beyond the
	// bound fail fast instead of blocking the caller.
	Workers int
	// JobTimeout is the deadline applied to each job's detached context.
	JobTimeout time.Duration
}

// Dispatcher runs named jobs on a bounded worker pool inside this
// process. Jobs outlive the request that queued them: the run callback
// gets a context detached from the caller's cancellation, carrying only
// its values and a fresh deadline.
type Dispatcher struct {
	pool       *ants.Pool
	ids        id.Generator
	jobTimeout time.Duration
	logger     *logging.Logger
}

func NewDispatcher(cfg DispatcherConfig, ids id.Generator, logger *logging.Logger) (*Dispatcher, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	jobTimeout := cfg.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = 10 * time.Minute
	}
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, crerr.Wrap(err, "create worker pool")
	}

	return &Dispatcher{
		pool:       pool,
		ids:        ids,
		jobTimeout: jobTimeout,
		logger:     logger,
	}, nil
}

// Dispatch queues one job and returns its id. The job may begin before
// Dispatch returns.
func (d *Dispatcher) Dispatch(ctx context.Context, job string, run func(ctx context.Context)) (string, error) {
	job = strings.TrimSpace(job)
	if job == "" {
		return "", crerr.New("job name is required")
	}
	if run == nil {
		return "", crerr.New("job callback is required")
	}
	if d.pool.IsClosed() {
		return "", ErrClosed
	}

	jobID, err := d.ids.NewID()
	if err != nil {
		return "", crerr.Wrap(err, "mint job id")
	}

	// Keep trace baggage and auth values, drop the request's deadline.
	detached := context.WithoutCancel(ctx)

	submitErr := d.pool.Submit(func() {
		jobCtx, cancel := context.WithTimeout(detached, d.jobTimeout)
		defer cancel()

		started := time.Now()
		defer func() {
			if r := recover(); r != nil {
				d.logger.ErrorContext(jobCtx, "job panicked", "job", job, "job_id", jobID, "panic", r)
			}
		}()

		d.logger.InfoContext(jobCtx, "job started", "job", job, "job_id", jobID)
		run(jobCtx)
		d.logger.InfoContext(jobCtx, "job finished", "job", job, "job_id", jobID, "duration_ms", time.Since(started).Milliseconds())
	})
	if submitErr != nil {
		if crerr.Is(submitErr, ants.ErrPoolOverload) {
			d.logger.WarnContext(ctx, "job rejected, all workers busy", "job", job, "workers", d.pool.Cap())
			return "", ErrSaturated
		}
		return "", crerr.Wrap(submitErr, "submit job")
	}

	return jobID, nil
}

// Close stops accepting jobs and waits for running ones to finish.
func (d *Dispatcher) Close() {
	if d.pool != nil {
		_ = d.pool.ReleaseTimeout(30 * time.Second)
	}
}
