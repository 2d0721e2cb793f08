// Package jobs runs fire-and-forget background work: tasks submitted here
// execute on their own goroutine, detached from the request context, with a
// per-job timeout, bounded retries, and panic recovery. The runner is
// drained during shutdown so in-flight enrichment finishes before the
// process exits.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

// Task is a unit of background work. The context carries the per-job
// deadline; a task that ignores it can hold up shutdown.
type Task func(ctx context.Context) error

// Runner executes submitted tasks in the background.
type Runner struct {
	log        *slog.Logger
	timeout    time.Duration
	maxRetries uint64
	wg         sync.WaitGroup
}

// NewRunner constructs a Runner. timeout bounds a single attempt;
// maxRetries bounds attempts after the first.
func NewRunner(log *slog.Logger, timeout time.Duration, maxRetries uint64) *Runner {
	return &Runner{log: log, timeout: timeout, maxRetries: maxRetries}
}

// Submit schedules fn to run on a new goroutine and returns immediately.
// Failures are retried with exponential backoff up to the configured limit,
// then logged; nothing is reported back to the caller. name is only used
// for logging.
func (r *Runner) Submit(name string, fn Task) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				r.log.Error("background job panicked",
					slog.String("job", name),
					slog.Any("panic", p),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()

		start := time.Now()
		backoff := retry.WithMaxRetries(r.maxRetries, retry.NewExponential(500*time.Millisecond))

		err := retry.Do(context.Background(), backoff, func(ctx context.Context) error {
			attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()
			if err := fn(attemptCtx); err != nil {
				return retry.RetryableError(err)
			}
			return nil
		})
		if err != nil {
			r.log.Error("background job failed",
				slog.String("job", name),
				slog.Duration("elapsed", time.Since(start)),
				slog.String("error", err.Error()),
			)
			return
		}
		r.log.Debug("background job done",
			slog.String("job", name),
			slog.Duration("elapsed", time.Since(start)),
		)
	}()
}

// Wait blocks until every submitted task has finished or ctx expires.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("jobs.Runner.Wait: %w", ctx.Err())
	}
}
