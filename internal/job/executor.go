package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tryonlabs/tryonkit/internal/provider"
)

// Executor drives any provider adapter through submit, the wait schedule,
// and a single terminal state. It is stateless across jobs and safe for
// concurrent use; each job blocks its own goroutine between polls.
type Executor struct {
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithSleep overrides the wait function, for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) ExecutorOption {
	return func(e *Executor) {
		e.sleep = sleep
	}
}

// NewExecutor creates an executor.
func NewExecutor(logger *slog.Logger, opts ...ExecutorOption) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Executor{
		logger: logger,
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// sleepCtx waits for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run executes the job to a terminal state: submit, then one poll per
// schedule entry until the adapter reports a terminal outcome or the
// schedule runs out. A caller-imposed context deadline aborts the loop early
// and surfaces TIMED_OUT, even though the remote job may keep running
// server-side. On success the returned Result carries the timing block.
func (e *Executor) Run(ctx context.Context, j *Job, adapter provider.Adapter, policy provider.PollPolicy) (*provider.Result, error) {
	log := e.logger.With(
		slog.String("job_id", j.ID),
		slog.String("model", j.Model),
		slog.String("provider", string(j.Provider)),
	)

	handle, err := adapter.Submit(ctx, j.Input)
	if err != nil {
		_ = j.fail(err)
		log.Error("submit rejected", slog.String("error", err.Error()))
		return nil, err
	}
	if err := j.markSubmitted(handle); err != nil {
		return nil, err
	}
	if err := j.transitionTo(StatusPolling); err != nil {
		return nil, err
	}
	log.Info("task submitted",
		slog.String("task_id", handle.TaskID),
		slog.Duration("deadline", policy.Deadline()),
	)

	for attempt, wait := range policy.Schedule {
		if err := e.sleep(ctx, wait); err != nil {
			timeoutErr := fmt.Errorf("%w: %v", provider.ErrTimedOut, err)
			_ = j.timeout(timeoutErr)
			log.Warn("poll loop aborted by context", slog.Int("attempt", attempt))
			return nil, timeoutErr
		}

		outcome, err := e.pollOnce(ctx, adapter, handle)
		if err != nil {
			if provider.IsTransient(err) {
				// A transport drop is tolerated within the interval;
				// the deadline is never reset.
				log.Warn("poll attempt failed",
					slog.Int("attempt", attempt),
					slog.String("error", err.Error()),
				)
				continue
			}
			// The provider answered and rejected the status check. Keeping
			// the schedule alive would only recycle the same rejection, so
			// the job fails with the error detail intact.
			_ = j.fail(err)
			log.Error("poll rejected", slog.Int("attempt", attempt), slog.String("error", err.Error()))
			return nil, err
		}

		switch outcome.State {
		case provider.StateRunning:
			log.Debug("task still running", slog.Int("attempt", attempt))

		case provider.StateFailed:
			_ = j.fail(outcome.Err)
			log.Error("task failed", slog.String("error", outcome.Err.Error()))
			return nil, outcome.Err

		case provider.StateSucceeded:
			res, perr := adapter.ParseResult(outcome.Raw)
			if perr != nil {
				_ = j.fail(perr)
				return nil, perr
			}
			completed := time.Now()
			res.Artifact = adapter.Artifact()
			res.Timing.SubmittedAt = j.SubmittedAt
			res.Timing.CompletedAt = completed
			if res.Timing.DurationSeconds == 0 {
				res.Timing.DurationSeconds = completed.Sub(j.SubmittedAt).Seconds()
			}
			if err := j.succeed(res); err != nil {
				return nil, err
			}
			log.Info("task succeeded",
				slog.Int("polls", attempt+1),
				slog.Float64("duration_seconds", res.Timing.DurationSeconds),
			)
			return res, nil
		}
	}

	timeoutErr := fmt.Errorf("%w: %s task %s after %s",
		provider.ErrTimedOut, j.Provider, handle.TaskID, policy.Deadline())
	_ = j.timeout(timeoutErr)
	log.Warn("poll schedule exhausted", slog.String("task_id", handle.TaskID))
	return nil, timeoutErr
}

// pollOnce issues one status check, retrying a single time on a transient
// transport failure. Provider-reported outcomes pass through untouched.
func (e *Executor) pollOnce(ctx context.Context, adapter provider.Adapter, handle provider.TaskHandle) (provider.PollOutcome, error) {
	outcome, err := adapter.Poll(ctx, handle)
	if err != nil && provider.IsTransient(err) && ctx.Err() == nil {
		outcome, err = adapter.Poll(ctx, handle)
	}
	return outcome, err
}
