// Package job provides the Job lifecycle for one inference request and the
// executor that drives any provider adapter through submit, repeated poll,
// and a single terminal state. Callers own persistence; the package keeps no
// long-lived job store.
package job

import (
	"errors"
	"time"

	"github.com/tryonlabs/tryonkit/internal/job/id"
	"github.com/tryonlabs/tryonkit/internal/provider"
)

// Status represents the current state of a Job. Statuses advance
// monotonically and exactly one terminal state is reached.
type Status string

const (
	// StatusPending indicates the job has not been submitted yet.
	StatusPending Status = "PENDING"
	// StatusSubmitted indicates the provider accepted the creation call.
	StatusSubmitted Status = "SUBMITTED"
	// StatusPolling indicates the job is waiting on repeated status checks.
	StatusPolling Status = "POLLING"
	// StatusSucceeded indicates the provider reported a successful result.
	StatusSucceeded Status = "SUCCEEDED"
	// StatusFailed indicates submission was rejected or the provider
	// reported a definitive failure.
	StatusFailed Status = "FAILED"
	// StatusTimedOut indicates the poll schedule was exhausted with the
	// remote outcome still unknown.
	StatusTimedOut Status = "TIMED_OUT"
)

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusTimedOut:
		return true
	default:
		return false
	}
}

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed. Submit
// failures jump straight from PENDING to FAILED; they are not retried since
// they indicate a rejected request, not transient unavailability.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusSubmitted, StatusFailed},
	StatusSubmitted: {StatusPolling, StatusFailed, StatusTimedOut},
	StatusPolling:   {StatusSucceeded, StatusFailed, StatusTimedOut},
	StatusSucceeded: {},
	StatusFailed:    {},
	StatusTimedOut:  {},
}

func canTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Job tracks one inference request from creation to a terminal outcome.
// Output and Err are mutually exclusive and each set exactly once, on the
// terminal transition. A Job is mutated only by the executor; workers never
// share one Job's mutable state.
type Job struct {
	// ID is the locally generated request identifier.
	ID string
	// Model is the public model identifier the caller asked for.
	Model string
	// Provider is the backend that handled the job.
	Provider provider.ID
	// Task is the provider-assigned handle, set after submit.
	Task provider.TaskHandle
	// Status is the current lifecycle state.
	Status Status
	// Input is the validated submission input.
	Input provider.SubmitInput

	// Output is populated only on SUCCEEDED.
	Output *provider.Result
	// Err is populated only on FAILED or TIMED_OUT.
	Err error

	CreatedAt   time.Time
	SubmittedAt time.Time
	TerminalAt  time.Time
}

// New creates a Job in PENDING state with a generated request id.
func New(model string, p provider.ID, input provider.SubmitInput) *Job {
	return &Job{
		ID:        id.Generate(),
		Model:     model,
		Provider:  p,
		Status:    StatusPending,
		Input:     input,
		CreatedAt: time.Now(),
	}
}

// transitionTo advances the status, stamping timestamps on the way.
func (j *Job) transitionTo(status Status) error {
	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}
	j.Status = status
	switch {
	case status == StatusSubmitted:
		j.SubmittedAt = time.Now()
	case status.IsTerminal():
		j.TerminalAt = time.Now()
	}
	return nil
}

// markSubmitted records the provider task handle and enters SUBMITTED.
func (j *Job) markSubmitted(handle provider.TaskHandle) error {
	if err := j.transitionTo(StatusSubmitted); err != nil {
		return err
	}
	j.Task = handle
	return nil
}

// succeed records the result and enters SUCCEEDED.
func (j *Job) succeed(res *provider.Result) error {
	if err := j.transitionTo(StatusSucceeded); err != nil {
		return err
	}
	j.Output = res
	return nil
}

// fail records the error and enters FAILED.
func (j *Job) fail(err error) error {
	if terr := j.transitionTo(StatusFailed); terr != nil {
		return terr
	}
	j.Err = err
	return nil
}

// timeout records the deadline error and enters TIMED_OUT.
func (j *Job) timeout(err error) error {
	if terr := j.transitionTo(StatusTimedOut); terr != nil {
		return terr
	}
	j.Err = err
	return nil
}
