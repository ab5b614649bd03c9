package core

import (
	"context"
	"errors"
)

// ErrReviewInProgress is returned by Dispatch when a run is already active
// for the same PR reference. Triggers coalesce to the existing run instead
// of queueing a second one.
var ErrReviewInProgress = errors.New("a review is already in progress for this pull request")

// RunResult is the terminal state of one review run.
type RunResult string

const (
	RunSucceeded RunResult = "succeeded" // every eligible file analyzed
	RunPartial   RunResult = "partial"   // completed, but some files failed or were skipped
	RunFailed    RunResult = "failed"    // aborted before anything was persisted
)

// RunOutcome summarizes a completed run for callers that await it.
type RunOutcome struct {
	Result        RunResult
	FilesReviewed int
	FilesSkipped  int
	Suggestions   int
	Err           error
}

// RunHandle lets a caller observe a dispatched run. Webhook-sourced triggers
// discard the handle; manual triggers may block on Wait.
type RunHandle struct {
	done    chan struct{}
	outcome RunOutcome
}

// NewRunHandle returns an unresolved handle.
func NewRunHandle() *RunHandle {
	return &RunHandle{done: make(chan struct{})}
}

// Resolve records the outcome and releases all waiters. It must be called
// exactly once.
func (h *RunHandle) Resolve(outcome RunOutcome) {
	h.outcome = outcome
	close(h.done)
}

// Wait blocks until the run resolves or ctx is cancelled.
func (h *RunHandle) Wait(ctx context.Context) (RunOutcome, error) {
	select {
	case <-h.done:
		return h.outcome, nil
	case <-ctx.Done():
		return RunOutcome{}, ctx.Err()
	}
}

// JobDispatcher defines the contract for a system that can accept and queue
// background review runs. This interface decouples the event source (a
// webhook handler or an admin endpoint) from the job execution mechanism.
type JobDispatcher interface {
	// Dispatch claims the event's PR reference and queues a run, returning a
	// handle the caller may wait on. It returns ErrReviewInProgress when a
	// run is already active for the same reference, and an error if the
	// queue is full, providing a mechanism for backpressure.
	Dispatch(ctx context.Context, event *ReviewEvent) (*RunHandle, error)
}

// Job represents a single, executable unit of work processed by the
// dispatcher. The dispatcher guarantees the PR claim is held for the
// duration of Run.
type Job interface {
	Run(ctx context.Context, event *ReviewEvent) (RunOutcome, error)
}
