package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/manoj645/pr-review-agent/internal/core"
	"github.com/manoj645/pr-review-agent/internal/metrics"
)

// queuedRun pairs an event with the handle its dispatcher returned.
type queuedRun struct {
	event  *core.ReviewEvent
	handle *core.RunHandle
}

// Dispatcher implements core.JobDispatcher with a pool of worker goroutines
// processing review runs. The claim for a PR reference is taken at dispatch
// time, before the run is queued, and released by the worker on every
// terminal path, so admission control happens while the webhook handler is
// still on the request path.
type Dispatcher struct {
	reviewJob  core.Job
	claims     *ClaimTable
	jobQueue   chan queuedRun
	maxWorkers int
	wg         sync.WaitGroup
	logger     *slog.Logger

	// stopMu serializes enqueueing against Stop closing the queue, so a
	// late Dispatch gets an error instead of a send on a closed channel.
	stopMu  sync.Mutex
	stopped bool
}

// NewDispatcher initializes a dispatcher with a worker pool.
// If maxWorkers is 0 or negative, it defaults to 1.
func NewDispatcher(reviewJob core.Job, maxWorkers int, logger *slog.Logger) *Dispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	d := &Dispatcher{
		reviewJob:  reviewJob,
		claims:     NewClaimTable(),
		maxWorkers: maxWorkers,
		jobQueue:   make(chan queuedRun, 100),
		logger:     logger,
	}
	d.startWorkers()
	return d
}

// startWorkers launches maxWorkers goroutines to process runs from the queue.
func (d *Dispatcher) startWorkers() {
	for i := range d.maxWorkers {
		d.wg.Add(1)
		go d.startWorker(i)
	}
}

// startWorker processes runs from the queue until it's closed.
func (d *Dispatcher) startWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Info("starting review worker", "id", workerID)

	for run := range d.jobQueue {
		d.processRun(workerID, run)
	}

	d.logger.Info("shutting down review worker", "id", workerID)
}

// processRun executes one review run, releases the claim, and resolves the
// caller's handle.
func (d *Dispatcher) processRun(workerID int, run queuedRun) {
	ref := run.event.Ref()
	d.logger.Info("worker processing review run", "worker_id", workerID, "pr", ref)

	start := time.Now()
	outcome, err := d.reviewJob.Run(context.Background(), run.event)
	if err != nil {
		d.logger.Error("review run failed", "pr", ref, "error", err)
		outcome.Result = core.RunFailed
		outcome.Err = err
	}

	// release before resolving so a waiter that immediately re-triggers is
	// admitted rather than coalesced
	d.claims.Release(ref)

	metrics.ReviewRuns.WithLabelValues(string(outcome.Result)).Inc()
	metrics.RunDuration.WithLabelValues(string(outcome.Result)).Observe(time.Since(start).Seconds())
	run.handle.Resolve(outcome)
}

// Dispatch claims the event's PR reference and queues a run. A second
// trigger arriving while a run is active gets core.ErrReviewInProgress and
// coalesces to the existing run; a full queue surfaces as backpressure and
// releases the claim it just took.
func (d *Dispatcher) Dispatch(_ context.Context, event *core.ReviewEvent) (*core.RunHandle, error) {
	ref := event.Ref()
	if !d.claims.Acquire(ref) {
		d.logger.Info("coalescing trigger, review already in progress", "pr", ref)
		return nil, core.ErrReviewInProgress
	}

	handle := core.NewRunHandle()

	d.stopMu.Lock()
	defer d.stopMu.Unlock()
	if d.stopped {
		d.claims.Release(ref)
		return nil, fmt.Errorf("dispatcher is stopped, cannot accept new review run")
	}

	select {
	case d.jobQueue <- queuedRun{event: event, handle: handle}:
		d.logger.Info("queued review run", "pr", ref)
		return handle, nil
	default:
		d.claims.Release(ref)
		return nil, fmt.Errorf("job queue is full, cannot accept new review run")
	}
}

// Active reports whether a run currently holds the claim for a PR reference.
func (d *Dispatcher) Active(ref string) bool {
	return d.claims.Held(ref)
}

// Stop gracefully shuts down the dispatcher, waiting for all workers to
// finish. Calling Stop more than once is safe; Dispatch after Stop returns
// an error.
func (d *Dispatcher) Stop() {
	d.stopMu.Lock()
	if d.stopped {
		d.stopMu.Unlock()
		return
	}
	d.stopped = true
	close(d.jobQueue)
	d.stopMu.Unlock()

	d.logger.Info("stopping dispatcher and waiting for runs to finish")
	d.wg.Wait()
	d.logger.Info("all review runs have finished")
}
