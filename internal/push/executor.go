// Package push implements the Processor that ties the pending buffer,
// in-flight registry, keyed dispatcher, watchdog and retry policy into the
// full dispatch algorithm.
package push

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// CallbackExecutor is the small bounded pool transport callbacks run on: a
// core pool with a bounded queue, falling back to running the job on the
// calling goroutine when the queue is full so the transport itself absorbs
// back-pressure. A golang.org/x/time/rate limiter caps the rate at which
// that caller-runs fallback can consume the calling goroutine, so a burst of
// callbacks can't monopolize a transport's own goroutines.
type CallbackExecutor struct {
	jobs    chan func()
	limiter *rate.Limiter
	wg      sync.WaitGroup
	logger  *zap.Logger
}

// NewCallbackExecutor starts poolSize workers backed by a queue of
// queueSize. overflowPerSec bounds how often a caller-runs fallback may
// execute per second; burst allows that many to run back-to-back before
// throttling kicks in.
func NewCallbackExecutor(poolSize, queueSize int, overflowPerSec float64, burst int, logger *zap.Logger) *CallbackExecutor {
	e := &CallbackExecutor{
		jobs:    make(chan func(), queueSize),
		limiter: rate.NewLimiter(rate.Limit(overflowPerSec), burst),
		logger:  logger,
	}
	for i := 0; i < poolSize; i++ {
		e.wg.Add(1)
		go e.runWorker()
	}
	return e
}

func (e *CallbackExecutor) runWorker() {
	defer e.wg.Done()
	for job := range e.jobs {
		e.runSafely(job)
	}
}

// Execute implements transport.Executor. If the pool's queue is full, the
// job runs on the calling goroutine instead of being dropped, throttled by
// limiter so a transport flooding the executor cannot monopolize its own
// callback goroutines indefinitely.
func (e *CallbackExecutor) Execute(job func()) {
	select {
	case e.jobs <- job:
		return
	default:
	}

	_ = e.limiter.Wait(context.Background())
	e.runSafely(job)
}

// runSafely isolates one callback's panic from the worker loop or caller
// goroutine so a single misbehaving callback can't take down a worker.
func (e *CallbackExecutor) runSafely(job func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("callback panicked", zap.Any("recovered", r))
		}
	}()
	job()
}

// Stop drains the queue and waits for in-flight callbacks to finish. Queued
// jobs that have not yet started run to completion; no job is discarded.
func (e *CallbackExecutor) Stop() {
	close(e.jobs)
	e.wg.Wait()
}
