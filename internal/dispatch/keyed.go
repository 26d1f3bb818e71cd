// Package dispatch implements a keyed worker pool: at most one task
// executes at a time per pushing-key, while tasks for different
// pushing-keys run in parallel.
package dispatch

import (
	"errors"
	"hash/fnv"

	"go.uber.org/zap"

	"github.com/regpush/pushcore/internal/model"
)

// ErrQueueFull is returned by Submit when the target worker's queue has no
// room.
var ErrQueueFull = errors.New("pushcore: dispatcher queue full")

// Dispatcher is N single-threaded workers, each with its own bounded queue,
// selected by a stable hash of the pushing-key: a given key always lands on
// the same worker, so its tasks are strictly serialized relative to one
// another while different keys run in parallel across workers.
type Dispatcher struct {
	workers []chan func()
	logger  *zap.Logger
	done    chan struct{}
}

// New starts a Dispatcher with poolSize workers, each backed by a queue of
// queueSize pending jobs.
func New(poolSize, queueSize int, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		workers: make([]chan func(), poolSize),
		logger:  logger,
		done:    make(chan struct{}),
	}
	for i := range d.workers {
		d.workers[i] = make(chan func(), queueSize)
		go d.runWorker(d.workers[i])
	}
	return d
}

func (d *Dispatcher) runWorker(jobs chan func()) {
	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}
			job()
		case <-d.done:
			return
		}
	}
}

// Submit enqueues job onto the worker owning key. It never blocks: if that
// worker's queue is full, it returns ErrQueueFull immediately rather than
// waiting — callers are expected to log and drop, since the next producer
// intent will recreate the work.
func (d *Dispatcher) Submit(key model.PushingKey, job func()) error {
	worker := d.workers[workerIndex(key, len(d.workers))]
	select {
	case worker <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop terminates all workers. In-flight jobs already pulled off a queue run
// to completion; queued-but-not-started jobs are not guaranteed to run (a
// worker may still pick up some of them before it observes the stop).
func (d *Dispatcher) Stop() {
	close(d.done)
}

func workerIndex(key model.PushingKey, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key.String()))
	return int(h.Sum32()) % n
}
