// Package pending implements the pending buffer: debounced coalescing of
// push intents that share a pending key, ahead of dispatch.
package pending

import (
	"sync"

	"go.uber.org/zap"

	"github.com/regpush/pushcore/internal/model"
)

// Waker is notified when a no-delay task is accepted, so the watchdog can
// wake up before its next scheduled tick.
type Waker interface {
	Wakeup()
}

// Buffer maps pending-key to the freshest debounced task awaiting dispatch.
// The fast path is a lock-free insert-if-absent; only a key collision takes
// the mutex.
type Buffer struct {
	mu     sync.Mutex
	tasks  sync.Map // model.PendingKey -> *model.Task
	waker  Waker
	logger *zap.Logger
}

// New creates a Buffer that wakes waker whenever a NoDelay task is accepted.
func New(waker Waker, logger *zap.Logger) *Buffer {
	return &Buffer{waker: waker, logger: logger}
}

// Fire tries to admit task into the pending buffer, coalescing it with any
// existing entry for the same pending key. It returns true iff the task has
// been accepted, as a new entry or as a replacement for an older one.
func (b *Buffer) Fire(task *model.Task) bool {
	key := task.PendingKeyOf()

	if _, loaded := b.tasks.LoadOrStore(key, task); !loaded {
		// fast path: no previous entry existed.
		b.wakeIfNoDelay(task)
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	prevAny, ok := b.tasks.Load(key)
	if !ok {
		b.tasks.Store(key, task)
		b.wakeIfNoDelay(task)
		return true
	}

	prev := prevAny.(*model.Task)
	if task.AfterThan(prev) {
		// Inherit the predecessor's expiry: a stream of rapidly arriving
		// intents must not indefinitely postpone dispatch by resetting the
		// debounce window.
		task.SetExpireTimestamp(prev.ExpireTimestamp())
		b.tasks.Store(key, task)
		b.wakeIfNoDelay(task)
		return true
	}

	b.logger.Info("conflict pending",
		zap.String("dataInfoId", task.Subscriber.DataInfoID),
		zap.String("key", key.String()),
		zap.Int64("prevFetchSeqEnd", prev.FetchSeqEnd),
		zap.Int64("fetchSeqStart", task.FetchSeqStart),
	)
	return false
}

func (b *Buffer) wakeIfNoDelay(task *model.Task) {
	if task.NoDelay && b.waker != nil {
		b.waker.Wakeup()
	}
}

// TransferReady removes and returns every pending task that is NoDelay or
// whose expiry has passed. The mutex is held only for the duration of the
// scan, not the dispatch that follows.
func (b *Buffer) TransferReady(nowMillis int64) []*model.Task {
	b.mu.Lock()
	defer b.mu.Unlock()

	var ready []*model.Task
	b.tasks.Range(func(key, value any) bool {
		task := value.(*model.Task)
		if task.NoDelay || task.ExpireTimestamp() <= nowMillis {
			ready = append(ready, task)
			b.tasks.Delete(key)
		}
		return true
	})
	return ready
}

// Len reports the number of tasks currently pending (used by the admin
// stats endpoint).
func (b *Buffer) Len() int {
	n := 0
	b.tasks.Range(func(_, _ any) bool { n++; return true })
	return n
}
