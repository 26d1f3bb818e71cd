package dispatch

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/regpush/pushcore/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSubmit_SameKeySerialized(t *testing.T) {
	// Submit never blocks, so the queue must hold all 20 jobs at once.
	d := New(4, 32, zap.NewNop())
	defer d.Stop()

	key := model.PushingKey{DataInfoID: "SPX", Addr: "addr-1"}

	var running atomic.Int32
	var maxObserved atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		if err := d.Submit(key, func() {
			defer wg.Done()
			n := running.Add(1)
			if n > maxObserved.Load() {
				maxObserved.Store(n)
			}
			time.Sleep(time.Millisecond)
			running.Add(-1)
		}); err != nil {
			wg.Done()
			t.Fatalf("unexpected submit error: %v", err)
		}
	}

	wg.Wait()
	if maxObserved.Load() > 1 {
		t.Fatalf("expected at most one concurrent job per key, observed %d", maxObserved.Load())
	}
}

func TestSubmit_DistinctKeysParallel(t *testing.T) {
	d := New(4, 16, zap.NewNop())
	defer d.Stop()

	var wg sync.WaitGroup
	release := make(chan struct{})
	started := make(chan struct{}, 4)

	for i := 0; i < 4; i++ {
		key := model.PushingKey{DataInfoID: "SPX", Addr: string(rune('a' + i))}
		wg.Add(1)
		if err := d.Submit(key, func() {
			defer wg.Done()
			started <- struct{}{}
			<-release
		}); err != nil {
			t.Fatalf("unexpected submit error: %v", err)
		}
	}

	// Every job must be running at once before any is released: two keys
	// sharing a worker would leave one job queued behind the other.
	for i := 0; i < 4; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			close(release)
			t.Fatalf("expected all 4 distinct-key jobs to run concurrently, only %d started", i)
		}
	}
	close(release)
	wg.Wait()
}

func TestSubmit_QueueFullReturnsError(t *testing.T) {
	d := New(1, 1, zap.NewNop())
	defer d.Stop()

	key := model.PushingKey{DataInfoID: "SPX", Addr: "addr-1"}
	block := make(chan struct{})
	started := make(chan struct{})

	if err := d.Submit(key, func() { close(started); <-block }); err != nil {
		t.Fatalf("unexpected error on first submit: %v", err)
	}
	// Wait until the worker has taken the first job off its queue, so the
	// single queue slot is free for the next submit.
	<-started
	if err := d.Submit(key, func() {}); err != nil {
		t.Fatalf("unexpected error filling the queue: %v", err)
	}
	if err := d.Submit(key, func() {}); err != ErrQueueFull {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	close(block)
}
