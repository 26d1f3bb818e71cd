package pending

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/regpush/pushcore/internal/model"
	"github.com/regpush/pushcore/internal/subscriber"
)

type fakeWaker struct{ woken int }

func (w *fakeWaker) Wakeup() { w.woken++ }

func newTask(t *testing.T, noDelay bool, seqStart, seqEnd int64, debounce time.Duration) *model.Task {
	t.Helper()
	s := subscriber.New("sub-1", "SPX", "zone", "full", "v1", "addr-1")
	task, err := model.NewTask(noDelay, 1, "dc-a", "addr-1", map[string]*subscriber.Subscriber{s.ID: s}, nil, seqStart, seqEnd, debounce)
	if err != nil {
		t.Fatalf("unexpected error constructing task: %v", err)
	}
	return task
}

func TestFire_FastPathAccepted(t *testing.T) {
	waker := &fakeWaker{}
	buf := New(waker, zap.NewNop())

	task := newTask(t, false, 10, 10, 100*time.Millisecond)
	if !buf.Fire(task) {
		t.Fatalf("expected first task for a key to be accepted")
	}
	if buf.Len() != 1 {
		t.Fatalf("expected 1 pending task, got %d", buf.Len())
	}
}

// TestFire_BurstCoalescing: a burst of same-key intents with ascending fetch
// ranges collapses into a single pending entry carrying the freshest one.
func TestFire_BurstCoalescing(t *testing.T) {
	buf := New(nil, zap.NewNop())

	t1 := newTask(t, false, 10, 10, 100*time.Millisecond)
	t2 := newTask(t, false, 11, 11, 100*time.Millisecond)
	t3 := newTask(t, false, 12, 12, 100*time.Millisecond)

	if !buf.Fire(t1) || !buf.Fire(t2) || !buf.Fire(t3) {
		t.Fatalf("expected every afterThan-winning task to be accepted")
	}
	if buf.Len() != 1 {
		t.Fatalf("expected coalescing into a single pending entry, got %d", buf.Len())
	}

	ready := buf.TransferReady(time.Now().Add(time.Hour).UnixMilli())
	if len(ready) != 1 || ready[0].FetchSeqStart != 12 {
		t.Fatalf("expected the third (freshest) task to survive, got %+v", ready)
	}
}

// TestFire_OverlappingRangeRejected: a task whose fetch range overlaps the
// pending entry instead of strictly extending past it is not afterThan, and
// must not replace the original.
func TestFire_OverlappingRangeRejected(t *testing.T) {
	buf := New(nil, zap.NewNop())

	first := newTask(t, false, 10, 10, 100*time.Millisecond)
	overlapping := newTask(t, false, 9, 11, 100*time.Millisecond)

	if !buf.Fire(first) {
		t.Fatalf("expected first task accepted")
	}
	if buf.Fire(overlapping) {
		t.Fatalf("expected overlapping range to be rejected, not afterThan")
	}

	ready := buf.TransferReady(time.Now().Add(time.Hour).UnixMilli())
	if len(ready) != 1 || ready[0].FetchSeqStart != 10 {
		t.Fatalf("expected the original task to still be dispatched, got %+v", ready)
	}
}

// TestFire_DebounceInheritance: a replacement task inherits the
// predecessor's expireTimestamp rather than resetting the debounce window.
func TestFire_DebounceInheritance(t *testing.T) {
	buf := New(nil, zap.NewNop())

	first := newTask(t, false, 10, 10, 1*time.Hour)
	second := newTask(t, false, 11, 11, 1*time.Millisecond)

	buf.Fire(first)
	buf.Fire(second)

	ready := buf.TransferReady(time.Now().UnixMilli())
	if len(ready) != 0 {
		t.Fatalf("expected replacement to inherit the long-lived expiry and not be ready yet, got %+v", ready)
	}
	if second.ExpireTimestamp() != first.ExpireTimestamp() {
		t.Fatalf("expected replacement to inherit predecessor's expireTimestamp")
	}
}

// TestFire_NoDelayWakesWatchdog: only a noDelay replacement should wake the
// watchdog early; an ordinary debounced entry waits for its own timer.
func TestFire_NoDelayWakesWatchdog(t *testing.T) {
	waker := &fakeWaker{}
	buf := New(waker, zap.NewNop())

	buf.Fire(newTask(t, false, 10, 10, time.Hour))
	if waker.woken != 0 {
		t.Fatalf("expected no wake-up for a non-noDelay task")
	}

	buf.Fire(newTask(t, true, 11, 11, time.Hour))
	if waker.woken != 1 {
		t.Fatalf("expected exactly one wake-up after a noDelay replacement, got %d", waker.woken)
	}
}

func TestTransferReady_OnlyRemovesReadyEntries(t *testing.T) {
	buf := New(nil, zap.NewNop())

	notYet := newTask(t, false, 10, 10, time.Hour)
	buf.Fire(notYet)

	if ready := buf.TransferReady(time.Now().UnixMilli()); len(ready) != 0 {
		t.Fatalf("expected nothing ready yet, got %d", len(ready))
	}
	if buf.Len() != 1 {
		t.Fatalf("expected the not-yet-ready task to remain pending")
	}
}
