package watchdog

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRun_TicksAndStopsOnCancel(t *testing.T) {
	var ticks atomic.Int32
	w := New(func() { ticks.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(250 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}

	if ticks.Load() < 2 {
		t.Fatalf("expected at least 2 ticks in 250ms at a 100ms interval, got %d", ticks.Load())
	}
}

func TestWakeup_CoalescesAndTriggersExtraIteration(t *testing.T) {
	var runs atomic.Int32
	w := New(func() { runs.Add(1) })

	// Multiple wake-ups delivered back-to-back before the worker can drain
	// them must coalesce into exactly one extra iteration. They are sent
	// before Run starts, and no 100ms tick falls inside the 20ms window.
	w.Wakeup()
	w.Wakeup()
	w.Wakeup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	if runs.Load() != 1 {
		t.Fatalf("expected exactly one iteration from the coalesced wake-ups, got %d", runs.Load())
	}
}
