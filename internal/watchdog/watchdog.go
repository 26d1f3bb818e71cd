// Package watchdog implements the push dispatch core's single cooperative
// worker: a fixed 100ms tick plus a coalesced wake-up signal.
package watchdog

import (
	"context"
	"time"
)

const tickInterval = 100 * time.Millisecond

// Watchdog runs fn on every 100ms tick and immediately after any Wakeup
// call, coalescing wake-ups that arrive between iterations into a single
// extra run.
type Watchdog struct {
	fn     func()
	wakeCh chan struct{}
}

// New creates a Watchdog that invokes fn on each iteration. fn is
// responsible for checking the stop-push switch itself.
func New(fn func()) *Watchdog {
	return &Watchdog{
		fn:     fn,
		wakeCh: make(chan struct{}, 1),
	}
}

// Wakeup signals the watchdog to run one extra iteration before its next
// tick. A single buffered slot is sufficient: any number of signals between
// iterations collapse into one pending wake-up.
func (w *Watchdog) Wakeup() {
	select {
	case w.wakeCh <- struct{}{}:
	default:
	}
}

// Run blocks, invoking fn on each tick or wake-up, until ctx is cancelled.
func (w *Watchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.fn()
		case <-w.wakeCh:
			w.fn()
		}
	}
}
