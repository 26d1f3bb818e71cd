package transport

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrInvokeTimeout is a distinct, expected-severity failure mode callers
// should log differently than an arbitrary transport error.
var ErrInvokeTimeout = errors.New("pushcore: invoke timeout")

// Outcome scripts how Fake should resolve one push.
type Outcome struct {
	// Never, if true, means the callback never fires — simulating a stuck
	// push until the Fake is closed or the context is cancelled.
	Never bool
	Delay time.Duration
	Err   error // nil means success
	// Connected is only consulted when Err != nil.
	Connected bool
	Response  any
}

// Fake is an in-memory ClientNodeService for tests: each call to
// PushWithCallback is resolved according to a scripted Outcome, looked up by
// a caller-supplied Script function (defaulting to immediate success).
type Fake struct {
	mu     sync.Mutex
	Script func(addr string, payload []byte) Outcome
	calls  []call
	stopCh chan struct{}
}

type call struct {
	Addr    string
	Payload []byte
}

// NewFake creates a Fake that, absent a Script, succeeds immediately with a
// nil response.
func NewFake() *Fake {
	return &Fake{stopCh: make(chan struct{})}
}

// Calls returns a snapshot of every push this Fake has received, useful for
// assertions in tests.
func (f *Fake) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Close unblocks any "never" outcomes so their goroutines can exit cleanly
// at the end of a test.
func (f *Fake) Close() { close(f.stopCh) }

// PushWithCallback implements transport.ClientNodeService.
func (f *Fake) PushWithCallback(ctx context.Context, payload []byte, addr string, cb Callback, executor Executor) {
	f.mu.Lock()
	f.calls = append(f.calls, call{Addr: addr, Payload: payload})
	script := f.Script
	f.mu.Unlock()

	outcome := Outcome{Connected: true}
	if script != nil {
		outcome = script(addr, payload)
	}

	go func() {
		if outcome.Never {
			select {
			case <-f.stopCh:
			case <-ctx.Done():
			}
			return
		}
		if outcome.Delay > 0 {
			select {
			case <-time.After(outcome.Delay):
			case <-f.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}

		if outcome.Err != nil {
			executor.Execute(func() { cb.OnException(outcome.Err, outcome.Connected) })
			return
		}
		executor.Execute(func() { cb.OnSuccess(outcome.Response) })
	}()
}
