// Package transport implements the ClientNodeService collaborator:
// asynchronous push with a callback, invoked on an externally-supplied
// executor.
package transport

import "context"

// Executor runs a callback. The push package's bounded, caller-runs executor
// (internal/push/executor.go) implements this; ClientNodeService
// implementations must invoke the callback through it rather than spawning
// their own goroutine for it.
type Executor interface {
	Execute(fn func())
}

// Callback is the sink for a push's asynchronous outcome.
type Callback interface {
	// OnSuccess is invoked with an opaque remote response on successful
	// delivery.
	OnSuccess(response any)
	// OnException is invoked on transport failure. connected reports
	// whether the underlying channel is still open, which governs whether
	// the failure is retried.
	OnException(err error, connected bool)
}

// ClientNodeService pushes an already-encoded payload to addr and reports
// the outcome to cb via executor. PushWithCallback itself never blocks on
// the remote round-trip.
type ClientNodeService interface {
	PushWithCallback(ctx context.Context, payload []byte, addr string, cb Callback, executor Executor)
}
