package config

import "time"

// SessionServerConfig is the collaborator interface the push dispatch core
// consumes. The core re-reads the getters on each reference, except the
// executor pool and queue sizes, which are read once when the Processor is
// built. *Config implements it directly; of its values only the stop-push
// switch changes at runtime (file reload or admin toggle).
type SessionServerConfig interface {
	PushTaskExecutorPoolSize() int
	PushTaskExecutorQueueSize() int
	PushDataTaskDebouncingMillis() time.Duration
	ClientNodeExchangeTimeOut() time.Duration
	PushTaskRetryTimes() int
	PushDataTaskRetryFirstDelayMillis() time.Duration
	PushDataTaskRetryIncrementDelayMillis() time.Duration
	IsStopPushSwitch() bool
}
