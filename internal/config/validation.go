package config

import (
	"fmt"
	"strings"
)

// ValidationErrors collects every out-of-range setting so an operator sees
// the whole picture in one error instead of fixing one field at a time.
type ValidationErrors struct {
	Problems []string
}

// HasErrors returns true if any validation errors exist.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Problems) > 0
}

// Error formats all validation errors into a clear message.
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, p := range e.Problems {
		sb.WriteString("  - " + p + "\n")
	}
	return sb.String()
}

// Validate checks the loaded Config for values the push dispatch core
// cannot operate with: non-positive pool/queue sizes, a negative retry
// budget, or an exchange timeout of zero that would defeat stuck-push
// detection.
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	if c.Push.ExecutorPoolSize < 1 {
		errs.Problems = append(errs.Problems, fmt.Sprintf("push.executor_pool_size must be >= 1, got %d", c.Push.ExecutorPoolSize))
	}
	if c.Push.ExecutorQueueSize < 1 {
		errs.Problems = append(errs.Problems, fmt.Sprintf("push.executor_queue_size must be >= 1, got %d", c.Push.ExecutorQueueSize))
	}
	if c.Push.DebouncingMillis < 0 {
		errs.Problems = append(errs.Problems, fmt.Sprintf("push.debouncing_millis must be >= 0, got %d", c.Push.DebouncingMillis))
	}
	if c.Push.RetryTimes < 0 {
		errs.Problems = append(errs.Problems, fmt.Sprintf("push.retry_times must be >= 0, got %d", c.Push.RetryTimes))
	}
	if c.Push.RetryFirstDelayMillis < 0 {
		errs.Problems = append(errs.Problems, fmt.Sprintf("push.retry_first_delay_millis must be >= 0, got %d", c.Push.RetryFirstDelayMillis))
	}
	if c.Push.RetryIncrementDelayMillis < 0 {
		errs.Problems = append(errs.Problems, fmt.Sprintf("push.retry_increment_delay_millis must be >= 0, got %d", c.Push.RetryIncrementDelayMillis))
	}
	if c.Push.ClientNodeExchangeTimeOutMillis <= 0 {
		errs.Problems = append(errs.Problems, fmt.Sprintf("push.client_node_exchange_timeout_millis must be > 0, got %d", c.Push.ClientNodeExchangeTimeOutMillis))
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
