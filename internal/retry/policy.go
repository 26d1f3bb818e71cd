// Package retry computes the linear back-off used to reschedule a failed
// push task.
package retry

import "time"

// BackoffMillis computes the back-off delay for the given 1-based retry
// attempt: initial + increment*(retry-1), with retry == 0 yielding initial
// verbatim and any negative overflow clamped to 0.
func BackoffMillis(retry int, initial, increment time.Duration) time.Duration {
	if retry == 0 {
		return initial
	}
	result := initial + increment*time.Duration(retry-1)
	if result < 0 {
		return 0
	}
	return result
}
