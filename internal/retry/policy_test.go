package retry

import (
	"testing"
	"time"
)

func TestBackoffMillis(t *testing.T) {
	initial := 500 * time.Millisecond
	increment := 500 * time.Millisecond

	cases := []struct {
		retry int
		want  time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 1500 * time.Millisecond},
	}

	for _, c := range cases {
		got := BackoffMillis(c.retry, initial, increment)
		if got != c.want {
			t.Errorf("BackoffMillis(%d) = %v, want %v", c.retry, got, c.want)
		}
	}
}

func TestBackoffMillis_ClampsNegative(t *testing.T) {
	got := BackoffMillis(-5, 100*time.Millisecond, 50*time.Millisecond)
	if got < 0 {
		t.Errorf("expected non-negative backoff, got %v", got)
	}
}
