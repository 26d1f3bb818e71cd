package model

import (
	"errors"
	"testing"
	"time"

	"github.com/regpush/pushcore/internal/subscriber"
)

func oneSubscriberMap() map[string]*subscriber.Subscriber {
	s := subscriber.New("sub-1", "SPX", "zone", "full", "v1", "addr-1")
	return map[string]*subscriber.Subscriber{s.ID: s}
}

func TestNewTask_RejectsEmptySubscriberMap(t *testing.T) {
	_, err := NewTask(false, 1, "dc-a", "addr-1", map[string]*subscriber.Subscriber{}, nil, 1, 1, time.Second)
	if !errors.Is(err, ErrEmptySubscriberMap) {
		t.Fatalf("expected ErrEmptySubscriberMap, got %v", err)
	}
}

func TestNewTask_RejectsInvalidFetchRange(t *testing.T) {
	_, err := NewTask(false, 1, "dc-a", "addr-1", oneSubscriberMap(), nil, 10, 5, time.Second)
	if !errors.Is(err, ErrInvalidFetchRange) {
		t.Fatalf("expected ErrInvalidFetchRange, got %v", err)
	}
}

func TestNewTask_RejectsMismatchedSubscribers(t *testing.T) {
	s1 := subscriber.New("sub-1", "SPX", "zone", "full", "v1", "addr-1")
	s2 := subscriber.New("sub-2", "SPX", "dataCenter", "full", "v1", "addr-1")
	subs := map[string]*subscriber.Subscriber{s1.ID: s1, s2.ID: s2}

	_, err := NewTask(false, 1, "dc-a", "addr-1", subs, nil, 1, 1, time.Second)
	if !errors.Is(err, ErrSubscriberMismatch) {
		t.Fatalf("expected ErrSubscriberMismatch, got %v", err)
	}
}

func TestNewTask_SetsInitialExpiry(t *testing.T) {
	before := time.Now()
	task, err := NewTask(false, 1, "dc-a", "addr-1", oneSubscriberMap(), nil, 1, 1, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantMin := before.Add(100 * time.Millisecond).UnixMilli()
	if task.ExpireTimestamp() < wantMin {
		t.Fatalf("expected expiry >= %d, got %d", wantMin, task.ExpireTimestamp())
	}
}

func TestTask_AfterThan(t *testing.T) {
	a, _ := NewTask(false, 1, "dc-a", "addr-1", oneSubscriberMap(), nil, 10, 10, time.Second)
	b, _ := NewTask(false, 1, "dc-a", "addr-1", oneSubscriberMap(), nil, 9, 11, time.Second)
	c, _ := NewTask(false, 1, "dc-a", "addr-1", oneSubscriberMap(), nil, 11, 11, time.Second)

	if b.AfterThan(a) {
		t.Fatalf("overlapping range [9,11] should not be afterThan [10,10]")
	}
	if !c.AfterThan(a) {
		t.Fatalf("[11,11] should be afterThan [10,10]")
	}
}

func TestTask_IncrementRetryIsMonotonic(t *testing.T) {
	task, _ := NewTask(false, 1, "dc-a", "addr-1", oneSubscriberMap(), nil, 1, 1, time.Second)
	if task.RetryCount() != 0 {
		t.Fatalf("expected initial retry count 0, got %d", task.RetryCount())
	}
	if r := task.IncrementRetry(); r != 1 {
		t.Fatalf("expected 1, got %d", r)
	}
	if r := task.IncrementRetry(); r != 2 {
		t.Fatalf("expected 2, got %d", r)
	}
}
