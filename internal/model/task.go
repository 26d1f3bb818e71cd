// Package model holds the immutable-ish task record the push dispatch core
// schedules, debounces, dispatches and retries.
package model

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/regpush/pushcore/internal/subscriber"
)

// ErrEmptySubscriberMap is returned by NewTask when subscriberMap has no
// entries.
var ErrEmptySubscriberMap = errors.New("pushcore: subscriberMap must be non-empty")

// ErrInvalidFetchRange is returned when fetchSeqStart > fetchSeqEnd.
var ErrInvalidFetchRange = errors.New("pushcore: fetchSeqStart must be <= fetchSeqEnd")

// ErrSubscriberMismatch is returned when subscriberMap values disagree on
// (dataInfoId, scope, assembleType, clientVersion). The producer is expected
// to guarantee this, but validating it explicitly at construction turns a
// silent data-corruption mode into an immediate, attributable error.
var ErrSubscriberMismatch = errors.New("pushcore: subscriberMap entries disagree on dataInfoId/scope/assembleType/clientVersion")

// Task is one push intent, from producer through dispatch, transport and
// callback. Fields set at construction are immutable; ExpireTimestamp,
// PushTimestamp and RetryCount are written after construction from multiple
// goroutines and are therefore atomic.
type Task struct {
	TraceID         ulid.ULID
	CreateTimestamp int64 // unix millis

	expireTimestamp atomic.Int64 // unix millis
	pushTimestamp   atomic.Int64 // unix millis, 0 until dispatched
	retryCount      atomic.Int32

	NoDelay       bool
	FetchSeqStart int64
	FetchSeqEnd   int64
	DataCenter    string
	PushVersion   int64
	DatumMap      map[string]*Datum
	Addr          string
	SubscriberMap map[string]*subscriber.Subscriber
	// Subscriber is the representative used for keying: every SubscriberMap
	// value agrees on (dataInfoId, scope, assembleType, clientVersion), so
	// any one of them may stand in for the whole set.
	Subscriber *subscriber.Subscriber
}

// NewTask validates and constructs a Task. debounce is the initial debounce
// window applied to ExpireTimestamp.
func NewTask(noDelay bool, pushVersion int64, dataCenter, addr string, subscriberMap map[string]*subscriber.Subscriber, datumMap map[string]*Datum, fetchSeqStart, fetchSeqEnd int64, debounce time.Duration) (*Task, error) {
	if len(subscriberMap) == 0 {
		return nil, ErrEmptySubscriberMap
	}
	if fetchSeqStart > fetchSeqEnd {
		return nil, ErrInvalidFetchRange
	}

	var representative *subscriber.Subscriber
	for _, s := range subscriberMap {
		if representative == nil {
			representative = s
			continue
		}
		if !representative.SameConversation(s) {
			return nil, fmt.Errorf("%w: %s vs %s", ErrSubscriberMismatch, representative.ID, s.ID)
		}
	}

	now := time.Now()
	t := &Task{
		TraceID:         ulid.Make(),
		CreateTimestamp: now.UnixMilli(),
		NoDelay:         noDelay,
		FetchSeqStart:   fetchSeqStart,
		FetchSeqEnd:     fetchSeqEnd,
		DataCenter:      dataCenter,
		PushVersion:     pushVersion,
		DatumMap:        datumMap,
		Addr:            addr,
		SubscriberMap:   subscriberMap,
		Subscriber:      representative,
	}
	t.ExpireAfter(debounce)
	return t, nil
}

// ExpireAfter sets ExpireTimestamp to now + interval.
func (t *Task) ExpireAfter(interval time.Duration) {
	t.expireTimestamp.Store(time.Now().Add(interval).UnixMilli())
}

// ExpireTimestamp returns the current expiry, unix millis.
func (t *Task) ExpireTimestamp() int64 { return t.expireTimestamp.Load() }

// SetExpireTimestamp sets the expiry verbatim (used by the pending buffer to
// inherit a predecessor's expiry when coalescing a replacement task).
func (t *Task) SetExpireTimestamp(ts int64) { t.expireTimestamp.Store(ts) }

// UpdatePushTimestamp stamps PushTimestamp with the current time.
func (t *Task) UpdatePushTimestamp() { t.pushTimestamp.Store(time.Now().UnixMilli()) }

// PushTimestamp returns the last dispatch stamp, or 0 if never dispatched.
func (t *Task) PushTimestamp() int64 { return t.pushTimestamp.Load() }

// SpanMillis returns the elapsed time since PushTimestamp, used to detect a
// task that has been in flight for too long without a callback.
func (t *Task) SpanMillis() int64 {
	push := t.pushTimestamp.Load()
	if push == 0 {
		return 0
	}
	return time.Now().UnixMilli() - push
}

// RetryCount returns the current retry count.
func (t *Task) RetryCount() int32 { return t.retryCount.Load() }

// IncrementRetry atomically increments and returns the new retry count.
func (t *Task) IncrementRetry() int32 { return t.retryCount.Add(1) }

// AfterThan reports whether t carries a strictly fresher snapshot than o: t
// is after o iff t.FetchSeqStart >= o.FetchSeqEnd. Overlapping ranges are
// not-strictly-after and must trigger conflict reporting rather than
// replacement.
func (t *Task) AfterThan(o *Task) bool {
	return t.FetchSeqStart >= o.FetchSeqEnd
}

// PendingKeyOf computes the coalescing identity used by the pending buffer.
func (t *Task) PendingKeyOf() PendingKey {
	ids := make([]string, 0, len(t.SubscriberMap))
	for id := range t.SubscriberMap {
		ids = append(ids, id)
	}
	return NewPendingKey(t.DataCenter, t.Addr, ids)
}

// PushingKeyOf computes the in-flight identity used by the dispatcher and
// in-flight registry.
func (t *Task) PushingKeyOf() PushingKey {
	return PushingKey{
		DataInfoID:    t.Subscriber.DataInfoID,
		Addr:          t.Addr,
		Scope:         Scope(t.Subscriber.Scope),
		AssembleType:  AssembleType(t.Subscriber.AssembleType),
		ClientVersion: t.Subscriber.ClientVersion,
	}
}

func (t *Task) String() string {
	return fmt.Sprintf("Task{id=%s, dc=%s, addr=%s, seq=[%d,%d], retry=%d}",
		t.TraceID, t.DataCenter, t.Addr, t.FetchSeqStart, t.FetchSeqEnd, t.RetryCount())
}
