package model

import (
	"sort"
	"strings"
)

// PendingKey is the coalescing identity of a push intent: two intents with an
// equal PendingKey describe the same "conversation" and must be coalesced by
// the pending buffer.
type PendingKey struct {
	DataCenter string
	Addr       string
	// subscriberIDs is a canonical, sorted, comma-joined rendering of the
	// subscriber identifier set. Go map keys must be comparable; a sorted
	// string is the simplest comparable stand-in for a set.
	subscriberIDs string
}

// NewPendingKey builds a PendingKey from an unordered subscriber identifier
// set, canonicalizing it so that key equality matches set equality
// regardless of iteration order.
func NewPendingKey(dataCenter, addr string, subscriberIDs []string) PendingKey {
	ids := make([]string, len(subscriberIDs))
	copy(ids, subscriberIDs)
	sort.Strings(ids)
	return PendingKey{
		DataCenter:    dataCenter,
		Addr:          addr,
		subscriberIDs: strings.Join(ids, ","),
	}
}

func (k PendingKey) String() string {
	return "PendingKey{dataCenter=" + k.DataCenter + ", addr=" + k.Addr + ", subscribers=" + k.subscriberIDs + "}"
}

// PushingKey is the in-flight identity of a push intent: the dispatcher and
// in-flight registry serialize on this.
type PushingKey struct {
	DataInfoID    string
	Addr          string
	Scope         Scope
	AssembleType  AssembleType
	ClientVersion string
}

func (k PushingKey) String() string {
	return "PushingKey{addr=" + k.Addr + ", dataInfoId=" + k.DataInfoID + ", scope=" + string(k.Scope) + "}"
}
