// Package subscriber models the registry subscriber: a client interest
// registered on a connection, and the version-vector state the push core
// mutates through its callback handler.
package subscriber

import "sync"

// Subscriber is a client interest on a connection, identified by
// dataInfoId + scope + assembleType + clientVersion + sourceAddress. All
// Subscriber values sharing a pending-key/pushing-key conversation must
// agree on the tuple (DataInfoID, Scope, AssembleType, ClientVersion) — this
// is validated at Task construction in internal/model.
type Subscriber struct {
	ID            string
	DataInfoID    string
	Scope         string
	AssembleType  string
	ClientVersion string
	SourceAddress string

	mu       sync.Mutex
	versions map[string]*dcVersion // dataCenter -> last acknowledged version
	store    Store
}

// dcVersion is the highest acknowledged snapshot for one data center.
type dcVersion struct {
	PushVersion   int64
	FetchSeqStart int64
	FetchSeqEnd   int64
	EntryVersions map[string]int64
}

// New creates a Subscriber backed by an in-memory version store. Use
// NewWithStore to back it with a persistent Store (internal/subscriber's
// bbolt-backed implementation, for example).
func New(id, dataInfoID, scope, assembleType, clientVersion, sourceAddress string) *Subscriber {
	return NewWithStore(id, dataInfoID, scope, assembleType, clientVersion, sourceAddress, nil)
}

// NewWithStore creates a Subscriber whose acknowledged version state is
// mirrored to store on every successful update (store may be nil, meaning
// purely in-memory).
func NewWithStore(id, dataInfoID, scope, assembleType, clientVersion, sourceAddress string, store Store) *Subscriber {
	s := &Subscriber{
		ID:            id,
		DataInfoID:    dataInfoID,
		Scope:         scope,
		AssembleType:  assembleType,
		ClientVersion: clientVersion,
		SourceAddress: sourceAddress,
		versions:      make(map[string]*dcVersion),
		store:         store,
	}
	if store != nil {
		if loaded, ok := store.Load(id, dataInfoID); ok {
			s.versions[loaded.DataCenter] = &dcVersion{
				PushVersion:   loaded.PushVersion,
				FetchSeqStart: loaded.FetchSeqStart,
				FetchSeqEnd:   loaded.FetchSeqEnd,
				EntryVersions: loaded.EntryVersions,
			}
		}
	}
	return s
}

// CheckVersion reports whether fetchSeqStart is not already superseded by a
// snapshot this subscriber has previously observed for dataCenter. It
// returns false when the subscriber has already seen a strictly newer
// snapshot through another path.
func (s *Subscriber) CheckVersion(dataCenter string, fetchSeqStart int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.versions[dataCenter]
	if !ok {
		return true
	}
	return fetchSeqStart >= cur.FetchSeqEnd
}

// CheckAndUpdateVersion atomically advances the acknowledged version for
// dataCenter if and only if the proposed snapshot is not superseded by what
// is already recorded. Returns false if another, fresher update already won
// the race: callers must treat false as informational, never as an error.
func (s *Subscriber) CheckAndUpdateVersion(dataCenter string, pushVersion int64, entryVersions map[string]int64, fetchSeqStart, fetchSeqEnd int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.versions[dataCenter]
	if ok && fetchSeqStart < cur.FetchSeqEnd {
		return false
	}

	next := &dcVersion{
		PushVersion:   pushVersion,
		FetchSeqStart: fetchSeqStart,
		FetchSeqEnd:   fetchSeqEnd,
		EntryVersions: entryVersions,
	}
	s.versions[dataCenter] = next

	if s.store != nil {
		_ = s.store.Save(s.ID, s.DataInfoID, Record{
			DataCenter:    dataCenter,
			PushVersion:   next.PushVersion,
			FetchSeqStart: next.FetchSeqStart,
			FetchSeqEnd:   next.FetchSeqEnd,
			EntryVersions: next.EntryVersions,
		})
	}
	return true
}

// SameConversation reports whether two subscribers share the
// (DataInfoID, Scope, AssembleType, ClientVersion) tuple every member of one
// Task's SubscriberMap must agree on.
func (s *Subscriber) SameConversation(o *Subscriber) bool {
	return s.DataInfoID == o.DataInfoID &&
		s.Scope == o.Scope &&
		s.AssembleType == o.AssembleType &&
		s.ClientVersion == o.ClientVersion
}
