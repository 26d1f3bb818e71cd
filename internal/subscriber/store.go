package subscriber

// Record is the persisted shape of a subscriber's acknowledged version for
// one data center.
type Record struct {
	DataCenter    string
	PushVersion   int64
	FetchSeqStart int64
	FetchSeqEnd   int64
	EntryVersions map[string]int64
}

// Store persists subscriber acknowledged-version state across process
// restarts. This is explicitly NOT pending/in-flight task state, which
// always stays in memory — losing a Store entry only means a resent
// snapshot looks "new" again to CheckVersion, which is safe.
//
// A nil Store is a valid, purely in-memory no-op; Subscriber treats it as
// such.
type Store interface {
	Load(subscriberID, dataInfoID string) (Record, bool)
	Save(subscriberID, dataInfoID string, rec Record) error
}
