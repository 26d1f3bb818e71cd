package subscriber

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"go.etcd.io/bbolt"
)

var versionsBucket = []byte("subscriber_versions")

// BoltStore is a Store backed by a single bbolt file. It exists so an
// operator can choose to survive a process restart without replaying
// already-acknowledged snapshots; it is entirely optional and orthogonal to
// the core's in-memory pending/in-flight state.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBoltStore opens (creating if absent) a bbolt database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening bolt store %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(versionsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing bolt store %s: %w", path, err)
	}
	return &BoltStore{db: db}, nil
}

// Close releases the underlying bbolt file handle.
func (b *BoltStore) Close() error {
	return b.db.Close()
}

func boltKey(subscriberID, dataInfoID string) []byte {
	return []byte(subscriberID + "\x00" + dataInfoID)
}

// Load implements Store.
func (b *BoltStore) Load(subscriberID, dataInfoID string) (Record, bool) {
	var rec Record
	found := false
	_ = b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(versionsBucket)
		raw := bucket.Get(boltKey(subscriberID, dataInfoID))
		if raw == nil {
			return nil
		}
		dec := gob.NewDecoder(bytes.NewReader(raw))
		if err := dec.Decode(&rec); err != nil {
			return nil
		}
		found = true
		return nil
	})
	return rec, found
}

// Save implements Store.
func (b *BoltStore) Save(subscriberID, dataInfoID string, rec Record) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return fmt.Errorf("encoding subscriber record: %w", err)
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(versionsBucket)
		return bucket.Put(boltKey(subscriberID, dataInfoID), buf.Bytes())
	})
}
