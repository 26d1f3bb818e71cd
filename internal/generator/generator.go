// Package generator implements the PushDataGenerator collaborator: merging a
// dataCenter's Datum snapshot on behalf of a representative subscriber, then
// encoding it alongside the subscriber map and push version into wire bytes.
package generator

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/klauspost/compress/zstd"

	"github.com/regpush/pushcore/internal/model"
	"github.com/regpush/pushcore/internal/subscriber"
)

// Generator is the PushDataGenerator contract: implementations must be pure
// and safe to call from multiple dispatch goroutines concurrently.
type Generator interface {
	MergeDatum(rep *subscriber.Subscriber, dataCenter string, datumMap map[string]*model.Datum) (*model.Datum, error)
	CreatePushData(merged *model.Datum, subscriberMap map[string]*subscriber.Subscriber, pushVersion int64) ([]byte, error)
}

// wireEnvelope is the JSON shape encoded and then zstd-compressed by
// CreatePushData.
type wireEnvelope struct {
	DataInfoID  string            `json:"dataInfoId"`
	DataCenter  string            `json:"dataCenter"`
	PushVersion int64             `json:"pushVersion"`
	Subscribers []string          `json:"subscribers"`
	Entries     map[string][]byte `json:"entries"`
}

// Default implements Generator by merging the single Datum named by
// dataCenter and compressing the JSON envelope with zstd.
type Default struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// New constructs a Default generator, initializing its zstd encoder/decoder
// pair once for reuse across calls.
func New() (*Default, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &Default{encoder: enc, decoder: dec}, nil
}

// Close releases the zstd decoder's background goroutines.
func (g *Default) Close() {
	g.encoder.Close()
	g.decoder.Close()
}

// MergeDatum returns the Datum for dataCenter, if present. A missing entry
// is not an error: some conversations legitimately have no data yet for a
// given center.
func (g *Default) MergeDatum(rep *subscriber.Subscriber, dataCenter string, datumMap map[string]*model.Datum) (*model.Datum, error) {
	d, ok := datumMap[dataCenter]
	if !ok {
		return &model.Datum{DataInfoID: rep.DataInfoID, DataCenter: dataCenter, Entries: map[string]model.Entry{}}, nil
	}
	return d, nil
}

// CreatePushData encodes merged plus the subscriber set and push version
// into a zstd-compressed JSON envelope.
func (g *Default) CreatePushData(merged *model.Datum, subscriberMap map[string]*subscriber.Subscriber, pushVersion int64) ([]byte, error) {
	ids := make([]string, 0, len(subscriberMap))
	for id := range subscriberMap {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make(map[string][]byte, len(merged.Entries))
	for k, e := range merged.Entries {
		entries[k] = e.Value
	}

	env := wireEnvelope{
		DataInfoID:  merged.DataInfoID,
		DataCenter:  merged.DataCenter,
		PushVersion: pushVersion,
		Subscribers: ids,
		Entries:     entries,
	}

	raw, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshaling push envelope: %w", err)
	}

	// EncodeAll may be called concurrently on one encoder, unlike the
	// streaming Reset/Write/Close path.
	return g.encoder.EncodeAll(raw, nil), nil
}

// DecodePushData reverses CreatePushData; the demo websocket transport uses
// it to log a human-readable summary of what was pushed.
func (g *Default) DecodePushData(payload []byte) (dataInfoID string, pushVersion int64, subscriberCount int, err error) {
	raw, err := g.decoder.DecodeAll(payload, nil)
	if err != nil {
		return "", 0, 0, fmt.Errorf("decompressing push envelope: %w", err)
	}
	var env wireEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", 0, 0, fmt.Errorf("unmarshaling push envelope: %w", err)
	}
	return env.DataInfoID, env.PushVersion, len(env.Subscribers), nil
}
