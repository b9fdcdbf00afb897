package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/event"
)

type hashEnvelope struct {
	Type         string          `json:"type"`
	Topic        string          `json:"topic"`
	TimestampMS  int64           `json:"ts_ms"`
	ActorID      string          `json:"actor_id"`
	RequestID    string          `json:"request_id"`
	InvocationID string          `json:"invocation_id"`
	EntityType   string          `json:"entity_type"`
	EntityID     string          `json:"entity_id"`
	DisputeID    uint64          `json:"dispute_id"`
	Payload      json.RawMessage `json:"payload"`
}

type chainEnvelope struct {
	Seq       uint64 `json:"seq"`
	EventHash string `json:"event_hash"`
	PrevHash  string `json:"prev_hash"`
}

// EventHash computes the content hash for a single event. Sequence and chain
// fields are excluded so the hash depends only on what happened.
func EventHash(evt event.Event) (string, error) {
	payload := evt.PayloadJSON
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	data, err := json.Marshal(hashEnvelope{
		Type:         string(evt.Type),
		Topic:        string(evt.Topic),
		TimestampMS:  evt.Timestamp.UTC().UnixMilli(),
		ActorID:      evt.ActorID,
		RequestID:    evt.RequestID,
		InvocationID: evt.InvocationID,
		EntityType:   evt.EntityType,
		EntityID:     evt.EntityID,
		DisputeID:    evt.DisputeID,
		Payload:      payload,
	})
	if err != nil {
		return "", fmt.Errorf("encode event envelope: %w", err)
	}
	return sha256Hex(data), nil
}

// ChainHash computes the SHA-256 hash that links an event to its predecessor.
// evt.Hash must already be set.
func ChainHash(evt event.Event, prevHash string) (string, error) {
	if strings.TrimSpace(evt.Hash) == "" {
		return "", fmt.Errorf("event hash is required")
	}
	if evt.Seq == 0 {
		return "", fmt.Errorf("event seq is required")
	}
	data, err := json.Marshal(chainEnvelope{Seq: evt.Seq, EventHash: evt.Hash, PrevHash: prevHash})
	if err != nil {
		return "", fmt.Errorf("encode chain envelope: %w", err)
	}
	return sha256Hex(data), nil
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
