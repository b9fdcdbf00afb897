// Package event defines journal events and the registry that vets them
// before they are appended.
package event

import (
	"encoding/json"
	"time"
)

// Type identifies the event type string.
type Type string

// Topic is the notification topic observers subscribe to.
type Topic string

// Notification topics.
const (
	TopicInit     Topic = "INIT"
	TopicRelayer  Topic = "RELAYER"
	TopicCreated  Topic = "CREATED"
	TopicPaid     Topic = "PAID"
	TopicEvidence Topic = "EVIDENCE"
	TopicBound    Topic = "BOUND"
	TopicRuling   Topic = "RULING"
	TopicExecuted Topic = "EXECUTE"
)

// Valid reports whether t is one of the notification topics.
func (t Topic) Valid() bool {
	switch t {
	case TopicInit, TopicRelayer, TopicCreated, TopicPaid, TopicEvidence, TopicBound, TopicRuling, TopicExecuted:
		return true
	}
	return false
}

// Entity types addressed by events.
const (
	EntityTypeConfig  = "config"
	EntityTypeDispute = "dispute"
)

// Event is one journal entry. Seq and the integrity fields are assigned by
// the journal on append.
type Event struct {
	Seq          uint64          `json:"seq"`
	Type         Type            `json:"type"`
	Topic        Topic           `json:"topic"`
	Timestamp    time.Time       `json:"ts"`
	ActorID      string          `json:"actor_id,omitempty"`
	RequestID    string          `json:"request_id,omitempty"`
	InvocationID string          `json:"invocation_id,omitempty"`
	EntityType   string          `json:"entity_type"`
	EntityID     string          `json:"entity_id"`
	DisputeID    uint64          `json:"dispute_id,omitempty"`
	PayloadJSON  json.RawMessage `json:"payload"`

	Hash           string `json:"hash,omitempty"`
	PrevHash       string `json:"prev_hash,omitempty"`
	ChainHash      string `json:"chain_hash,omitempty"`
	Signature      string `json:"signature,omitempty"`
	SignatureKeyID string `json:"signature_key_id,omitempty"`
}
