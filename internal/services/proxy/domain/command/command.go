// Package command defines the command envelope and the decision contract that
// every decider returns.
package command

import (
	"errors"
	"time"

	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/event"
)

// Type identifies the command type string.
type Type string

// Command captures the canonical command envelope.
type Command struct {
	Type         Type
	ActorID      string
	RequestID    string
	InvocationID string
	DisputeID    uint64
	PayloadJSON  []byte
}

// Decision is either a set of events to append or a set of rejections.
type Decision struct {
	Events     []event.Event
	Rejections []Rejection
}

// Rejection explains why a command was refused. Code matches the platform
// error code of the same name.
type Rejection struct {
	Code     string
	Message  string
	Metadata map[string]string
}

// Accept returns a decision that emits events.
func Accept(events ...event.Event) Decision {
	return Decision{Events: append([]event.Event(nil), events...)}
}

// Reject returns a decision that refuses the command.
func Reject(rejections ...Rejection) Decision {
	return Decision{Rejections: append([]Rejection(nil), rejections...)}
}

// Validate reports whether the decision is well-formed: exactly one of
// events or rejections is populated.
func (d Decision) Validate() error {
	switch {
	case len(d.Events) == 0 && len(d.Rejections) == 0:
		return errors.New("decision must contain events or rejections")
	case len(d.Events) > 0 && len(d.Rejections) > 0:
		return errors.New("decision cannot mix events and rejections")
	}
	return nil
}

// NewEvent copies the command envelope onto a new event.
func NewEvent(cmd Command, eventType event.Type, entityType, entityID string, payloadJSON []byte, now time.Time) event.Event {
	return event.Event{
		Type:         eventType,
		Timestamp:    now.UTC(),
		ActorID:      cmd.ActorID,
		RequestID:    cmd.RequestID,
		InvocationID: cmd.InvocationID,
		EntityType:   entityType,
		EntityID:     entityID,
		DisputeID:    cmd.DisputeID,
		PayloadJSON:  payloadJSON,
	}
}
