package dispute

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/event"
)

// Fold applies a dispute event to the record it addresses. Created events
// replace the record entirely.
func Fold(d Dispute, evt event.Event) (Dispute, error) {
	switch evt.Type {
	case EventTypeCreated:
		var payload CreatedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return d, fmt.Errorf("decode %s: %w", evt.Type, err)
		}
		p := payload.Params
		return Dispute{
			ID:               payload.ID,
			Arbitrable:       p.Arbitrable,
			Claimer:          p.Claimer,
			Defender:         p.Defender,
			Category:         p.Category,
			RootEvidenceHash: p.RootEvidenceHash,
			JurorsRequired:   p.JurorsRequired,
			PaySeconds:       p.PaySeconds,
			EvidenceSeconds:  p.EvidenceSeconds,
			CommitSeconds:    p.CommitSeconds,
			RevealSeconds:    p.RevealSeconds,
			RequiredAmount:   p.RequiredAmount,
			Status:           StatusCreated,
			CreatedAt:        payload.CreatedAt,
		}, nil

	case EventTypePaid:
		var payload PaidPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return d, fmt.Errorf("decode %s: %w", evt.Type, err)
		}
		switch payload.Payer {
		case d.Claimer:
			d.ClaimerPaid = true
			d.ClaimerAmount = payload.Amount
		case d.Defender:
			d.DefenderPaid = true
			d.DefenderAmount = payload.Amount
		default:
			return d, fmt.Errorf("payer %s is not a party to dispute %d", payload.Payer, d.ID)
		}
		if d.ClaimerPaid && d.DefenderPaid {
			d.Status = advance(d.Status, StatusFunded)
		}

	case EventTypeEvidenceSubmitted:
		// Evidence is only announced; the record does not change.

	case EventTypeRemoteBound:
		var payload BoundPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return d, fmt.Errorf("decode %s: %w", evt.Type, err)
		}
		remote := payload.RemoteID
		d.RemoteDisputeID = &remote

	case EventTypeRuled:
		var payload RuledPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return d, fmt.Errorf("decode %s: %w", evt.Type, err)
		}
		ruling := payload.Ruling
		d.Ruling = &ruling
		d.Status = advance(d.Status, StatusRuled)

	case EventTypeExecuted:
		d.RuleExecuted = true
		d.Status = advance(d.Status, StatusExecuted)

	default:
		return d, fmt.Errorf("%w: %s", event.ErrTypeUnknown, evt.Type)
	}
	return d, nil
}

func advance(current, next Status) Status {
	if next > current {
		return next
	}
	return current
}

// RegisterEvents registers dispute events.
func RegisterEvents(registry *event.Registry) error {
	if registry == nil {
		return errors.New("event registry is required")
	}
	definitions := []event.Definition{
		{
			Type:  EventTypeCreated,
			Topic: event.TopicCreated,
			ValidatePayload: func(raw json.RawMessage) error {
				var payload CreatedPayload
				if err := json.Unmarshal(raw, &payload); err != nil {
					return err
				}
				if payload.ID == 0 {
					return errors.New("dispute id is required")
				}
				if payload.Params.Claimer.IsZero() || payload.Params.Defender.IsZero() || payload.Params.Arbitrable.IsZero() {
					return errors.New("dispute identities are required")
				}
				return nil
			},
		},
		{
			Type:  EventTypePaid,
			Topic: event.TopicPaid,
			ValidatePayload: func(raw json.RawMessage) error {
				var payload PaidPayload
				if err := json.Unmarshal(raw, &payload); err != nil {
					return err
				}
				if payload.Payer.IsZero() {
					return errors.New("payer is required")
				}
				return nil
			},
		},
		{
			Type:  EventTypeEvidenceSubmitted,
			Topic: event.TopicEvidence,
			ValidatePayload: func(raw json.RawMessage) error {
				var payload EvidenceSubmittedPayload
				return json.Unmarshal(raw, &payload)
			},
		},
		{
			Type:  EventTypeRemoteBound,
			Topic: event.TopicBound,
			ValidatePayload: func(raw json.RawMessage) error {
				var payload BoundPayload
				return json.Unmarshal(raw, &payload)
			},
		},
		{
			Type:  EventTypeRuled,
			Topic: event.TopicRuling,
			ValidatePayload: func(raw json.RawMessage) error {
				var payload RuledPayload
				if err := json.Unmarshal(raw, &payload); err != nil {
					return err
				}
				if payload.Ruling > MaxRuling {
					return fmt.Errorf("ruling %d out of range", payload.Ruling)
				}
				return nil
			},
		},
		{
			Type:  EventTypeExecuted,
			Topic: event.TopicExecuted,
			ValidatePayload: func(raw json.RawMessage) error {
				var payload ExecutedPayload
				return json.Unmarshal(raw, &payload)
			},
		},
	}
	for _, def := range definitions {
		def.EntityType = event.EntityTypeDispute
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}
