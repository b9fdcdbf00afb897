package dispute

import (
	"time"

	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/amount"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
)

// CreateParams are the caller-supplied creation parameters. They double as
// the create command payload and the arguments the claimer signs.
type CreateParams struct {
	Arbitrable       identity.Address `json:"arbitrable"`
	Claimer          identity.Address `json:"claimer"`
	Defender         identity.Address `json:"defender"`
	Category         string           `json:"category"`
	RootEvidenceHash Hash             `json:"root_evidence_hash"`
	JurorsRequired   uint32           `json:"jurors_required"`
	PaySeconds       uint64           `json:"pay_seconds"`
	EvidenceSeconds  uint64           `json:"evidence_seconds"`
	CommitSeconds    uint64           `json:"commit_seconds"`
	RevealSeconds    uint64           `json:"reveal_seconds"`
	RequiredAmount   amount.Amount    `json:"required_amount"`
}

// CreatedPayload is the dispute.created event body.
type CreatedPayload struct {
	ID        uint64       `json:"id"`
	Params    CreateParams `json:"params"`
	CreatedAt time.Time    `json:"created_at"`
}

// PayPayload is the pay command payload.
type PayPayload struct {
	Payer     identity.Address `json:"payer"`
	DisputeID uint64           `json:"dispute_id"`
	Amount    amount.Amount    `json:"amount"`
}

// PaidPayload is the dispute.paid event body.
type PaidPayload struct {
	Payer  identity.Address `json:"payer"`
	Amount amount.Amount    `json:"amount"`
}

// EvidencePayload is the submit evidence command payload.
type EvidencePayload struct {
	Submitter    identity.Address `json:"submitter"`
	DisputeID    uint64           `json:"dispute_id"`
	EvidenceHash Hash             `json:"evidence_hash"`
}

// EvidenceSubmittedPayload is the dispute.evidence_submitted event body.
type EvidenceSubmittedPayload struct {
	Submitter    identity.Address `json:"submitter"`
	EvidenceHash Hash             `json:"evidence_hash"`
}

// BindPayload is the bind remote command payload.
type BindPayload struct {
	LocalID  uint64 `json:"local_id"`
	RemoteID uint64 `json:"remote_id"`
}

// BoundPayload is the dispute.remote_bound event body.
type BoundPayload struct {
	RemoteID uint64 `json:"remote_id"`
}

// RulePayload is the rule command payload.
type RulePayload struct {
	LocalID uint64 `json:"local_id"`
	Ruling  uint32 `json:"ruling"`
}

// RuledPayload is the dispute.ruled event body.
type RuledPayload struct {
	Ruling uint32 `json:"ruling"`
}

// ExecutePayload is the execute command payload.
type ExecutePayload struct {
	LocalID uint64 `json:"local_id"`
}

// ExecutedPayload is the dispute.executed event body.
type ExecutedPayload struct {
	Ruling uint32 `json:"ruling"`
}
