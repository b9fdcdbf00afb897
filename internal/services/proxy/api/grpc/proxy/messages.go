package proxy

import (
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/amount"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/dispute"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/event"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
)

// Request and response messages travel as JSON. 64-bit ids are encoded as
// strings so clients in any language read them exactly.

type InitializeRequest struct {
	Admin   identity.Address `json:"admin"`
	Relayer identity.Address `json:"relayer"`
}

type ConfigResponse struct {
	Admin   identity.Address `json:"admin"`
	Relayer identity.Address `json:"relayer"`
}

type SetRelayerRequest struct {
	Relayer identity.Address `json:"relayer"`
}

type Empty struct{}

type CreateDisputeRequest struct {
	Params dispute.CreateParams `json:"params"`
}

type CreateDisputeResponse struct {
	DisputeID uint64 `json:"dispute_id,string"`
}

type PayDisputeRequest struct {
	Payer     identity.Address `json:"payer"`
	DisputeID uint64           `json:"dispute_id,string"`
	Amount    amount.Amount    `json:"amount"`
}

type SubmitEvidenceRequest struct {
	Submitter    identity.Address `json:"submitter"`
	DisputeID    uint64           `json:"dispute_id,string"`
	EvidenceHash dispute.Hash     `json:"evidence_hash"`
}

type BindRemoteDisputeRequest struct {
	LocalID  uint64 `json:"local_id,string"`
	RemoteID uint64 `json:"remote_id,string"`
}

type RuleRequest struct {
	LocalID uint64 `json:"local_id,string"`
	Ruling  uint32 `json:"ruling"`
}

type ExecuteRuleRequest struct {
	LocalID uint64 `json:"local_id,string"`
}

type GetDisputeRequest struct {
	DisputeID uint64 `json:"dispute_id,string"`
}

type GetDisputeResponse struct {
	Dispute dispute.Dispute `json:"dispute"`
}

type GetLocalByRemoteRequest struct {
	RemoteID uint64 `json:"remote_id,string"`
}

// GetLocalByRemoteResponse leaves LocalID zero when Found is false.
type GetLocalByRemoteResponse struct {
	LocalID uint64 `json:"local_id,string"`
	Found   bool   `json:"found"`
}

type GetRelayerRequest struct{}

type GetRelayerResponse struct {
	Relayer identity.Address `json:"relayer"`
}

// ListDisputesRequest pages disputes by id. Status filters by status name.
type ListDisputesRequest struct {
	PageSize  int32  `json:"page_size,omitempty"`
	PageToken string `json:"page_token,omitempty"`
	Status    string `json:"status,omitempty"`
}

type ListDisputesResponse struct {
	Disputes      []dispute.Dispute `json:"disputes"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

// ListEventsRequest pages the journal. Filter is an AIP-160 expression and
// OrderBy is "seq" or "seq desc".
type ListEventsRequest struct {
	Filter    string `json:"filter,omitempty"`
	OrderBy   string `json:"order_by,omitempty"`
	PageSize  int32  `json:"page_size,omitempty"`
	PageToken string `json:"page_token,omitempty"`
}

type ListEventsResponse struct {
	Events        []event.Event `json:"events"`
	NextPageToken string        `json:"next_page_token,omitempty"`
	TotalSize     int           `json:"total_size"`
}

type VerifyJournalRequest struct{}

type VerifyJournalResponse struct {
	Events        uint64 `json:"events,string"`
	HeadChainHash string `json:"head_chain_hash"`
}
