// Package dispute implements the dispute lifecycle: creation, stake payment,
// evidence pointers, remote binding, ruling and execution.
//
// Decide validates a command against freshly loaded state and emits at most
// one event; Fold applies that event to the stored record. The stored record
// is therefore always the fold of the journal.
package dispute

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/amount"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
)

// Status is the lifecycle phase of a dispute. Values only grow.
type Status uint8

const (
	StatusCreated Status = iota
	StatusFunded
	StatusRuled
	StatusExecuted
)

var statusNames = [...]string{"Created", "Funded", "Ruled", "Executed"}

// String returns the status name.
func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// ParseStatus resolves a status name, case-insensitively.
func ParseStatus(name string) (Status, error) {
	for i, candidate := range statusNames {
		if strings.EqualFold(candidate, strings.TrimSpace(name)) {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("unknown dispute status %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Hash is a 32-byte digest, hex encoded on the wire.
type Hash [32]byte

// ParseHash decodes a 64 character hex digest.
func ParseHash(s string) (Hash, error) {
	var h Hash
	raw, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return h, fmt.Errorf("decode hash: %w", err)
	}
	if len(raw) != len(h) {
		return h, fmt.Errorf("hash must be %d bytes, got %d", len(h), len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

// String returns the hex form.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Dispute is the stored dispute record.
type Dispute struct {
	ID               uint64           `json:"id"`
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
	ClaimerPaid      bool             `json:"claimer_paid"`
	DefenderPaid     bool             `json:"defender_paid"`
	ClaimerAmount    amount.Amount    `json:"claimer_amount"`
	DefenderAmount   amount.Amount    `json:"defender_amount"`
	RemoteDisputeID  *uint64          `json:"remote_dispute_id,omitempty"`
	Ruling           *uint32          `json:"ruling,omitempty"`
	RuleExecuted     bool             `json:"rule_executed"`
	Status           Status           `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
}

// IsParty reports whether addr is the claimer or the defender.
func (d Dispute) IsParty(addr identity.Address) bool {
	return addr == d.Claimer || addr == d.Defender
}

// MaxCategoryLength bounds category labels.
const MaxCategoryLength = 32

// ValidCategory reports whether label is a non-empty short symbol made of
// ASCII letters, digits and underscores.
func ValidCategory(label string) bool {
	if label == "" || len(label) > MaxCategoryLength {
		return false
	}
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}
