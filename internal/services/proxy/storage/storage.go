package storage

import (
	"context"
	"time"

	apperrors "github.com/justly-io/justly-soroban/internal/platform/errors"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/config"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/dispute"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/event"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such entity" states
// and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// Execution is a pending execution marker. While it exists and has not
// expired, no other caller may execute the same dispute.
type Execution struct {
	DisputeID uint64
	Ruling    uint32
	Holder    string
	ExpiresAt time.Time
}

// Expired reports whether the marker's lease has lapsed at now.
func (e Execution) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// ConfigStore owns the configuration singleton.
type ConfigStore interface {
	// GetConfig returns ErrNotFound until the proxy is initialized.
	GetConfig(ctx context.Context) (config.Config, error)
	PutConfig(ctx context.Context, cfg config.Config) error
}

// DisputeStore owns dispute records, the id counter and the remote index.
type DisputeStore interface {
	GetDispute(ctx context.Context, id uint64) (dispute.Dispute, error)
	PutDispute(ctx context.Context, d dispute.Dispute) error
	// ListDisputes returns disputes ordered by id ascending.
	ListDisputes(ctx context.Context, req ListDisputesPageRequest) (ListDisputesPageResult, error)
	// Counter returns the highest id ever assigned, or 0.
	Counter(ctx context.Context) (uint64, error)
	SetCounter(ctx context.Context, value uint64) error
	// LookupRemote returns the local id bound to remoteID.
	LookupRemote(ctx context.Context, remoteID uint64) (uint64, error)
	BindRemote(ctx context.Context, remoteID, localID uint64) error
}

// ExecutionStore owns pending execution markers.
type ExecutionStore interface {
	GetExecution(ctx context.Context, disputeID uint64) (Execution, error)
	PutExecution(ctx context.Context, exec Execution) error
	DeleteExecution(ctx context.Context, disputeID uint64) error
}

// TokenStore owns the ledger of spent authorization token ids.
type TokenStore interface {
	// ConsumeToken marks jti spent until expiresAt and reports whether it was
	// unspent. Entries that expired by now may be pruned.
	ConsumeToken(ctx context.Context, jti string, expiresAt, now time.Time) (bool, error)
}

// EventStore owns the ordered journal.
type EventStore interface {
	// AppendEvent appends an event and returns it with sequence and hashes set.
	AppendEvent(ctx context.Context, evt event.Event) (event.Event, error)
	// ListEvents returns up to limit events with seq greater than afterSeq in
	// ascending order.
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error)
	// ListEventsPage returns a filtered page of events.
	ListEventsPage(ctx context.Context, req ListEventsPageRequest) (ListEventsPageResult, error)
	// LatestEventSeq returns 0 if the journal is empty.
	LatestEventSeq(ctx context.Context) (uint64, error)
}

// Tx is the view handed to a transaction body. Every method runs inside the
// same database transaction.
type Tx interface {
	ConfigStore
	DisputeStore
	ExecutionStore
	EventStore
	TokenStore
	// ResetProjections clears every record derived from the journal.
	ResetProjections(ctx context.Context) error
}

// Store is the full persistence boundary.
type Store interface {
	ConfigStore
	DisputeStore
	ExecutionStore
	EventStore
	// WithinTx runs fn in a transaction, committing when fn returns nil.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// ListDisputesPageRequest describes a keyset page of disputes.
type ListDisputesPageRequest struct {
	// AfterID returns only disputes with id greater than this value.
	AfterID uint64
	// PageSize is the maximum number of disputes to return (default: 50, max: 200).
	PageSize int
	// Status restricts results to one status when set.
	Status *dispute.Status
}

// ListDisputesPageResult contains one page of disputes.
type ListDisputesPageResult struct {
	Disputes    []dispute.Dispute
	HasNextPage bool
}

// ListEventsPageRequest describes request filters for journal history views.
type ListEventsPageRequest struct {
	// CursorSeq is the sequence number to paginate from (0 for first page).
	CursorSeq uint64
	// PageSize is the maximum number of events to return (default: 50, max: 200).
	PageSize int
	// Descending orders results by seq desc (newest first) when true.
	Descending bool
	// FilterClause is an optional SQL WHERE clause fragment.
	FilterClause string
	// FilterParams are the positional parameters for the filter clause.
	FilterParams []any
}

// ListEventsPageResult contains paginated journal history.
type ListEventsPageResult struct {
	Events      []event.Event
	HasNextPage bool
	// TotalCount is the total number of events matching the filter.
	TotalCount int
}
