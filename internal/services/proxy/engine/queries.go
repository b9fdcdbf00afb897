package engine

import (
	"context"
	"errors"
	"strconv"

	apperrors "github.com/justly-io/justly-soroban/internal/platform/errors"
	"github.com/justly-io/justly-soroban/internal/services/proxy/core/filter"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/config"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/dispute"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
	"github.com/justly-io/justly-soroban/internal/services/proxy/projection"
	"github.com/justly-io/justly-soroban/internal/services/proxy/storage"
	"github.com/justly-io/justly-soroban/internal/services/proxy/storage/integrity"
)

// GetDispute returns the stored record.
func (e *Engine) GetDispute(ctx context.Context, disputeID uint64) (dispute.Dispute, error) {
	d, err := e.store.GetDispute(ctx, disputeID)
	if errors.Is(err, storage.ErrNotFound) {
		return dispute.Dispute{}, apperrors.WithMetadata(apperrors.CodeNotFound, "dispute not found", map[string]string{
			"DisputeID": formatID(disputeID),
		})
	}
	return d, err
}

// GetLocalByRemote returns the local id bound to remoteID, if any.
func (e *Engine) GetLocalByRemote(ctx context.Context, remoteID uint64) (uint64, bool, error) {
	local, err := e.store.LookupRemote(ctx, remoteID)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return local, true, nil
}

// GetRelayer returns the configured relayer.
func (e *Engine) GetRelayer(ctx context.Context) (identity.Address, error) {
	cfg, err := e.requireConfig(ctx, e.store)
	if err != nil {
		return "", err
	}
	return cfg.Relayer, nil
}

// GetConfig returns both privileged identities.
func (e *Engine) GetConfig(ctx context.Context) (config.Config, error) {
	return e.requireConfig(ctx, e.store)
}

// ListDisputes returns a page of disputes ordered by id.
func (e *Engine) ListDisputes(ctx context.Context, req storage.ListDisputesPageRequest) (storage.ListDisputesPageResult, error) {
	return e.store.ListDisputes(ctx, req)
}

// EventQuery selects journal events.
type EventQuery struct {
	// Filter is an AIP-160 expression over dispute_id, seq, topic, type,
	// actor_id, entity_type and ts.
	Filter     string
	CursorSeq  uint64
	PageSize   int
	Descending bool
}

// ListEvents returns a filtered page of the journal.
func (e *Engine) ListEvents(ctx context.Context, query EventQuery) (storage.ListEventsPageResult, error) {
	cond, err := filter.ParseEventFilter(query.Filter)
	if err != nil {
		return storage.ListEventsPageResult{}, apperrors.WithMetadata(apperrors.CodeInvalidInput, err.Error(), map[string]string{
			"Reason": "filter",
		})
	}
	return e.store.ListEventsPage(ctx, storage.ListEventsPageRequest{
		CursorSeq:    query.CursorSeq,
		PageSize:     query.PageSize,
		Descending:   query.Descending,
		FilterClause: cond.Clause,
		FilterParams: cond.Params,
	})
}

// JournalReport summarizes a successful verification pass.
type JournalReport struct {
	Events        uint64 `json:"events"`
	HeadChainHash string `json:"head_chain_hash"`
}

// VerifyJournal walks the journal from the first event and checks every
// hash link and signature. A broken link fails with JOURNAL_CORRUPT.
func (e *Engine) VerifyJournal(ctx context.Context) (JournalReport, error) {
	if e.keyring == nil {
		return JournalReport{}, errors.New("journal keyring is not configured")
	}
	verifier := integrity.NewVerifier(e.keyring)
	lastSeq := uint64(0)
	for {
		events, err := e.store.ListEvents(ctx, lastSeq, 200)
		if err != nil {
			return JournalReport{}, err
		}
		if len(events) == 0 {
			return JournalReport{Events: verifier.Checked(), HeadChainHash: verifier.HeadChainHash()}, nil
		}
		for _, evt := range events {
			if err := verifier.Check(evt); err != nil {
				var linkErr *integrity.LinkError
				metadata := map[string]string{}
				if errors.As(err, &linkErr) {
					metadata["Seq"] = strconv.FormatUint(linkErr.Seq, 10)
					metadata["Reason"] = linkErr.Reason
				}
				return JournalReport{}, apperrors.WithMetadata(apperrors.CodeJournalCorrupt, err.Error(), metadata)
			}
			lastSeq = evt.Seq
		}
	}
}

// Rebuild replays the journal into fresh projections.
func (e *Engine) Rebuild(ctx context.Context) (int, error) {
	return projection.Rebuild(ctx, e.store)
}
