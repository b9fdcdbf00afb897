package engine

import (
	"context"
	"errors"
	"log"
	"time"

	apperrors "github.com/justly-io/justly-soroban/internal/platform/errors"
	"github.com/justly-io/justly-soroban/internal/platform/id"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/dispute"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
	"github.com/justly-io/justly-soroban/internal/services/proxy/storage"
)

// ExecuteRule forwards the recorded ruling to the dispute's arbitrable
// target and marks the dispute executed. Anyone may trigger it.
//
// The first transaction re-validates and takes the execution marker under a
// fresh holder id; any live marker, whoever started it, fails
// EXECUTION_PENDING. The arbitrable is then called outside any transaction
// and must answer before the lease runs out. On success the second
// transaction journals the execution and clears the marker; on failure the
// marker is cleared and the invoker's error is returned unchanged.
func (e *Engine) ExecuteRule(ctx context.Context, localID uint64) (err error) {
	ctx, span := e.startSpan(ctx, OperationExecuteRule, localID)
	defer func() { endSpan(span, err) }()

	holder, err := id.NewID()
	if err != nil {
		return err
	}
	leaseStart := time.Now()
	payload := dispute.ExecutePayload{LocalID: localID}

	var (
		target identity.Address
		ruling uint32
	)
	err = e.store.WithinTx(ctx, func(tx storage.Tx) error {
		cmd, err := e.newCommand(ctx, dispute.CommandTypeExecute, "", localID, payload)
		if err != nil {
			return err
		}
		state, err := e.loadDispute(ctx, tx, localID)
		if err != nil {
			return err
		}
		if decision := dispute.Decide(state, cmd, e.now); len(decision.Rejections) > 0 {
			return rejectionError(decision.Rejections[0])
		}

		now := e.now()
		marker, err := tx.GetExecution(ctx, localID)
		switch {
		case err == nil:
			if !marker.Expired(now) {
				return apperrors.WithMetadata(apperrors.CodeExecutionPending, "execution already in progress", map[string]string{
					"DisputeID": formatID(localID),
				})
			}
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}

		target = state.Dispute.Arbitrable
		ruling = *state.Dispute.Ruling
		return tx.PutExecution(ctx, storage.Execution{
			DisputeID: localID,
			Ruling:    ruling,
			Holder:    holder,
			ExpiresAt: now.Add(e.lease),
		})
	})
	if err != nil {
		return err
	}

	invokeCtx, cancel := context.WithTimeout(ctx, e.lease-time.Since(leaseStart))
	invokeErr := e.invoker.Rule(invokeCtx, target, localID, ruling)
	cancel()
	if invokeErr != nil {
		if releaseErr := e.releaseExecution(context.WithoutCancel(ctx), localID, holder); releaseErr != nil {
			log.Printf("release execution marker for dispute %d: %v", localID, releaseErr)
		}
		return invokeErr
	}

	// The arbitrable has settled; finish even if the caller went away.
	finalCtx := context.WithoutCancel(ctx)
	return e.store.WithinTx(finalCtx, func(tx storage.Tx) error {
		cmd, err := e.newCommand(finalCtx, dispute.CommandTypeExecute, "", localID, payload)
		if err != nil {
			return err
		}
		state, err := e.loadDispute(finalCtx, tx, localID)
		if err != nil {
			return err
		}
		if _, err := e.commit(finalCtx, tx, dispute.Decide(state, cmd, e.now)); err != nil {
			return err
		}
		return tx.DeleteExecution(finalCtx, localID)
	})
}

// releaseExecution drops the marker if this caller still holds it.
func (e *Engine) releaseExecution(ctx context.Context, localID uint64, holder string) error {
	return e.store.WithinTx(ctx, func(tx storage.Tx) error {
		marker, err := tx.GetExecution(ctx, localID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if marker.Holder != holder {
			return nil
		}
		return tx.DeleteExecution(ctx, localID)
	})
}
