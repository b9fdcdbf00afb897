// Package projection folds journal events into the stored configuration,
// dispute records, the remote index and the id counter.
package projection

import (
	"context"
	"errors"
	"fmt"

	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/config"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/dispute"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/event"
	"github.com/justly-io/justly-soroban/internal/services/proxy/storage"
)

// Applier applies journal entries to projection stores.
type Applier struct {
	// Config writes the configuration singleton.
	Config storage.ConfigStore
	// Disputes writes dispute records, bindings and the counter.
	Disputes storage.DisputeStore
}

// ForTx builds an applier writing through tx.
func ForTx(tx storage.Tx) Applier {
	return Applier{Config: tx, Disputes: tx}
}

// Apply routes an event into the store it changes.
func (a Applier) Apply(ctx context.Context, evt event.Event) error {
	switch evt.EntityType {
	case event.EntityTypeConfig:
		return a.applyConfig(ctx, evt)
	case event.EntityTypeDispute:
		return a.applyDispute(ctx, evt)
	default:
		return fmt.Errorf("unhandled projection entity type: %s", evt.EntityType)
	}
}

func (a Applier) applyConfig(ctx context.Context, evt event.Event) error {
	if a.Config == nil {
		return errors.New("config store is not configured")
	}
	state := config.State{}
	current, err := a.Config.GetConfig(ctx)
	switch {
	case err == nil:
		state = config.State{Initialized: true, Config: current}
	case !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("load config: %w", err)
	}
	next := config.Fold(state, evt)
	if !next.Initialized {
		return fmt.Errorf("%s applied before initialization", evt.Type)
	}
	if err := a.Config.PutConfig(ctx, next.Config); err != nil {
		return err
	}
	if evt.Type == config.EventTypeInitialized && a.Disputes != nil {
		return a.Disputes.SetCounter(ctx, 0)
	}
	return nil
}

func (a Applier) applyDispute(ctx context.Context, evt event.Event) error {
	if a.Disputes == nil {
		return errors.New("dispute store is not configured")
	}
	var current dispute.Dispute
	if evt.Type != dispute.EventTypeCreated {
		loaded, err := a.Disputes.GetDispute(ctx, evt.DisputeID)
		if err != nil {
			return fmt.Errorf("load dispute %d: %w", evt.DisputeID, err)
		}
		current = loaded
	}

	next, err := dispute.Fold(current, evt)
	if err != nil {
		return err
	}
	if err := a.Disputes.PutDispute(ctx, next); err != nil {
		return err
	}

	switch evt.Type {
	case dispute.EventTypeCreated:
		counter, err := a.Disputes.Counter(ctx)
		if err != nil {
			return err
		}
		if next.ID > counter {
			return a.Disputes.SetCounter(ctx, next.ID)
		}
	case dispute.EventTypeRemoteBound:
		return a.Disputes.BindRemote(ctx, *next.RemoteDisputeID, next.ID)
	}
	return nil
}
