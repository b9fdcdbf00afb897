package projection

import (
	"context"
	"fmt"

	"github.com/justly-io/justly-soroban/internal/services/proxy/storage"
)

const rebuildPageSize = 200

// Rebuild clears every projection and replays the whole journal inside one
// transaction. It returns the number of events applied.
func Rebuild(ctx context.Context, store storage.Store) (int, error) {
	applied := 0
	err := store.WithinTx(ctx, func(tx storage.Tx) error {
		applied = 0
		if err := tx.ResetProjections(ctx); err != nil {
			return err
		}
		applier := ForTx(tx)
		lastSeq := uint64(0)
		for {
			events, err := tx.ListEvents(ctx, lastSeq, rebuildPageSize)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				return nil
			}
			for _, evt := range events {
				if evt.Seq != lastSeq+1 {
					return fmt.Errorf("event sequence gap: expected %d got %d", lastSeq+1, evt.Seq)
				}
				if err := applier.Apply(ctx, evt); err != nil {
					return fmt.Errorf("apply seq %d: %w", evt.Seq, err)
				}
				lastSeq = evt.Seq
				applied++
			}
		}
	})
	return applied, err
}
