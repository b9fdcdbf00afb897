package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/justly-io/justly-soroban/internal/services/proxy/storage"
)

// GetExecution returns the pending marker for disputeID.
func (s *Store) GetExecution(ctx context.Context, disputeID uint64) (storage.Execution, error) {
	var (
		ruling    int64
		holder    string
		expiresAt int64
	)
	err := s.q.QueryRowContext(ctx,
		"SELECT ruling, holder, expires_at FROM executions WHERE dispute_id = ?", toSQLID(disputeID),
	).Scan(&ruling, &holder, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Execution{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Execution{}, fmt.Errorf("get execution %d: %w", disputeID, err)
	}
	return storage.Execution{
		DisputeID: disputeID,
		Ruling:    uint32(ruling),
		Holder:    holder,
		ExpiresAt: fromMillis(expiresAt),
	}, nil
}

// PutExecution upserts a marker, replacing an expired holder.
func (s *Store) PutExecution(ctx context.Context, exec storage.Execution) error {
	_, err := s.q.ExecContext(ctx, `
INSERT INTO executions (dispute_id, ruling, holder, expires_at) VALUES (?, ?, ?, ?)
ON CONFLICT(dispute_id) DO UPDATE SET
    ruling = excluded.ruling,
    holder = excluded.holder,
    expires_at = excluded.expires_at`,
		toSQLID(exec.DisputeID), int64(exec.Ruling), exec.Holder, toMillis(exec.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("put execution %d: %w", exec.DisputeID, err)
	}
	return nil
}

// DeleteExecution removes the marker; a missing marker is not an error.
func (s *Store) DeleteExecution(ctx context.Context, disputeID uint64) error {
	if _, err := s.q.ExecContext(ctx, "DELETE FROM executions WHERE dispute_id = ?", toSQLID(disputeID)); err != nil {
		return fmt.Errorf("delete execution %d: %w", disputeID, err)
	}
	return nil
}
