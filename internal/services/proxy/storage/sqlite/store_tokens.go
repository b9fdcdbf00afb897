package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ConsumeToken records jti as spent until expiresAt and reports whether it
// was unspent. Entries whose expiry is not after now are pruned first; the
// gate refuses such tokens before they reach the ledger.
func (s *Store) ConsumeToken(ctx context.Context, jti string, expiresAt, now time.Time) (bool, error) {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return false, fmt.Errorf("token id is required")
	}
	if _, err := s.q.ExecContext(ctx, "DELETE FROM used_tokens WHERE expires_at <= ?", toMillis(now)); err != nil {
		return false, fmt.Errorf("prune used tokens: %w", err)
	}
	res, err := s.q.ExecContext(ctx,
		"INSERT INTO used_tokens (jti, expires_at) VALUES (?, ?) ON CONFLICT(jti) DO NOTHING",
		jti, toMillis(expiresAt),
	)
	if err != nil {
		return false, fmt.Errorf("consume token %s: %w", jti, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume token %s: %w", jti, err)
	}
	return n == 1, nil
}
