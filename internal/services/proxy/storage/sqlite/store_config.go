package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/config"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
	"github.com/justly-io/justly-soroban/internal/services/proxy/storage"
)

// GetConfig returns storage.ErrNotFound until the proxy is initialized.
func (s *Store) GetConfig(ctx context.Context) (config.Config, error) {
	var admin, relayer string
	err := s.q.QueryRowContext(ctx, "SELECT admin, relayer FROM proxy_config WHERE id = 1").Scan(&admin, &relayer)
	if errors.Is(err, sql.ErrNoRows) {
		return config.Config{}, storage.ErrNotFound
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("get config: %w", err)
	}
	return config.Config{Admin: identity.Address(admin), Relayer: identity.Address(relayer)}, nil
}

// PutConfig upserts the configuration singleton.
func (s *Store) PutConfig(ctx context.Context, cfg config.Config) error {
	_, err := s.q.ExecContext(ctx, `
INSERT INTO proxy_config (id, admin, relayer) VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET admin = excluded.admin, relayer = excluded.relayer`,
		cfg.Admin.String(), cfg.Relayer.String(),
	)
	if err != nil {
		return fmt.Errorf("put config: %w", err)
	}
	return nil
}
