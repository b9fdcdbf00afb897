package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/justly-io/justly-soroban/internal/platform/errors"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/amount"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/dispute"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
	"github.com/justly-io/justly-soroban/internal/services/proxy/storage"
)

const disputeCounter = "dispute"

const disputeColumns = `id, arbitrable, claimer, defender, category, root_evidence_hash, jurors_required,
pay_seconds, evidence_seconds, commit_seconds, reveal_seconds, required_amount,
claimer_paid, defender_paid, claimer_amount, defender_amount,
remote_dispute_id, ruling, rule_executed, status, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDispute(row rowScanner) (dispute.Dispute, error) {
	var (
		d                                 dispute.Dispute
		id                                int64
		arbitrable, claimer, defender     string
		rootHash                          string
		required, claimerAmt, defenderAmt string
		claimerPaid, defenderPaid, execd  int64
		remote, ruling                    sql.NullInt64
		status                            int64
		createdAt                         int64
		paySecs, evidenceSecs, commitSecs int64
		revealSecs, jurors                int64
	)
	if err := row.Scan(
		&id, &arbitrable, &claimer, &defender, &d.Category, &rootHash, &jurors,
		&paySecs, &evidenceSecs, &commitSecs, &revealSecs, &required,
		&claimerPaid, &defenderPaid, &claimerAmt, &defenderAmt,
		&remote, &ruling, &execd, &status, &createdAt,
	); err != nil {
		return dispute.Dispute{}, err
	}

	var err error
	if d.RootEvidenceHash, err = dispute.ParseHash(rootHash); err != nil {
		return dispute.Dispute{}, fmt.Errorf("dispute %d root evidence hash: %w", id, err)
	}
	if d.RequiredAmount, err = amount.Parse(required); err != nil {
		return dispute.Dispute{}, fmt.Errorf("dispute %d required amount: %w", id, err)
	}
	if d.ClaimerAmount, err = amount.Parse(claimerAmt); err != nil {
		return dispute.Dispute{}, fmt.Errorf("dispute %d claimer amount: %w", id, err)
	}
	if d.DefenderAmount, err = amount.Parse(defenderAmt); err != nil {
		return dispute.Dispute{}, fmt.Errorf("dispute %d defender amount: %w", id, err)
	}

	d.ID = uint64(id)
	d.Arbitrable = identity.Address(arbitrable)
	d.Claimer = identity.Address(claimer)
	d.Defender = identity.Address(defender)
	d.JurorsRequired = uint32(jurors)
	d.PaySeconds = fromSQLID(paySecs)
	d.EvidenceSeconds = fromSQLID(evidenceSecs)
	d.CommitSeconds = fromSQLID(commitSecs)
	d.RevealSeconds = fromSQLID(revealSecs)
	d.ClaimerPaid = claimerPaid != 0
	d.DefenderPaid = defenderPaid != 0
	d.RuleExecuted = execd != 0
	d.Status = dispute.Status(status)
	d.CreatedAt = fromMillis(createdAt)
	if remote.Valid {
		value := fromSQLID(remote.Int64)
		d.RemoteDisputeID = &value
	}
	if ruling.Valid {
		value := uint32(ruling.Int64)
		d.Ruling = &value
	}
	return d, nil
}

// GetDispute returns storage.ErrNotFound for unknown ids.
func (s *Store) GetDispute(ctx context.Context, id uint64) (dispute.Dispute, error) {
	row := s.q.QueryRowContext(ctx, "SELECT "+disputeColumns+" FROM disputes WHERE id = ?", toSQLID(id))
	d, err := scanDispute(row)
	if errors.Is(err, sql.ErrNoRows) {
		return dispute.Dispute{}, storage.ErrNotFound
	}
	if err != nil {
		return dispute.Dispute{}, fmt.Errorf("get dispute %d: %w", id, err)
	}
	return d, nil
}

// PutDispute upserts a dispute record.
func (s *Store) PutDispute(ctx context.Context, d dispute.Dispute) error {
	if d.ID == 0 {
		return apperrors.New(apperrors.CodeInvalidInput, "dispute id is required")
	}
	var remote, ruling sql.NullInt64
	if d.RemoteDisputeID != nil {
		remote = sql.NullInt64{Int64: toSQLID(*d.RemoteDisputeID), Valid: true}
	}
	if d.Ruling != nil {
		ruling = sql.NullInt64{Int64: int64(*d.Ruling), Valid: true}
	}
	_, err := s.q.ExecContext(ctx, `
INSERT INTO disputes (`+disputeColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    arbitrable = excluded.arbitrable,
    claimer = excluded.claimer,
    defender = excluded.defender,
    category = excluded.category,
    root_evidence_hash = excluded.root_evidence_hash,
    jurors_required = excluded.jurors_required,
    pay_seconds = excluded.pay_seconds,
    evidence_seconds = excluded.evidence_seconds,
    commit_seconds = excluded.commit_seconds,
    reveal_seconds = excluded.reveal_seconds,
    required_amount = excluded.required_amount,
    claimer_paid = excluded.claimer_paid,
    defender_paid = excluded.defender_paid,
    claimer_amount = excluded.claimer_amount,
    defender_amount = excluded.defender_amount,
    remote_dispute_id = excluded.remote_dispute_id,
    ruling = excluded.ruling,
    rule_executed = excluded.rule_executed,
    status = excluded.status,
    created_at = excluded.created_at`,
		toSQLID(d.ID), d.Arbitrable.String(), d.Claimer.String(), d.Defender.String(), d.Category,
		d.RootEvidenceHash.String(), int64(d.JurorsRequired),
		toSQLID(d.PaySeconds), toSQLID(d.EvidenceSeconds), toSQLID(d.CommitSeconds), toSQLID(d.RevealSeconds),
		d.RequiredAmount.String(),
		boolToInt(d.ClaimerPaid), boolToInt(d.DefenderPaid), d.ClaimerAmount.String(), d.DefenderAmount.String(),
		remote, ruling, boolToInt(d.RuleExecuted), int64(d.Status), toMillis(d.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put dispute %d: %w", d.ID, err)
	}
	return nil
}

// ListDisputes returns disputes ordered by id ascending.
func (s *Store) ListDisputes(ctx context.Context, req storage.ListDisputesPageRequest) (storage.ListDisputesPageResult, error) {
	if req.PageSize <= 0 {
		req.PageSize = 50
	}
	if req.PageSize > 200 {
		req.PageSize = 200
	}

	clauses := []string{"id > ?"}
	params := []any{toSQLID(req.AfterID)}
	if req.Status != nil {
		clauses = append(clauses, "status = ?")
		params = append(params, int64(*req.Status))
	}
	query := fmt.Sprintf("SELECT %s FROM disputes WHERE %s ORDER BY id ASC LIMIT %d",
		disputeColumns, strings.Join(clauses, " AND "), req.PageSize+1)

	rows, err := s.q.QueryContext(ctx, query, params...)
	if err != nil {
		return storage.ListDisputesPageResult{}, fmt.Errorf("query disputes: %w", err)
	}
	defer rows.Close()

	disputes := make([]dispute.Dispute, 0, req.PageSize)
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return storage.ListDisputesPageResult{}, fmt.Errorf("scan dispute: %w", err)
		}
		disputes = append(disputes, d)
	}
	if err := rows.Err(); err != nil {
		return storage.ListDisputesPageResult{}, fmt.Errorf("iterate disputes: %w", err)
	}

	result := storage.ListDisputesPageResult{Disputes: disputes}
	if len(disputes) > req.PageSize {
		result.Disputes = disputes[:req.PageSize]
		result.HasNextPage = true
	}
	return result, nil
}

// Counter returns the highest assigned dispute id, or 0.
func (s *Store) Counter(ctx context.Context) (uint64, error) {
	var value int64
	err := s.q.QueryRowContext(ctx, "SELECT value FROM counters WHERE name = ?", disputeCounter).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get counter: %w", err)
	}
	return uint64(value), nil
}

// SetCounter stores the highest assigned dispute id.
func (s *Store) SetCounter(ctx context.Context, value uint64) error {
	_, err := s.q.ExecContext(ctx, `
INSERT INTO counters (name, value) VALUES (?, ?)
ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		disputeCounter, toSQLID(value),
	)
	if err != nil {
		return fmt.Errorf("set counter: %w", err)
	}
	return nil
}

// LookupRemote returns the local id bound to remoteID.
func (s *Store) LookupRemote(ctx context.Context, remoteID uint64) (uint64, error) {
	var local int64
	err := s.q.QueryRowContext(ctx, "SELECT local_id FROM remote_bindings WHERE remote_id = ?", toSQLID(remoteID)).Scan(&local)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, storage.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lookup remote %d: %w", remoteID, err)
	}
	return uint64(local), nil
}

// BindRemote records remoteID -> localID. Either side already bound fails
// with REMOTE_ALREADY_USED.
func (s *Store) BindRemote(ctx context.Context, remoteID, localID uint64) error {
	_, err := s.q.ExecContext(ctx, "INSERT INTO remote_bindings (remote_id, local_id) VALUES (?, ?)", toSQLID(remoteID), toSQLID(localID))
	if err != nil {
		if isConstraintError(err) {
			return apperrors.WithMetadata(apperrors.CodeRemoteAlreadyUsed, "remote dispute is already bound", map[string]string{
				"RemoteID": fmt.Sprint(remoteID),
			})
		}
		return fmt.Errorf("bind remote %d: %w", remoteID, err)
	}
	return nil
}
