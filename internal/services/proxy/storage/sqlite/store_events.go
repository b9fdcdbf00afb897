package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/event"
	"github.com/justly-io/justly-soroban/internal/services/proxy/storage"
	"github.com/justly-io/justly-soroban/internal/services/proxy/storage/integrity"
)

const eventColumns = `seq, event_hash, prev_event_hash, chain_hash, signature_key_id, event_signature,
timestamp, event_type, topic, actor_id, request_id, invocation_id, entity_type, entity_id, dispute_id, payload_json`

// AppendEvent validates, seals and appends an event, returning it with
// sequence, hashes and signature set.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if s == nil || s.sqlDB == nil {
		return event.Event{}, fmt.Errorf("storage is not configured")
	}
	if !s.inTx {
		var stored event.Event
		err := s.WithinTx(ctx, func(tx storage.Tx) error {
			var err error
			stored, err = tx.AppendEvent(ctx, evt)
			return err
		})
		return stored, err
	}

	validated, err := s.eventRegistry.ValidateForAppend(evt)
	if err != nil {
		return event.Event{}, err
	}
	evt = validated
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	evt.Timestamp = evt.Timestamp.UTC().Truncate(time.Millisecond)

	var (
		lastSeq  int64
		prevHash string
	)
	err = s.q.QueryRowContext(ctx, "SELECT seq, chain_hash FROM events ORDER BY seq DESC LIMIT 1").Scan(&lastSeq, &prevHash)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, fmt.Errorf("load previous event: %w", err)
	}
	evt.Seq = uint64(lastSeq) + 1

	hash, err := integrity.EventHash(evt)
	if err != nil {
		return event.Event{}, fmt.Errorf("compute event hash: %w", err)
	}
	evt.Hash = hash

	chainHash, err := integrity.ChainHash(evt, prevHash)
	if err != nil {
		return event.Event{}, fmt.Errorf("compute chain hash: %w", err)
	}
	signature, keyID := s.keyring.Sign(chainHash)
	evt.PrevHash = prevHash
	evt.ChainHash = chainHash
	evt.Signature = signature
	evt.SignatureKeyID = keyID

	if _, err := s.q.ExecContext(ctx, "INSERT INTO events ("+eventColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		int64(evt.Seq), evt.Hash, evt.PrevHash, evt.ChainHash, evt.SignatureKeyID, evt.Signature,
		toMillis(evt.Timestamp), string(evt.Type), string(evt.Topic), evt.ActorID, evt.RequestID, evt.InvocationID,
		evt.EntityType, evt.EntityID, toSQLID(evt.DisputeID), []byte(evt.PayloadJSON),
	); err != nil {
		return event.Event{}, fmt.Errorf("append event: %w", err)
	}
	return evt, nil
}

func scanEvent(row rowScanner) (event.Event, error) {
	var (
		evt       event.Event
		seq       int64
		ts        int64
		eventType string
		topic     string
		disputeID int64
		payload   []byte
	)
	if err := row.Scan(
		&seq, &evt.Hash, &evt.PrevHash, &evt.ChainHash, &evt.SignatureKeyID, &evt.Signature,
		&ts, &eventType, &topic, &evt.ActorID, &evt.RequestID, &evt.InvocationID,
		&evt.EntityType, &evt.EntityID, &disputeID, &payload,
	); err != nil {
		return event.Event{}, err
	}
	evt.Seq = uint64(seq)
	evt.Timestamp = fromMillis(ts)
	evt.Type = event.Type(eventType)
	evt.Topic = event.Topic(topic)
	evt.DisputeID = fromSQLID(disputeID)
	evt.PayloadJSON = payload
	return evt, nil
}

// ListEvents returns up to limit events after afterSeq in ascending order.
func (s *Store) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE seq > ? ORDER BY seq ASC LIMIT ?", int64(afterSeq), limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := make([]event.Event, 0, limit)
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// LatestEventSeq returns 0 when the journal is empty.
func (s *Store) LatestEventSeq(ctx context.Context) (uint64, error) {
	var seq sql.NullInt64
	if err := s.q.QueryRowContext(ctx, "SELECT MAX(seq) FROM events").Scan(&seq); err != nil {
		return 0, fmt.Errorf("latest event seq: %w", err)
	}
	return uint64(seq.Int64), nil
}

type listEventsPageSQLPlan struct {
	whereClause string
	params      []any
	orderClause string
	limitClause string
	countClause string
	countParams []any
}

func buildListEventsPageSQLPlan(req storage.ListEventsPageRequest) listEventsPageSQLPlan {
	clauses := []string{"1 = 1"}
	var params []any
	var countParams []any
	if req.FilterClause != "" {
		clauses = append(clauses, req.FilterClause)
		params = append(params, req.FilterParams...)
		countParams = append(countParams, req.FilterParams...)
	}
	countClause := strings.Join(clauses, " AND ")

	if req.CursorSeq > 0 {
		if req.Descending {
			clauses = append(clauses, "seq < ?")
		} else {
			clauses = append(clauses, "seq > ?")
		}
		params = append(params, int64(req.CursorSeq))
	}

	orderClause := "ORDER BY seq ASC"
	if req.Descending {
		orderClause = "ORDER BY seq DESC"
	}
	return listEventsPageSQLPlan{
		whereClause: strings.Join(clauses, " AND "),
		params:      params,
		orderClause: orderClause,
		limitClause: fmt.Sprintf("LIMIT %d", req.PageSize+1),
		countClause: countClause,
		countParams: countParams,
	}
}

// ListEventsPage returns a filtered page of journal events.
func (s *Store) ListEventsPage(ctx context.Context, req storage.ListEventsPageRequest) (storage.ListEventsPageResult, error) {
	if err := ctx.Err(); err != nil {
		return storage.ListEventsPageResult{}, err
	}
	if req.PageSize <= 0 {
		req.PageSize = 50
	}
	if req.PageSize > 200 {
		req.PageSize = 200
	}

	plan := buildListEventsPageSQLPlan(req)
	query := fmt.Sprintf("SELECT %s FROM events WHERE %s %s %s", eventColumns, plan.whereClause, plan.orderClause, plan.limitClause)
	rows, err := s.q.QueryContext(ctx, query, plan.params...)
	if err != nil {
		return storage.ListEventsPageResult{}, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := make([]event.Event, 0, req.PageSize)
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return storage.ListEventsPageResult{}, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return storage.ListEventsPageResult{}, fmt.Errorf("iterate events: %w", err)
	}

	result := storage.ListEventsPageResult{Events: events}
	if len(events) > req.PageSize {
		result.Events = events[:req.PageSize]
		result.HasNextPage = true
	}

	var total int64
	if err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM events WHERE "+plan.countClause, plan.countParams...).Scan(&total); err != nil {
		return storage.ListEventsPageResult{}, fmt.Errorf("count events: %w", err)
	}
	result.TotalCount = int(total)
	return result, nil
}
