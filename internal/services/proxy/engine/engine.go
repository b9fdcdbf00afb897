package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	apperrors "github.com/justly-io/justly-soroban/internal/platform/errors"
	platformotel "github.com/justly-io/justly-soroban/internal/platform/otel"
	"github.com/justly-io/justly-soroban/internal/platform/timeouts"
	"github.com/justly-io/justly-soroban/internal/services/proxy/arbitrable"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/authz"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/command"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/config"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/dispute"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/event"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
	"github.com/justly-io/justly-soroban/internal/services/proxy/projection"
	"github.com/justly-io/justly-soroban/internal/services/proxy/storage"
	"github.com/justly-io/justly-soroban/internal/services/proxy/storage/integrity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Operation names bound into authorization tokens.
const (
	OperationInitialize     = "initialize"
	OperationSetRelayer     = "set_relayer"
	OperationCreateDispute  = "create_dispute"
	OperationPayDispute     = "pay_dispute"
	OperationSubmitEvidence = "submit_evidence"
	OperationBindRemote     = "bind_remote_dispute"
	OperationRule           = "rule"
	OperationExecuteRule    = "execute_rule"
)

// DefaultExecutionLease bounds how long a pending execution blocks others.
const DefaultExecutionLease = timeouts.ExecutionLease

var (
	// ErrStoreRequired indicates a missing store.
	ErrStoreRequired = errors.New("store is required")
	// ErrGateRequired indicates a missing authorization gate.
	ErrGateRequired = errors.New("authorization gate is required")
	// ErrInvokerRequired indicates a missing arbitrable invoker.
	ErrInvokerRequired = errors.New("arbitrable invoker is required")
)

// Options configures an Engine.
type Options struct {
	Gate           authz.Gate
	Invoker        arbitrable.Invoker
	Now            func() time.Time
	ExecutionLease time.Duration
	// Keyring verifies journal signatures in VerifyJournal.
	Keyring *integrity.Keyring
}

// Engine executes proxy operations against a store.
type Engine struct {
	store   storage.Store
	gate    authz.Gate
	invoker arbitrable.Invoker
	now     func() time.Time
	lease   time.Duration
	keyring *integrity.Keyring
	tracer  trace.Tracer
}

// New builds an engine.
func New(store storage.Store, opts Options) (*Engine, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if opts.Gate == nil {
		return nil, ErrGateRequired
	}
	if opts.Invoker == nil {
		return nil, ErrInvokerRequired
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	lease := opts.ExecutionLease
	if lease <= 0 {
		lease = DefaultExecutionLease
	}
	return &Engine{
		store:   store,
		gate:    opts.Gate,
		invoker: opts.Invoker,
		now:     func() time.Time { return now().UTC() },
		lease:   lease,
		keyring: opts.Keyring,
		tracer:  platformotel.Tracer("github.com/justly-io/justly-soroban/internal/services/proxy/engine"),
	}, nil
}

// NewRegistry returns an event registry with every proxy event registered.
func NewRegistry() (*event.Registry, error) {
	registry := event.NewRegistry()
	if err := config.RegisterEvents(registry); err != nil {
		return nil, err
	}
	if err := dispute.RegisterEvents(registry); err != nil {
		return nil, err
	}
	return registry, nil
}

// Meta carries request correlation ids onto journaled events.
type Meta struct {
	RequestID    string
	InvocationID string
}

type metaKey struct{}

// WithMeta attaches correlation ids to ctx.
func WithMeta(ctx context.Context, meta Meta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

// MetaFromContext returns the correlation ids attached to ctx.
func MetaFromContext(ctx context.Context) Meta {
	meta, _ := ctx.Value(metaKey{}).(Meta)
	return meta
}

func (e *Engine) startSpan(ctx context.Context, operation string, disputeID uint64) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("justly.operation", operation)}
	if disputeID > 0 {
		attrs = append(attrs, attribute.String("justly.dispute_id", strconv.FormatUint(disputeID, 10)))
	}
	return e.tracer.Start(ctx, "proxy."+operation, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (e *Engine) newCommand(ctx context.Context, cmdType command.Type, actor identity.Address, disputeID uint64, payload any) (command.Command, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return command.Command{}, fmt.Errorf("encode %s payload: %w", cmdType, err)
	}
	meta := MetaFromContext(ctx)
	return command.Command{
		Type:         cmdType,
		ActorID:      actor.String(),
		RequestID:    meta.RequestID,
		InvocationID: meta.InvocationID,
		DisputeID:    disputeID,
		PayloadJSON:  payloadJSON,
	}, nil
}

// commit appends the decided events and folds them into the stored records.
func (e *Engine) commit(ctx context.Context, tx storage.Tx, decision command.Decision) (event.Event, error) {
	if err := decision.Validate(); err != nil {
		return event.Event{}, err
	}
	if len(decision.Rejections) > 0 {
		return event.Event{}, rejectionError(decision.Rejections[0])
	}
	applier := projection.ForTx(tx)
	var last event.Event
	for _, evt := range decision.Events {
		stored, err := tx.AppendEvent(ctx, evt)
		if err != nil {
			return event.Event{}, err
		}
		if err := applier.Apply(ctx, stored); err != nil {
			return event.Event{}, fmt.Errorf("project %s: %w", stored.Type, err)
		}
		last = stored
	}
	return last, nil
}

func rejectionError(r command.Rejection) error {
	return apperrors.WithMetadata(apperrors.Code(r.Code), r.Message, r.Metadata)
}

func (e *Engine) requireConfig(ctx context.Context, reader storage.ConfigStore) (config.Config, error) {
	cfg, err := reader.GetConfig(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return config.Config{}, apperrors.New(apperrors.CodeConfigMissing, "proxy is not initialized")
	}
	return cfg, err
}

func (e *Engine) loadDispute(ctx context.Context, reader storage.DisputeStore, id uint64) (dispute.State, error) {
	d, err := reader.GetDispute(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return dispute.State{}, nil
	}
	if err != nil {
		return dispute.State{}, err
	}
	return dispute.State{Exists: true, Dispute: d}, nil
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
