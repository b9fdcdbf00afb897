package engine

import (
	"context"
	"errors"
	"math"

	apperrors "github.com/justly-io/justly-soroban/internal/platform/errors"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/amount"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/authz"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/command"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/config"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/dispute"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
	"github.com/justly-io/justly-soroban/internal/services/proxy/storage"
)

// Initialize stores the admin and relayer. The admin must approve.
func (e *Engine) Initialize(ctx context.Context, admin, relayer identity.Address) (cfg config.Config, err error) {
	ctx, span := e.startSpan(ctx, OperationInitialize, 0)
	defer func() { endSpan(span, err) }()

	payload := config.InitializePayload{Admin: admin, Relayer: relayer}
	cmd, err := e.newCommand(ctx, config.CommandTypeInitialize, admin, 0, payload)
	if err != nil {
		return config.Config{}, err
	}
	err = e.store.WithinTx(ctx, func(tx storage.Tx) error {
		if err := e.require(ctx, tx, admin, authz.NewCall(OperationInitialize, payload)); err != nil {
			return err
		}
		state := config.State{}
		current, err := tx.GetConfig(ctx)
		switch {
		case err == nil:
			state = config.State{Initialized: true, Config: current}
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}
		if _, err := e.commit(ctx, tx, config.Decide(state, cmd, e.now)); err != nil {
			return err
		}
		cfg, err = tx.GetConfig(ctx)
		return err
	})
	return cfg, err
}

// SetRelayer replaces the relayer. The current admin must approve.
func (e *Engine) SetRelayer(ctx context.Context, relayer identity.Address) (err error) {
	ctx, span := e.startSpan(ctx, OperationSetRelayer, 0)
	defer func() { endSpan(span, err) }()

	payload := config.SetRelayerPayload{Relayer: relayer}
	return e.store.WithinTx(ctx, func(tx storage.Tx) error {
		cfg, err := e.requireConfig(ctx, tx)
		if err != nil {
			return err
		}
		if err := e.require(ctx, tx, cfg.Admin, authz.NewCall(OperationSetRelayer, payload)); err != nil {
			return err
		}
		cmd, err := e.newCommand(ctx, config.CommandTypeSetRelayer, cfg.Admin, 0, payload)
		if err != nil {
			return err
		}
		_, err = e.commit(ctx, tx, config.Decide(config.State{Initialized: true, Config: cfg}, cmd, e.now))
		return err
	})
}

// CreateDispute records a new dispute and returns its id. The claimer named
// in params must approve.
func (e *Engine) CreateDispute(ctx context.Context, params dispute.CreateParams) (id uint64, err error) {
	ctx, span := e.startSpan(ctx, OperationCreateDispute, 0)
	defer func() { endSpan(span, err) }()

	cmd, err := e.newCommand(ctx, dispute.CommandTypeCreate, params.Claimer, 0, params)
	if err != nil {
		return 0, err
	}
	err = e.store.WithinTx(ctx, func(tx storage.Tx) error {
		if err := e.require(ctx, tx, params.Claimer, authz.NewCall(OperationCreateDispute, params)); err != nil {
			return err
		}
		// Initialization resets the counter, so ids are only issued after it.
		if _, err := e.requireConfig(ctx, tx); err != nil {
			return err
		}
		counter, err := tx.Counter(ctx)
		if err != nil {
			return err
		}
		if counter == math.MaxUint64 {
			return apperrors.New(apperrors.CodeInvalidInput, "dispute ids are exhausted")
		}
		stored, err := e.commit(ctx, tx, dispute.Decide(dispute.State{NextID: counter + 1}, cmd, e.now))
		if err != nil {
			return err
		}
		id = stored.DisputeID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// PayDispute records a party's stake. The payer must approve.
func (e *Engine) PayDispute(ctx context.Context, payer identity.Address, disputeID uint64, amt amount.Amount) (err error) {
	ctx, span := e.startSpan(ctx, OperationPayDispute, disputeID)
	defer func() { endSpan(span, err) }()

	payload := dispute.PayPayload{Payer: payer, DisputeID: disputeID, Amount: amt}
	return e.decideDispute(ctx, OperationPayDispute, dispute.CommandTypePay, payer, disputeID, payload, nil)
}

// SubmitEvidence announces an evidence pointer. The submitter must approve.
func (e *Engine) SubmitEvidence(ctx context.Context, submitter identity.Address, disputeID uint64, evidenceHash dispute.Hash) (err error) {
	ctx, span := e.startSpan(ctx, OperationSubmitEvidence, disputeID)
	defer func() { endSpan(span, err) }()

	payload := dispute.EvidencePayload{Submitter: submitter, DisputeID: disputeID, EvidenceHash: evidenceHash}
	return e.decideDispute(ctx, OperationSubmitEvidence, dispute.CommandTypeSubmitEvidence, submitter, disputeID, payload, nil)
}

// BindRemoteDispute links a local dispute to a remote one. The relayer must
// approve.
func (e *Engine) BindRemoteDispute(ctx context.Context, localID, remoteID uint64) (err error) {
	ctx, span := e.startSpan(ctx, OperationBindRemote, localID)
	defer func() { endSpan(span, err) }()

	payload := dispute.BindPayload{LocalID: localID, RemoteID: remoteID}
	return e.decideRelayed(ctx, OperationBindRemote, dispute.CommandTypeBindRemote, localID, payload, func(ctx context.Context, tx storage.Tx, state *dispute.State) error {
		_, err := tx.LookupRemote(ctx, remoteID)
		switch {
		case err == nil:
			state.RemoteBound = true
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}
		return nil
	})
}

// Rule records the ruling for a bound dispute. The relayer must approve.
func (e *Engine) Rule(ctx context.Context, localID uint64, ruling uint32) (err error) {
	ctx, span := e.startSpan(ctx, OperationRule, localID)
	defer func() { endSpan(span, err) }()

	payload := dispute.RulePayload{LocalID: localID, Ruling: ruling}
	return e.decideRelayed(ctx, OperationRule, dispute.CommandTypeRule, localID, payload, nil)
}

type stateHook func(ctx context.Context, tx storage.Tx, state *dispute.State) error

func (e *Engine) decideRelayed(ctx context.Context, operation string, cmdType command.Type, localID uint64, payload any, hook stateHook) error {
	return e.store.WithinTx(ctx, func(tx storage.Tx) error {
		cfg, err := e.requireConfig(ctx, tx)
		if err != nil {
			return err
		}
		if err := e.require(ctx, tx, cfg.Relayer, authz.NewCall(operation, payload)); err != nil {
			return err
		}
		return e.decideDisputeTx(ctx, tx, cmdType, cfg.Relayer, localID, payload, hook)
	})
}

func (e *Engine) decideDispute(ctx context.Context, operation string, cmdType command.Type, actor identity.Address, disputeID uint64, payload any, hook stateHook) error {
	return e.store.WithinTx(ctx, func(tx storage.Tx) error {
		if err := e.require(ctx, tx, actor, authz.NewCall(operation, payload)); err != nil {
			return err
		}
		return e.decideDisputeTx(ctx, tx, cmdType, actor, disputeID, payload, hook)
	})
}

// require asks the gate for approval with tx as the token ledger, so a token
// is spent only if the call it approves commits.
func (e *Engine) require(ctx context.Context, tx storage.Tx, actor identity.Address, call authz.Call) error {
	return e.gate.Require(authz.WithTokenLedger(ctx, tx), actor, call)
}

func (e *Engine) decideDisputeTx(ctx context.Context, tx storage.Tx, cmdType command.Type, actor identity.Address, disputeID uint64, payload any, hook stateHook) error {
	cmd, err := e.newCommand(ctx, cmdType, actor, disputeID, payload)
	if err != nil {
		return err
	}
	state, err := e.loadDispute(ctx, tx, disputeID)
	if err != nil {
		return err
	}
	if hook != nil {
		if err := hook(ctx, tx, &state); err != nil {
			return err
		}
	}
	_, err = e.commit(ctx, tx, dispute.Decide(state, cmd, e.now))
	return err
}
