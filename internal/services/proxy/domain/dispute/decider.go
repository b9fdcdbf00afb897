package dispute

import (
	"encoding/json"
	"strconv"
	"time"

	apperrors "github.com/justly-io/justly-soroban/internal/platform/errors"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/command"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/event"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
)

const (
	CommandTypeCreate         command.Type = "dispute.create"
	CommandTypePay            command.Type = "dispute.pay"
	CommandTypeSubmitEvidence command.Type = "dispute.submit_evidence"
	CommandTypeBindRemote     command.Type = "dispute.bind_remote"
	CommandTypeRule           command.Type = "dispute.rule"
	CommandTypeExecute        command.Type = "dispute.execute"

	EventTypeCreated           event.Type = "dispute.created"
	EventTypePaid              event.Type = "dispute.paid"
	EventTypeEvidenceSubmitted event.Type = "dispute.evidence_submitted"
	EventTypeRemoteBound       event.Type = "dispute.remote_bound"
	EventTypeRuled             event.Type = "dispute.ruled"
	EventTypeExecuted          event.Type = "dispute.executed"
)

// MaxRuling is the largest accepted ruling value.
const MaxRuling uint32 = 1

// State is what the decider needs to know about the addressed dispute.
type State struct {
	// Exists is false when no record was found for the command's id.
	Exists  bool
	Dispute Dispute
	// NextID is the id a create command will assign.
	NextID uint64
	// RemoteBound is true when the remote id in a bind command already maps
	// to some local dispute.
	RemoteBound bool
}

// Decide returns the decision for a dispute command.
func Decide(state State, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}
	switch cmd.Type {
	case CommandTypeCreate:
		return decideCreate(state, cmd, now())
	case CommandTypePay:
		return decidePay(state, cmd, now())
	case CommandTypeSubmitEvidence:
		return decideEvidence(state, cmd, now())
	case CommandTypeBindRemote:
		return decideBind(state, cmd, now())
	case CommandTypeRule:
		return decideRule(state, cmd, now())
	case CommandTypeExecute:
		return decideExecute(state, cmd, now())
	}
	return reject(apperrors.CodeInvalidInput, "unsupported dispute command "+string(cmd.Type), nil)
}

func decideCreate(state State, cmd command.Command, now time.Time) command.Decision {
	var params CreateParams
	if err := json.Unmarshal(cmd.PayloadJSON, &params); err != nil {
		return reject(apperrors.CodeInvalidInput, "create payload is malformed", nil)
	}
	// Parties are compared and stored in canonical form, so a case or
	// whitespace variant of one key cannot stand in for another party.
	for _, field := range []struct {
		name string
		addr *identity.Address
	}{
		{"arbitrable", &params.Arbitrable},
		{"claimer", &params.Claimer},
		{"defender", &params.Defender},
	} {
		addr, err := identity.Parse(string(*field.addr))
		if err != nil {
			return reject(apperrors.CodeInvalidInput, field.name+": "+err.Error(), map[string]string{"Reason": field.name})
		}
		*field.addr = addr
	}
	switch {
	case params.Claimer == params.Defender:
		return reject(apperrors.CodeInvalidInput, "claimer and defender must differ", map[string]string{"Reason": "claimer equals defender"})
	case params.JurorsRequired == 0:
		return reject(apperrors.CodeInvalidInput, "jurors_required must be positive", map[string]string{"Reason": "jurors_required is zero"})
	case params.RequiredAmount.Sign() <= 0:
		return reject(apperrors.CodeInvalidInput, "required_amount must be positive", map[string]string{"Reason": "required_amount is not positive"})
	case !ValidCategory(params.Category):
		return reject(apperrors.CodeInvalidInput, "category must be a short symbol", map[string]string{"Reason": "category"})
	}
	if state.NextID == 0 {
		return reject(apperrors.CodeUnknown, "dispute counter is not loaded", nil)
	}
	payloadJSON, _ := json.Marshal(CreatedPayload{ID: state.NextID, Params: params, CreatedAt: now.UTC()})
	evt := newEvent(cmd, state.NextID, EventTypeCreated, payloadJSON, now)
	return command.Accept(evt)
}

func decidePay(state State, cmd command.Command, now time.Time) command.Decision {
	var payload PayPayload
	if err := json.Unmarshal(cmd.PayloadJSON, &payload); err != nil {
		return reject(apperrors.CodeInvalidInput, "pay payload is malformed", nil)
	}
	if !state.Exists {
		return notFound(payload.DisputeID)
	}
	d := state.Dispute
	if payload.Amount != d.RequiredAmount {
		return reject(apperrors.CodeInvalidAmount, "amount must equal the required stake", map[string]string{
			"DisputeID": formatID(d.ID),
			"Required":  d.RequiredAmount.String(),
		})
	}
	switch payload.Payer {
	case d.Claimer:
		if d.ClaimerPaid {
			return reject(apperrors.CodeAlreadyPaid, "claimer already paid", map[string]string{"DisputeID": formatID(d.ID)})
		}
	case d.Defender:
		if d.DefenderPaid {
			return reject(apperrors.CodeAlreadyPaid, "defender already paid", map[string]string{"DisputeID": formatID(d.ID)})
		}
	default:
		return reject(apperrors.CodeUnauthorized, "payer is not a party to the dispute", map[string]string{"Operation": "pay"})
	}
	payloadJSON, _ := json.Marshal(PaidPayload{Payer: payload.Payer, Amount: payload.Amount})
	return command.Accept(newEvent(cmd, d.ID, EventTypePaid, payloadJSON, now))
}

func decideEvidence(state State, cmd command.Command, now time.Time) command.Decision {
	var payload EvidencePayload
	if err := json.Unmarshal(cmd.PayloadJSON, &payload); err != nil {
		return reject(apperrors.CodeInvalidInput, "evidence payload is malformed", nil)
	}
	if !state.Exists {
		return notFound(payload.DisputeID)
	}
	d := state.Dispute
	if !d.IsParty(payload.Submitter) && payload.Submitter != d.Arbitrable {
		return reject(apperrors.CodeUnauthorized, "submitter may not add evidence", map[string]string{"Operation": "submit_evidence"})
	}
	payloadJSON, _ := json.Marshal(EvidenceSubmittedPayload{Submitter: payload.Submitter, EvidenceHash: payload.EvidenceHash})
	return command.Accept(newEvent(cmd, d.ID, EventTypeEvidenceSubmitted, payloadJSON, now))
}

func decideBind(state State, cmd command.Command, now time.Time) command.Decision {
	var payload BindPayload
	if err := json.Unmarshal(cmd.PayloadJSON, &payload); err != nil {
		return reject(apperrors.CodeInvalidInput, "bind payload is malformed", nil)
	}
	if !state.Exists {
		return notFound(payload.LocalID)
	}
	d := state.Dispute
	if d.RemoteDisputeID != nil {
		return reject(apperrors.CodeAlreadyBound, "dispute is already bound", map[string]string{
			"DisputeID": formatID(d.ID),
			"RemoteID":  formatID(*d.RemoteDisputeID),
		})
	}
	if state.RemoteBound {
		return reject(apperrors.CodeRemoteAlreadyUsed, "remote dispute is bound elsewhere", map[string]string{
			"RemoteID": formatID(payload.RemoteID),
		})
	}
	payloadJSON, _ := json.Marshal(BoundPayload{RemoteID: payload.RemoteID})
	return command.Accept(newEvent(cmd, d.ID, EventTypeRemoteBound, payloadJSON, now))
}

func decideRule(state State, cmd command.Command, now time.Time) command.Decision {
	var payload RulePayload
	if err := json.Unmarshal(cmd.PayloadJSON, &payload); err != nil {
		return reject(apperrors.CodeInvalidInput, "rule payload is malformed", nil)
	}
	if !state.Exists {
		return notFound(payload.LocalID)
	}
	d := state.Dispute
	if payload.Ruling > MaxRuling {
		return reject(apperrors.CodeInvalidInput, "ruling must be 0 or 1", map[string]string{"Reason": "ruling out of range"})
	}
	if d.RemoteDisputeID == nil {
		return reject(apperrors.CodeRemoteMissing, "dispute has no remote binding", map[string]string{"DisputeID": formatID(d.ID)})
	}
	if d.Ruling != nil {
		return reject(apperrors.CodeRulingAlreadySet, "ruling is already recorded", map[string]string{"DisputeID": formatID(d.ID)})
	}
	payloadJSON, _ := json.Marshal(RuledPayload{Ruling: payload.Ruling})
	return command.Accept(newEvent(cmd, d.ID, EventTypeRuled, payloadJSON, now))
}

func decideExecute(state State, cmd command.Command, now time.Time) command.Decision {
	var payload ExecutePayload
	if err := json.Unmarshal(cmd.PayloadJSON, &payload); err != nil {
		return reject(apperrors.CodeInvalidInput, "execute payload is malformed", nil)
	}
	if !state.Exists {
		return notFound(payload.LocalID)
	}
	d := state.Dispute
	if d.RuleExecuted {
		return reject(apperrors.CodeAlreadyExecuted, "ruling was already executed", map[string]string{"DisputeID": formatID(d.ID)})
	}
	if d.Ruling == nil {
		return reject(apperrors.CodeRulingMissing, "no ruling to execute", map[string]string{"DisputeID": formatID(d.ID)})
	}
	payloadJSON, _ := json.Marshal(ExecutedPayload{Ruling: *d.Ruling})
	return command.Accept(newEvent(cmd, d.ID, EventTypeExecuted, payloadJSON, now))
}

func newEvent(cmd command.Command, id uint64, eventType event.Type, payloadJSON []byte, now time.Time) event.Event {
	evt := command.NewEvent(cmd, eventType, event.EntityTypeDispute, formatID(id), payloadJSON, now)
	evt.DisputeID = id
	return evt
}

func notFound(id uint64) command.Decision {
	return reject(apperrors.CodeNotFound, "dispute not found", map[string]string{"DisputeID": formatID(id)})
}

func reject(code apperrors.Code, message string, metadata map[string]string) command.Decision {
	return command.Reject(command.Rejection{Code: string(code), Message: message, Metadata: metadata})
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
