// Package config holds the proxy's privileged identities: the admin, who may
// rotate the relayer, and the relayer, who binds remote disputes and submits
// rulings.
package config

import (
	"encoding/json"
	"errors"
	"time"

	apperrors "github.com/justly-io/justly-soroban/internal/platform/errors"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/command"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/event"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
)

const (
	CommandTypeInitialize command.Type = "config.initialize"
	CommandTypeSetRelayer command.Type = "config.set_relayer"

	EventTypeInitialized    event.Type = "config.initialized"
	EventTypeRelayerChanged event.Type = "config.relayer_changed"

	// EntityID addresses the singleton configuration record.
	EntityID = "proxy"
)

// Config is the configuration singleton.
type Config struct {
	Admin   identity.Address `json:"admin"`
	Relayer identity.Address `json:"relayer"`
}

// State is the configuration as seen by the decider.
type State struct {
	Initialized bool
	Config      Config
}

// InitializePayload carries the initial identities.
type InitializePayload struct {
	Admin   identity.Address `json:"admin"`
	Relayer identity.Address `json:"relayer"`
}

// SetRelayerPayload carries the replacement relayer.
type SetRelayerPayload struct {
	Relayer identity.Address `json:"relayer"`
}

// Decide returns the decision for a configuration command.
func Decide(state State, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}
	switch cmd.Type {
	case CommandTypeInitialize:
		if state.Initialized {
			return reject(apperrors.CodeAlreadyInitialized, "proxy is already initialized")
		}
		var payload InitializePayload
		if err := json.Unmarshal(cmd.PayloadJSON, &payload); err != nil {
			return reject(apperrors.CodeInvalidInput, "initialize payload is malformed")
		}
		admin, err := identity.Parse(string(payload.Admin))
		if err != nil {
			return reject(apperrors.CodeInvalidInput, "admin: "+err.Error())
		}
		relayer, err := identity.Parse(string(payload.Relayer))
		if err != nil {
			return reject(apperrors.CodeInvalidInput, "relayer: "+err.Error())
		}
		payloadJSON, _ := json.Marshal(InitializePayload{Admin: admin, Relayer: relayer})
		return command.Accept(command.NewEvent(cmd, EventTypeInitialized, event.EntityTypeConfig, EntityID, payloadJSON, now()))

	case CommandTypeSetRelayer:
		if !state.Initialized {
			return reject(apperrors.CodeConfigMissing, "proxy is not initialized")
		}
		var payload SetRelayerPayload
		if err := json.Unmarshal(cmd.PayloadJSON, &payload); err != nil {
			return reject(apperrors.CodeInvalidInput, "set relayer payload is malformed")
		}
		relayer, err := identity.Parse(string(payload.Relayer))
		if err != nil {
			return reject(apperrors.CodeInvalidInput, "relayer: "+err.Error())
		}
		payloadJSON, _ := json.Marshal(SetRelayerPayload{Relayer: relayer})
		return command.Accept(command.NewEvent(cmd, EventTypeRelayerChanged, event.EntityTypeConfig, EntityID, payloadJSON, now()))
	}
	return reject(apperrors.CodeInvalidInput, "unsupported configuration command "+string(cmd.Type))
}

// Fold applies a configuration event.
func Fold(state State, evt event.Event) State {
	switch evt.Type {
	case EventTypeInitialized:
		var payload InitializePayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		state.Initialized = true
		state.Config = Config{Admin: payload.Admin, Relayer: payload.Relayer}
	case EventTypeRelayerChanged:
		var payload SetRelayerPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		state.Config.Relayer = payload.Relayer
	}
	return state
}

// RegisterEvents registers configuration events.
func RegisterEvents(registry *event.Registry) error {
	if registry == nil {
		return errors.New("event registry is required")
	}
	if err := registry.Register(event.Definition{
		Type:       EventTypeInitialized,
		Topic:      event.TopicInit,
		EntityType: event.EntityTypeConfig,
		ValidatePayload: func(raw json.RawMessage) error {
			var payload InitializePayload
			if err := json.Unmarshal(raw, &payload); err != nil {
				return err
			}
			if payload.Admin.IsZero() || payload.Relayer.IsZero() {
				return errors.New("admin and relayer are required")
			}
			return nil
		},
	}); err != nil {
		return err
	}
	return registry.Register(event.Definition{
		Type:       EventTypeRelayerChanged,
		Topic:      event.TopicRelayer,
		EntityType: event.EntityTypeConfig,
		ValidatePayload: func(raw json.RawMessage) error {
			var payload SetRelayerPayload
			if err := json.Unmarshal(raw, &payload); err != nil {
				return err
			}
			if payload.Relayer.IsZero() {
				return errors.New("relayer is required")
			}
			return nil
		},
	})
}

func reject(code apperrors.Code, message string) command.Decision {
	return command.Reject(command.Rejection{Code: string(code), Message: message})
}
