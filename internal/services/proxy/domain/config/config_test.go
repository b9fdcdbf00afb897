package config

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	apperrors "github.com/justly-io/justly-soroban/internal/platform/errors"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/command"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/event"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
)

var (
	admin   = identity.MustParse(strings.Repeat("a", 64))
	relayer = identity.MustParse(strings.Repeat("b", 64))
	other   = identity.MustParse(strings.Repeat("c", 64))
	fixed   = func() time.Time { return time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC) }
)

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestDecideInitialize(t *testing.T) {
	cmd := command.Command{
		Type:        CommandTypeInitialize,
		ActorID:     admin.String(),
		PayloadJSON: mustJSON(t, InitializePayload{Admin: admin, Relayer: relayer}),
	}
	decision := Decide(State{}, cmd, fixed)
	if len(decision.Events) != 1 {
		t.Fatalf("expected one event, got %+v", decision)
	}
	evt := decision.Events[0]
	if evt.Type != EventTypeInitialized || evt.EntityType != event.EntityTypeConfig || evt.EntityID != EntityID {
		t.Fatalf("unexpected event %+v", evt)
	}

	state := Fold(State{}, evt)
	if !state.Initialized || state.Config.Admin != admin || state.Config.Relayer != relayer {
		t.Fatalf("unexpected state %+v", state)
	}

	again := Decide(state, cmd, fixed)
	if len(again.Rejections) != 1 || again.Rejections[0].Code != string(apperrors.CodeAlreadyInitialized) {
		t.Fatalf("expected ALREADY_INITIALIZED, got %+v", again)
	}
}

func TestDecideInitializeRejectsBadIdentity(t *testing.T) {
	cmd := command.Command{
		Type:        CommandTypeInitialize,
		PayloadJSON: []byte(`{"admin":"nope","relayer":"` + relayer.String() + `"}`),
	}
	decision := Decide(State{}, cmd, fixed)
	if len(decision.Rejections) != 1 || decision.Rejections[0].Code != string(apperrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %+v", decision)
	}
}

func TestDecideSetRelayer(t *testing.T) {
	cmd := command.Command{
		Type:        CommandTypeSetRelayer,
		ActorID:     admin.String(),
		PayloadJSON: mustJSON(t, SetRelayerPayload{Relayer: other}),
	}

	missing := Decide(State{}, cmd, fixed)
	if len(missing.Rejections) != 1 || missing.Rejections[0].Code != string(apperrors.CodeConfigMissing) {
		t.Fatalf("expected CONFIG_MISSING, got %+v", missing)
	}

	state := State{Initialized: true, Config: Config{Admin: admin, Relayer: relayer}}
	decision := Decide(state, cmd, fixed)
	if len(decision.Events) != 1 {
		t.Fatalf("expected event, got %+v", decision)
	}
	next := Fold(state, decision.Events[0])
	if next.Config.Relayer != other || next.Config.Admin != admin {
		t.Fatalf("unexpected config %+v", next.Config)
	}
}

func TestRegisterEvents(t *testing.T) {
	registry := event.NewRegistry()
	if err := RegisterEvents(registry); err != nil {
		t.Fatalf("register: %v", err)
	}
	def, ok := registry.Definition(EventTypeRelayerChanged)
	if !ok || def.Topic != event.TopicRelayer {
		t.Fatalf("unexpected definition %+v", def)
	}
	_, err := registry.ValidateForAppend(event.Event{
		Type:        EventTypeRelayerChanged,
		Timestamp:   fixed(),
		EntityType:  event.EntityTypeConfig,
		EntityID:    EntityID,
		PayloadJSON: []byte(`{"relayer":""}`),
	})
	if err == nil {
		t.Fatal("expected empty relayer to fail validation")
	}
}
