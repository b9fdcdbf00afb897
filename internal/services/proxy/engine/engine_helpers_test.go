package engine

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	apperrors "github.com/justly-io/justly-soroban/internal/platform/errors"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/amount"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/authz"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/dispute"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
	"github.com/justly-io/justly-soroban/internal/services/proxy/storage/integrity"
	"github.com/justly-io/justly-soroban/internal/services/proxy/storage/sqlite"
)

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func key(t *testing.T, b byte) identity.Key {
	t.Helper()
	k, err := identity.NewKey(bytes.Repeat([]byte{b}, 32))
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	return k
}

type ruleCall struct {
	Target  identity.Address
	Dispute uint64
	Ruling  uint32
}

// recordingInvoker captures Rule calls and fails with err when set.
type recordingInvoker struct {
	mu    sync.Mutex
	calls []ruleCall
	err   error
}

func (r *recordingInvoker) Rule(_ context.Context, target identity.Address, disputeID uint64, ruling uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, ruleCall{Target: target, Dispute: disputeID, Ruling: ruling})
	return r.err
}

func (r *recordingInvoker) Calls() []ruleCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ruleCall(nil), r.calls...)
}

type fixture struct {
	engine  *Engine
	store   *sqlite.Store
	invoker *recordingInvoker
	keyring *integrity.Keyring

	admin, relayer, arbitrable, claimer, defender identity.Key
}

func newFixture(t *testing.T, gate authz.Gate) *fixture {
	t.Helper()
	ring, err := integrity.NewKeyring(map[string][]byte{"v1": []byte("engine-test")}, "v1")
	if err != nil {
		t.Fatalf("keyring: %v", err)
	}
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "proxy.db"), ring, registry)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	if gate == nil {
		gate = authz.AllowAll
	}
	invoker := &recordingInvoker{}
	eng, err := New(store, Options{
		Gate:    gate,
		Invoker: invoker,
		Now:     func() time.Time { return testNow },
		Keyring: ring,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return &fixture{
		engine:     eng,
		store:      store,
		invoker:    invoker,
		keyring:    ring,
		admin:      key(t, 1),
		relayer:    key(t, 2),
		arbitrable: key(t, 3),
		claimer:    key(t, 4),
		defender:   key(t, 5),
	}
}

func (f *fixture) initialize(t *testing.T) {
	t.Helper()
	if _, err := f.engine.Initialize(context.Background(), f.admin.Address(), f.relayer.Address()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
}

func (f *fixture) params(required int64) dispute.CreateParams {
	return dispute.CreateParams{
		Arbitrable:       f.arbitrable.Address(),
		Claimer:          f.claimer.Address(),
		Defender:         f.defender.Address(),
		Category:         "Commerce",
		RootEvidenceHash: dispute.Hash{0xab, 0xcd},
		JurorsRequired:   3,
		PaySeconds:       3600,
		EvidenceSeconds:  7200,
		CommitSeconds:    600,
		RevealSeconds:    600,
		RequiredAmount:   amount.FromInt64(required),
	}
}

func (f *fixture) create(t *testing.T, required int64) uint64 {
	t.Helper()
	id, err := f.engine.CreateDispute(context.Background(), f.params(required))
	if err != nil {
		t.Fatalf("create dispute: %v", err)
	}
	return id
}

// ruled drives a fresh dispute through payment, binding and ruling.
func (f *fixture) ruled(t *testing.T, remoteID uint64, ruling uint32) uint64 {
	t.Helper()
	ctx := context.Background()
	id := f.create(t, 100)
	if err := f.engine.PayDispute(ctx, f.claimer.Address(), id, amount.FromInt64(100)); err != nil {
		t.Fatalf("claimer pay: %v", err)
	}
	if err := f.engine.PayDispute(ctx, f.defender.Address(), id, amount.FromInt64(100)); err != nil {
		t.Fatalf("defender pay: %v", err)
	}
	if err := f.engine.BindRemoteDispute(ctx, id, remoteID); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := f.engine.Rule(ctx, id, ruling); err != nil {
		t.Fatalf("rule: %v", err)
	}
	return id
}

func (f *fixture) get(t *testing.T, id uint64) dispute.Dispute {
	t.Helper()
	d, err := f.engine.GetDispute(context.Background(), id)
	if err != nil {
		t.Fatalf("get dispute %d: %v", id, err)
	}
	return d
}

func assertCode(t *testing.T, err error, want apperrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", want)
	}
	if got := apperrors.GetCode(err); got != want {
		t.Fatalf("error code = %s, want %s (%v)", got, want, err)
	}
}
