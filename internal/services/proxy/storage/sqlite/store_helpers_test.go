package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/amount"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/config"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/dispute"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/event"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
	"github.com/justly-io/justly-soroban/internal/services/proxy/storage/integrity"
)

var (
	testArbitrable = identity.MustParse(strings.Repeat("a1", 32))
	testClaimer    = identity.MustParse(strings.Repeat("c1", 32))
	testDefender   = identity.MustParse(strings.Repeat("d1", 32))
)

func testRegistry(t *testing.T) *event.Registry {
	t.Helper()
	registry := event.NewRegistry()
	if err := config.RegisterEvents(registry); err != nil {
		t.Fatalf("register config events: %v", err)
	}
	if err := dispute.RegisterEvents(registry); err != nil {
		t.Fatalf("register dispute events: %v", err)
	}
	return registry
}

func testKeyring(t *testing.T) *integrity.Keyring {
	t.Helper()
	ring, err := integrity.NewKeyring(map[string][]byte{"v1": []byte("test-secret")}, "v1")
	if err != nil {
		t.Fatalf("keyring: %v", err)
	}
	return ring
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "proxy.db")
	store, err := Open(path, testKeyring(t), testRegistry(t))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func sampleDispute(id uint64) dispute.Dispute {
	return dispute.Dispute{
		ID:               id,
		Arbitrable:       testArbitrable,
		Claimer:          testClaimer,
		Defender:         testDefender,
		Category:         "Commerce",
		RootEvidenceHash: dispute.Hash{0xde, 0xad},
		JurorsRequired:   5,
		PaySeconds:       60,
		EvidenceSeconds:  120,
		CommitSeconds:    30,
		RevealSeconds:    30,
		RequiredAmount:   amount.MustParse("170141183460469231731687303715884105727"),
		ClaimerAmount:    amount.Zero,
		DefenderAmount:   amount.Zero,
		Status:           dispute.StatusCreated,
		CreatedAt:        time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
	}
}

func paidEvent(t *testing.T, disputeID uint64, ts time.Time) event.Event {
	t.Helper()
	payload, err := json.Marshal(dispute.PaidPayload{Payer: testClaimer, Amount: amount.FromInt64(10)})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return event.Event{
		Type:        dispute.EventTypePaid,
		Timestamp:   ts,
		ActorID:     testClaimer.String(),
		EntityType:  event.EntityTypeDispute,
		EntityID:    "x",
		DisputeID:   disputeID,
		PayloadJSON: payload,
	}
}

func ctx() context.Context {
	return context.Background()
}
