package proxy

import (
	"bytes"
	"context"
	"errors"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	apperrors "github.com/justly-io/justly-soroban/internal/platform/errors"
	"github.com/justly-io/justly-soroban/internal/services/proxy/api/grpc/interceptors"
	grpcmeta "github.com/justly-io/justly-soroban/internal/services/proxy/api/grpc/metadata"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/amount"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/authz"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/config"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/dispute"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
	"github.com/justly-io/justly-soroban/internal/services/proxy/engine"
	"github.com/justly-io/justly-soroban/internal/services/proxy/storage/integrity"
	"github.com/justly-io/justly-soroban/internal/services/proxy/storage/sqlite"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const testAudience = "justly-test"

type stubInvoker struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubInvoker) Rule(context.Context, identity.Address, uint64, uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

func (s *stubInvoker) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

type harness struct {
	client  ProxyServiceClient
	invoker *stubInvoker

	admin, relayer, arbitrable, claimer, defender identity.Key
}

func testKey(t *testing.T, b byte) identity.Key {
	t.Helper()
	k, err := identity.NewKey(bytes.Repeat([]byte{b}, 32))
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	return k
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	ring, err := integrity.NewKeyring(map[string][]byte{"v1": []byte("service-test")}, "v1")
	if err != nil {
		t.Fatalf("keyring: %v", err)
	}
	registry, err := engine.NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "proxy.db"), ring, registry)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	invoker := &stubInvoker{}
	eng, err := engine.New(store, engine.Options{
		Gate:    authz.NewSignatureGate(testAudience, time.Minute),
		Invoker: invoker,
		Keyring: ring,
	})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	service, err := NewService(eng)
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	grpcServer := gogrpc.NewServer(gogrpc.ChainUnaryInterceptor(
		grpcmeta.UnaryServerInterceptor(nil),
		interceptors.AuditInterceptor(t.Logf),
	))
	RegisterProxyServiceServer(grpcServer, service)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(listener)
	}()

	conn, err := gogrpc.NewClient(listener.Addr().String(), gogrpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
		grpcServer.GracefulStop()
		select {
		case <-serveErr:
		case <-time.After(2 * time.Second):
		}
		_ = store.Close()
	})

	return &harness{
		client:     NewProxyServiceClient(conn),
		invoker:    invoker,
		admin:      testKey(t, 1),
		relayer:    testKey(t, 2),
		arbitrable: testKey(t, 3),
		claimer:    testKey(t, 4),
		defender:   testKey(t, 5),
	}
}

// as returns a context carrying signer's token for call.
func as(t *testing.T, signer identity.Key, call authz.Call) context.Context {
	t.Helper()
	token, err := authz.Sign(signer, testAudience, call, time.Now(), time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return grpcmeta.AppendAuthorization(ctx, token)
}

func plain(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func assertCode(t *testing.T, err error, want apperrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", want)
	}
	if got := apperrors.FromStatus(err); got != want {
		t.Fatalf("code = %s, want %s (%v)", got, want, err)
	}
}

func (h *harness) initialize(t *testing.T) {
	t.Helper()
	call := authz.NewCall(engine.OperationInitialize, config.InitializePayload{Admin: h.admin.Address(), Relayer: h.relayer.Address()})
	if _, err := h.client.Initialize(as(t, h.admin, call), &InitializeRequest{Admin: h.admin.Address(), Relayer: h.relayer.Address()}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
}

func (h *harness) create(t *testing.T, required int64) uint64 {
	t.Helper()
	params := dispute.CreateParams{
		Arbitrable:       h.arbitrable.Address(),
		Claimer:          h.claimer.Address(),
		Defender:         h.defender.Address(),
		Category:         "Rental",
		RootEvidenceHash: dispute.Hash{9},
		JurorsRequired:   5,
		RequiredAmount:   amount.FromInt64(required),
	}
	resp, err := h.client.CreateDispute(as(t, h.claimer, authz.NewCall(engine.OperationCreateDispute, params)), &CreateDisputeRequest{Params: params})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return resp.DisputeID
}

func (h *harness) pay(t *testing.T, payer identity.Key, id uint64, amt int64) error {
	t.Helper()
	payload := dispute.PayPayload{Payer: payer.Address(), DisputeID: id, Amount: amount.FromInt64(amt)}
	_, err := h.client.PayDispute(as(t, payer, authz.NewCall(engine.OperationPayDispute, payload)), &PayDisputeRequest{
		Payer: payer.Address(), DisputeID: id, Amount: amount.FromInt64(amt),
	})
	return err
}

func (h *harness) bindAndRule(t *testing.T, id, remote uint64, ruling uint32) {
	t.Helper()
	bind := authz.NewCall(engine.OperationBindRemote, dispute.BindPayload{LocalID: id, RemoteID: remote})
	if _, err := h.client.BindRemoteDispute(as(t, h.relayer, bind), &BindRemoteDisputeRequest{LocalID: id, RemoteID: remote}); err != nil {
		t.Fatalf("bind: %v", err)
	}
	rule := authz.NewCall(engine.OperationRule, dispute.RulePayload{LocalID: id, Ruling: ruling})
	if _, err := h.client.Rule(as(t, h.relayer, rule), &RuleRequest{LocalID: id, Ruling: ruling}); err != nil {
		t.Fatalf("rule: %v", err)
	}
}

func TestServiceLifecycle(t *testing.T) {
	h := newHarness(t)
	h.initialize(t)

	id := h.create(t, 1_000_000)
	if err := h.pay(t, h.claimer, id, 1_000_000); err != nil {
		t.Fatalf("claimer pay: %v", err)
	}
	if err := h.pay(t, h.defender, id, 1_000_000); err != nil {
		t.Fatalf("defender pay: %v", err)
	}
	h.bindAndRule(t, id, 700, 1)

	var header metadata.MD
	if _, err := h.client.ExecuteRule(grpcmeta.AppendRequestIDs(plain(t), "req-exec", ""), &ExecuteRuleRequest{LocalID: id}, gogrpc.Header(&header)); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := header.Get(grpcmeta.RequestIDHeader); len(got) != 1 || got[0] != "req-exec" {
		t.Fatalf("echoed request id = %v", got)
	}

	got, err := h.client.GetDispute(plain(t), &GetDisputeRequest{DisputeID: id})
	if err != nil {
		t.Fatalf("get dispute: %v", err)
	}
	if got.Dispute.Status != dispute.StatusExecuted || !got.Dispute.RuleExecuted {
		t.Fatalf("dispute = %+v", got.Dispute)
	}
	if got.Dispute.RequiredAmount.Cmp(amount.FromInt64(1_000_000)) != 0 {
		t.Fatalf("required amount = %s", got.Dispute.RequiredAmount)
	}

	lookup, err := h.client.GetLocalByRemote(plain(t), &GetLocalByRemoteRequest{RemoteID: 700})
	if err != nil || !lookup.Found || lookup.LocalID != id {
		t.Fatalf("lookup = %+v %v", lookup, err)
	}
	missing, err := h.client.GetLocalByRemote(plain(t), &GetLocalByRemoteRequest{RemoteID: 701})
	if err != nil || missing.Found {
		t.Fatalf("missing lookup = %+v %v", missing, err)
	}
	relayer, err := h.client.GetRelayer(plain(t), &GetRelayerRequest{})
	if err != nil || relayer.Relayer != h.relayer.Address() {
		t.Fatalf("relayer = %+v %v", relayer, err)
	}

	_, err = h.client.ExecuteRule(plain(t), &ExecuteRuleRequest{LocalID: id})
	assertCode(t, err, apperrors.CodeAlreadyExecuted)
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("status = %v", status.Code(err))
	}

	report, err := h.client.VerifyJournal(plain(t), &VerifyJournalRequest{})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if report.Events != 7 || report.HeadChainHash == "" {
		t.Fatalf("report = %+v", report)
	}
}

func TestServiceErrors(t *testing.T) {
	h := newHarness(t)

	_, err := h.client.GetRelayer(plain(t), &GetRelayerRequest{})
	assertCode(t, err, apperrors.CodeConfigMissing)

	h.initialize(t)
	id := h.create(t, 10)

	err = h.pay(t, h.claimer, id, 11)
	assertCode(t, err, apperrors.CodeInvalidAmount)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("status = %v", status.Code(err))
	}

	// A token for the wrong arguments does not authorize the call.
	wrong := authz.NewCall(engine.OperationPayDispute, dispute.PayPayload{Payer: h.claimer.Address(), DisputeID: id, Amount: amount.FromInt64(99)})
	_, err = h.client.PayDispute(as(t, h.claimer, wrong), &PayDisputeRequest{Payer: h.claimer.Address(), DisputeID: id, Amount: amount.FromInt64(10)})
	assertCode(t, err, apperrors.CodeUnauthorized)
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("status = %v", status.Code(err))
	}

	_, err = h.client.GetDispute(plain(t), &GetDisputeRequest{DisputeID: 404})
	assertCode(t, err, apperrors.CodeNotFound)

	_, err = h.client.Initialize(as(t, h.admin, authz.NewCall(engine.OperationInitialize, config.InitializePayload{Admin: h.admin.Address(), Relayer: h.relayer.Address()})),
		&InitializeRequest{Admin: h.admin.Address(), Relayer: h.relayer.Address()})
	assertCode(t, err, apperrors.CodeAlreadyInitialized)
}

func TestServiceExecuteRulePassesArbitrableFailure(t *testing.T) {
	h := newHarness(t)
	h.initialize(t)
	id := h.create(t, 10)
	h.bindAndRule(t, id, 5, 0)

	h.invoker.fail(status.Error(codes.Unavailable, "arbitrable offline"))
	_, err := h.client.ExecuteRule(plain(t), &ExecuteRuleRequest{LocalID: id})
	if status.Code(err) != codes.Unavailable {
		t.Fatalf("status = %v, want Unavailable", err)
	}

	h.invoker.fail(errors.New("script error"))
	_, err = h.client.ExecuteRule(plain(t), &ExecuteRuleRequest{LocalID: id})
	if status.Code(err) != codes.Aborted {
		t.Fatalf("status = %v, want Aborted", err)
	}

	got, err := h.client.GetDispute(plain(t), &GetDisputeRequest{DisputeID: id})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Dispute.RuleExecuted || got.Dispute.Status != dispute.StatusRuled {
		t.Fatalf("dispute after failures = %+v", got.Dispute)
	}
}

func TestServiceListEventsPages(t *testing.T) {
	h := newHarness(t)
	h.initialize(t)
	id := h.create(t, 10)
	if err := h.pay(t, h.claimer, id, 10); err != nil {
		t.Fatalf("pay: %v", err)
	}
	h.bindAndRule(t, id, 1, 1)

	var seqs []uint64
	token := ""
	for {
		page, err := h.client.ListEvents(plain(t), &ListEventsRequest{PageSize: 2, PageToken: token})
		if err != nil {
			t.Fatalf("list events: %v", err)
		}
		if page.TotalSize != 5 {
			t.Fatalf("total size = %d, want 5", page.TotalSize)
		}
		for _, evt := range page.Events {
			seqs = append(seqs, evt.Seq)
		}
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}
	if len(seqs) != 5 || seqs[0] != 1 || seqs[4] != 5 {
		t.Fatalf("seqs = %v", seqs)
	}

	desc, err := h.client.ListEvents(plain(t), &ListEventsRequest{Filter: `topic = "RULING" OR topic = "BOUND"`, OrderBy: "seq desc"})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(desc.Events) != 2 || desc.Events[0].Topic != "RULING" {
		t.Fatalf("filtered = %+v", desc.Events)
	}

	_, err = h.client.ListEvents(plain(t), &ListEventsRequest{PageToken: token, Filter: "seq > 1"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("token reuse with new filter = %v", err)
	}
	_, err = h.client.ListEvents(plain(t), &ListEventsRequest{OrderBy: "ts"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("bad order_by = %v", err)
	}
}

func TestServiceListDisputes(t *testing.T) {
	h := newHarness(t)
	h.initialize(t)
	first := h.create(t, 10)
	h.create(t, 10)
	third := h.create(t, 10)
	if err := h.pay(t, h.claimer, third, 10); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if err := h.pay(t, h.defender, third, 10); err != nil {
		t.Fatalf("pay: %v", err)
	}

	page, err := h.client.ListDisputes(plain(t), &ListDisputesRequest{PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Disputes) != 2 || page.Disputes[0].ID != first || page.NextPageToken == "" {
		t.Fatalf("first page = %+v", page)
	}
	next, err := h.client.ListDisputes(plain(t), &ListDisputesRequest{PageSize: 2, PageToken: page.NextPageToken})
	if err != nil {
		t.Fatalf("list next: %v", err)
	}
	if len(next.Disputes) != 1 || next.Disputes[0].ID != third || next.NextPageToken != "" {
		t.Fatalf("second page = %+v", next)
	}

	funded, err := h.client.ListDisputes(plain(t), &ListDisputesRequest{Status: "funded"})
	if err != nil {
		t.Fatalf("list funded: %v", err)
	}
	if len(funded.Disputes) != 1 || funded.Disputes[0].ID != third {
		t.Fatalf("funded = %+v", funded.Disputes)
	}

	_, err = h.client.ListDisputes(plain(t), &ListDisputesRequest{Status: "appealed"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("bad status = %v", err)
	}
}
