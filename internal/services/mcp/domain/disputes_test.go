package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	grpcmeta "github.com/justly-io/justly-soroban/internal/services/proxy/api/grpc/metadata"
	proxyservice "github.com/justly-io/justly-soroban/internal/services/proxy/api/grpc/proxy"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/amount"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/dispute"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/event"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

var (
	claimerAddr  = identity.MustParse("1111111111111111111111111111111111111111111111111111111111111111")
	defenderAddr = identity.MustParse("2222222222222222222222222222222222222222222222222222222222222222")
	relayerAddr  = identity.MustParse("3333333333333333333333333333333333333333333333333333333333333333")
)

type fakeProxyClient struct {
	proxyservice.ProxyServiceClient

	dispute    dispute.Dispute
	local      uint64
	found      bool
	events     []event.Event
	nextToken  string
	err        error
	lastEvents *proxyservice.ListEventsRequest
	lastGet    *proxyservice.GetDisputeRequest
	outgoing   metadata.MD
}

// respond records outgoing metadata and echoes a server-side request id.
func (f *fakeProxyClient) respond(ctx context.Context, opts []grpc.CallOption) error {
	f.outgoing, _ = metadata.FromOutgoingContext(ctx)
	for _, opt := range opts {
		if header, ok := opt.(grpc.HeaderCallOption); ok {
			*header.HeaderAddr = metadata.Pairs(grpcmeta.RequestIDHeader, "server-req")
		}
	}
	return f.err
}

func (f *fakeProxyClient) GetDispute(ctx context.Context, in *proxyservice.GetDisputeRequest, opts ...grpc.CallOption) (*proxyservice.GetDisputeResponse, error) {
	f.lastGet = in
	if err := f.respond(ctx, opts); err != nil {
		return nil, err
	}
	return &proxyservice.GetDisputeResponse{Dispute: f.dispute}, nil
}

func (f *fakeProxyClient) GetLocalByRemote(ctx context.Context, _ *proxyservice.GetLocalByRemoteRequest, opts ...grpc.CallOption) (*proxyservice.GetLocalByRemoteResponse, error) {
	if err := f.respond(ctx, opts); err != nil {
		return nil, err
	}
	return &proxyservice.GetLocalByRemoteResponse{LocalID: f.local, Found: f.found}, nil
}

func (f *fakeProxyClient) GetRelayer(ctx context.Context, _ *proxyservice.GetRelayerRequest, opts ...grpc.CallOption) (*proxyservice.GetRelayerResponse, error) {
	if err := f.respond(ctx, opts); err != nil {
		return nil, err
	}
	return &proxyservice.GetRelayerResponse{Relayer: relayerAddr}, nil
}

func (f *fakeProxyClient) ListEvents(ctx context.Context, in *proxyservice.ListEventsRequest, opts ...grpc.CallOption) (*proxyservice.ListEventsResponse, error) {
	f.lastEvents = in
	if err := f.respond(ctx, opts); err != nil {
		return nil, err
	}
	return &proxyservice.ListEventsResponse{Events: f.events, NextPageToken: f.nextToken, TotalSize: len(f.events)}, nil
}

func TestDisputeGetHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		remote := uint64(18446744073709551615)
		ruling := uint32(2)
		client := &fakeProxyClient{dispute: dispute.Dispute{
			ID:              7,
			Claimer:         claimerAddr,
			Defender:        defenderAddr,
			Category:        "Rental",
			JurorsRequired:  3,
			RequiredAmount:  amount.FromInt64(500),
			ClaimerPaid:     true,
			RemoteDisputeID: &remote,
			Ruling:          &ruling,
			Status:          dispute.StatusRuled,
			CreatedAt:       time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
		}}
		toolResult, result, err := DisputeGetHandler(client)(context.Background(), nil, DisputeGetInput{DisputeID: "7"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.lastGet.DisputeID != 7 {
			t.Fatalf("requested id = %d, want 7", client.lastGet.DisputeID)
		}
		if result.ID != "7" || result.Status != "Ruled" || result.RequiredAmount != "500" {
			t.Fatalf("unexpected result: %+v", result)
		}
		if result.RemoteDisputeID != "18446744073709551615" || result.Ruling != "2" {
			t.Fatalf("unexpected optional fields: %+v", result)
		}
		if result.CreatedAt != "2026-05-04T10:00:00Z" {
			t.Fatalf("created_at = %q", result.CreatedAt)
		}
		if toolResult.Meta[grpcmeta.RequestIDHeader] != "server-req" {
			t.Fatalf("expected echoed request id, got %v", toolResult.Meta)
		}
		if toolResult.Meta[grpcmeta.InvocationIDHeader] == "" {
			t.Fatal("expected invocation id in tool metadata")
		}
		if len(client.outgoing.Get(grpcmeta.RequestIDHeader)) != 1 || len(client.outgoing.Get(grpcmeta.InvocationIDHeader)) != 1 {
			t.Fatalf("expected correlation ids in outgoing metadata, got %v", client.outgoing)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		for _, input := range []string{"", "-1", "abc", "18446744073709551616"} {
			if _, _, err := DisputeGetHandler(&fakeProxyClient{})(context.Background(), nil, DisputeGetInput{DisputeID: input}); err == nil {
				t.Fatalf("expected error for %q", input)
			}
		}
	})

	t.Run("gRPC error", func(t *testing.T) {
		client := &fakeProxyClient{err: errors.New("connection refused")}
		if _, _, err := DisputeGetHandler(client)(context.Background(), nil, DisputeGetInput{DisputeID: "1"}); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestLocalByRemoteHandler(t *testing.T) {
	client := &fakeProxyClient{local: 4, found: true}
	_, result, err := LocalByRemoteHandler(client)(context.Background(), nil, LocalByRemoteInput{RemoteDisputeID: "900"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Found || result.LocalDisputeID != "4" {
		t.Fatalf("unexpected result: %+v", result)
	}

	client.found, client.local = false, 0
	_, result, err = LocalByRemoteHandler(client)(context.Background(), nil, LocalByRemoteInput{RemoteDisputeID: "901"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Found || result.LocalDisputeID != "" {
		t.Fatalf("expected absent result, got %+v", result)
	}
}

func TestRelayerGetHandler(t *testing.T) {
	_, result, err := RelayerGetHandler(&fakeProxyClient{})(context.Background(), nil, RelayerGetInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Relayer != relayerAddr.String() {
		t.Fatalf("relayer = %q", result.Relayer)
	}
}

func TestDisputeEventsHandler(t *testing.T) {
	client := &fakeProxyClient{
		events: []event.Event{
			{Seq: 2, Type: "dispute.created", Topic: event.TopicCreated, DisputeID: 1, ActorID: claimerAddr.String(), PayloadJSON: []byte(`{"id":1}`)},
			{Seq: 3, Type: "dispute.paid", Topic: event.TopicPaid, DisputeID: 1},
		},
		nextToken: "next",
	}
	_, result, err := DisputeEventsHandler(client)(context.Background(), nil, DisputeEventsInput{DisputeID: "1", Topic: "paid", Descending: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := client.lastEvents.Filter; got != `dispute_id = 1 AND topic = "PAID"` {
		t.Fatalf("filter = %q", got)
	}
	if client.lastEvents.OrderBy != "seq desc" || client.lastEvents.PageSize != defaultEventPageSize {
		t.Fatalf("unexpected request: %+v", client.lastEvents)
	}
	if len(result.Events) != 2 || result.Events[0].Seq != "2" || result.Events[0].Payload != `{"id":1}` {
		t.Fatalf("unexpected events: %+v", result.Events)
	}
	if result.Events[1].DisputeID != "1" || result.NextPageToken != "next" || result.TotalSize != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}

	if _, _, err := DisputeEventsHandler(client)(context.Background(), nil, DisputeEventsInput{}); err != nil {
		t.Fatalf("unfiltered listing: %v", err)
	}
	if client.lastEvents.Filter != "" || client.lastEvents.OrderBy != "" {
		t.Fatalf("expected empty filter and default order, got %+v", client.lastEvents)
	}

	if _, _, err := DisputeEventsHandler(client)(context.Background(), nil, DisputeEventsInput{Topic: "SETTLED"}); err == nil {
		t.Fatal("expected unknown topic error")
	}
}
