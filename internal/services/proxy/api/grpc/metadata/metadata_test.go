package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/authz"
	"google.golang.org/grpc/metadata"
)

func staticID(value string) func() (string, error) {
	return func() (string, error) { return value, nil }
}

func TestCallContext(t *testing.T) {
	if got := CallFromContext(nil); got != (Call{}) {
		t.Fatalf("call from nil context = %+v", got)
	}
	ctx := WithCall(nil, Call{RequestID: "req-1", InvocationID: "inv-1"})
	ctx = WithRequestID(ctx, "req-2")
	if RequestIDFromContext(ctx) != "req-2" || InvocationIDFromContext(ctx) != "inv-1" {
		t.Fatalf("call = %+v", CallFromContext(ctx))
	}
}

func TestFirstMetadataValue(t *testing.T) {
	tests := []struct {
		name string
		md   metadata.MD
		want string
	}{
		{name: "skips control bytes", md: metadata.Pairs(RequestIDHeader, "\n", RequestIDHeader, "req-1"), want: "req-1"},
		{name: "skips delete", md: metadata.Pairs(RequestIDHeader, "\x7f"), want: ""},
		{name: "mixed case key", md: metadata.Pairs("X-Justly-Request-Id", "req-2"), want: "req-2"},
		{name: "missing", md: metadata.MD{}, want: ""},
		{name: "nil", md: nil, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstMetadataValue(tt.md, RequestIDHeader); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocaleFromContext(t *testing.T) {
	tests := map[string]string{
		"pt-BR,pt;q=0.9,en;q=0.8": "pt-BR",
		"en-US":                   "en-US",
		" de;q=0.7":               "de",
	}
	for header, want := range tests {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(LocaleHeader, header))
		if got := LocaleFromContext(ctx); got != want {
			t.Fatalf("locale(%q) = %q, want %q", header, got, want)
		}
	}
	if LocaleFromContext(context.Background()) != "" {
		t.Fatal("expected empty locale without metadata")
	}
}

func TestAcceptCallKeepsCallerIDs(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(
		RequestIDHeader, "req-1",
		InvocationIDHeader, "inv-1",
		AuthorizationHeader, "token-a",
		AuthorizationHeader, "token-b",
	))
	ctx, call, err := acceptCall(ctx, staticID("generated"))
	if err != nil {
		t.Fatalf("accept call: %v", err)
	}
	if call != (Call{RequestID: "req-1", InvocationID: "inv-1"}) || CallFromContext(ctx) != call {
		t.Fatalf("call = %+v, stored %+v", call, CallFromContext(ctx))
	}
	tokens := authz.TokensFromContext(ctx)
	if len(tokens) != 2 || tokens[0] != "token-a" || tokens[1] != "token-b" {
		t.Fatalf("tokens = %v", tokens)
	}
}

func TestAcceptCallGeneratesRequestID(t *testing.T) {
	ctx, call, err := acceptCall(context.Background(), staticID("generated"))
	if err != nil {
		t.Fatalf("accept call: %v", err)
	}
	if call.RequestID != "generated" || call.InvocationID != "" {
		t.Fatalf("call = %+v", call)
	}
	if len(authz.TokensFromContext(ctx)) != 0 {
		t.Fatal("expected no tokens")
	}

	_, _, err = acceptCall(context.Background(), func() (string, error) { return "", errors.New("boom") })
	if err == nil {
		t.Fatal("expected generator error")
	}
}

func TestOutgoingHelpers(t *testing.T) {
	ctx := AppendRequestIDs(context.Background(), "req-9", "")
	ctx = AppendAuthorization(ctx, "tok-1", " ", "tok-2")
	md, ok := metadata.FromOutgoingContext(ctx)
	if !ok {
		t.Fatal("expected outgoing metadata")
	}
	if got := md.Get(RequestIDHeader); len(got) != 1 || got[0] != "req-9" {
		t.Fatalf("request ids = %v", got)
	}
	if got := md.Get(InvocationIDHeader); len(got) != 0 {
		t.Fatalf("invocation ids = %v", got)
	}
	if got := md.Get(AuthorizationHeader); len(got) != 2 {
		t.Fatalf("tokens = %v", got)
	}
}

func TestCallHeader(t *testing.T) {
	md := Call{RequestID: "req-1"}.header()
	if FirstMetadataValue(md, RequestIDHeader) != "req-1" || FirstMetadataValue(md, InvocationIDHeader) != "" {
		t.Fatalf("header = %v", md)
	}
	md = Call{RequestID: "req-1", InvocationID: "inv-1"}.header()
	if FirstMetadataValue(md, InvocationIDHeader) != "inv-1" {
		t.Fatalf("header = %v", md)
	}
}
