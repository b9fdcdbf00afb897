package metadata

import (
	"context"
	"fmt"
	"strings"

	"github.com/justly-io/justly-soroban/internal/platform/id"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/authz"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	RequestIDHeader     = "x-justly-request-id"
	InvocationIDHeader  = "x-justly-invocation-id"
	AuthorizationHeader = "x-justly-authorization"
	LocaleHeader        = "accept-language"
)

// Call identifies one inbound proxy call.
type Call struct {
	RequestID    string
	InvocationID string
}

type callKey struct{}

// WithCall stores c in ctx.
func WithCall(ctx context.Context, c Call) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, callKey{}, c)
}

// CallFromContext returns the call stored by the server interceptor, or the
// zero Call.
func CallFromContext(ctx context.Context) Call {
	if ctx == nil {
		return Call{}
	}
	c, _ := ctx.Value(callKey{}).(Call)
	return c
}

// WithRequestID replaces the request id of the call in ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	c := CallFromContext(ctx)
	c.RequestID = requestID
	return WithCall(ctx, c)
}

func RequestIDFromContext(ctx context.Context) string { return CallFromContext(ctx).RequestID }

func InvocationIDFromContext(ctx context.Context) string { return CallFromContext(ctx).InvocationID }

// LocaleFromContext returns the first language tag of the incoming
// accept-language header, or "".
func LocaleFromContext(ctx context.Context) string {
	md, _ := metadata.FromIncomingContext(ctx)
	value := FirstMetadataValue(md, LocaleHeader)
	if value == "" {
		return ""
	}
	tag, _, _ := strings.Cut(value, ",")
	tag, _, _ = strings.Cut(tag, ";")
	return strings.TrimSpace(tag)
}

// FirstMetadataValue returns the first usable value for key.
func FirstMetadataValue(md metadata.MD, key string) string {
	if values := headerValues(md, key); len(values) > 0 {
		return values[0]
	}
	return ""
}

// headerValues drops values that could not have come from a well-behaved
// client: empty strings and anything outside printable ASCII.
func headerValues(md metadata.MD, key string) []string {
	var out []string
	for _, value := range md.Get(key) {
		if printable(value) {
			out = append(out, value)
		}
	}
	return out
}

func printable(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range []byte(value) {
		if r < ' ' || r > '~' {
			return false
		}
	}
	return true
}

// AppendAuthorization adds signed tokens to outgoing metadata.
func AppendAuthorization(ctx context.Context, tokens ...string) context.Context {
	for _, token := range tokens {
		if token = strings.TrimSpace(token); token != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, AuthorizationHeader, token)
		}
	}
	return ctx
}

// AppendRequestIDs adds correlation ids to outgoing metadata. Empty ids are
// skipped.
func AppendRequestIDs(ctx context.Context, requestID, invocationID string) context.Context {
	if requestID != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, RequestIDHeader, requestID)
	}
	if invocationID != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, InvocationIDHeader, invocationID)
	}
	return ctx
}

// UnaryServerInterceptor gives every call a request ID, echoes the ids back
// as response headers and moves authorization tokens into the context.
func UnaryServerInterceptor(newID func() (string, error)) grpc.UnaryServerInterceptor {
	if newID == nil {
		newID = id.NewID
	}
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, call, err := acceptCall(ctx, newID)
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		if err := grpc.SetHeader(ctx, call.header()); err != nil {
			return nil, status.Errorf(codes.Internal, "set response metadata: %v", err)
		}
		return handler(ctx, req)
	}
}

// acceptCall reads correlation ids and tokens from the incoming metadata,
// generating a request id when the caller sent none.
func acceptCall(ctx context.Context, newID func() (string, error)) (context.Context, Call, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	call := Call{
		RequestID:    FirstMetadataValue(md, RequestIDHeader),
		InvocationID: FirstMetadataValue(md, InvocationIDHeader),
	}
	if call.RequestID == "" {
		generated, err := newID()
		if err != nil {
			return ctx, Call{}, fmt.Errorf("generate request id: %w", err)
		}
		call.RequestID = generated
	}
	ctx = WithCall(ctx, call)
	if tokens := headerValues(md, AuthorizationHeader); len(tokens) > 0 {
		ctx = authz.WithTokens(ctx, tokens...)
	}
	return ctx, call, nil
}

func (c Call) header() metadata.MD {
	md := metadata.Pairs(RequestIDHeader, c.RequestID)
	if c.InvocationID != "" {
		md.Append(InvocationIDHeader, c.InvocationID)
	}
	return md
}
