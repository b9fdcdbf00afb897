package domain

import (
	"context"
	"fmt"

	"github.com/justly-io/justly-soroban/internal/platform/id"
	grpcmeta "github.com/justly-io/justly-soroban/internal/services/proxy/api/grpc/metadata"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc/metadata"
)

// correlation ties one tool call to the proxy request it made. Both ids are
// echoed in the tool result so an agent can find the call in proxy logs.
type correlation struct {
	requestID    string
	invocationID string
}

func newCorrelation() (correlation, error) {
	requestID, err := id.NewID()
	if err != nil {
		return correlation{}, fmt.Errorf("generate request id: %w", err)
	}
	invocationID, err := id.NewID()
	if err != nil {
		return correlation{}, fmt.Errorf("generate invocation id: %w", err)
	}
	return correlation{requestID: requestID, invocationID: invocationID}, nil
}

func (c correlation) outgoing(ctx context.Context) context.Context {
	return grpcmeta.AppendRequestIDs(ctx, c.requestID, c.invocationID)
}

// confirmed prefers the ids the proxy echoed in its response header.
func (c correlation) confirmed(header metadata.MD) correlation {
	if v := grpcmeta.FirstMetadataValue(header, grpcmeta.RequestIDHeader); v != "" {
		c.requestID = v
	}
	if v := grpcmeta.FirstMetadataValue(header, grpcmeta.InvocationIDHeader); v != "" {
		c.invocationID = v
	}
	return c
}

func (c correlation) result() *mcp.CallToolResult {
	result := &mcp.CallToolResult{Meta: map[string]any{grpcmeta.RequestIDHeader: c.requestID}}
	if c.invocationID != "" {
		result.Meta[grpcmeta.InvocationIDHeader] = c.invocationID
	}
	return result
}
