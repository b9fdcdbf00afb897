package domain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/justly-io/justly-soroban/internal/platform/timeouts"
	proxyservice "github.com/justly-io/justly-soroban/internal/services/proxy/api/grpc/proxy"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/dispute"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/event"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const defaultEventPageSize = 20

// DisputeGetInput represents the MCP tool input for reading a dispute.
type DisputeGetInput struct {
	DisputeID string `json:"dispute_id" jsonschema:"local dispute identifier (decimal)"`
}

// DisputeResult is the MCP view of a dispute record.
type DisputeResult struct {
	ID               string `json:"id" jsonschema:"local dispute identifier"`
	Status           string `json:"status" jsonschema:"dispute status (Created, Funded, Ruled, Executed)"`
	Arbitrable       string `json:"arbitrable" jsonschema:"settlement target address"`
	Claimer          string `json:"claimer" jsonschema:"claimer address"`
	Defender         string `json:"defender" jsonschema:"defender address"`
	Category         string `json:"category" jsonschema:"dispute category"`
	JurorsRequired   uint32 `json:"jurors_required" jsonschema:"number of jurors"`
	RequiredAmount   string `json:"required_amount" jsonschema:"stake each party must pay"`
	ClaimerPaid      bool   `json:"claimer_paid" jsonschema:"whether the claimer paid"`
	DefenderPaid     bool   `json:"defender_paid" jsonschema:"whether the defender paid"`
	RemoteDisputeID  string `json:"remote_dispute_id,omitempty" jsonschema:"bound remote dispute identifier, if any"`
	Ruling           string `json:"ruling,omitempty" jsonschema:"final ruling, if recorded"`
	RuleExecuted     bool   `json:"rule_executed" jsonschema:"whether the ruling was delivered"`
	RootEvidenceHash string `json:"root_evidence_hash" jsonschema:"hex root evidence hash"`
	CreatedAt        string `json:"created_at" jsonschema:"RFC3339 creation timestamp"`
}

// DisputeGetTool defines the MCP tool schema for reading a dispute.
func DisputeGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_dispute",
		Description: "Returns a dispute record by its local id.",
	}
}

// DisputeGetHandler executes a dispute read.
func DisputeGetHandler(client proxyservice.ProxyServiceClient) mcp.ToolHandlerFor[DisputeGetInput, DisputeResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DisputeGetInput) (*mcp.CallToolResult, DisputeResult, error) {
		disputeID, err := parseID("dispute_id", input.DisputeID)
		if err != nil {
			return nil, DisputeResult{}, err
		}
		var response *proxyservice.GetDisputeResponse
		meta, err := callProxy(ctx, func(callCtx context.Context, opts ...grpc.CallOption) error {
			var err error
			response, err = client.GetDispute(callCtx, &proxyservice.GetDisputeRequest{DisputeID: disputeID}, opts...)
			return err
		})
		if err != nil {
			return nil, DisputeResult{}, fmt.Errorf("get dispute failed: %w", err)
		}
		if response == nil {
			return nil, DisputeResult{}, fmt.Errorf("get dispute response is missing")
		}
		return meta.result(), disputeResultFrom(response.Dispute), nil
	}
}

// LocalByRemoteInput represents the MCP tool input for a remote id lookup.
type LocalByRemoteInput struct {
	RemoteDisputeID string `json:"remote_dispute_id" jsonschema:"remote dispute identifier (decimal)"`
}

// LocalByRemoteResult represents the MCP tool output for a remote id lookup.
type LocalByRemoteResult struct {
	Found          bool   `json:"found" jsonschema:"whether the remote id is bound"`
	LocalDisputeID string `json:"local_dispute_id,omitempty" jsonschema:"local dispute identifier when found"`
}

// LocalByRemoteTool defines the MCP tool schema for a remote id lookup.
func LocalByRemoteTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_local_by_remote",
		Description: "Resolves a remote court dispute id to the local dispute it is bound to.",
	}
}

// LocalByRemoteHandler executes a remote id lookup.
func LocalByRemoteHandler(client proxyservice.ProxyServiceClient) mcp.ToolHandlerFor[LocalByRemoteInput, LocalByRemoteResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input LocalByRemoteInput) (*mcp.CallToolResult, LocalByRemoteResult, error) {
		remoteID, err := parseID("remote_dispute_id", input.RemoteDisputeID)
		if err != nil {
			return nil, LocalByRemoteResult{}, err
		}
		var response *proxyservice.GetLocalByRemoteResponse
		meta, err := callProxy(ctx, func(callCtx context.Context, opts ...grpc.CallOption) error {
			var err error
			response, err = client.GetLocalByRemote(callCtx, &proxyservice.GetLocalByRemoteRequest{RemoteID: remoteID}, opts...)
			return err
		})
		if err != nil {
			return nil, LocalByRemoteResult{}, fmt.Errorf("get local by remote failed: %w", err)
		}
		if response == nil {
			return nil, LocalByRemoteResult{}, fmt.Errorf("get local by remote response is missing")
		}
		result := LocalByRemoteResult{Found: response.Found}
		if response.Found {
			result.LocalDisputeID = strconv.FormatUint(response.LocalID, 10)
		}
		return meta.result(), result, nil
	}
}

// RelayerGetInput is empty; the relayer is global.
type RelayerGetInput struct{}

// RelayerGetResult represents the MCP tool output for the relayer read.
type RelayerGetResult struct {
	Relayer string `json:"relayer" jsonschema:"current relayer address"`
}

// RelayerGetTool defines the MCP tool schema for the relayer read.
func RelayerGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_relayer",
		Description: "Returns the relayer address allowed to bind and rule disputes.",
	}
}

// RelayerGetHandler executes the relayer read.
func RelayerGetHandler(client proxyservice.ProxyServiceClient) mcp.ToolHandlerFor[RelayerGetInput, RelayerGetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ RelayerGetInput) (*mcp.CallToolResult, RelayerGetResult, error) {
		var response *proxyservice.GetRelayerResponse
		meta, err := callProxy(ctx, func(callCtx context.Context, opts ...grpc.CallOption) error {
			var err error
			response, err = client.GetRelayer(callCtx, &proxyservice.GetRelayerRequest{}, opts...)
			return err
		})
		if err != nil {
			return nil, RelayerGetResult{}, fmt.Errorf("get relayer failed: %w", err)
		}
		if response == nil {
			return nil, RelayerGetResult{}, fmt.Errorf("get relayer response is missing")
		}
		return meta.result(), RelayerGetResult{Relayer: response.Relayer.String()}, nil
	}
}

// DisputeEventsInput represents the MCP tool input for listing journal events.
type DisputeEventsInput struct {
	DisputeID  string `json:"dispute_id,omitempty" jsonschema:"restrict to one local dispute (decimal)"`
	Topic      string `json:"topic,omitempty" jsonschema:"restrict to one topic such as CREATED, PAID or RULING"`
	Descending bool   `json:"descending,omitempty" jsonschema:"newest events first"`
	PageSize   int    `json:"page_size,omitempty" jsonschema:"maximum events to return (default 20)"`
	PageToken  string `json:"page_token,omitempty" jsonschema:"token from a previous call"`
}

// DisputeEventResult is one journal entry.
type DisputeEventResult struct {
	Seq          string `json:"seq" jsonschema:"journal sequence number"`
	Type         string `json:"type" jsonschema:"event type"`
	Topic        string `json:"topic" jsonschema:"event topic"`
	Timestamp    string `json:"ts" jsonschema:"RFC3339 timestamp"`
	ActorID      string `json:"actor_id,omitempty" jsonschema:"address that caused the event"`
	DisputeID    string `json:"dispute_id,omitempty" jsonschema:"local dispute identifier"`
	RequestID    string `json:"request_id,omitempty" jsonschema:"request correlation id"`
	InvocationID string `json:"invocation_id,omitempty" jsonschema:"invocation correlation id"`
	Payload      string `json:"payload" jsonschema:"event payload as JSON"`
}

// DisputeEventsResult represents the MCP tool output for listing journal events.
type DisputeEventsResult struct {
	Events        []DisputeEventResult `json:"events" jsonschema:"journal events"`
	NextPageToken string               `json:"next_page_token,omitempty" jsonschema:"token for the next page"`
	TotalSize     int                  `json:"total_size" jsonschema:"events matching the filter"`
}

// DisputeEventsTool defines the MCP tool schema for listing journal events.
func DisputeEventsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_dispute_events",
		Description: "Lists journal events, optionally for one dispute or topic, in sequence order.",
	}
}

// DisputeEventsHandler executes a journal listing.
func DisputeEventsHandler(client proxyservice.ProxyServiceClient) mcp.ToolHandlerFor[DisputeEventsInput, DisputeEventsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DisputeEventsInput) (*mcp.CallToolResult, DisputeEventsResult, error) {
		filter, err := eventFilter(input)
		if err != nil {
			return nil, DisputeEventsResult{}, err
		}
		pageSize := input.PageSize
		if pageSize <= 0 {
			pageSize = defaultEventPageSize
		}
		req := &proxyservice.ListEventsRequest{
			Filter:    filter,
			PageSize:  int32(pageSize),
			PageToken: input.PageToken,
		}
		if input.Descending {
			req.OrderBy = "seq desc"
		}

		var response *proxyservice.ListEventsResponse
		meta, err := callProxy(ctx, func(callCtx context.Context, opts ...grpc.CallOption) error {
			var err error
			response, err = client.ListEvents(callCtx, req, opts...)
			return err
		})
		if err != nil {
			return nil, DisputeEventsResult{}, fmt.Errorf("list events failed: %w", err)
		}
		if response == nil {
			return nil, DisputeEventsResult{}, fmt.Errorf("list events response is missing")
		}

		result := DisputeEventsResult{
			Events:        make([]DisputeEventResult, 0, len(response.Events)),
			NextPageToken: response.NextPageToken,
			TotalSize:     response.TotalSize,
		}
		for _, evt := range response.Events {
			result.Events = append(result.Events, eventResultFrom(evt))
		}
		return meta.result(), result, nil
	}
}

// callProxy runs one gRPC call with correlation metadata and the call timeout.
func callProxy(ctx context.Context, call func(context.Context, ...grpc.CallOption) error) (correlation, error) {
	corr, err := newCorrelation()
	if err != nil {
		return correlation{}, err
	}
	runCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCRequest)
	defer cancel()

	var header metadata.MD
	if err := call(corr.outgoing(runCtx), grpc.Header(&header)); err != nil {
		return correlation{}, err
	}
	return corr.confirmed(header), nil
}

func parseID(field, value string) (uint64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a decimal unsigned integer", field)
	}
	return parsed, nil
}

func eventFilter(input DisputeEventsInput) (string, error) {
	var clauses []string
	if strings.TrimSpace(input.DisputeID) != "" {
		disputeID, err := parseID("dispute_id", input.DisputeID)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, fmt.Sprintf("dispute_id = %d", disputeID))
	}
	if topic := strings.ToUpper(strings.TrimSpace(input.Topic)); topic != "" {
		if !event.Topic(topic).Valid() {
			return "", fmt.Errorf("unknown topic %q", input.Topic)
		}
		clauses = append(clauses, fmt.Sprintf("topic = %q", topic))
	}
	return strings.Join(clauses, " AND "), nil
}

func disputeResultFrom(d dispute.Dispute) DisputeResult {
	result := DisputeResult{
		ID:               strconv.FormatUint(d.ID, 10),
		Status:           d.Status.String(),
		Arbitrable:       d.Arbitrable.String(),
		Claimer:          d.Claimer.String(),
		Defender:         d.Defender.String(),
		Category:         d.Category,
		JurorsRequired:   d.JurorsRequired,
		RequiredAmount:   d.RequiredAmount.String(),
		ClaimerPaid:      d.ClaimerPaid,
		DefenderPaid:     d.DefenderPaid,
		RuleExecuted:     d.RuleExecuted,
		RootEvidenceHash: d.RootEvidenceHash.String(),
		CreatedAt:        d.CreatedAt.UTC().Format(time.RFC3339),
	}
	if d.RemoteDisputeID != nil {
		result.RemoteDisputeID = strconv.FormatUint(*d.RemoteDisputeID, 10)
	}
	if d.Ruling != nil {
		result.Ruling = strconv.FormatUint(uint64(*d.Ruling), 10)
	}
	return result
}

func eventResultFrom(evt event.Event) DisputeEventResult {
	result := DisputeEventResult{
		Seq:          strconv.FormatUint(evt.Seq, 10),
		Type:         string(evt.Type),
		Topic:        string(evt.Topic),
		Timestamp:    evt.Timestamp.UTC().Format(time.RFC3339),
		ActorID:      evt.ActorID,
		RequestID:    evt.RequestID,
		InvocationID: evt.InvocationID,
		Payload:      string(evt.PayloadJSON),
	}
	if evt.DisputeID != 0 {
		result.DisputeID = strconv.FormatUint(evt.DisputeID, 10)
	}
	return result
}
