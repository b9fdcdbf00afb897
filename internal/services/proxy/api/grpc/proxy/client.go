package proxy

import (
	"context"

	platformgrpc "github.com/justly-io/justly-soroban/internal/platform/grpc"
	"google.golang.org/grpc"
)

// ProxyServiceClient is the client API for ProxyService.
type ProxyServiceClient interface {
	Initialize(ctx context.Context, in *InitializeRequest, opts ...grpc.CallOption) (*ConfigResponse, error)
	SetRelayer(ctx context.Context, in *SetRelayerRequest, opts ...grpc.CallOption) (*Empty, error)
	CreateDispute(ctx context.Context, in *CreateDisputeRequest, opts ...grpc.CallOption) (*CreateDisputeResponse, error)
	PayDispute(ctx context.Context, in *PayDisputeRequest, opts ...grpc.CallOption) (*Empty, error)
	SubmitEvidence(ctx context.Context, in *SubmitEvidenceRequest, opts ...grpc.CallOption) (*Empty, error)
	BindRemoteDispute(ctx context.Context, in *BindRemoteDisputeRequest, opts ...grpc.CallOption) (*Empty, error)
	Rule(ctx context.Context, in *RuleRequest, opts ...grpc.CallOption) (*Empty, error)
	ExecuteRule(ctx context.Context, in *ExecuteRuleRequest, opts ...grpc.CallOption) (*Empty, error)
	GetDispute(ctx context.Context, in *GetDisputeRequest, opts ...grpc.CallOption) (*GetDisputeResponse, error)
	GetLocalByRemote(ctx context.Context, in *GetLocalByRemoteRequest, opts ...grpc.CallOption) (*GetLocalByRemoteResponse, error)
	GetRelayer(ctx context.Context, in *GetRelayerRequest, opts ...grpc.CallOption) (*GetRelayerResponse, error)
	ListDisputes(ctx context.Context, in *ListDisputesRequest, opts ...grpc.CallOption) (*ListDisputesResponse, error)
	ListEvents(ctx context.Context, in *ListEventsRequest, opts ...grpc.CallOption) (*ListEventsResponse, error)
	VerifyJournal(ctx context.Context, in *VerifyJournalRequest, opts ...grpc.CallOption) (*VerifyJournalResponse, error)
}

type proxyServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewProxyServiceClient returns a client that always selects the JSON codec.
func NewProxyServiceClient(cc grpc.ClientConnInterface) ProxyServiceClient {
	return &proxyServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	callOpts := append([]grpc.CallOption{platformgrpc.JSONCallOption()}, opts...)
	if err := cc.Invoke(ctx, method, in, out, callOpts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *proxyServiceClient) Initialize(ctx context.Context, in *InitializeRequest, opts ...grpc.CallOption) (*ConfigResponse, error) {
	return invoke[ConfigResponse](ctx, c.cc, MethodInitialize, in, opts)
}

func (c *proxyServiceClient) SetRelayer(ctx context.Context, in *SetRelayerRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodSetRelayer, in, opts)
}

func (c *proxyServiceClient) CreateDispute(ctx context.Context, in *CreateDisputeRequest, opts ...grpc.CallOption) (*CreateDisputeResponse, error) {
	return invoke[CreateDisputeResponse](ctx, c.cc, MethodCreateDispute, in, opts)
}

func (c *proxyServiceClient) PayDispute(ctx context.Context, in *PayDisputeRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodPayDispute, in, opts)
}

func (c *proxyServiceClient) SubmitEvidence(ctx context.Context, in *SubmitEvidenceRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodSubmitEvidence, in, opts)
}

func (c *proxyServiceClient) BindRemoteDispute(ctx context.Context, in *BindRemoteDisputeRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodBindRemoteDispute, in, opts)
}

func (c *proxyServiceClient) Rule(ctx context.Context, in *RuleRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodRule, in, opts)
}

func (c *proxyServiceClient) ExecuteRule(ctx context.Context, in *ExecuteRuleRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodExecuteRule, in, opts)
}

func (c *proxyServiceClient) GetDispute(ctx context.Context, in *GetDisputeRequest, opts ...grpc.CallOption) (*GetDisputeResponse, error) {
	return invoke[GetDisputeResponse](ctx, c.cc, MethodGetDispute, in, opts)
}

func (c *proxyServiceClient) GetLocalByRemote(ctx context.Context, in *GetLocalByRemoteRequest, opts ...grpc.CallOption) (*GetLocalByRemoteResponse, error) {
	return invoke[GetLocalByRemoteResponse](ctx, c.cc, MethodGetLocalByRemote, in, opts)
}

func (c *proxyServiceClient) GetRelayer(ctx context.Context, in *GetRelayerRequest, opts ...grpc.CallOption) (*GetRelayerResponse, error) {
	return invoke[GetRelayerResponse](ctx, c.cc, MethodGetRelayer, in, opts)
}

func (c *proxyServiceClient) ListDisputes(ctx context.Context, in *ListDisputesRequest, opts ...grpc.CallOption) (*ListDisputesResponse, error) {
	return invoke[ListDisputesResponse](ctx, c.cc, MethodListDisputes, in, opts)
}

func (c *proxyServiceClient) ListEvents(ctx context.Context, in *ListEventsRequest, opts ...grpc.CallOption) (*ListEventsResponse, error) {
	return invoke[ListEventsResponse](ctx, c.cc, MethodListEvents, in, opts)
}

func (c *proxyServiceClient) VerifyJournal(ctx context.Context, in *VerifyJournalRequest, opts ...grpc.CallOption) (*VerifyJournalResponse, error) {
	return invoke[VerifyJournalResponse](ctx, c.cc, MethodVerifyJournal, in, opts)
}
