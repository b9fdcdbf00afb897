package arbitrable

import (
	"context"
	"errors"

	platformgrpc "github.com/justly-io/justly-soroban/internal/platform/grpc"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified settlement service name.
const ServiceName = "justly.arbitrable.v1.ArbitrableService"

const ruleMethod = "/" + ServiceName + "/Rule"

// RuleRequest delivers a final ruling.
type RuleRequest struct {
	Target    string `json:"target"`
	DisputeID uint64 `json:"dispute_id,string"`
	Ruling    uint32 `json:"ruling"`
}

// RuleResponse acknowledges a ruling.
type RuleResponse struct{}

// ArbitrableServer is implemented by settlement targets.
type ArbitrableServer interface {
	Rule(context.Context, *RuleRequest) (*RuleResponse, error)
}

// RegisterArbitrableServer registers srv on s.
func RegisterArbitrableServer(s grpc.ServiceRegistrar, srv ArbitrableServer) {
	s.RegisterService(&arbitrableServiceDesc, srv)
}

var arbitrableServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ArbitrableServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Rule", Handler: ruleHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "justly/arbitrable/v1/arbitrable.proto",
}

func ruleHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RuleRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ArbitrableServer).Rule(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ruleMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ArbitrableServer).Rule(ctx, req.(*RuleRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// GRPCClient forwards rulings to a remote ArbitrableService.
type GRPCClient struct {
	conn grpc.ClientConnInterface
}

// NewGRPCClient wraps conn.
func NewGRPCClient(conn grpc.ClientConnInterface) *GRPCClient {
	return &GRPCClient{conn: conn}
}

// Rule implements Invoker. A status returned by the remote is passed through
// untouched.
func (c *GRPCClient) Rule(ctx context.Context, target identity.Address, disputeID uint64, ruling uint32) error {
	if c == nil || c.conn == nil {
		return errors.New("arbitrable connection is not configured")
	}
	req := &RuleRequest{Target: target.String(), DisputeID: disputeID, Ruling: ruling}
	return c.conn.Invoke(ctx, ruleMethod, req, new(RuleResponse), platformgrpc.JSONCallOption())
}

// invokerServer hosts an Invoker behind ArbitrableService.
type invokerServer struct {
	invoker Invoker
}

// NewInvokerServer exposes invoker as an ArbitrableService, so a local
// contract can be served to remote proxies.
func NewInvokerServer(invoker Invoker) ArbitrableServer {
	return invokerServer{invoker: invoker}
}

func (s invokerServer) Rule(ctx context.Context, req *RuleRequest) (*RuleResponse, error) {
	target, err := identity.Parse(req.Target)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "target: %v", err)
	}
	if err := s.invoker.Rule(ctx, target, req.DisputeID, req.Ruling); err != nil {
		var unknown *UnknownTargetError
		if errors.As(err, &unknown) {
			return nil, status.Error(codes.NotFound, err.Error())
		}
		if _, ok := status.FromError(err); ok {
			return nil, err
		}
		return nil, status.Error(codes.Aborted, err.Error())
	}
	return &RuleResponse{}, nil
}
