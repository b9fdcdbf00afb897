package proxy

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified proxy service name.
const ServiceName = "justly.proxy.v1.ProxyService"

// Full method names.
const (
	MethodInitialize        = "/" + ServiceName + "/Initialize"
	MethodSetRelayer        = "/" + ServiceName + "/SetRelayer"
	MethodCreateDispute     = "/" + ServiceName + "/CreateDispute"
	MethodPayDispute        = "/" + ServiceName + "/PayDispute"
	MethodSubmitEvidence    = "/" + ServiceName + "/SubmitEvidence"
	MethodBindRemoteDispute = "/" + ServiceName + "/BindRemoteDispute"
	MethodRule              = "/" + ServiceName + "/Rule"
	MethodExecuteRule       = "/" + ServiceName + "/ExecuteRule"
	MethodGetDispute        = "/" + ServiceName + "/GetDispute"
	MethodGetLocalByRemote  = "/" + ServiceName + "/GetLocalByRemote"
	MethodGetRelayer        = "/" + ServiceName + "/GetRelayer"
	MethodListDisputes      = "/" + ServiceName + "/ListDisputes"
	MethodListEvents        = "/" + ServiceName + "/ListEvents"
	MethodVerifyJournal     = "/" + ServiceName + "/VerifyJournal"
)

// ProxyServiceServer is the server API for ProxyService.
type ProxyServiceServer interface {
	Initialize(context.Context, *InitializeRequest) (*ConfigResponse, error)
	SetRelayer(context.Context, *SetRelayerRequest) (*Empty, error)
	CreateDispute(context.Context, *CreateDisputeRequest) (*CreateDisputeResponse, error)
	PayDispute(context.Context, *PayDisputeRequest) (*Empty, error)
	SubmitEvidence(context.Context, *SubmitEvidenceRequest) (*Empty, error)
	BindRemoteDispute(context.Context, *BindRemoteDisputeRequest) (*Empty, error)
	Rule(context.Context, *RuleRequest) (*Empty, error)
	ExecuteRule(context.Context, *ExecuteRuleRequest) (*Empty, error)
	GetDispute(context.Context, *GetDisputeRequest) (*GetDisputeResponse, error)
	GetLocalByRemote(context.Context, *GetLocalByRemoteRequest) (*GetLocalByRemoteResponse, error)
	GetRelayer(context.Context, *GetRelayerRequest) (*GetRelayerResponse, error)
	ListDisputes(context.Context, *ListDisputesRequest) (*ListDisputesResponse, error)
	ListEvents(context.Context, *ListEventsRequest) (*ListEventsResponse, error)
	VerifyJournal(context.Context, *VerifyJournalRequest) (*VerifyJournalResponse, error)
}

// RegisterProxyServiceServer registers srv on s.
func RegisterProxyServiceServer(s grpc.ServiceRegistrar, srv ProxyServiceServer) {
	s.RegisterService(&proxyServiceDesc, srv)
}

var proxyServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProxyServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Initialize", Handler: unaryHandler(MethodInitialize, ProxyServiceServer.Initialize)},
		{MethodName: "SetRelayer", Handler: unaryHandler(MethodSetRelayer, ProxyServiceServer.SetRelayer)},
		{MethodName: "CreateDispute", Handler: unaryHandler(MethodCreateDispute, ProxyServiceServer.CreateDispute)},
		{MethodName: "PayDispute", Handler: unaryHandler(MethodPayDispute, ProxyServiceServer.PayDispute)},
		{MethodName: "SubmitEvidence", Handler: unaryHandler(MethodSubmitEvidence, ProxyServiceServer.SubmitEvidence)},
		{MethodName: "BindRemoteDispute", Handler: unaryHandler(MethodBindRemoteDispute, ProxyServiceServer.BindRemoteDispute)},
		{MethodName: "Rule", Handler: unaryHandler(MethodRule, ProxyServiceServer.Rule)},
		{MethodName: "ExecuteRule", Handler: unaryHandler(MethodExecuteRule, ProxyServiceServer.ExecuteRule)},
		{MethodName: "GetDispute", Handler: unaryHandler(MethodGetDispute, ProxyServiceServer.GetDispute)},
		{MethodName: "GetLocalByRemote", Handler: unaryHandler(MethodGetLocalByRemote, ProxyServiceServer.GetLocalByRemote)},
		{MethodName: "GetRelayer", Handler: unaryHandler(MethodGetRelayer, ProxyServiceServer.GetRelayer)},
		{MethodName: "ListDisputes", Handler: unaryHandler(MethodListDisputes, ProxyServiceServer.ListDisputes)},
		{MethodName: "ListEvents", Handler: unaryHandler(MethodListEvents, ProxyServiceServer.ListEvents)},
		{MethodName: "VerifyJournal", Handler: unaryHandler(MethodVerifyJournal, ProxyServiceServer.VerifyJournal)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "justly/proxy/v1/proxy.proto",
}

type grpcMethodHandler = func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error)

func unaryHandler[Req, Resp any](fullMethod string, call func(ProxyServiceServer, context.Context, *Req) (*Resp, error)) grpcMethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		server := srv.(ProxyServiceServer)
		if interceptor == nil {
			return call(server, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(server, ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
