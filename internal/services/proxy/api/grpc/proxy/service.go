// Package proxy exposes the dispute engine as justly.proxy.v1.ProxyService.
package proxy

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/justly-io/justly-soroban/internal/platform/errors"
	"github.com/justly-io/justly-soroban/internal/platform/grpc/pagination"
	grpcmeta "github.com/justly-io/justly-soroban/internal/services/proxy/api/grpc/metadata"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/dispute"
	"github.com/justly-io/justly-soroban/internal/services/proxy/engine"
	"github.com/justly-io/justly-soroban/internal/services/proxy/storage"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200

	orderSeqAsc  = "seq"
	orderSeqDesc = "seq desc"
)

var (
	disputePages = pagination.Policy{DefaultSize: defaultPageSize, MaxSize: maxPageSize}
	eventPages   = pagination.Policy{
		DefaultSize:  defaultPageSize,
		MaxSize:      maxPageSize,
		DefaultOrder: orderSeqAsc,
		Orders:       []string{orderSeqAsc, orderSeqDesc},
	}
)

// Service implements ProxyServiceServer on top of an engine.
type Service struct {
	engine *engine.Engine
}

// NewService builds the gRPC service.
func NewService(eng *engine.Engine) (*Service, error) {
	if eng == nil {
		return nil, errors.New("engine is required")
	}
	return &Service{engine: eng}, nil
}

// withMeta hands the transport correlation ids to the engine.
func withMeta(ctx context.Context) context.Context {
	return engine.WithMeta(ctx, engine.Meta{
		RequestID:    grpcmeta.RequestIDFromContext(ctx),
		InvocationID: grpcmeta.InvocationIDFromContext(ctx),
	})
}

func handleError(ctx context.Context, err error) error {
	return apperrors.HandleError(err, grpcmeta.LocaleFromContext(ctx))
}

func invalidArgument(ctx context.Context, message string, cause error) error {
	return handleError(ctx, apperrors.Wrap(apperrors.CodeInvalidInput, message, cause))
}

func (s *Service) Initialize(ctx context.Context, in *InitializeRequest) (*ConfigResponse, error) {
	cfg, err := s.engine.Initialize(withMeta(ctx), in.Admin, in.Relayer)
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return &ConfigResponse{Admin: cfg.Admin, Relayer: cfg.Relayer}, nil
}

func (s *Service) SetRelayer(ctx context.Context, in *SetRelayerRequest) (*Empty, error) {
	if err := s.engine.SetRelayer(withMeta(ctx), in.Relayer); err != nil {
		return nil, handleError(ctx, err)
	}
	return &Empty{}, nil
}

func (s *Service) CreateDispute(ctx context.Context, in *CreateDisputeRequest) (*CreateDisputeResponse, error) {
	id, err := s.engine.CreateDispute(withMeta(ctx), in.Params)
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return &CreateDisputeResponse{DisputeID: id}, nil
}

func (s *Service) PayDispute(ctx context.Context, in *PayDisputeRequest) (*Empty, error) {
	if err := s.engine.PayDispute(withMeta(ctx), in.Payer, in.DisputeID, in.Amount); err != nil {
		return nil, handleError(ctx, err)
	}
	return &Empty{}, nil
}

func (s *Service) SubmitEvidence(ctx context.Context, in *SubmitEvidenceRequest) (*Empty, error) {
	if err := s.engine.SubmitEvidence(withMeta(ctx), in.Submitter, in.DisputeID, in.EvidenceHash); err != nil {
		return nil, handleError(ctx, err)
	}
	return &Empty{}, nil
}

func (s *Service) BindRemoteDispute(ctx context.Context, in *BindRemoteDisputeRequest) (*Empty, error) {
	if err := s.engine.BindRemoteDispute(withMeta(ctx), in.LocalID, in.RemoteID); err != nil {
		return nil, handleError(ctx, err)
	}
	return &Empty{}, nil
}

func (s *Service) Rule(ctx context.Context, in *RuleRequest) (*Empty, error) {
	if err := s.engine.Rule(withMeta(ctx), in.LocalID, in.Ruling); err != nil {
		return nil, handleError(ctx, err)
	}
	return &Empty{}, nil
}

// ExecuteRule returns arbitrable failures as the arbitrable reported them.
// A failure without a status surfaces as Aborted with its own message.
func (s *Service) ExecuteRule(ctx context.Context, in *ExecuteRuleRequest) (*Empty, error) {
	err := s.engine.ExecuteRule(withMeta(ctx), in.LocalID)
	if err == nil {
		return &Empty{}, nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return nil, handleError(ctx, err)
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return nil, st.Err()
	}
	return nil, status.Error(codes.Aborted, "arbitrable: "+err.Error())
}

func (s *Service) GetDispute(ctx context.Context, in *GetDisputeRequest) (*GetDisputeResponse, error) {
	d, err := s.engine.GetDispute(ctx, in.DisputeID)
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return &GetDisputeResponse{Dispute: d}, nil
}

func (s *Service) GetLocalByRemote(ctx context.Context, in *GetLocalByRemoteRequest) (*GetLocalByRemoteResponse, error) {
	local, found, err := s.engine.GetLocalByRemote(ctx, in.RemoteID)
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return &GetLocalByRemoteResponse{LocalID: local, Found: found}, nil
}

func (s *Service) GetRelayer(ctx context.Context, _ *GetRelayerRequest) (*GetRelayerResponse, error) {
	relayer, err := s.engine.GetRelayer(ctx)
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return &GetRelayerResponse{Relayer: relayer}, nil
}

func (s *Service) ListDisputes(ctx context.Context, in *ListDisputesRequest) (*ListDisputesResponse, error) {
	statusFilter := strings.TrimSpace(in.Status)
	pageReq, err := disputePages.Resolve(in.PageSize, "", statusFilter, in.PageToken)
	if err != nil {
		return nil, invalidArgument(ctx, "invalid page token", err)
	}
	req := storage.ListDisputesPageRequest{AfterID: pageReq.After, PageSize: pageReq.Size}
	if statusFilter != "" {
		st, err := dispute.ParseStatus(statusFilter)
		if err != nil {
			return nil, invalidArgument(ctx, "invalid status filter", err)
		}
		req.Status = &st
	}

	page, err := s.engine.ListDisputes(ctx, req)
	if err != nil {
		return nil, handleError(ctx, err)
	}
	resp := &ListDisputesResponse{Disputes: page.Disputes}
	if page.HasNextPage && len(page.Disputes) > 0 {
		next, err := pageReq.Next(page.Disputes[len(page.Disputes)-1].ID)
		if err != nil {
			return nil, handleError(ctx, err)
		}
		resp.NextPageToken = next
	}
	return resp, nil
}

func (s *Service) ListEvents(ctx context.Context, in *ListEventsRequest) (*ListEventsResponse, error) {
	filter := strings.TrimSpace(in.Filter)
	pageReq, err := eventPages.Resolve(in.PageSize, in.OrderBy, filter, in.PageToken)
	switch {
	case errors.Is(err, pagination.ErrOrderBy):
		return nil, invalidArgument(ctx, "invalid order_by", err)
	case err != nil:
		return nil, invalidArgument(ctx, "invalid page token", err)
	}

	page, err := s.engine.ListEvents(ctx, engine.EventQuery{
		Filter:     filter,
		CursorSeq:  pageReq.After,
		PageSize:   pageReq.Size,
		Descending: pageReq.OrderBy == orderSeqDesc,
	})
	if err != nil {
		return nil, handleError(ctx, err)
	}
	resp := &ListEventsResponse{Events: page.Events, TotalSize: page.TotalCount}
	if page.HasNextPage && len(page.Events) > 0 {
		next, err := pageReq.Next(page.Events[len(page.Events)-1].Seq)
		if err != nil {
			return nil, handleError(ctx, err)
		}
		resp.NextPageToken = next
	}
	return resp, nil
}

func (s *Service) VerifyJournal(ctx context.Context, _ *VerifyJournalRequest) (*VerifyJournalResponse, error) {
	report, err := s.engine.VerifyJournal(ctx)
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return &VerifyJournalResponse{Events: report.Events, HeadChainHash: report.HeadChainHash}, nil
}
