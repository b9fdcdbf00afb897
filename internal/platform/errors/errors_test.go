package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeAlreadyPaid, "claimer already paid"))
	if !stderrors.Is(err, New(CodeAlreadyPaid, "")) {
		t.Fatal("expected code match through wrap")
	}
	if stderrors.Is(err, New(CodeNotFound, "")) {
		t.Fatal("expected different code not to match")
	}
}

func TestWrapUnwrapsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeUnknown, "put dispute", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
}

func TestGRPCCodeMapping(t *testing.T) {
	tests := []struct {
		code Code
		want codes.Code
	}{
		{CodeUnauthorized, codes.PermissionDenied},
		{CodeInvalidInput, codes.InvalidArgument},
		{CodeInvalidAmount, codes.InvalidArgument},
		{CodeAlreadyPaid, codes.FailedPrecondition},
		{CodeNotFound, codes.NotFound},
		{CodeRemoteAlreadyUsed, codes.AlreadyExists},
		{CodeAlreadyInitialized, codes.AlreadyExists},
		{CodeExecutionPending, codes.Aborted},
		{CodeUnknown, codes.Internal},
	}
	for _, tc := range tests {
		if got := tc.code.GRPCCode(); got != tc.want {
			t.Fatalf("%s.GRPCCode() = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestContractCodesRoundTrip(t *testing.T) {
	for n := uint32(1); n <= 12; n++ {
		code, ok := CodeForContract(n)
		if !ok {
			t.Fatalf("no code for contract error %d", n)
		}
		if code.ContractCode() != n {
			t.Fatalf("%s.ContractCode() = %d, want %d", code, code.ContractCode(), n)
		}
	}
	if CodeExecutionPending.ContractCode() != 0 {
		t.Fatal("expected host-only code to have no contract number")
	}
	if _, ok := CodeForContract(99); ok {
		t.Fatal("expected unknown contract error")
	}
}

func TestHandleErrorAttachesDetails(t *testing.T) {
	err := HandleError(WithMetadata(CodeAlreadyBound, "dispute 3 bound", map[string]string{"DisputeID": "3"}), "")
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected status error, got %v", err)
	}
	if st.Code() != codes.FailedPrecondition {
		t.Fatalf("code = %v, want FailedPrecondition", st.Code())
	}

	var info *errdetails.ErrorInfo
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			info = d
		case *errdetails.LocalizedMessage:
			localized = d
		}
	}
	if info == nil || info.GetReason() != string(CodeAlreadyBound) {
		t.Fatalf("unexpected error info %v", info)
	}
	if info.GetMetadata()[MetadataContractCode] != "6" {
		t.Fatalf("contract code = %q, want 6", info.GetMetadata()[MetadataContractCode])
	}
	if localized == nil || localized.GetMessage() != "Dispute 3 is already bound to a remote dispute" {
		t.Fatalf("unexpected localized message %v", localized)
	}
	if FromStatus(err) != CodeAlreadyBound {
		t.Fatalf("FromStatus = %s", FromStatus(err))
	}
}

func TestHandleErrorPassesThroughStatus(t *testing.T) {
	remote := status.Error(codes.Unavailable, "arbitrable offline")
	err := HandleError(fmt.Errorf("invoke: %w", remote), "en-US")
	if status.Code(err) != codes.Unavailable {
		t.Fatalf("code = %v, want Unavailable", status.Code(err))
	}
}

func TestHandleErrorUnknown(t *testing.T) {
	if HandleError(nil, "") != nil {
		t.Fatal("expected nil for nil error")
	}
	err := HandleError(stderrors.New("boom"), "")
	if status.Code(err) != codes.Internal {
		t.Fatalf("code = %v, want Internal", status.Code(err))
	}
}

func TestGetCodeAndMetadata(t *testing.T) {
	err := WithMetadata(CodeNotFound, "missing", map[string]string{"DisputeID": "9"})
	if GetCode(err) != CodeNotFound || !IsCode(err, CodeNotFound) {
		t.Fatal("expected NOT_FOUND code")
	}
	if GetMetadata(err)["DisputeID"] != "9" {
		t.Fatal("expected metadata")
	}
	if GetCode(stderrors.New("plain")) != CodeUnknown {
		t.Fatal("expected unknown for plain error")
	}
}
