// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Dispute lifecycle errors
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeInvalidInput      Code = "INVALID_INPUT"
	CodeInvalidAmount     Code = "INVALID_AMOUNT"
	CodeAlreadyPaid       Code = "ALREADY_PAID"
	CodeNotFound          Code = "NOT_FOUND"
	CodeAlreadyBound      Code = "ALREADY_BOUND"
	CodeRemoteAlreadyUsed Code = "REMOTE_ALREADY_USED"
	CodeRulingAlreadySet  Code = "RULING_ALREADY_SET"
	CodeRulingMissing     Code = "RULING_MISSING"
	CodeAlreadyExecuted   Code = "ALREADY_EXECUTED"
	CodeConfigMissing     Code = "CONFIG_MISSING"
	CodeRemoteMissing     Code = "REMOTE_MISSING"

	// Host errors
	CodeAlreadyInitialized Code = "ALREADY_INITIALIZED"
	CodeExecutionPending   Code = "EXECUTION_PENDING"
	CodeJournalCorrupt     Code = "JOURNAL_CORRUPT"
)

// contractCodes are the numeric error values exposed by the ledger contract.
var contractCodes = map[Code]uint32{
	CodeUnauthorized:      1,
	CodeInvalidInput:      2,
	CodeInvalidAmount:     3,
	CodeAlreadyPaid:       4,
	CodeNotFound:          5,
	CodeAlreadyBound:      6,
	CodeRemoteAlreadyUsed: 7,
	CodeRulingAlreadySet:  8,
	CodeRulingMissing:     9,
	CodeAlreadyExecuted:   10,
	CodeConfigMissing:     11,
	CodeRemoteMissing:     12,
}

// ContractCode returns the numeric contract error for c, or zero when the
// code has no contract counterpart.
func (c Code) ContractCode() uint32 {
	return contractCodes[c]
}

// CodeForContract resolves a numeric contract error back to its code.
func CodeForContract(n uint32) (Code, bool) {
	for code, value := range contractCodes {
		if value == n {
			return code, true
		}
	}
	return CodeUnknown, false
}

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeInvalidInput,
		CodeInvalidAmount:
		return codes.InvalidArgument

	// PermissionDenied - caller identity does not hold the role
	case CodeUnauthorized:
		return codes.PermissionDenied

	// FailedPrecondition - state doesn't allow operation
	case CodeAlreadyPaid,
		CodeAlreadyBound,
		CodeRulingAlreadySet,
		CodeRulingMissing,
		CodeAlreadyExecuted,
		CodeConfigMissing,
		CodeRemoteMissing:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	// AlreadyExists - unique resource constraint
	case CodeRemoteAlreadyUsed,
		CodeAlreadyInitialized:
		return codes.AlreadyExists

	// Aborted - concurrent execution holds the record
	case CodeExecutionPending:
		return codes.Aborted

	case CodeJournalCorrupt:
		return codes.DataLoss

	default:
		return codes.Internal
	}
}
