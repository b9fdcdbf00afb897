package errors

import (
	"strconv"

	"github.com/justly-io/justly-soroban/internal/platform/errors/i18n"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// Domain tags the ErrorInfo details the proxy attaches.
	Domain = "justly.io/proxy"
	// MetadataContractCode is the ErrorInfo key holding the numeric
	// contract error.
	MetadataContractCode = "contract_code"
)

// HandleError turns err into the status a client sees. *Error values get
// ErrorInfo and LocalizedMessage details in the best catalog for locale.
// Errors that already carry a status, such as failures reported by an
// arbitrable, pass through. Anything else is hidden behind Internal.
func HandleError(err error, locale string) error {
	if err == nil {
		return nil
	}
	if e, ok := as(err); ok {
		return statusOf(e, i18n.Lookup(locale))
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return st.Err()
	}
	return status.Error(codes.Internal, "an unexpected error occurred")
}

func statusOf(e *Error, catalog *i18n.Catalog) error {
	st := status.New(e.Code.GRPCCode(), e.Error())

	info := &errdetails.ErrorInfo{
		Reason:   string(e.Code),
		Domain:   Domain,
		Metadata: make(map[string]string, len(e.Metadata)+1),
	}
	for key, value := range e.Metadata {
		info.Metadata[key] = value
	}
	if n := e.Code.ContractCode(); n != 0 {
		info.Metadata[MetadataContractCode] = strconv.FormatUint(uint64(n), 10)
	}
	localized := &errdetails.LocalizedMessage{
		Locale:  catalog.Locale(),
		Message: catalog.Format(string(e.Code), e.Metadata),
	}

	detailed, err := st.WithDetails(info, localized)
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}

// FromStatus recovers the code a proxy status carries in its ErrorInfo.
// Non-status errors are inspected with GetCode.
func FromStatus(err error) Code {
	st, ok := status.FromError(err)
	if !ok {
		return GetCode(err)
	}
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok && info.GetDomain() == Domain {
			return Code(info.GetReason())
		}
	}
	return CodeUnknown
}
