// Package interceptors holds the proxy's gRPC server interceptors.
package interceptors

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	grpcmeta "github.com/justly-io/justly-soroban/internal/services/proxy/api/grpc/metadata"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/authz"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AuditInterceptor logs one line per unary call: method, read/write kind,
// resulting code, correlation ids and the actors whose tokens were presented.
// It must run after the metadata interceptor.
func AuditInterceptor(logf func(string, ...any)) grpc.UnaryServerInterceptor {
	if logf == nil {
		logf = log.Printf
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := codes.OK
		if err != nil {
			code = codes.Unknown
			if st, ok := status.FromError(err); ok {
				code = st.Code()
			}
		}

		var traceID string
		if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
			traceID = sc.TraceID().String()
		}

		logf("audit method=%s kind=%s code=%s request_id=%s invocation_id=%s actors=%s trace_id=%s duration=%s",
			info.FullMethod,
			classifyMethodKind(info.FullMethod),
			code,
			grpcmeta.RequestIDFromContext(ctx),
			grpcmeta.InvocationIDFromContext(ctx),
			strings.Join(tokenSubjects(authz.TokensFromContext(ctx)), ","),
			traceID,
			time.Since(start).Round(time.Microsecond),
		)
		return resp, err
	}
}

// tokenSubjects reads the sub claim of each token without verifying it.
// The gate verifies; the audit line only names who claimed to act.
func tokenSubjects(tokens []string) []string {
	parser := jwt.NewParser()
	subjects := make([]string, 0, len(tokens))
	for _, token := range tokens {
		var claims jwt.RegisteredClaims
		if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
			subjects = append(subjects, "?")
			continue
		}
		subjects = append(subjects, shortSubject(claims.Subject))
	}
	return subjects
}

func shortSubject(sub string) string {
	if len(sub) <= 12 {
		return sub
	}
	return sub[:12]
}

func classifyMethodKind(fullMethod string) string {
	name := fullMethod
	if i := strings.LastIndex(fullMethod, "/"); i >= 0 {
		name = fullMethod[i+1:]
	}
	for _, prefix := range []string{"Get", "List", "Verify"} {
		if strings.HasPrefix(name, prefix) {
			return "read"
		}
	}
	return "write"
}
