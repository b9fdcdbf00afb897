// Package authz proves that an identity authorized a specific call.
//
// Every state-changing operation names the identity that must have approved
// it. Approval is an EdDSA JWT signed with that identity's key and bound to
// the operation name and a digest of its arguments, so a token cannot be
// replayed against different arguments or a different operation.
package authz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
)

// Call describes one invocation that needs approval.
type Call struct {
	Operation string
	Args      any
}

// NewCall builds a call for operation with args.
func NewCall(operation string, args any) Call {
	return Call{Operation: operation, Args: args}
}

// Digest returns the hex SHA-256 of the call's canonical JSON form.
func (c Call) Digest() (string, error) {
	data, err := json.Marshal(struct {
		Operation string `json:"op"`
		Args      any    `json:"args"`
	}{c.Operation, c.Args})
	if err != nil {
		return "", fmt.Errorf("encode call %s: %w", c.Operation, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Gate verifies that actor approved call.
type Gate interface {
	Require(ctx context.Context, actor identity.Address, call Call) error
}

// GateFunc adapts a function to Gate.
type GateFunc func(ctx context.Context, actor identity.Address, call Call) error

// Require implements Gate.
func (fn GateFunc) Require(ctx context.Context, actor identity.Address, call Call) error {
	return fn(ctx, actor, call)
}

// AllowAll approves every call. It is meant for trusted in-process hosts and
// tests, in the same spirit as a ledger test environment that mocks all auths.
var AllowAll Gate = GateFunc(func(context.Context, identity.Address, Call) error { return nil })

type tokensKey struct{}

// WithTokens attaches authorization tokens to ctx, appending to any already
// present.
func WithTokens(ctx context.Context, tokens ...string) context.Context {
	existing := TokensFromContext(ctx)
	merged := make([]string, 0, len(existing)+len(tokens))
	merged = append(merged, existing...)
	for _, token := range tokens {
		if token != "" {
			merged = append(merged, token)
		}
	}
	return context.WithValue(ctx, tokensKey{}, merged)
}

// TokensFromContext returns the tokens attached to ctx.
func TokensFromContext(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}
	tokens, _ := ctx.Value(tokensKey{}).([]string)
	return tokens
}
