package authz

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/justly-io/justly-soroban/internal/platform/errors"
	"github.com/justly-io/justly-soroban/internal/platform/id"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
)

// SigningMethod is the only accepted JWT algorithm.
const SigningMethod = "EdDSA"

// callClaims is the JWT body binding a token to one call.
type callClaims struct {
	jwt.RegisteredClaims
	Operation string `json:"op"`
	Digest    string `json:"digest"`
}

// TokenLedger remembers spent token ids. The gate consults the ledger
// attached to the request context so that a token is spent in the same
// transaction as the call it approves.
type TokenLedger interface {
	ConsumeToken(ctx context.Context, jti string, expiresAt, now time.Time) (bool, error)
}

type ledgerKey struct{}

// WithTokenLedger attaches ledger to ctx.
func WithTokenLedger(ctx context.Context, ledger TokenLedger) context.Context {
	return context.WithValue(ctx, ledgerKey{}, ledger)
}

func tokenLedgerFrom(ctx context.Context) TokenLedger {
	ledger, _ := ctx.Value(ledgerKey{}).(TokenLedger)
	return ledger
}

// SignatureGate verifies call tokens signed by the acting identity. Spent
// token ids go to the context's TokenLedger, or to process memory when none
// is attached.
type SignatureGate struct {
	Audience string
	MaxAge   time.Duration
	Now      func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

// NewSignatureGate returns a gate for audience. Tokens older than maxAge are
// refused even when their exp is later.
func NewSignatureGate(audience string, maxAge time.Duration) *SignatureGate {
	return &SignatureGate{
		Audience: audience,
		MaxAge:   maxAge,
		Now:      time.Now,
		seen:     map[string]time.Time{},
	}
}

// Require implements Gate.
func (g *SignatureGate) Require(ctx context.Context, actor identity.Address, call Call) error {
	if actor.IsZero() {
		return unauthorized(call, "actor identity is required")
	}
	key, err := actor.PublicKey()
	if err != nil {
		return unauthorized(call, "actor identity is not a verification key")
	}
	digest, err := call.Digest()
	if err != nil {
		return err
	}

	tokens := TokensFromContext(ctx)
	if len(tokens) == 0 {
		return unauthorized(call, "authorization token is required")
	}
	var lastErr error
	for _, token := range tokens {
		claims, err := g.verify(token, key, actor, call.Operation, digest)
		if err != nil {
			lastErr = err
			continue
		}
		fresh, err := g.consume(ctx, claims.ID, claims.ExpiresAt.Time)
		if err != nil {
			return err
		}
		if !fresh {
			lastErr = errors.New("token was already used")
			continue
		}
		return nil
	}
	return unauthorized(call, lastErr.Error())
}

func (g *SignatureGate) verify(token string, key ed25519.PublicKey, actor identity.Address, operation, digest string) (callClaims, error) {
	var claims callClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), &claims, func(*jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{SigningMethod}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return callClaims{}, mapJWTError(err)
	}
	if claims.Subject != string(actor) {
		return callClaims{}, errors.New("token subject does not match actor")
	}
	if g.Audience != "" && !audienceContains(claims.Audience, g.Audience) {
		return callClaims{}, errors.New("token audience mismatch")
	}
	if claims.Operation != operation {
		return callClaims{}, fmt.Errorf("token is for %q", claims.Operation)
	}
	if claims.Digest != digest {
		return callClaims{}, errors.New("token digest does not match call arguments")
	}
	if claims.ID == "" {
		return callClaims{}, errors.New("token jti is required")
	}
	if claims.ExpiresAt == nil {
		return callClaims{}, errors.New("token exp is required")
	}

	now := g.now()
	if !claims.ExpiresAt.Time.After(now) {
		return callClaims{}, errors.New("token is expired")
	}
	if g.MaxAge > 0 {
		if claims.IssuedAt == nil {
			return callClaims{}, errors.New("token iat is required")
		}
		if now.Sub(claims.IssuedAt.Time) > g.MaxAge {
			return callClaims{}, errors.New("token is too old")
		}
	}
	return claims, nil
}

// consume records jti and reports whether it was unused. Expired entries are
// pruned on the way.
func (g *SignatureGate) consume(ctx context.Context, jti string, exp time.Time) (bool, error) {
	if ledger := tokenLedgerFrom(ctx); ledger != nil {
		fresh, err := ledger.ConsumeToken(ctx, jti, exp.UTC(), g.now())
		if err != nil {
			return false, fmt.Errorf("consume token: %w", err)
		}
		return fresh, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen == nil {
		g.seen = map[string]time.Time{}
	}
	now := g.now()
	for key, until := range g.seen {
		if !until.After(now) {
			delete(g.seen, key)
		}
	}
	if _, used := g.seen[jti]; used {
		return false, nil
	}
	g.seen[jti] = exp
	return true, nil
}

func (g *SignatureGate) now() time.Time {
	if g.Now == nil {
		return time.Now().UTC()
	}
	return g.Now().UTC()
}

// Sign issues a token through which key approves call for audience.
func Sign(key identity.Key, audience string, call Call, now time.Time, ttl time.Duration) (string, error) {
	digest, err := call.Digest()
	if err != nil {
		return "", err
	}
	jti, err := id.NewID()
	if err != nil {
		return "", err
	}
	claims := callClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(key.Address()),
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
		Operation: call.Operation,
		Digest:    digest,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(key.Private)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", call.Operation, err)
	}
	return signed, nil
}

func unauthorized(call Call, reason string) error {
	return apperrors.WithMetadata(
		apperrors.CodeUnauthorized,
		fmt.Sprintf("%s: %s", call.Operation, reason),
		map[string]string{"Operation": call.Operation},
	)
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrEd25519Verification):
		return errors.New("token signature is invalid")
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return errors.New("token alg is invalid")
	case errors.Is(err, jwt.ErrTokenMalformed):
		return errors.New("token is malformed")
	default:
		return fmt.Errorf("token is invalid: %w", err)
	}
}

func audienceContains(audience jwt.ClaimStrings, want string) bool {
	for _, value := range audience {
		if value == want {
			return true
		}
	}
	return false
}
