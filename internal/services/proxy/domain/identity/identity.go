// Package identity defines actor addresses: the lowercase hex encoding of an
// ed25519 public key. Roles such as admin, relayer, claimer or arbitrable are
// plain address comparisons.
package identity

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAddress indicates a string that is not a hex ed25519 public key.
var ErrInvalidAddress = errors.New("address must be 64 hex characters")

// Address identifies an actor.
type Address string

// Parse normalizes and validates s.
func Parse(s string) (Address, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != hex.EncodedLen(ed25519.PublicKeySize) {
		return "", fmt.Errorf("%w: got %d characters", ErrInvalidAddress, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return Address(s), nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Address {
	addr, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// FromPublicKey derives the address of key.
func FromPublicKey(key ed25519.PublicKey) Address {
	return Address(hex.EncodeToString(key))
}

// PublicKey decodes the verification key behind the address.
func (a Address) PublicKey() (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(string(a))
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, ErrInvalidAddress
	}
	return ed25519.PublicKey(raw), nil
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a == ""
}

// String returns the hex form.
func (a Address) String() string {
	return string(a)
}

// Short returns an abbreviated form for logs.
func (a Address) Short() string {
	if len(a) <= 12 {
		return string(a)
	}
	return string(a[:6]) + ".." + string(a[len(a)-4:])
}

// Key is an actor's signing key.
type Key struct {
	Private ed25519.PrivateKey
}

// NewKey derives a key from a 32-byte seed.
func NewKey(seed []byte) (Key, error) {
	if len(seed) != ed25519.SeedSize {
		return Key{}, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return Key{Private: ed25519.NewKeyFromSeed(seed)}, nil
}

// ParseKey decodes a hex seed.
func ParseKey(hexSeed string) (Key, error) {
	seed, err := hex.DecodeString(strings.TrimSpace(hexSeed))
	if err != nil {
		return Key{}, fmt.Errorf("decode seed: %w", err)
	}
	return NewKey(seed)
}

// Address returns the address of the key's public half.
func (k Key) Address() Address {
	return FromPublicKey(k.Private.Public().(ed25519.PublicKey))
}

// Seed returns the hex encoded seed.
func (k Key) Seed() string {
	return hex.EncodeToString(k.Private.Seed())
}
