// Package pagination resolves list request paging and issues opaque page
// tokens that are only valid for the filter and order they were issued for.
package pagination

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrOrderBy reports an order_by the listing does not support.
	ErrOrderBy = errors.New("invalid order_by")
	// ErrPageToken reports a malformed or mismatched page token.
	ErrPageToken = errors.New("invalid page token")
)

// Policy describes how one listing pages. Orders lists the accepted
// order_by values; an empty list accepts only the blank order.
type Policy struct {
	DefaultSize  int
	MaxSize      int
	DefaultOrder string
	Orders       []string
}

// Request is a resolved page request.
type Request struct {
	Size    int
	OrderBy string
	// After is the key of the last item on the previous page, zero on the
	// first page.
	After uint64

	scope string
}

type token struct {
	After uint64 `json:"a"`
	Scope string `json:"s,omitempty"`
}

// Resolve applies p to the raw request fields.
func (p Policy) Resolve(size int32, orderBy, filter, pageToken string) (Request, error) {
	order, err := p.order(orderBy)
	if err != nil {
		return Request{}, err
	}
	req := Request{Size: p.size(size), OrderBy: order, scope: scope(filter, order)}
	if pageToken == "" {
		return req, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(pageToken)
	if err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrPageToken, err)
	}
	var tok token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrPageToken, err)
	}
	if tok.Scope != req.scope {
		return Request{}, fmt.Errorf("%w: filter or order_by changed", ErrPageToken)
	}
	req.After = tok.After
	return req, nil
}

// Next returns the token for the page following lastKey.
func (r Request) Next(lastKey uint64) (string, error) {
	raw, err := json.Marshal(token{After: lastKey, Scope: r.scope})
	if err != nil {
		return "", fmt.Errorf("marshal page token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func (p Policy) size(requested int32) int {
	size := int(requested)
	if size <= 0 {
		size = p.DefaultSize
	}
	if p.MaxSize > 0 {
		size = min(size, p.MaxSize)
	}
	return max(size, 1)
}

func (p Policy) order(requested string) (string, error) {
	requested = strings.Join(strings.Fields(requested), " ")
	if requested == "" {
		return p.DefaultOrder, nil
	}
	if !slices.Contains(p.Orders, requested) {
		return "", fmt.Errorf("%w: %q", ErrOrderBy, requested)
	}
	return requested, nil
}

func scope(filter, order string) string {
	filter = strings.TrimSpace(filter)
	if filter == "" && order == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(filter + "\x00" + order))
	return hex.EncodeToString(sum[:8])
}
