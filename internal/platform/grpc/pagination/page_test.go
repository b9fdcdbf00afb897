package pagination

import (
	"errors"
	"testing"
)

var events = Policy{DefaultSize: 50, MaxSize: 200, DefaultOrder: "seq", Orders: []string{"seq", "seq desc"}}

func TestResolveSize(t *testing.T) {
	tests := map[int32]int{0: 50, -3: 50, 10: 10, 500: 200}
	for in, want := range tests {
		req, err := events.Resolve(in, "", "", "")
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if req.Size != want {
			t.Fatalf("size(%d) = %d, want %d", in, req.Size, want)
		}
	}
	req, err := Policy{}.Resolve(0, "", "", "")
	if err != nil || req.Size != 1 {
		t.Fatalf("zero policy size = %d, %v", req.Size, err)
	}
}

func TestResolveOrder(t *testing.T) {
	req, err := events.Resolve(0, "  seq   desc ", "", "")
	if err != nil || req.OrderBy != "seq desc" {
		t.Fatalf("order = %q, %v", req.OrderBy, err)
	}
	req, _ = events.Resolve(0, "", "", "")
	if req.OrderBy != "seq" {
		t.Fatalf("default order = %q", req.OrderBy)
	}
	if _, err := events.Resolve(0, "ts", "", ""); !errors.Is(err, ErrOrderBy) {
		t.Fatalf("expected ErrOrderBy, got %v", err)
	}
	if _, err := (Policy{}).Resolve(0, "id", "", ""); !errors.Is(err, ErrOrderBy) {
		t.Fatalf("expected ErrOrderBy without orders, got %v", err)
	}
}

func TestNextTokenBindsFilterAndOrder(t *testing.T) {
	first, err := events.Resolve(0, "", `topic = "PAID"`, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	next, err := first.Next(42)
	if err != nil {
		t.Fatalf("next: %v", err)
	}

	second, err := events.Resolve(0, "", ` topic = "PAID" `, next)
	if err != nil {
		t.Fatalf("resolve with token: %v", err)
	}
	if second.After != 42 {
		t.Fatalf("after = %d, want 42", second.After)
	}
	if _, err := events.Resolve(0, "", `topic = "BOUND"`, next); !errors.Is(err, ErrPageToken) {
		t.Fatalf("expected filter mismatch, got %v", err)
	}
	if _, err := events.Resolve(0, "seq desc", `topic = "PAID"`, next); !errors.Is(err, ErrPageToken) {
		t.Fatalf("expected order mismatch, got %v", err)
	}
}

func TestResolveMalformedToken(t *testing.T) {
	for _, tok := range []string{"%%%", "bm90IGpzb24"} {
		if _, err := events.Resolve(0, "", "", tok); !errors.Is(err, ErrPageToken) {
			t.Fatalf("token %q: expected ErrPageToken, got %v", tok, err)
		}
	}
}
