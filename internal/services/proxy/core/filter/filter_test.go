package filter

import (
	"testing"
	"time"
)

func TestParseEventFilterEmpty(t *testing.T) {
	cond, err := ParseEventFilter("  ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cond.Clause != "" || len(cond.Params) != 0 {
		t.Fatalf("expected empty condition, got %+v", cond)
	}
}

func TestParseEventFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		clause string
		params []any
	}{
		{
			name:   "topic is upper cased",
			filter: `topic = "paid"`,
			clause: "topic = ?",
			params: []any{"PAID"},
		},
		{
			name:   "dispute and type",
			filter: `dispute_id = 3 AND type = "dispute.ruled"`,
			clause: "(dispute_id = ? AND event_type = ?)",
			params: []any{int64(3), "dispute.ruled"},
		},
		{
			name:   "seq range or actor",
			filter: `seq > 10 OR NOT actor_id = "ABC"`,
			clause: "(seq > ? OR (NOT actor_id = ?))",
			params: []any{int64(10), "abc"},
		},
		{
			name:   "timestamp",
			filter: `ts >= timestamp("2026-01-02T03:04:05Z")`,
			clause: "timestamp >= ?",
			params: []any{time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).UnixMilli()},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := ParseEventFilter(tt.filter)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if cond.Clause != tt.clause {
				t.Fatalf("clause = %q, want %q", cond.Clause, tt.clause)
			}
			if len(cond.Params) != len(tt.params) {
				t.Fatalf("params = %v, want %v", cond.Params, tt.params)
			}
			for i := range tt.params {
				if cond.Params[i] != tt.params[i] {
					t.Fatalf("param %d = %#v, want %#v", i, cond.Params[i], tt.params[i])
				}
			}
		})
	}
}

func TestParseEventFilterRejects(t *testing.T) {
	for _, raw := range []string{
		`campaign_id = "x"`,
		`topic = "SETTLED"`,
		`dispute_id = -1`,
		`dispute_id`,
		`ts > timestamp("yesterday")`,
	} {
		if _, err := ParseEventFilter(raw); err == nil {
			t.Errorf("expected error for %s", raw)
		}
	}
}
