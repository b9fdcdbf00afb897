package id

import (
	"strings"
	"testing"
)

func TestNewID(t *testing.T) {
	seen := make(map[string]struct{}, 64)
	for range 64 {
		value, err := NewID()
		if err != nil {
			t.Fatalf("new id: %v", err)
		}
		if len(value) != 26 || strings.Trim(value, "abcdefghijklmnopqrstuvwxyz234567") != "" {
			t.Fatalf("id %q is not 26 lowercase base32 characters", value)
		}
		raw, err := encoding.DecodeString(strings.ToUpper(value))
		if err != nil {
			t.Fatalf("decode %q: %v", value, err)
		}
		if raw[6]>>4 != 4 || raw[8]&0xc0 != 0x80 {
			t.Fatalf("id %q is not a v4 uuid: % x", value, raw)
		}
		if _, dup := seen[value]; dup {
			t.Fatalf("duplicate id %q", value)
		}
		seen[value] = struct{}{}
	}
}
