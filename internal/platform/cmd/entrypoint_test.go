package cmd

import (
	"context"
	"errors"
	"flag"
	"io"
	"testing"
	"time"
)

type proxyTestConfig struct {
	Target string        `env:"CMD_TEST_TARGET" envDefault:"localhost:8090"`
	TTL    time.Duration `env:"CMD_TEST_TTL" envDefault:"2m"`
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("CMD_TEST_TARGET", "proxy:9000")
	t.Setenv("CMD_TEST_TTL", "30s")

	var cfg proxyTestConfig
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.StringVar(&cfg.Target, "addr", cfg.Target, "proxy address")
	fs.DurationVar(&cfg.TTL, "ttl", cfg.TTL, "token ttl")
	if err := ParseArgs(fs, []string{"-addr", "proxy:9001"}); err != nil {
		t.Fatalf("parse args: %v", err)
	}
	if cfg.Target != "proxy:9001" {
		t.Fatalf("target = %q, want flag value", cfg.Target)
	}
	if cfg.TTL != 30*time.Second {
		t.Fatalf("ttl = %v, want env value", cfg.TTL)
	}
}

func TestParseConfigRejectsNilTarget(t *testing.T) {
	if err := ParseConfig[proxyTestConfig](nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestParseArgs(t *testing.T) {
	if err := ParseArgs(nil, nil); err == nil {
		t.Fatal("expected error for nil flag set")
	}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if err := ParseArgs(fs, []string{"-h"}); !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected flag.ErrHelp, got %v", err)
	}
}

func TestRunWithTelemetry(t *testing.T) {
	t.Setenv("JUSTLY_OTEL_ENDPOINT", "")
	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected error for empty service")
	}
	if err := RunWithTelemetry(context.Background(), ServiceProxy, nil); err == nil {
		t.Fatal("expected error for nil run")
	}

	sentinel := errors.New("stopped")
	ran := false
	err := RunWithTelemetry(context.Background(), ServiceProxyCtl, func(context.Context) error {
		ran = true
		return sentinel
	})
	if !ran || !errors.Is(err, sentinel) {
		t.Fatalf("ran = %v, err = %v", ran, err)
	}
}
