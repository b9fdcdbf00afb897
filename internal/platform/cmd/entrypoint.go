// Package cmd holds the startup plumbing shared by the proxy binaries:
// environment then flag configuration, signal handling and the telemetry
// provider lifetime.
package cmd

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/justly-io/justly-soroban/internal/platform/config"
	"github.com/justly-io/justly-soroban/internal/platform/otel"
	"github.com/justly-io/justly-soroban/internal/platform/timeouts"
)

// Service names a binary in trace resources and log lines.
type Service string

const (
	ServiceProxy    Service = "justly-proxy"
	ServiceProxyCtl Service = "justly-proxyctl"
	ServiceMCP      Service = "justly-proxymcp"
	ServiceHMACKey  Service = "justly-hmac-key"
)

// ParseConfig loads environment defaults into cfg.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags after ParseConfig so flags win.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// Main parses the process arguments with parse and runs the binary until it
// returns or the process receives SIGINT or SIGTERM. Failures exit with
// status 1; -h exits cleanly.
func Main[T any](service Service, parse func(*flag.FlagSet, []string) (T, error), run func(context.Context, T) error) {
	log.SetPrefix("[" + strings.ToUpper(strings.TrimPrefix(string(service), "justly-")) + "] ")
	cfg, err := parse(flag.CommandLine, os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("%s: %v", service, err)
	}
}

// RunWithTelemetry installs the trace provider for service around run.
func RunWithTelemetry(ctx context.Context, service Service, run func(context.Context) error) error {
	if strings.TrimSpace(string(service)) == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}
	shutdown, err := otel.Setup(ctx, string(service))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("%s otel shutdown: %v", service, err)
		}
	}()
	return run(ctx)
}
