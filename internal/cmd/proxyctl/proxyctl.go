// Package proxyctl implements the proxy command-line client. Each command
// signs its call with the caller's key and prints the response as JSON.
package proxyctl

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	entrypoint "github.com/justly-io/justly-soroban/internal/platform/cmd"
	platformgrpc "github.com/justly-io/justly-soroban/internal/platform/grpc"
	"github.com/justly-io/justly-soroban/internal/platform/timeouts"
	grpcmeta "github.com/justly-io/justly-soroban/internal/services/proxy/api/grpc/metadata"
	proxyservice "github.com/justly-io/justly-soroban/internal/services/proxy/api/grpc/proxy"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/authz"
	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/identity"
	"google.golang.org/grpc"
)

// Config holds proxyctl configuration.
type Config struct {
	Addr       string        `env:"JUSTLY_PROXY_TARGET" envDefault:"localhost:8090"`
	Audience   string        `env:"JUSTLY_PROXY_AUDIENCE" envDefault:"justly-proxy"`
	PrivateKey string        `env:"JUSTLY_PRIVATE_KEY"`
	TokenTTL   time.Duration `env:"JUSTLY_TOKEN_TTL" envDefault:"2m"`
	Timeout    time.Duration `env:"JUSTLY_PROXYCTL_TIMEOUT"`

	Command string   `env:"-"`
	Args    []string `env:"-"`
}

// ParseConfig parses environment and global flags. The first remaining
// argument names the command.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "proxy server address")
	fs.StringVar(&cfg.Audience, "audience", cfg.Audience, "audience the proxy expects in call tokens")
	fs.StringVar(&cfg.PrivateKey, "key", cfg.PrivateKey, "hex ed25519 seed used to sign calls")
	fs.DurationVar(&cfg.TokenTTL, "ttl", cfg.TokenTTL, "lifetime of signed call tokens")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-call timeout (default 5s)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: proxyctl [flags] <command> [command flags]\n\ncommands: %s\n\nflags:\n", strings.Join(commandNames(), ", "))
		fs.PrintDefaults()
	}
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return Config{}, errors.New("a command is required")
	}
	cfg.Command, cfg.Args = rest[0], rest[1:]
	if _, ok := commands[cfg.Command]; !ok {
		return Config{}, fmt.Errorf("unknown command %q (known: %s)", cfg.Command, strings.Join(commandNames(), ", "))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = timeouts.GRPCRequest
	}
	return cfg, nil
}

// Run executes the configured command, dialing the proxy when it needs one.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	cmd, ok := commands[cfg.Command]
	if !ok {
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
	if cmd.offline {
		return Execute(ctx, nil, cfg, out)
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceProxyCtl, func(ctx context.Context) error {
		conn, err := grpc.NewClient(cfg.Addr, platformgrpc.ClientOptions()...)
		if err != nil {
			return fmt.Errorf("connect to proxy at %s: %w", cfg.Addr, err)
		}
		defer conn.Close()
		return Execute(ctx, proxyservice.NewProxyServiceClient(conn), cfg, out)
	})
}

// Execute runs the configured command against client.
func Execute(ctx context.Context, client proxyservice.ProxyServiceClient, cfg Config, out io.Writer) error {
	cmd, ok := commands[cfg.Command]
	if !ok {
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
	if out == nil {
		return errors.New("output is required")
	}
	if !cmd.offline && client == nil {
		return errors.New("proxy client is required")
	}
	session := &session{client: client, cfg: cfg, out: out, now: time.Now, random: rand.Reader}
	if strings.TrimSpace(cfg.PrivateKey) != "" {
		key, err := identity.ParseKey(cfg.PrivateKey)
		if err != nil {
			return fmt.Errorf("private key: %w", err)
		}
		session.key = &key
	}

	fs := flag.NewFlagSet(cfg.Command, flag.ContinueOnError)
	fs.SetOutput(out)
	run := cmd.bind(fs, session)
	if err := fs.Parse(cfg.Args); err != nil {
		return err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = timeouts.GRPCRequest
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return run(callCtx)
}

// session carries what commands share during one invocation.
type session struct {
	client proxyservice.ProxyServiceClient
	cfg    Config
	key    *identity.Key
	out    io.Writer
	now    func() time.Time
	random io.Reader
}

// signer returns the caller's key or an error naming the operation.
func (s *session) signer(operation string) (identity.Key, error) {
	if s.key == nil {
		return identity.Key{}, fmt.Errorf("%s must be signed: set JUSTLY_PRIVATE_KEY or -key", operation)
	}
	return *s.key, nil
}

// self returns the caller's address, or empty when no key is configured.
func (s *session) self() identity.Address {
	if s.key == nil {
		return ""
	}
	return s.key.Address()
}

// signed attaches a token for operation over args, signed by the caller.
func (s *session) signed(ctx context.Context, operation string, args any) (context.Context, error) {
	key, err := s.signer(operation)
	if err != nil {
		return nil, err
	}
	token, err := authz.Sign(key, s.cfg.Audience, authz.NewCall(operation, args), s.now(), s.cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign %s: %w", operation, err)
	}
	return grpcmeta.AppendAuthorization(ctx, token), nil
}

func (s *session) print(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	_, err = fmt.Fprintf(s.out, "%s\n", data)
	return err
}
