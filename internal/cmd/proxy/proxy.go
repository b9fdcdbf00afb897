// Package proxy parses proxy server flags and launches the service.
package proxy

import (
	"context"
	"flag"

	entrypoint "github.com/justly-io/justly-soroban/internal/platform/cmd"
	server "github.com/justly-io/justly-soroban/internal/services/proxy/app"
)

// Config holds proxy command configuration.
type Config struct {
	server.Config
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The proxy gRPC server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address; overrides -port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the proxy SQLite database")
	fs.StringVar(&cfg.Audience, "audience", cfg.Audience, "Audience required in call tokens")
	fs.DurationVar(&cfg.TokenMaxAge, "token-max-age", cfg.TokenMaxAge, "Oldest accepted call token")
	fs.DurationVar(&cfg.ExecutionLease, "execution-lease", cfg.ExecutionLease, "How long a pending execution blocks others")
	fs.IntVar(&cfg.MaxConns, "max-conns", cfg.MaxConns, "Concurrent connection cap; zero disables it")
	fs.BoolVar(&cfg.RebuildProjections, "rebuild", cfg.RebuildProjections, "Replay the journal into the projections before serving")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the proxy gRPC service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceProxy, func(ctx context.Context) error {
		return server.Run(ctx, cfg.Config)
	})
}
