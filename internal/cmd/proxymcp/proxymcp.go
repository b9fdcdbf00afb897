// Package proxymcp parses MCP command flags and runs the stdio server.
package proxymcp

import (
	"context"
	"flag"

	entrypoint "github.com/justly-io/justly-soroban/internal/platform/cmd"
	mcpservice "github.com/justly-io/justly-soroban/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	ProxyAddr string `env:"JUSTLY_PROXY_TARGET" envDefault:"localhost:8090"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.ProxyAddr, "addr", cfg.ProxyAddr, "proxy server address")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter on stdio.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		return mcpservice.Run(ctx, mcpservice.Config{ProxyAddr: cfg.ProxyAddr})
	})
}
