// Package main runs one proxyctl command and prints its JSON result.
package main

import (
	"context"
	"log"
	"os"

	"github.com/justly-io/justly-soroban/internal/cmd/proxyctl"
	entrypoint "github.com/justly-io/justly-soroban/internal/platform/cmd"
)

func main() {
	log.SetFlags(0)
	entrypoint.Main(entrypoint.ServiceProxyCtl, proxyctl.ParseConfig, func(ctx context.Context, cfg proxyctl.Config) error {
		return proxyctl.Run(ctx, cfg, os.Stdout)
	})
}
