// Package main starts the read-only MCP inspection server on stdio. Logs go
// to stderr because stdout carries the protocol.
package main

import (
	mcpcmd "github.com/justly-io/justly-soroban/internal/cmd/proxymcp"
	entrypoint "github.com/justly-io/justly-soroban/internal/platform/cmd"
)

func main() {
	entrypoint.Main(entrypoint.ServiceMCP, mcpcmd.ParseConfig, mcpcmd.Run)
}
