// Package main starts the proxy gRPC server.
package main

import (
	proxycmd "github.com/justly-io/justly-soroban/internal/cmd/proxy"
	entrypoint "github.com/justly-io/justly-soroban/internal/platform/cmd"
)

func main() {
	entrypoint.Main(entrypoint.ServiceProxy, proxycmd.ParseConfig, proxycmd.Run)
}
