// Package timeouts defines shared timeout constants used across binaries.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing a gRPC peer.
const GRPCDial = 2 * time.Second

// GRPCRequest caps a single CLI or MCP request to the proxy.
const GRPCRequest = 5 * time.Second

// ExecutionLease is the default time a pending execution marker blocks
// other executions of the same dispute. The arbitrable call must finish
// within it.
const ExecutionLease = 30 * time.Second

// Shutdown limits how long the gRPC server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
