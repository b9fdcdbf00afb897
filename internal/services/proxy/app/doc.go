// Package server composes and runs the proxy process boundary.
//
// It opens the journal store, builds the arbitrable router from the
// configured endpoints and scripts, and hosts ProxyService plus the standard
// health service on one gRPC listener.
package server
