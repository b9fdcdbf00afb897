// Package domain maps MCP tool calls onto read-only ProxyService queries.
//
// Every handler forwards one gRPC call carrying fresh request and invocation
// ids, and returns those ids in the tool result metadata so a tool call can be
// matched to the journal entries and audit lines it produced.
package domain
