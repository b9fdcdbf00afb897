// Package service runs the MCP inspection server over stdio and connects it
// to a proxy instance.
package service
