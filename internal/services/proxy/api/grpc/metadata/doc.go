// Package metadata defines the headers the proxy reads from and writes to
// gRPC calls.
//
// # Header Constants
//
//   - RequestIDHeader: correlates logs and journal events for one call.
//   - InvocationIDHeader: tracks a tool invocation across retries; it is
//     recorded on journal events.
//   - AuthorizationHeader: repeatable; each value is one actor's signed token.
//   - LocaleHeader: picks the language of localized error messages.
package metadata
