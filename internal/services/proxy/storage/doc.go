// Package storage defines persistence interfaces for the proxy service.
//
// It covers the configuration singleton, dispute records, the remote binding
// index, the dispute counter, pending execution markers and the event
// journal. Implementations (e.g., SQLite) live in subpackages.
//
// Common error types:
//   - ErrNotFound: requested record is missing
package storage
