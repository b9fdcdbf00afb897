// Package migrations embeds SQL migration scripts used by the SQLite backend.
//
// The journal set owns the append-only event table; the projection set owns
// every table that can be rebuilt by replaying the journal, plus the
// execution markers.
package migrations
