// Package sqlite implements proxy persistence on a single SQLite database:
// the event journal, the projections folded from it and pending execution
// markers.
//
// Callers group reads and writes with WithinTx; transactions begin in
// IMMEDIATE mode so concurrent operations serialize on the write lock and
// every decision sees the state it will modify.
package sqlite
