// Package engine runs proxy operations end to end.
//
// Every state-changing operation follows the same path inside one storage
// transaction: resolve the identity that must approve the call, verify its
// approval through the authorization gate, load fresh state, decide, append
// the single resulting event to the journal and fold it into the stored
// records. A rejection aborts the transaction, leaving state unchanged.
//
// ExecuteRule is the exception: the arbitrable call cannot be rolled back, so
// it runs between two transactions guarded by a pending execution marker.
package engine
