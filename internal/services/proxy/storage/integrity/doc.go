// Package integrity provides event hash and signing helpers used to protect the
// journal's tamper-evident chain.
//
// Each stored event carries a deterministic content hash, a chain hash linking
// it to its predecessor and an HMAC signature over that chain hash. Verifier
// walks the journal in order and reports the first broken link.
package integrity
