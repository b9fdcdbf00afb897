package integrity

import (
	"fmt"

	"github.com/justly-io/justly-soroban/internal/services/proxy/domain/event"
)

// Verifier checks journal events in sequence order.
type Verifier struct {
	keyring   *Keyring
	lastSeq   uint64
	lastChain string
	checked   uint64
}

// NewVerifier starts a verification pass at the head of the journal.
func NewVerifier(keyring *Keyring) *Verifier {
	return &Verifier{keyring: keyring}
}

// LinkError reports the first broken event.
type LinkError struct {
	Seq    uint64
	Reason string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("journal broken at seq %d: %s", e.Seq, e.Reason)
}

// Check verifies evt against the previous event seen.
func (v *Verifier) Check(evt event.Event) error {
	if evt.Seq != v.lastSeq+1 {
		return &LinkError{Seq: evt.Seq, Reason: fmt.Sprintf("expected seq %d", v.lastSeq+1)}
	}
	hash, err := EventHash(evt)
	if err != nil {
		return &LinkError{Seq: evt.Seq, Reason: err.Error()}
	}
	if hash != evt.Hash {
		return &LinkError{Seq: evt.Seq, Reason: "content hash mismatch"}
	}
	if evt.PrevHash != v.lastChain {
		return &LinkError{Seq: evt.Seq, Reason: "previous hash mismatch"}
	}
	chain, err := ChainHash(evt, v.lastChain)
	if err != nil {
		return &LinkError{Seq: evt.Seq, Reason: err.Error()}
	}
	if chain != evt.ChainHash {
		return &LinkError{Seq: evt.Seq, Reason: "chain hash mismatch"}
	}
	if err := v.keyring.Verify(chain, evt.Signature, evt.SignatureKeyID); err != nil {
		return &LinkError{Seq: evt.Seq, Reason: err.Error()}
	}
	v.lastSeq = evt.Seq
	v.lastChain = chain
	v.checked++
	return nil
}

// Checked returns how many events verified so far.
func (v *Verifier) Checked() uint64 {
	return v.checked
}

// HeadChainHash returns the chain hash of the last verified event.
func (v *Verifier) HeadChainHash() string {
	return v.lastChain
}
