package integrity

import (
	"crypto/hkdf"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownKey marks a signature made with a key id the ring lacks.
	ErrUnknownKey = errors.New("unknown journal key id")
	// ErrBadSignature marks a chain hash whose signature does not match.
	ErrBadSignature = errors.New("journal signature mismatch")
)

// journalInfo binds derived keys to the dispute journal, so a root secret
// shared with another system never signs the same bytes.
const journalInfo = "justly-proxy:journal:v1"

// Keyring signs chain hashes with the active key and verifies them with any
// key still listed, so rotated-out keys keep old events verifiable.
type Keyring struct {
	derived  map[string][]byte
	activeID string
}

// NewKeyring derives one journal key per root secret.
func NewKeyring(secrets map[string][]byte, activeID string) (*Keyring, error) {
	if len(secrets) == 0 {
		return nil, errors.New("journal keyring needs at least one key")
	}
	activeID = strings.TrimSpace(activeID)
	if _, ok := secrets[activeID]; !ok {
		return nil, fmt.Errorf("active key id %q is not in the keyring", activeID)
	}
	derived := make(map[string][]byte, len(secrets))
	for id, secret := range secrets {
		if len(secret) == 0 {
			return nil, fmt.Errorf("key %q is empty", id)
		}
		key, err := hkdf.Key(sha256.New, secret, nil, journalInfo, sha256.Size)
		if err != nil {
			return nil, fmt.Errorf("derive key %q: %w", id, err)
		}
		derived[id] = key
	}
	return &Keyring{derived: derived, activeID: activeID}, nil
}

// ActiveKeyID names the key Sign uses.
func (k *Keyring) ActiveKeyID() string {
	return k.activeID
}

// Sign returns the signature of chainHash and the id of the key that made it.
func (k *Keyring) Sign(chainHash string) (signature, keyID string) {
	return mac(k.derived[k.activeID], chainHash), k.activeID
}

// Verify checks signature over chainHash under keyID.
func (k *Keyring) Verify(chainHash, signature, keyID string) error {
	key, ok := k.derived[keyID]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownKey, keyID)
	}
	if !hmac.Equal([]byte(mac(key, chainHash)), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}

func mac(key []byte, value string) string {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil))
}
