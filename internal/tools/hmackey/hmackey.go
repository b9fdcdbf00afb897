// Package hmackey generates journal signing keys in the keyring environment
// format, optionally rotating them into an existing keyring.
package hmackey

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/justly-io/justly-soroban/internal/services/proxy/storage/integrity"
)

// Config holds configuration for HMAC key generation.
type Config struct {
	Bytes int
	KeyID string
	// Existing is a current JUSTLY_EVENT_HMAC_KEYS value the new key joins.
	Existing string
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{Bytes: 32, KeyID: "v1", Existing: os.Getenv("JUSTLY_EVENT_HMAC_KEYS")}
	fs.IntVar(&cfg.Bytes, "bytes", cfg.Bytes, "number of random bytes (default: 32)")
	fs.StringVar(&cfg.KeyID, "key-id", cfg.KeyID, "identifier of the new key")
	fs.StringVar(&cfg.Existing, "existing", cfg.Existing, "current keyring to rotate (id=secret,...)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run generates the key and writes the keyring variables to out. The new key
// becomes the active one; existing keys stay so old events still verify.
func Run(cfg Config, out io.Writer, reader io.Reader) error {
	if cfg.Bytes <= 0 {
		return errors.New("bytes must be greater than zero")
	}
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" || strings.ContainsAny(keyID, "=,") {
		return errors.New("key id must be non-empty and must not contain '=' or ','")
	}
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}

	keys, entries, err := parseExisting(cfg.Existing)
	if err != nil {
		return err
	}
	if _, ok := keys[keyID]; ok {
		return fmt.Errorf("key id %q already exists", keyID)
	}

	buf := make([]byte, cfg.Bytes)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return fmt.Errorf("generate random bytes: %w", err)
	}
	secret := hex.EncodeToString(buf)
	keys[keyID] = []byte(secret)
	if _, err := integrity.NewKeyring(keys, keyID); err != nil {
		return fmt.Errorf("build keyring: %w", err)
	}
	entries = append(entries, keyID+"="+secret)

	_, err = fmt.Fprintf(out, "JUSTLY_EVENT_HMAC_KEYS=%s\nJUSTLY_EVENT_HMAC_KEY_ID=%s\n", strings.Join(entries, ","), keyID)
	return err
}

func parseExisting(raw string) (map[string][]byte, []string, error) {
	keys := make(map[string][]byte)
	var entries []string
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, secret, ok := strings.Cut(entry, "=")
		id, secret = strings.TrimSpace(id), strings.TrimSpace(secret)
		if !ok || id == "" || secret == "" {
			return nil, nil, fmt.Errorf("invalid existing keyring entry %q", entry)
		}
		keys[id] = []byte(secret)
		entries = append(entries, id+"="+secret)
	}
	return keys, entries, nil
}
