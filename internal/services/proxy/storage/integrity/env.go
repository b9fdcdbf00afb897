package integrity

import (
	"fmt"
	"strings"

	"github.com/justly-io/justly-soroban/internal/platform/config"
)

// KeyringEnv is the environment shape of the journal keyring.
type KeyringEnv struct {
	Keys  map[string]string `env:"JUSTLY_EVENT_HMAC_KEYS" envKeyValSeparator:"="`
	KeyID string            `env:"JUSTLY_EVENT_HMAC_KEY_ID" envDefault:"v1"`
}

// KeyringFromEnv loads the HMAC keyring configuration from environment variables.
func KeyringFromEnv() (*Keyring, error) {
	var cfg KeyringEnv
	if err := config.ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if len(cfg.Keys) == 0 {
		return nil, fmt.Errorf("JUSTLY_EVENT_HMAC_KEYS is required")
	}
	keys := make(map[string][]byte, len(cfg.Keys))
	for id, value := range cfg.Keys {
		id = strings.TrimSpace(id)
		value = strings.TrimSpace(value)
		if id == "" || value == "" {
			return nil, fmt.Errorf("invalid JUSTLY_EVENT_HMAC_KEYS entry")
		}
		keys[id] = []byte(value)
	}
	return NewKeyring(keys, cfg.KeyID)
}
