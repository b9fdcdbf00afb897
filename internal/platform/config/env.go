// Package config loads binary settings from JUSTLY_* environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Validator is implemented by configs that check their own invariants once
// loaded.
type Validator interface {
	Validate() error
}

// ParseEnv loads configuration from environment variables and validates the
// result when target implements Validator.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if v, ok := target.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid env config: %w", err)
		}
	}
	return nil
}
