package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv overrides target with the environment variables named in its
// env tags. Unset variables leave the current values untouched.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
