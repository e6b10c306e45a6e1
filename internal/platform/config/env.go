// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every boardkit environment variable.
const EnvPrefix = "BOARDKIT_"

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ParseEnvScoped loads configuration whose tags omit the process scope, for
// example `env:"ADDR"` under scope "backend" reads BOARDKIT_BACKEND_ADDR.
func ParseEnvScoped(target any, scope string) error {
	prefix := EnvPrefix
	if scope = strings.ToUpper(strings.TrimSpace(scope)); scope != "" {
		prefix += scope + "_"
	}
	if err := env.ParseWithOptions(target, env.Options{Prefix: prefix}); err != nil {
		return fmt.Errorf("parse %s env: %w", strings.ToLower(strings.TrimSuffix(prefix, "_")), err)
	}
	return nil
}
