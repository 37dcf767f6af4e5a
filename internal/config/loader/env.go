package loader

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvLoader applies environment variables to a configuration struct.
// Fields are selected with `env` struct tags; nested structs use
// `envPrefix`. Variables that are not set leave fields unchanged.
type EnvLoader struct {
	prefix      string            // Environment variable prefix (e.g., "EVENTCORE_")
	environment map[string]string // nil means the process environment
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore (e.g., "EVENTCORE_").
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{prefix: prefix}
}

// NewEnvLoaderWithEnvironment creates a loader that reads from environment
// instead of the process environment.
func NewEnvLoaderWithEnvironment(prefix string, environment map[string]string) *EnvLoader {
	return &EnvLoader{prefix: prefix, environment: environment}
}

// Load applies environment variables to v, which must be a struct pointer.
func (l *EnvLoader) Load(v any) error {
	opts := env.Options{
		Prefix:      l.prefix,
		Environment: l.environment,
	}
	if err := env.ParseWithOptions(v, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
