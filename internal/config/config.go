package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/eventcore/internal/config/loader"
	"github.com/dshills/eventcore/internal/event/dispatch"
)

// DefaultEnvPrefix is the environment variable prefix used by Load.
const DefaultEnvPrefix = "EVENTCORE_"

// DefaultServiceName is the tracing service name used when none is set.
const DefaultServiceName = "eventcore"

// Config holds the runtime configuration.
type Config struct {
	// Strategy selects the dispatch strategy: "cached" or "reflective".
	Strategy string `toml:"strategy" yaml:"strategy" env:"STRATEGY"`

	// RecoverPanics converts handler panics into errors.
	RecoverPanics bool `toml:"recover_panics" yaml:"recover_panics" env:"RECOVER_PANICS"`

	Tracing TracingConfig `toml:"tracing" yaml:"tracing" envPrefix:"TRACING_"`
	Watch   WatchConfig   `toml:"watch" yaml:"watch" envPrefix:"WATCH_"`
}

// TracingConfig configures OpenTelemetry span export.
type TracingConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled" env:"ENABLED"`
	// Endpoint is the OTLP/HTTP collector address (host:port).
	Endpoint    string `toml:"endpoint" yaml:"endpoint" env:"ENDPOINT"`
	ServiceName string `toml:"service_name" yaml:"service_name" env:"SERVICE_NAME"`
}

// WatchConfig configures the file watcher event source.
type WatchConfig struct {
	Dir       string   `toml:"dir" yaml:"dir" env:"DIR"`
	Recursive bool     `toml:"recursive" yaml:"recursive" env:"RECURSIVE"`
	Ignore    []string `toml:"ignore" yaml:"ignore" env:"IGNORE"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Strategy: string(dispatch.StrategyCached),
		Tracing: TracingConfig{
			ServiceName: DefaultServiceName,
		},
		Watch: WatchConfig{
			Recursive: true,
			Ignore:    []string{".git", "*.swp", "*~"},
		},
	}
}

// Options controls how Load resolves configuration.
type Options struct {
	// Path is the config file. Empty skips the file layer; a missing file
	// is not an error.
	Path string

	// EnvPrefix defaults to DefaultEnvPrefix.
	EnvPrefix string

	// Environment replaces the process environment when non-nil.
	Environment map[string]string

	// FS is used to read Path. Defaults to the OS file system.
	FS loader.FileSystem
}

// Load resolves defaults, the config file and the environment, then
// validates the result.
func Load(opts Options) (Config, error) {
	cfg := Default()

	if opts.Path != "" {
		fsys := opts.FS
		if fsys == nil {
			fsys = loader.DefaultFS()
		}
		fl, err := loader.ForPathWithFS(fsys, opts.Path)
		if err != nil {
			return Config{}, err
		}
		if _, err := fl.Load(&cfg); err != nil {
			return Config{}, err
		}
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	if err := loader.NewEnvLoaderWithEnvironment(prefix, opts.Environment).Load(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values.
// All problems are reported, joined into one error.
func (c Config) Validate() error {
	var errs []error

	if _, err := dispatch.ParseStrategy(c.Strategy); err != nil {
		errs = append(errs, &ValidationError{
			Path:    "strategy",
			Message: "must be cached or reflective",
			Value:   c.Strategy,
		})
	}
	if c.Tracing.Enabled && strings.TrimSpace(c.Tracing.Endpoint) == "" {
		errs = append(errs, &ValidationError{
			Path:    "tracing.endpoint",
			Message: "required when tracing is enabled",
		})
	}
	for _, pattern := range c.Watch.Ignore {
		if strings.TrimSpace(pattern) == "" {
			errs = append(errs, &ValidationError{
				Path:    "watch.ignore",
				Message: "empty pattern",
			})
			break
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Name returns the tracing service name, falling back to
// DefaultServiceName.
func (c TracingConfig) Name() string {
	if c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}
