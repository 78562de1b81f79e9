package txpolicies

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/yourusername/txpolicies/store"
)

// Option is a functional option for configuring a PolicyStore.
type Option func(*PolicyStore) error

// WithName sets the name reported in diagnostics.
func WithName(name string) Option {
	return func(ps *PolicyStore) error {
		if name == "" {
			return fmt.Errorf("%w: name cannot be empty", ErrInvalidConfig)
		}
		ps.name = name
		return nil
	}
}

// WithLogger sets the logger used for diagnostics.
// If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(ps *PolicyStore) error {
		if logger == nil {
			return fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfig)
		}
		ps.logger = logger
		return nil
	}
}

// WithRecorder sets a recorder for lookup and mutation events.
func WithRecorder(recorder Recorder) Option {
	return func(ps *PolicyStore) error {
		if recorder == nil {
			return fmt.Errorf("%w: recorder cannot be nil", ErrInvalidConfig)
		}
		ps.recorder = recorder
		return nil
	}
}

// WithPersistence writes every mutation through to backend before it becomes
// visible. Call Restore to load previously saved state.
func WithPersistence(backend store.Store) Option {
	return func(ps *PolicyStore) error {
		if backend == nil {
			return fmt.Errorf("%w: store cannot be nil", ErrInvalidConfig)
		}
		ps.persist = backend
		return nil
	}
}

// WithPersistTimeout bounds each call to the persistence backend.
// Default: 2 seconds
func WithPersistTimeout(timeout time.Duration) Option {
	return func(ps *PolicyStore) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: persist timeout must be positive", ErrInvalidConfig)
		}
		ps.persistTimeout = timeout
		return nil
	}
}

// WithDirectives seeds the table from "DEFAULT <ref>" and "<address> <ref>"
// directives, resolving references through resolver.
func WithDirectives(directives []string, resolver PolicyResolver) Option {
	return func(ps *PolicyStore) error {
		if resolver == nil {
			return fmt.Errorf("%w: resolver cannot be nil", ErrInvalidConfig)
		}
		seed, err := ParseDirectives(directives, resolver)
		if err != nil {
			return err
		}
		ps.seed = seed
		return nil
	}
}

// WithConfig seeds the table from a parsed configuration.
func WithConfig(config *Config) Option {
	return func(ps *PolicyStore) error {
		if config == nil {
			return fmt.Errorf("%w: config cannot be nil", ErrInvalidConfig)
		}
		seed, err := config.Seed()
		if err != nil {
			return err
		}
		ps.seed = seed
		return nil
	}
}

// WithConfigFile loads configuration from a YAML file.
func WithConfigFile(path string) Option {
	return func(ps *PolicyStore) error {
		config, err := LoadConfigFromFile(path)
		if err != nil {
			return err
		}
		return WithConfig(config)(ps)
	}
}
