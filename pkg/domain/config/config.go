// Package config defines the configuration store used to resolve service,
// logging and dependency settings.
package config

import (
	"fmt"
	"time"

	"github.com/damianoneill/notesvc/pkg/domain/options"
)

//go:generate mockgen -destination=mocks/mock_config.go -package=mocks github.com/damianoneill/notesvc/pkg/domain/config Store,Factory

// Store defines the core configuration operations
type Store interface {
	// Get methods return zero value and false if not found
	GetString(key string) (string, bool)
	GetInt(key string) (int, bool)
	GetBool(key string) (bool, bool)
	GetDuration(key string) (time.Duration, bool)
	GetFloat64(key string) (float64, bool)
	GetStringSlice(key string) ([]string, bool)

	Set(key string, value interface{}) error
	IsSet(key string) bool
	ReadConfig() error

	UnmarshalKey(key string, target interface{}) error
	Unmarshal(target interface{}) error
}

// StoreOptions holds configuration for stores
type StoreOptions struct {
	ConfigFile string
	EnvPrefix  string
	Defaults   map[string]interface{}

	// EnvBindings maps a config key onto explicit environment variable
	// names, e.g. "cache.url" -> ["REDIS_URL"]. Bound names are read
	// without the EnvPrefix.
	EnvBindings map[string][]string
}

// Option is a store option
type Option = options.Option[StoreOptions]

// WithConfigFile sets the config file path
func WithConfigFile(path string) Option {
	return options.Set(func(o *StoreOptions) { o.ConfigFile = path })
}

// WithEnvPrefix sets the environment variable prefix
func WithEnvPrefix(prefix string) Option {
	return options.Set(func(o *StoreOptions) { o.EnvPrefix = prefix })
}

// WithDefaults merges default configuration values into any already set.
func WithDefaults(defaults map[string]interface{}) Option {
	return options.OptionFunc[StoreOptions](func(o *StoreOptions) error {
		if defaults == nil {
			return nil
		}
		if o.Defaults == nil {
			o.Defaults = make(map[string]interface{}, len(defaults))
		}
		for k, v := range defaults {
			o.Defaults[k] = v
		}
		return nil
	})
}

// WithEnvBindings binds config keys to explicit environment variable names.
func WithEnvBindings(bindings map[string][]string) Option {
	return options.OptionFunc[StoreOptions](func(o *StoreOptions) error {
		for key, envs := range bindings {
			if len(envs) == 0 {
				return fmt.Errorf("no environment variables bound to %q", key)
			}
		}
		o.EnvBindings = bindings
		return nil
	})
}

// Factory creates new store instances
type Factory interface {
	NewStore(opts ...Option) (Store, error)
}
