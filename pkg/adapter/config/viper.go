// Package config provides a Viper-backed implementation of the config store.
package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	domainconfig "github.com/damianoneill/notesvc/pkg/domain/config"
	"github.com/damianoneill/notesvc/pkg/domain/options"
)

// Verify interface implementation
var _ domainconfig.MaskedStore = (*ViperStore)(nil)

// ViperStore implements the Store interface using Viper
type ViperStore struct {
	v  *viper.Viper
	mu sync.RWMutex
}

// Factory creates Viper-backed stores
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

// NewStore implements domainconfig.Factory.
func (f *Factory) NewStore(opts ...domainconfig.Option) (domainconfig.Store, error) {
	return f.NewViperStore(opts...)
}

// NewViperStore builds a store and, when a config file is given, reads it.
func (f *Factory) NewViperStore(opts ...domainconfig.Option) (*ViperStore, error) {
	var storeOpts domainconfig.StoreOptions
	if err := options.Apply(&storeOpts, opts...); err != nil {
		return nil, fmt.Errorf("applying option: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if storeOpts.ConfigFile != "" {
		v.SetConfigFile(storeOpts.ConfigFile)
	}
	if storeOpts.EnvPrefix != "" {
		v.SetEnvPrefix(storeOpts.EnvPrefix)
		v.AutomaticEnv()
	}
	for key, value := range storeOpts.Defaults {
		v.SetDefault(key, value)
	}
	for key, envs := range storeOpts.EnvBindings {
		input := append([]string{key}, envs...)
		if err := v.BindEnv(input...); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	store := &ViperStore{v: v}

	if storeOpts.ConfigFile != "" {
		if err := store.ReadConfig(); err != nil {
			return nil, err
		}
	}

	return store, nil
}

// ReadConfig loads the configuration file
func (s *ViperStore) ReadConfig() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// lookup reads key with read, reporting false when the key has no value
// from any source.
func lookup[T any](s *ViperStore, key string, read func(string) T) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.v.IsSet(key) {
		var zero T
		return zero, false
	}
	return read(key), true
}

func (s *ViperStore) GetString(key string) (string, bool) {
	return lookup(s, key, s.v.GetString)
}

func (s *ViperStore) GetInt(key string) (int, bool) {
	return lookup(s, key, s.v.GetInt)
}

func (s *ViperStore) GetBool(key string) (bool, bool) {
	return lookup(s, key, s.v.GetBool)
}

func (s *ViperStore) GetDuration(key string) (time.Duration, bool) {
	return lookup(s, key, s.v.GetDuration)
}

func (s *ViperStore) GetFloat64(key string) (float64, bool) {
	return lookup(s, key, s.v.GetFloat64)
}

func (s *ViperStore) GetStringSlice(key string) ([]string, bool) {
	return lookup(s, key, s.v.GetStringSlice)
}

func (s *ViperStore) Set(key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set(key, value)
	return nil
}

func (s *ViperStore) IsSet(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.v.IsSet(key)
}

func (s *ViperStore) UnmarshalKey(key string, target interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.v.UnmarshalKey(key, target)
}

func (s *ViperStore) Unmarshal(target interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.v.Unmarshal(target)
}

// GetConfigHandler serves the masked effective configuration as JSON.
// Only GET is allowed.
func (s *ViperStore) GetConfigHandler(maskStrategy domainconfig.MaskStrategy) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		settings, err := s.GetMaskedConfig(maskStrategy)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(settings)
	})
}

// GetMaskedConfig returns all settings with sensitive leaves masked.
func (s *ViperStore) GetMaskedConfig(maskStrategy domainconfig.MaskStrategy) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if maskStrategy == nil {
		maskStrategy = &domainconfig.DefaultMaskStrategy{
			SensitiveKeys: domainconfig.DefaultSensitiveKeys,
		}
	}

	return maskConfigMap("", s.v.AllSettings(), maskStrategy), nil
}

func maskConfigMap(prefix string, config map[string]interface{}, strategy domainconfig.MaskStrategy) map[string]interface{} {
	result := make(map[string]interface{}, len(config))

	for k, v := range config {
		fullKey := k
		if prefix != "" {
			fullKey = prefix + "." + k
		}

		if nested, ok := v.(map[string]interface{}); ok {
			result[k] = maskConfigMap(fullKey, nested, strategy)
			continue
		}
		result[k] = strategy.MaskValue(fullKey, v)
	}

	return result
}
