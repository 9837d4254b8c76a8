package config

import (
	"net/http"
	"strings"
)

// MaskStrategy determines how sensitive data is masked
type MaskStrategy interface {
	// MaskValue returns value, or a masked replacement when key
	// (the full config path, e.g. "database.password") is sensitive.
	MaskValue(key string, value interface{}) interface{}
}

// DefaultMaskStrategy masks any key containing one of SensitiveKeys.
type DefaultMaskStrategy struct {
	SensitiveKeys []string
	// MaskPattern defaults to "******"
	MaskPattern string
}

// DefaultSensitiveKeys covers the credentials the dependency settings carry.
var DefaultSensitiveKeys = []string{"password", "secret", "key", "token", "credential"}

// MaskValue implements MaskStrategy
func (s *DefaultMaskStrategy) MaskValue(key string, value interface{}) interface{} {
	pattern := s.MaskPattern
	if pattern == "" {
		pattern = "******"
	}
	lower := strings.ToLower(key)
	for _, k := range s.SensitiveKeys {
		if strings.Contains(lower, strings.ToLower(k)) {
			return pattern
		}
	}
	return value
}

// MaskedStore is a Store that can expose its effective settings over HTTP
// with sensitive values masked.
type MaskedStore interface {
	Store
	GetConfigHandler(maskStrategy MaskStrategy) http.Handler
	GetMaskedConfig(maskStrategy MaskStrategy) (map[string]interface{}, error)
}
