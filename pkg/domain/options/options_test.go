package options

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type probeConfig struct {
	Name    string
	Timeout time.Duration
}

func withName(name string) Option[probeConfig] {
	return OptionFunc[probeConfig](func(c *probeConfig) error {
		if name == "" {
			return errors.New("name cannot be empty")
		}
		c.Name = name
		return nil
	})
}

func withTimeout(d time.Duration) Option[probeConfig] {
	return OptionFunc[probeConfig](func(c *probeConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		c.Timeout = d
		return nil
	})
}

func TestApply(t *testing.T) {
	tests := []struct {
		name      string
		opts      []Option[probeConfig]
		expected  probeConfig
		wantError bool
	}{
		{
			name:     "no options",
			expected: probeConfig{},
		},
		{
			name:     "single option",
			opts:     []Option[probeConfig]{withName("cache")},
			expected: probeConfig{Name: "cache"},
		},
		{
			name: "later options win",
			opts: []Option[probeConfig]{
				withName("cache"),
				withTimeout(time.Second),
				withName("database"),
			},
			expected: probeConfig{Name: "database", Timeout: time.Second},
		},
		{
			name: "error stops further options",
			opts: []Option[probeConfig]{
				withName("search"),
				withTimeout(0),
				withName("never"),
			},
			expected:  probeConfig{Name: "search"},
			wantError: true,
		},
		{
			name: "nil options are skipped",
			opts: []Option[probeConfig]{
				nil,
				OptionFunc[probeConfig](nil),
				withName("cache"),
			},
			expected: probeConfig{Name: "cache"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &probeConfig{}
			err := Apply(cfg, tt.opts...)

			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, *cfg)
		})
	}
}

func TestOptionFunc_ApplyOption(t *testing.T) {
	t.Run("propagates error", func(t *testing.T) {
		expectedErr := errors.New("test error")
		opt := OptionFunc[probeConfig](func(*probeConfig) error {
			return expectedErr
		})

		err := opt.ApplyOption(&probeConfig{})
		assert.ErrorIs(t, err, expectedErr)
	})

	t.Run("nil function leaves target untouched", func(t *testing.T) {
		var opt OptionFunc[probeConfig]
		cfg := &probeConfig{Name: "original"}

		assert.NoError(t, opt.ApplyOption(cfg))
		assert.Equal(t, "original", cfg.Name)
	})
}

func TestSet(t *testing.T) {
	var cfg probeConfig
	err := Apply(&cfg,
		Set(func(c *probeConfig) { c.Name = "cache" }),
		Set(func(c *probeConfig) { c.Timeout = time.Second }),
	)

	assert.NoError(t, err)
	assert.Equal(t, probeConfig{Name: "cache", Timeout: time.Second}, cfg)
}
