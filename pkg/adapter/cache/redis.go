// Package cache provides the Redis-backed counter and its readiness probe.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/damianoneill/notesvc/pkg/domain/cache"
	"github.com/damianoneill/notesvc/pkg/domain/health"
	"github.com/damianoneill/notesvc/pkg/domain/options"
)

// ProbeName identifies the cache in readiness reports.
const ProbeName = "cache"

const (
	defaultURL          = "redis://localhost:6379/0"
	defaultProbeTimeout = time.Second
)

var errEmptyKey = errors.New("cache key cannot be empty")

// Options configures the Redis client.
type Options struct {
	// URL is a redis:// or rediss:// connection URL.
	URL string

	// ProbeTimeout bounds each readiness probe.
	ProbeTimeout time.Duration

	// Tracing instruments every command with OpenTelemetry spans.
	Tracing bool
}

// Option is a function that modifies Options
type Option = options.Option[Options]

// DefaultOptions returns the default client options
func DefaultOptions() Options {
	return Options{
		URL:          defaultURL,
		ProbeTimeout: defaultProbeTimeout,
	}
}

// WithURL sets the connection URL.
func WithURL(url string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		if url == "" {
			return fmt.Errorf("redis url cannot be empty")
		}
		o.URL = url
		return nil
	})
}

// WithProbeTimeout sets the readiness probe timeout.
func WithProbeTimeout(d time.Duration) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		if d <= 0 {
			return fmt.Errorf("probe timeout must be positive")
		}
		o.ProbeTimeout = d
		return nil
	})
}

// WithTracing enables OpenTelemetry instrumentation of commands.
func WithTracing(enabled bool) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Tracing = enabled
		return nil
	})
}

// Client wraps a single long-lived Redis connection pool.
type Client struct {
	rdb          *redis.Client
	probeTimeout time.Duration
}

var _ cache.Counter = (*Client)(nil)

// New creates a Redis client. The connection is established lazily, so a
// missing server is reported by the probe rather than here.
func New(opts ...Option) (*Client, error) {
	o := DefaultOptions()
	if err := options.Apply(&o, opts...); err != nil {
		return nil, fmt.Errorf("applying option: %w", err)
	}

	redisOpts, err := redis.ParseURL(o.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	rdb := redis.NewClient(redisOpts)
	if o.Tracing {
		if err := redisotel.InstrumentTracing(rdb); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("instrumenting redis tracing: %w", err)
		}
	}

	return &Client{rdb: rdb, probeTimeout: o.ProbeTimeout}, nil
}

// Incr increments key and returns its new value.
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	if key == "" {
		return 0, errEmptyKey
	}
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incrementing %s: %w", key, err)
	}
	return n, nil
}

// Ping checks that the server answers.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}
	return nil
}

// Probe returns the readiness probe bound to this client.
func (c *Client) Probe() health.Probe {
	return health.NewProbe(ProbeName, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
		defer cancel()
		return c.Ping(ctx)
	})
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
