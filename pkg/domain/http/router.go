// Package http provides domain interfaces for HTTP routing and service health probes.
// It builds on chi.Router to add Kubernetes probe endpoints, observability
// configuration and service identity.
package http

import (
	"fmt"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/damianoneill/notesvc/pkg/domain/logging"
	"github.com/damianoneill/notesvc/pkg/domain/metrics"
	"github.com/damianoneill/notesvc/pkg/domain/options"
	"github.com/damianoneill/notesvc/pkg/domain/tracing"
)

// Router extends chi.Router with service capabilities.
type Router interface {
	chi.Router
}

// RouterOptions configures router behavior and service capabilities.
type RouterOptions struct {
	// ServiceName identifies the service in logs and traces.
	ServiceName string

	// ServiceVersion identifies the version of the service.
	ServiceVersion string

	// Logger provides structured request logging.
	// If not set, logging will be disabled.
	Logger logging.Logger

	// TracingProvider enables distributed tracing.
	// If not set, tracing will be disabled.
	TracingProvider tracing.Provider

	// MetricsCollector records request metrics and enables /metrics.
	// If not set, metrics will be disabled.
	MetricsCollector metrics.Collector

	// ProbeHandlers configures the /internal probe endpoints.
	// If not set, default handlers returning healthy will be used.
	ProbeHandlers *ProbeHandlers

	// ExcludeFromLogging lists path patterns that are not logged.
	// A trailing "/*" matches everything below the prefix.
	ExcludeFromLogging []string

	// ExcludeFromTracing lists path patterns that are not traced.
	ExcludeFromTracing []string
}

// Option is a function that modifies RouterOptions
type Option = options.Option[RouterOptions]

// WithService sets the service name and version.
func WithService(name, version string) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		if name == "" {
			return fmt.Errorf("service name cannot be empty")
		}
		o.ServiceName = name
		o.ServiceVersion = version
		return nil
	})
}

// WithLogger sets the logger for request logging.
func WithLogger(logger logging.Logger) Option {
	return options.Set(func(o *RouterOptions) { o.Logger = logger })
}

// WithTracingProvider sets the tracing provider for distributed tracing.
func WithTracingProvider(provider tracing.Provider) Option {
	return options.Set(func(o *RouterOptions) { o.TracingProvider = provider })
}

// WithMetricsCollector sets the collector for request metrics. The
// collector is shared, so the router does not close it.
func WithMetricsCollector(collector metrics.Collector) Option {
	return options.Set(func(o *RouterOptions) { o.MetricsCollector = collector })
}

// WithProbeHandlers sets custom liveness, readiness and startup checks.
// Nil checks keep their defaults.
func WithProbeHandlers(handlers *ProbeHandlers) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		if handlers == nil {
			return nil
		}
		merged := DefaultProbeHandlers()
		if handlers.LivenessCheck != nil {
			merged.LivenessCheck = handlers.LivenessCheck
		}
		if handlers.ReadinessCheck != nil {
			merged.ReadinessCheck = handlers.ReadinessCheck
		}
		if handlers.StartupCheck != nil {
			merged.StartupCheck = handlers.StartupCheck
		}
		o.ProbeHandlers = merged
		return nil
	})
}

// WithObservabilityExclusions sets paths to exclude from logging and tracing.
func WithObservabilityExclusions(loggingPaths []string, tracingPaths []string) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		return options.Apply(o, WithLoggingExclusions(loggingPaths), WithTracingExclusions(tracingPaths))
	})
}

// WithLoggingExclusions sets paths to exclude from request logging.
func WithLoggingExclusions(paths []string) Option {
	return exclusions("logging", paths, func(o *RouterOptions) { o.ExcludeFromLogging = paths })
}

// WithTracingExclusions sets paths to exclude from tracing.
func WithTracingExclusions(paths []string) Option {
	return exclusions("tracing", paths, func(o *RouterOptions) { o.ExcludeFromTracing = paths })
}

func exclusions(kind string, paths []string, set func(*RouterOptions)) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		if err := validatePaths(kind, paths); err != nil {
			return err
		}
		set(o)
		return nil
	})
}

func validatePaths(kind string, paths []string) error {
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("path must start with /: %s", p)
		}
		if _, ok := seen[p]; ok {
			return fmt.Errorf("duplicate %s path: %s", kind, p)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// Factory creates new router instances with the specified options.
type Factory interface {
	NewRouter(opts ...Option) (Router, error)
}
