// Package tracing defines the tracing provider contract and its configuration
// for OpenTelemetry-based distributed tracing.
package tracing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/damianoneill/notesvc/pkg/domain/options"
)

//go:generate mockgen -destination=mocks/mock_tracing.go -package=mocks github.com/damianoneill/notesvc/pkg/domain/tracing Provider,Factory

// Provider manages the lifecycle of trace collection and export.
type Provider interface {
	// Shutdown flushes pending spans and stops the provider.
	// The context controls how long to wait for export completion.
	Shutdown(ctx context.Context) error

	// IsEnabled returns whether spans are exported.
	IsEnabled() bool
}

// ExporterType defines the type of OpenTelemetry exporter to use.
type ExporterType string

const (
	HTTPExporter ExporterType = "http" // OTLP over HTTP
	GRPCExporter ExporterType = "grpc" // OTLP over gRPC
	NoopExporter ExporterType = "noop"
)

// Propagation formats accepted by WithPropagatorTypes.
const (
	PropagatorTraceContext = "tracecontext"
	PropagatorBaggage      = "baggage"
)

// Options configures a Provider. CollectorEndpoint is a bare host:port;
// the scheme is implied by ExporterType and Insecure.
type Options struct {
	ServiceName    string
	ServiceVersion string

	CollectorEndpoint string
	ExporterType      ExporterType
	Headers           map[string]string
	Insecure          bool

	// PropagatorTypes falls back to tracecontext and baggage when empty.
	PropagatorTypes []string
	SamplingRate    float64
}

// Option is a function that modifies Options
type Option = options.Option[Options]

// DefaultOptions returns the default tracing options
func DefaultOptions() Options {
	return Options{
		ExporterType: HTTPExporter,
		SamplingRate: 1.0,
	}
}

// Factory creates configured Provider instances
type Factory interface {
	// NewProvider creates a new Provider with the given options
	NewProvider(opts ...Option) (Provider, error)

	// HTTPMiddleware creates an http.Handler middleware that adds tracing.
	// The operation parameter sets the name of the created spans
	HTTPMiddleware(operation string) func(http.Handler) http.Handler
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return options.Set(func(o *Options) { o.ServiceName = name })
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return options.Set(func(o *Options) { o.ServiceVersion = version })
}

// WithCollectorEndpoint sets the collector host:port.
func WithCollectorEndpoint(endpoint string) Option {
	return options.Set(func(o *Options) { o.CollectorEndpoint = endpoint })
}

// WithEndpointURL configures the exporter from an OTLP endpoint URL such as
// OTEL_EXPORTER_OTLP_ENDPOINT. http:// and https:// select the HTTP
// exporter, grpc:// the gRPC exporter. An empty URL disables tracing.
func WithEndpointURL(raw string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			o.ExporterType = NoopExporter
			return nil
		}

		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parsing collector endpoint: %w", err)
		}
		if u.Host == "" {
			return fmt.Errorf("collector endpoint %q has no host", raw)
		}

		switch u.Scheme {
		case "http":
			o.ExporterType, o.Insecure = HTTPExporter, true
		case "https":
			o.ExporterType, o.Insecure = HTTPExporter, false
		case "grpc":
			o.ExporterType, o.Insecure = GRPCExporter, true
		default:
			return fmt.Errorf("unsupported collector scheme %q", u.Scheme)
		}
		o.CollectorEndpoint = u.Host
		return nil
	})
}

func WithExporterType(exporterType ExporterType) Option {
	return options.Set(func(o *Options) { o.ExporterType = exporterType })
}

// WithHeaders adds headers, such as credentials, to every export request.
func WithHeaders(headers map[string]string) Option {
	return options.Set(func(o *Options) { o.Headers = headers })
}

func WithInsecure(insecure bool) Option {
	return options.Set(func(o *Options) { o.Insecure = insecure })
}

// WithPropagatorTypes restricts propagation to the named formats.
func WithPropagatorTypes(types []string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		for _, t := range types {
			switch t {
			case PropagatorTraceContext, PropagatorBaggage:
			default:
				return fmt.Errorf("unsupported propagator %q", t)
			}
		}
		o.PropagatorTypes = types
		return nil
	})
}

// WithSamplingRate sets the ratio of root spans that are sampled.
func WithSamplingRate(rate float64) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("sampling rate %v outside [0, 1]", rate)
		}
		o.SamplingRate = rate
		return nil
	})
}

// WithDefaultPropagators enables W3C trace context and baggage.
func WithDefaultPropagators() Option {
	return WithPropagatorTypes([]string{PropagatorTraceContext, PropagatorBaggage})
}
