// Package tracing provides an OpenTelemetry implementation of the tracing domain interfaces.
package tracing

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/damianoneill/notesvc/pkg/domain/options"
	"github.com/damianoneill/notesvc/pkg/domain/tracing"
)

// Provider implements the domain Provider interface using OpenTelemetry
type Provider struct {
	provider *sdktrace.TracerProvider
	enabled  bool
}

// Factory creates OpenTelemetry-based Provider instances
type Factory struct{}

// NewFactory creates a new OpenTelemetry factory
func NewFactory() tracing.Factory {
	return &Factory{}
}

// NewProvider builds a provider and installs it as the global tracer
// provider, so adapters using otel.Tracer export through it.
func (f *Factory) NewProvider(opts ...tracing.Option) (tracing.Provider, error) {
	o := tracing.DefaultOptions()
	if err := options.Apply(&o, opts...); err != nil {
		return nil, fmt.Errorf("applying option: %w", err)
	}

	if o.ServiceName == "" {
		return nil, fmt.Errorf("service name is required")
	}

	// Propagation is configured even when export is disabled so trace
	// headers still pass through the service.
	setupPropagators(o.PropagatorTypes)

	if o.ExporterType == tracing.NoopExporter {
		return &Provider{enabled: false}, nil
	}

	exporter, err := createExporter(context.Background(), o)
	if err != nil {
		return nil, fmt.Errorf("creating exporter: %w", err)
	}

	return newProvider(o, exporter)
}

func newProvider(o tracing.Options, exporter sdktrace.SpanExporter) (*Provider, error) {
	res, err := resource.New(context.Background(),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(o.ServiceName),
			semconv.ServiceVersion(o.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(o.SamplingRate)),
	)
	otel.SetTracerProvider(tp)

	return &Provider{provider: tp, enabled: true}, nil
}

// HTTPMiddleware creates an http.Handler that adds tracing
func (f *Factory) HTTPMiddleware(operation string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, operation)
	}
}

// Shutdown implements Provider.Shutdown
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.enabled || p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}

// IsEnabled implements Provider.IsEnabled
func (p *Provider) IsEnabled() bool {
	return p.enabled
}

func createExporter(ctx context.Context, o tracing.Options) (sdktrace.SpanExporter, error) {
	switch o.ExporterType {
	case tracing.HTTPExporter:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(o.CollectorEndpoint), otlptracehttp.WithHeaders(o.Headers)}
		if o.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	case tracing.GRPCExporter:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(o.CollectorEndpoint), otlptracegrpc.WithHeaders(o.Headers)}
		if o.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	}
	return nil, fmt.Errorf("unsupported exporter type: %s", o.ExporterType)
}

// sampler honours the caller's sampling decision and applies rate only to
// root spans.
func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case rate <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

var propagators = map[string]propagation.TextMapPropagator{
	tracing.PropagatorTraceContext: propagation.TraceContext{},
	tracing.PropagatorBaggage:      propagation.Baggage{},
}

func setupPropagators(types []string) {
	if len(types) == 0 {
		types = []string{tracing.PropagatorTraceContext, tracing.PropagatorBaggage}
	}

	selected := make([]propagation.TextMapPropagator, 0, len(types))
	for _, t := range types {
		if p, ok := propagators[t]; ok {
			selected = append(selected, p)
		}
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(selected...))
}
