// Package metrics defines how request and dependency probe measurements are
// recorded.
package metrics

import (
	"github.com/damianoneill/notesvc/pkg/domain/options"
)

//go:generate mockgen -destination=mocks/mock_metrics.go -package=mocks github.com/damianoneill/notesvc/pkg/domain/metrics Collector,Factory

// Collector records HTTP request and dependency probe metrics.
type Collector interface {
	// CollectRequestMetrics records metrics for a completed HTTP request
	CollectRequestMetrics(method, path string, status int, duration float64)

	// CollectProbeMetrics records the outcome of one dependency probe
	CollectProbeMetrics(dependency string, healthy bool, duration float64)

	// Close unregisters the collector's metrics
	Close() error
}

// Options configures the behavior of a metrics collector
type Options struct {
	// ServiceName identifies the service in the metrics
	ServiceName string

	// Buckets defines histogram buckets for request latency.
	// If empty, default buckets will be used
	Buckets []float64

	// ProbeBuckets defines histogram buckets for probe latency.
	// If empty, default buckets will be used
	ProbeBuckets []float64

	// Labels are additional fixed labels to add to all metrics
	Labels map[string]string

	// Subsystem is an optional name placed before every metric name
	Subsystem string
}

// Option is a function that modifies Options
type Option = options.Option[Options]

// DefaultOptions returns the default metrics options
func DefaultOptions() Options {
	return Options{
		ServiceName: "unknown",
	}
}

// WithServiceName sets the service name label.
func WithServiceName(name string) Option {
	return options.Set(func(o *Options) { o.ServiceName = name })
}

// WithBuckets sets request latency buckets, in ascending order.
func WithBuckets(buckets []float64) Option {
	return options.Set(func(o *Options) { o.Buckets = buckets })
}

// WithProbeBuckets sets dependency probe latency buckets, in ascending order.
func WithProbeBuckets(buckets []float64) Option {
	return options.Set(func(o *Options) { o.ProbeBuckets = buckets })
}

// WithLabels sets additional constant labels.
func WithLabels(labels map[string]string) Option {
	return options.Set(func(o *Options) { o.Labels = labels })
}

// WithSubsystem sets the metric name subsystem.
func WithSubsystem(subsystem string) Option {
	return options.Set(func(o *Options) { o.Subsystem = subsystem })
}

// Factory creates new metrics collector instances
type Factory interface {
	NewCollector(opts ...Option) (Collector, error)
}
