// Package metrics provides a Prometheus implementation of the metrics collector.
package metrics

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/damianoneill/notesvc/pkg/domain/metrics"
	"github.com/damianoneill/notesvc/pkg/domain/options"
)

var defaultProbeBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

type prometheusCollector struct {
	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	dependencyUp    *prometheus.GaugeVec
	probeDuration   *prometheus.HistogramVec
	reg             prometheus.Registerer
	mu              sync.RWMutex
}

// PrometheusFactory registers collectors with prometheus.DefaultRegisterer.
type PrometheusFactory struct{}

func NewMetricsFactory() metrics.Factory {
	return &PrometheusFactory{}
}

func (f *PrometheusFactory) NewCollector(opts ...metrics.Option) (metrics.Collector, error) {
	o := metrics.DefaultOptions()
	if err := options.Apply(&o, opts...); err != nil {
		return nil, fmt.Errorf("applying option: %w", err)
	}

	if o.ServiceName == "" {
		return nil, fmt.Errorf("service name is required")
	}

	buckets, err := bucketsOrDefault(o.Buckets, prometheus.DefBuckets)
	if err != nil {
		return nil, err
	}
	probeBuckets, err := bucketsOrDefault(o.ProbeBuckets, defaultProbeBuckets)
	if err != nil {
		return nil, err
	}

	labels := prometheus.Labels{"service": o.ServiceName}
	for k, v := range o.Labels {
		labels[k] = v
	}

	sub := o.Subsystem
	c := &prometheusCollector{
		reg: prometheus.WrapRegistererWith(labels, prometheus.DefaultRegisterer),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Subsystem: sub,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of handled HTTP requests.",
			Buckets:   buckets,
		}, requestLabels),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: sub,
			Name:      "http_requests_total",
			Help:      "Handled HTTP requests.",
		}, requestLabels),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Subsystem: sub,
			Name:      "http_errors_total",
			Help:      "Handled HTTP requests answered with a 4xx or 5xx status.",
		}, requestLabels),
		dependencyUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Subsystem: sub,
			Name:      "dependency_up",
			Help:      "1 when the last readiness probe of the dependency succeeded, else 0.",
		}, []string{"dependency"}),
		probeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Subsystem: sub,
			Name:      "dependency_probe_duration_seconds",
			Help:      "Latency of dependency readiness probes.",
			Buckets:   probeBuckets,
		}, []string{"dependency", "result"}),
	}

	if err := c.register(); err != nil {
		return nil, err
	}
	return c, nil
}

var requestLabels = []string{"method", "path", "status"}

// register registers every vector, unregistering the ones already added
// if any registration fails.
func (c *prometheusCollector) register() error {
	for i, col := range c.collectors() {
		if err := c.reg.Register(col); err != nil {
			for _, done := range c.collectors()[:i] {
				c.reg.Unregister(done)
			}
			return fmt.Errorf("registering collector: %w", err)
		}
	}
	return nil
}

func bucketsOrDefault(buckets, def []float64) ([]float64, error) {
	if len(buckets) == 0 {
		return def, nil
	}
	return buckets, validateBuckets(buckets)
}

func validateBuckets(buckets []float64) error {
	for i := 1; i < len(buckets); i++ {
		if buckets[i] <= buckets[i-1] {
			return fmt.Errorf("buckets must be in increasing order: %v", buckets)
		}
	}
	return nil
}

func (c *prometheusCollector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.requestDuration,
		c.requestsTotal,
		c.errorsTotal,
		c.dependencyUp,
		c.probeDuration,
	}
}

func (c *prometheusCollector) CollectRequestMetrics(method, path string, status int, duration float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	values := []string{method, path, strconv.Itoa(status)}
	c.requestDuration.WithLabelValues(values...).Observe(duration)
	c.requestsTotal.WithLabelValues(values...).Inc()
	if status >= 400 {
		c.errorsTotal.WithLabelValues(values...).Inc()
	}
}

func (c *prometheusCollector) CollectProbeMetrics(dependency string, healthy bool, duration float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	up, result := 0.0, "failure"
	if healthy {
		up, result = 1.0, "success"
	}

	c.dependencyUp.WithLabelValues(dependency).Set(up)
	c.probeDuration.WithLabelValues(dependency, result).Observe(duration)
}

func (c *prometheusCollector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, col := range c.collectors() {
		c.reg.Unregister(col)
	}
	return nil
}
