// Package readiness reports whether the service's external dependencies are
// usable by probing all of them concurrently.
package readiness

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/damianoneill/notesvc/pkg/domain/health"
	"github.com/damianoneill/notesvc/pkg/domain/logging"
	"github.com/damianoneill/notesvc/pkg/domain/metrics"
	"github.com/damianoneill/notesvc/pkg/domain/options"
)

// Options configures an Aggregator.
type Options struct {
	// Logger receives a warning for every failed probe. Optional.
	Logger logging.Logger

	// Metrics records the outcome and latency of every probe. Optional.
	Metrics metrics.Collector
}

// Option is a function that modifies Options
type Option = options.Option[Options]

// WithLogger sets the logger used to report failed probes.
func WithLogger(logger logging.Logger) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Logger = logger
		return nil
	})
}

// WithMetrics sets the collector that records probe outcomes.
func WithMetrics(collector metrics.Collector) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Metrics = collector
		return nil
	})
}

// Aggregator fans out to a fixed, ordered set of probes.
type Aggregator struct {
	probes  []health.Probe
	names   []string
	logger  logging.Logger
	metrics metrics.Collector
}

var _ health.Checker = (*Aggregator)(nil)

// New validates probes and returns an Aggregator that checks them in the
// given order. Names must be non-empty and unique.
func New(probes []health.Probe, opts ...Option) (*Aggregator, error) {
	var o Options
	if err := options.Apply(&o, opts...); err != nil {
		return nil, fmt.Errorf("applying option: %w", err)
	}

	names := make([]string, len(probes))
	seen := make(map[string]struct{}, len(probes))
	for i, p := range probes {
		if p == nil {
			return nil, fmt.Errorf("probe %d is nil", i)
		}
		name := p.Name()
		if name == "" {
			return nil, fmt.Errorf("probe %d has no name", i)
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("duplicate probe name %q", name)
		}
		seen[name] = struct{}{}
		names[i] = name
	}

	return &Aggregator{
		probes:  append([]health.Probe(nil), probes...),
		names:   names,
		logger:  o.Logger,
		metrics: o.Metrics,
	}, nil
}

// Names returns the probe names in declaration order.
func (a *Aggregator) Names() []string {
	return append([]string(nil), a.names...)
}

// CheckReadiness runs every probe concurrently and waits for all of them.
// A probe that errors or panics counts as unhealthy; nothing else is
// reported to the caller. Cancellation of ctx is not propagated to probes,
// which are bounded by their own timeouts.
func (a *Aggregator) CheckReadiness(ctx context.Context) health.Report {
	ctx = context.WithoutCancel(ctx)

	outcomes := make([]health.Outcome, len(a.probes))
	var wg sync.WaitGroup
	wg.Add(len(a.probes))
	for i, p := range a.probes {
		go func(i int, p health.Probe) {
			defer wg.Done()
			outcomes[i] = run(ctx, a.names[i], p)
		}(i, p)
	}
	wg.Wait()

	for _, o := range outcomes {
		a.record(ctx, o)
	}

	return health.NewReport(outcomes)
}

// run checks p under the name captured by New; p.Name is not called again.
func run(ctx context.Context, name string, p health.Probe) (out health.Outcome) {
	out.Name = name
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out.Succeeded = false
			out.Err = fmt.Errorf("probe panicked: %v", r)
		}
		out.Duration = time.Since(start)
	}()

	out.Err = p.Check(ctx)
	out.Succeeded = out.Err == nil
	return out
}

func (a *Aggregator) record(ctx context.Context, o health.Outcome) {
	if a.metrics != nil {
		a.metrics.CollectProbeMetrics(o.Name, o.Succeeded, o.Duration.Seconds())
	}
	if a.logger != nil && !o.Succeeded {
		a.logger.WithContext(ctx).WarnWith("Dependency probe failed", logging.Fields{
			"dependency": o.Name,
			"error":      errString(o.Err),
			"duration":   o.Duration.String(),
		})
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
