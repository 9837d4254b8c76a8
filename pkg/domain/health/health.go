// Package health defines dependency probes and the readiness report built
// from their outcomes.
package health

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mocks/mock_health.go -package=mocks github.com/damianoneill/notesvc/pkg/domain/health Probe,Checker

// Probe checks whether a single external dependency is usable.
type Probe interface {
	// Name identifies the dependency in reports, e.g. "cache".
	Name() string

	// Check returns nil when the dependency answered successfully.
	Check(ctx context.Context) error
}

// ProbeFunc performs a single dependency check.
type ProbeFunc func(ctx context.Context) error

type namedProbe struct {
	name  string
	check ProbeFunc
}

// NewProbe binds a check function to a dependency name.
func NewProbe(name string, check ProbeFunc) Probe {
	return &namedProbe{name: name, check: check}
}

func (p *namedProbe) Name() string { return p.name }

func (p *namedProbe) Check(ctx context.Context) error {
	return p.check(ctx)
}

// Outcome is the settled result of one probe invocation.
type Outcome struct {
	Name      string
	Succeeded bool
	Err       error
	Duration  time.Duration
}

// Report is the composite readiness status.
type Report struct {
	OK   bool     `json:"ok"`
	Deps []string `json:"deps"`

	// Outcomes holds every settled probe in declaration order.
	Outcomes []Outcome `json:"-"`
}

// NewReport derives a Report from outcomes listed in declaration order.
// Deps is never nil, and an empty outcome set is reported as OK.
func NewReport(outcomes []Outcome) Report {
	deps := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Succeeded {
			deps = append(deps, o.Name)
		}
	}
	return Report{
		OK:       len(deps) == len(outcomes),
		Deps:     deps,
		Outcomes: outcomes,
	}
}

// Failed returns the names of the outcomes that did not succeed, in
// declaration order. Their errors are left to the logs.
func (r Report) Failed() []string {
	var failed []string
	for _, o := range r.Outcomes {
		if !o.Succeeded {
			failed = append(failed, o.Name)
		}
	}
	return failed
}

// Checker aggregates readiness across all dependencies. It never fails;
// unhealthy dependencies are reflected in the Report.
type Checker interface {
	CheckReadiness(ctx context.Context) Report
}
