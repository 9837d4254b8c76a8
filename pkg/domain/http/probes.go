// Package http provides domain interfaces for HTTP routing and service health probes.
package http

import (
	"context"

	"github.com/damianoneill/notesvc/pkg/domain/health"
)

// Probe status values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// ProbeResponse represents the result of a health check probe.
// It follows Kubernetes probe conventions while allowing additional
// details to be included in the response.
type ProbeResponse struct {
	// Status is "ok" when healthy. Any other value is served as 503.
	Status string `json:"status"`

	// Details contains additional probe information such as
	// version, uptime or per-dependency state.
	Details map[string]interface{} `json:"details,omitempty"`
}

// ProbeCheck performs a health check for the request carried by ctx.
type ProbeCheck func(ctx context.Context) ProbeResponse

// ProbeHandlers contains the health check functions for Kubernetes probes.
type ProbeHandlers struct {
	// LivenessCheck determines if the process is alive. It should not
	// depend on external services.
	LivenessCheck ProbeCheck

	// ReadinessCheck determines if the service can take traffic. It
	// should verify the dependencies requests need.
	ReadinessCheck ProbeCheck

	// StartupCheck determines if initialization has completed.
	StartupCheck ProbeCheck
}

// DefaultProbeHandlers returns handlers that always report healthy.
func DefaultProbeHandlers() *ProbeHandlers {
	defaultCheck := func(context.Context) ProbeResponse {
		return ProbeResponse{
			Status: StatusOK,
		}
	}

	return &ProbeHandlers{
		LivenessCheck:  defaultCheck,
		ReadinessCheck: defaultCheck,
		StartupCheck:   defaultCheck,
	}
}

// NewProbeResponse creates a ProbeResponse with the given values.
//
//	NewProbeResponse("ok", map[string]interface{}{
//	    "version": "1.2.3",
//	    "uptime":  "3h2m",
//	})
func NewProbeResponse(status string, details map[string]interface{}) ProbeResponse {
	return ProbeResponse{
		Status:  status,
		Details: details,
	}
}

// ReportResponse maps a readiness report onto a probe response. Failed
// dependencies are listed by name only; error text may carry hosts and
// credentials and stays in the logs.
func ReportResponse(report health.Report) ProbeResponse {
	status := StatusOK
	if !report.OK {
		status = StatusFailed
	}

	details := map[string]interface{}{
		"deps": report.Deps,
	}
	if failed := report.Failed(); len(failed) > 0 {
		details["failed"] = failed
	}

	return NewProbeResponse(status, details)
}

// ReadinessCheck adapts a health.Checker into a ProbeCheck.
func ReadinessCheck(checker health.Checker) ProbeCheck {
	return func(ctx context.Context) ProbeResponse {
		return ReportResponse(checker.CheckReadiness(ctx))
	}
}
