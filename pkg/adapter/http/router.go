// Package http provides a Chi-based implementation of the HTTP routing domain interfaces.
package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	domainhttp "github.com/damianoneill/notesvc/pkg/domain/http"
	"github.com/damianoneill/notesvc/pkg/domain/logging"
	"github.com/damianoneill/notesvc/pkg/domain/options"
)

// requestTimeout bounds every request handled by the router.
const requestTimeout = 30 * time.Second

// Router implements the domain Router interface using Chi
type Router struct {
	chi.Router
	opts        domainhttp.RouterOptions
	skipLogging *pathSet
	skipTracing *pathSet
}

// Factory creates Chi router instances
type Factory struct{}

// NewFactory creates a new Chi router factory
func NewFactory() *Factory {
	return &Factory{}
}

// NewRouter implements the domain Factory interface
func (f *Factory) NewRouter(opts ...domainhttp.Option) (domainhttp.Router, error) {
	o := domainhttp.RouterOptions{
		ProbeHandlers: domainhttp.DefaultProbeHandlers(),
	}
	if err := options.Apply(&o, opts...); err != nil {
		return nil, fmt.Errorf("applying router option: %w", err)
	}

	if o.ServiceName == "" {
		return nil, fmt.Errorf("service name is required")
	}

	return newRouter(o), nil
}

func newRouter(o domainhttp.RouterOptions) *Router {
	r := &Router{
		Router:      chi.NewRouter(),
		opts:        o,
		skipLogging: newPathSet(o.ExcludeFromLogging),
		skipTracing: newPathSet(o.ExcludeFromTracing),
	}

	r.Use(r.middleware()...)
	r.mountInternal()

	return r
}

// middleware returns the router's middleware chain in application order.
func (r *Router) middleware() []func(http.Handler) http.Handler {
	chain := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Timeout(requestTimeout),
	}

	if r.opts.TracingProvider != nil && r.opts.TracingProvider.IsEnabled() {
		chain = append(chain, r.tracingMiddleware)
	}
	if r.opts.Logger != nil {
		chain = append(chain, r.loggingMiddleware)
	}
	if r.opts.MetricsCollector != nil {
		chain = append(chain, r.metricsMiddleware)
	}

	return chain
}

// mountInternal adds the probe routes under /internal and /metrics.
func (r *Router) mountInternal() {
	internal := chi.NewRouter()
	internal.Get("/health", r.probeHandler(r.opts.ProbeHandlers.LivenessCheck))
	internal.Get("/ready", r.probeHandler(r.opts.ProbeHandlers.ReadinessCheck))
	internal.Get("/startup", r.probeHandler(r.opts.ProbeHandlers.StartupCheck))
	r.Mount("/internal", internal)

	if r.opts.MetricsCollector != nil {
		r.Handle("/metrics", promhttp.Handler())
	}
}

func (r *Router) probeHandler(check domainhttp.ProbeCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		resp := check(req.Context())

		w.Header().Set("Content-Type", "application/json")
		if resp.Status != domainhttp.StatusOK {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		if err := json.NewEncoder(w).Encode(resp); err != nil && r.opts.Logger != nil {
			r.opts.Logger.ErrorWith("Failed to write probe response", logging.Fields{
				"error": err.Error(),
				"path":  req.URL.Path,
			})
		}
	}
}

func (r *Router) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.skipLogging.Matches(req.URL.Path) {
			next.ServeHTTP(w, req)
			return
		}

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)

		defer func() {
			r.opts.Logger.WithContext(req.Context()).InfoWith("HTTP Request", logging.Fields{
				"method":     req.Method,
				"path":       req.URL.Path,
				"status":     ww.Status(),
				"duration":   time.Since(start).String(),
				"size":       ww.BytesWritten(),
				"request_id": middleware.GetReqID(req.Context()),
			})
		}()

		next.ServeHTTP(ww, req)
	})
}

func (r *Router) tracingMiddleware(next http.Handler) http.Handler {
	service := r.opts.ServiceName
	traced := otelhttp.NewHandler(next, service,
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return fmt.Sprintf("%s.http %s %s", service, req.Method, req.URL.Path)
		}),
	)

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.skipTracing.Matches(req.URL.Path) {
			next.ServeHTTP(w, req)
			return
		}
		traced.ServeHTTP(w, req)
	})
}

// metricsMiddleware skips the same paths as request logging.
func (r *Router) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.skipLogging.Matches(req.URL.Path) {
			next.ServeHTTP(w, req)
			return
		}

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		r.opts.MetricsCollector.CollectRequestMetrics(
			req.Method, routePattern(req), ww.Status(), time.Since(start).Seconds(),
		)
	})
}

// unmatchedRoute labels requests no route matched, so arbitrary paths
// never become label values.
const unmatchedRoute = "unmatched"

// routePattern returns the matched chi pattern, or unmatchedRoute.
func routePattern(req *http.Request) string {
	if rctx := chi.RouteContext(req.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return unmatchedRoute
}
