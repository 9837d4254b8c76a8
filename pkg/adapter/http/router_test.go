package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/damianoneill/notesvc/pkg/domain/health"
	domainhttp "github.com/damianoneill/notesvc/pkg/domain/http"
	"github.com/damianoneill/notesvc/pkg/domain/logging"
	mocklog "github.com/damianoneill/notesvc/pkg/domain/logging/mocks"
	mockmetrics "github.com/damianoneill/notesvc/pkg/domain/metrics/mocks"
	mocktracing "github.com/damianoneill/notesvc/pkg/domain/tracing/mocks"
)

func serve(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	tests := []struct {
		name    string
		options []domainhttp.Option
		wantErr bool
	}{
		{
			name:    "minimal options",
			options: []domainhttp.Option{domainhttp.WithService("notesvc", "1.0.0")},
		},
		{
			name:    "missing service name",
			options: []domainhttp.Option{},
			wantErr: true,
		},
		{
			name: "invalid exclusion",
			options: []domainhttp.Option{
				domainhttp.WithService("notesvc", "1.0.0"),
				domainhttp.WithLoggingExclusions([]string{"metrics"}),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, err := NewFactory().NewRouter(tt.options...)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, router)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, router)
		})
	}
}

func TestRouter_DefaultProbes(t *testing.T) {
	router, err := NewFactory().NewRouter(domainhttp.WithService("notesvc", "1.0.0"))
	require.NoError(t, err)

	for _, path := range []string{"/internal/health", "/internal/ready", "/internal/startup"} {
		t.Run(path, func(t *testing.T) {
			w := serve(t, router, http.MethodGet, path)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var got domainhttp.ProbeResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
			assert.Equal(t, domainhttp.StatusOK, got.Status)
		})
	}
}

type staticChecker struct {
	report health.Report
	ctx    context.Context
}

func (c *staticChecker) CheckReadiness(ctx context.Context) health.Report {
	c.ctx = ctx
	return c.report
}

func TestRouter_ReadinessFromChecker(t *testing.T) {
	checker := &staticChecker{report: health.NewReport([]health.Outcome{
		{Name: "cache", Err: errors.New("connection refused")},
		{Name: "database", Succeeded: true},
		{Name: "search", Succeeded: true},
	})}

	router, err := NewFactory().NewRouter(
		domainhttp.WithService("notesvc", "1.0.0"),
		domainhttp.WithProbeHandlers(&domainhttp.ProbeHandlers{
			ReadinessCheck: domainhttp.ReadinessCheck(checker),
		}),
	)
	require.NoError(t, err)

	w := serve(t, router, http.MethodGet, "/internal/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotNil(t, checker.ctx)
	assert.NotContains(t, w.Body.String(), "connection refused")

	var got struct {
		Status  string `json:"status"`
		Details struct {
			Deps   []string `json:"deps"`
			Failed []string `json:"failed"`
		} `json:"details"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, domainhttp.StatusFailed, got.Status)
	assert.Equal(t, []string{"database", "search"}, got.Details.Deps)
	assert.Equal(t, []string{"cache"}, got.Details.Failed)

	w = serve(t, router, http.MethodGet, "/internal/health")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Middleware(t *testing.T) {
	ctrl := gomock.NewController(t)

	logger := mocklog.NewMockLogger(ctrl)
	logger.EXPECT().WithContext(gomock.Any()).Return(logger)
	logger.EXPECT().InfoWith("HTTP Request", gomock.Any()).Do(func(_ string, fields logging.Fields) {
		assert.Equal(t, http.MethodGet, fields["method"])
		assert.Equal(t, "/api/notes/7", fields["path"])
		assert.Equal(t, http.StatusTeapot, fields["status"])
		assert.NotEmpty(t, fields["request_id"])
	})

	collector := mockmetrics.NewMockCollector(ctrl)
	collector.EXPECT().CollectRequestMetrics(http.MethodGet, "/api/notes/{id}", http.StatusTeapot, gomock.Any())

	provider := mocktracing.NewMockProvider(ctrl)
	provider.EXPECT().IsEnabled().Return(true)

	router, err := NewFactory().NewRouter(
		domainhttp.WithService("notesvc", "1.0.0"),
		domainhttp.WithLogger(logger),
		domainhttp.WithMetricsCollector(collector),
		domainhttp.WithTracingProvider(provider),
	)
	require.NoError(t, err)

	router.Get("/api/notes/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	w := serve(t, router, http.MethodGet, "/api/notes/7")
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestRouter_DisabledTracingProvider(t *testing.T) {
	ctrl := gomock.NewController(t)

	provider := mocktracing.NewMockProvider(ctrl)
	provider.EXPECT().IsEnabled().Return(false)

	router, err := NewFactory().NewRouter(
		domainhttp.WithService("notesvc", "1.0.0"),
		domainhttp.WithTracingProvider(provider),
	)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, serve(t, router, http.MethodGet, "/internal/health").Code)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	ctrl := gomock.NewController(t)

	plain, err := NewFactory().NewRouter(domainhttp.WithService("notesvc", "1.0.0"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, serve(t, plain, http.MethodGet, "/metrics").Code)

	collector := mockmetrics.NewMockCollector(ctrl)
	collector.EXPECT().CollectRequestMetrics(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	instrumented, err := NewFactory().NewRouter(
		domainhttp.WithService("notesvc", "1.0.0"),
		domainhttp.WithMetricsCollector(collector),
	)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, serve(t, instrumented, http.MethodGet, "/metrics").Code)
}

func TestRouter_ObservabilityExclusions(t *testing.T) {
	ctrl := gomock.NewController(t)

	logger := mocklog.NewMockLogger(ctrl)
	logger.EXPECT().WithContext(gomock.Any()).Return(logger).Times(1)
	logger.EXPECT().InfoWith(gomock.Any(), gomock.Any()).Times(1)

	collector := mockmetrics.NewMockCollector(ctrl)
	collector.EXPECT().CollectRequestMetrics(http.MethodGet, "/api/cache", http.StatusOK, gomock.Any()).Times(1)

	router, err := NewFactory().NewRouter(
		domainhttp.WithService("notesvc", "1.0.0"),
		domainhttp.WithLogger(logger),
		domainhttp.WithMetricsCollector(collector),
		domainhttp.WithObservabilityExclusions(
			[]string{"/internal/*", "/metrics"},
			[]string{"/internal/*"},
		),
	)
	require.NoError(t, err)

	router.Get("/api/cache", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, path := range []string{"/api/cache", "/internal/health", "/internal/ready"} {
		assert.Equal(t, http.StatusOK, serve(t, router, http.MethodGet, path).Code, path)
	}
}

func TestRouter_UnmatchedPathsShareMetricLabel(t *testing.T) {
	ctrl := gomock.NewController(t)

	var labels []string
	collector := mockmetrics.NewMockCollector(ctrl)
	collector.EXPECT().CollectRequestMetrics(http.MethodGet, gomock.Any(), http.StatusNotFound, gomock.Any()).
		Do(func(_ string, path string, _ int, _ float64) { labels = append(labels, path) }).
		Times(3)

	router, err := NewFactory().NewRouter(
		domainhttp.WithService("notesvc", "1.0.0"),
		domainhttp.WithMetricsCollector(collector),
	)
	require.NoError(t, err)
	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, path := range []string{"/wp-admin/a1", "/wp-admin/a2", "/xyz/123"} {
		assert.Equal(t, http.StatusNotFound, serve(t, router, http.MethodGet, path).Code, path)
	}
	assert.Equal(t, []string{unmatchedRoute, unmatchedRoute, unmatchedRoute}, labels)
}
