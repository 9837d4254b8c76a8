package bootstrap_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	adapterconfig "github.com/damianoneill/notesvc/pkg/adapter/config"
	adapterhttp "github.com/damianoneill/notesvc/pkg/adapter/http"
	adapterlog "github.com/damianoneill/notesvc/pkg/adapter/logging"
	configmocks "github.com/damianoneill/notesvc/pkg/domain/config/mocks"
	"github.com/damianoneill/notesvc/pkg/domain/health"
	domainlog "github.com/damianoneill/notesvc/pkg/domain/logging"
	logmocks "github.com/damianoneill/notesvc/pkg/domain/logging/mocks"
	metricsmocks "github.com/damianoneill/notesvc/pkg/domain/metrics/mocks"
	tracingmocks "github.com/damianoneill/notesvc/pkg/domain/tracing/mocks"
	"github.com/damianoneill/notesvc/pkg/usecase/bootstrap"
)

// bufferLoggerFactory builds real zap loggers that write to buf.
type bufferLoggerFactory struct {
	buf *bytes.Buffer
}

func (f bufferLoggerFactory) NewLogger(opts ...domainlog.Option) (domainlog.LeveledLogger, error) {
	return adapterlog.NewFactory().NewLoggerWithOptions(opts, []adapterlog.ZapOption{adapterlog.WithWriter(f.buf)})
}

type testDeps struct {
	ctrl           *gomock.Controller
	logs           *bytes.Buffer
	collector      *metricsmocks.MockCollector
	metricsFactory *metricsmocks.MockFactory
	tracerFactory  *tracingmocks.MockFactory
	tracer         *tracingmocks.MockProvider
}

func newTestDeps(t *testing.T) *testDeps {
	ctrl := gomock.NewController(t)
	d := &testDeps{
		ctrl:           ctrl,
		logs:           &bytes.Buffer{},
		collector:      metricsmocks.NewMockCollector(ctrl),
		metricsFactory: metricsmocks.NewMockFactory(ctrl),
		tracerFactory:  tracingmocks.NewMockFactory(ctrl),
		tracer:         tracingmocks.NewMockProvider(ctrl),
	}
	d.metricsFactory.EXPECT().NewCollector(gomock.Any()).Return(d.collector, nil).AnyTimes()
	d.collector.EXPECT().CollectRequestMetrics(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	d.collector.EXPECT().CollectProbeMetrics(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	return d
}

func (d *testDeps) dependencies() bootstrap.Dependencies {
	return bootstrap.Dependencies{
		ConfigFactory:  adapterconfig.NewFactory(),
		LoggerFactory:  bufferLoggerFactory{buf: d.logs},
		RouterFactory:  adapterhttp.NewFactory(),
		TracerFactory:  d.tracerFactory,
		MetricsFactory: d.metricsFactory,
	}
}

func newService(t *testing.T, d *testDeps, opts bootstrap.Options, hooks *bootstrap.ServerHooks) *bootstrap.Service {
	t.Helper()
	if opts.ServiceName == "" {
		opts.ServiceName = "notesvc"
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	svc, err := bootstrap.NewService(opts, d.dependencies(), hooks)
	require.NoError(t, err)
	return svc
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestNewService(t *testing.T) {
	tests := []struct {
		name    string
		opts    bootstrap.Options
		deps    func(*testDeps) bootstrap.Dependencies
		wantErr string
	}{
		{
			name: "minimal options",
			opts: bootstrap.Options{ServiceName: "notesvc", Version: "1.0.0"},
		},
		{
			name:    "empty service name",
			opts:    bootstrap.Options{Version: "1.0.0"},
			wantErr: "service name is required",
		},
		{
			name: "missing router factory",
			opts: bootstrap.Options{ServiceName: "notesvc"},
			deps: func(d *testDeps) bootstrap.Dependencies {
				deps := d.dependencies()
				deps.RouterFactory = nil
				return deps
			},
			wantErr: "factories are required",
		},
		{
			name: "config store error",
			opts: bootstrap.Options{ServiceName: "notesvc"},
			deps: func(d *testDeps) bootstrap.Dependencies {
				factory := configmocks.NewMockFactory(d.ctrl)
				factory.EXPECT().NewStore(gomock.Any()).Return(nil, errors.New("config error"))
				deps := d.dependencies()
				deps.ConfigFactory = factory
				return deps
			},
			wantErr: "creating config store",
		},
		{
			name: "logger error",
			opts: bootstrap.Options{ServiceName: "notesvc"},
			deps: func(d *testDeps) bootstrap.Dependencies {
				factory := logmocks.NewMockFactory(d.ctrl)
				factory.EXPECT().NewLogger(gomock.Any()).Return(nil, errors.New("logger error"))
				deps := d.dependencies()
				deps.LoggerFactory = factory
				return deps
			},
			wantErr: "creating logger",
		},
		{
			name: "metrics error",
			opts: bootstrap.Options{ServiceName: "notesvc"},
			deps: func(d *testDeps) bootstrap.Dependencies {
				factory := metricsmocks.NewMockFactory(d.ctrl)
				factory.EXPECT().NewCollector(gomock.Any()).Return(nil, errors.New("already registered"))
				deps := d.dependencies()
				deps.MetricsFactory = factory
				return deps
			},
			wantErr: "creating metrics collector",
		},
		{
			name: "invalid exclusion path",
			opts: bootstrap.Options{
				ServiceName:        "notesvc",
				ExcludeFromLogging: []string{"internal"},
			},
			wantErr: "creating router",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDeps(t)
			deps := d.dependencies()
			if tt.deps != nil {
				deps = tt.deps(d)
			}

			svc, err := bootstrap.NewService(tt.opts, deps, nil)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, svc)
				return
			}

			require.NoError(t, err)
			assert.NotNil(t, svc.Logger())
			assert.NotNil(t, svc.Config())
			assert.NotNil(t, svc.Router())
			assert.NotNil(t, svc.Metrics())
			assert.Nil(t, svc.Checker())
		})
	}
}

func TestNewService_Tracing(t *testing.T) {
	d := newTestDeps(t)
	d.tracerFactory.EXPECT().NewProvider(gomock.Any()).Return(d.tracer, nil)
	d.tracer.EXPECT().IsEnabled().Return(true).AnyTimes()

	newService(t, d, bootstrap.Options{
		ConfigDefaults: map[string]interface{}{
			"tracing.endpoint": "http://localhost:4318",
		},
	}, nil)

	assert.Contains(t, d.logs.String(), `"message":"Tracing enabled"`)
}

func TestNewService_TracingError(t *testing.T) {
	d := newTestDeps(t)
	d.tracerFactory.EXPECT().NewProvider(gomock.Any()).Return(nil, errors.New("bad endpoint"))

	_, err := bootstrap.NewService(bootstrap.Options{
		ServiceName: "notesvc",
		ConfigDefaults: map[string]interface{}{
			"tracing.endpoint": "ftp://collector",
		},
	}, d.dependencies(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating tracer")
}

func TestService_LoadServerConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		svc := newService(t, newTestDeps(t), bootstrap.Options{}, nil)
		cfg, err := svc.LoadServerConfig()
		require.NoError(t, err)
		assert.Equal(t, 3000, cfg.Port)
		assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
		assert.Equal(t, 15*time.Second, cfg.WriteTimeout)
	})

	t.Run("bound environment variable", func(t *testing.T) {
		t.Setenv("NOTESVC_TEST_PORT", "4000")
		svc := newService(t, newTestDeps(t), bootstrap.Options{
			EnvBindings: map[string][]string{bootstrap.KeyPort: {"NOTESVC_TEST_PORT"}},
		}, nil)
		cfg, err := svc.LoadServerConfig()
		require.NoError(t, err)
		assert.Equal(t, 4000, cfg.Port)
	})

	t.Run("invalid port", func(t *testing.T) {
		svc := newService(t, newTestDeps(t), bootstrap.Options{
			ConfigDefaults: map[string]interface{}{bootstrap.KeyPort: 70000},
		}, nil)
		_, err := svc.LoadServerConfig()
		assert.ErrorContains(t, err, "invalid server port")
	})
}

func TestService_Probes(t *testing.T) {
	d := newTestDeps(t)
	svc := newService(t, d, bootstrap.Options{}, nil)

	w := get(t, svc.Router(), "/internal/ready")
	assert.Equal(t, http.StatusOK, w.Code)

	_, err := svc.RegisterProbes(
		health.NewProbe("cache", func(context.Context) error { return errors.New("dial tcp: connection refused") }),
		health.NewProbe("database", func(context.Context) error { return nil }),
		health.NewProbe("search", func(context.Context) error { return nil }),
	)
	require.NoError(t, err)
	require.NotNil(t, svc.Checker())

	w = get(t, svc.Router(), "/internal/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var ready struct {
		Status  string `json:"status"`
		Details struct {
			Deps   []string `json:"deps"`
			Failed []string `json:"failed"`
		} `json:"details"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ready))
	assert.Equal(t, "failed", ready.Status)
	assert.Equal(t, []string{"database", "search"}, ready.Details.Deps)
	assert.Equal(t, []string{"cache"}, ready.Details.Failed)
	assert.Contains(t, d.logs.String(), `"message":"Dependency probe failed"`)

	w = get(t, svc.Router(), "/internal/health")
	assert.Equal(t, http.StatusOK, w.Code)
	var live struct {
		Details map[string]interface{} `json:"details"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&live))
	assert.Equal(t, "1.0.0", live.Details["version"])
	assert.NotEmpty(t, live.Details["uptime"])

	assert.Equal(t, http.StatusOK, get(t, svc.Router(), "/internal/startup").Code)
}

func TestService_RegisterProbesRejectsDuplicates(t *testing.T) {
	svc := newService(t, newTestDeps(t), bootstrap.Options{}, nil)

	ok := func(context.Context) error { return nil }
	_, err := svc.RegisterProbes(health.NewProbe("cache", ok), health.NewProbe("cache", ok))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate probe name")
	assert.Nil(t, svc.Checker())
}

func TestService_ConfigViewer(t *testing.T) {
	svc := newService(t, newTestDeps(t), bootstrap.Options{
		EnableConfigViewer: true,
		ConfigDefaults: map[string]interface{}{
			"database.host":     "localhost",
			"database.password": "postgres-secret",
		},
	}, nil)

	w := get(t, svc.Router(), "/internal/config")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "localhost")
	assert.Contains(t, body, "******")
	assert.NotContains(t, body, "postgres-secret")
}

func TestService_LogLevelEndpoint(t *testing.T) {
	svc := newService(t, newTestDeps(t), bootstrap.Options{EnableLogConfig: true}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/internal/logging", strings.NewReader(`{"level":"debug"}`))
	svc.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	leveled, ok := svc.Logger().(domainlog.LeveledLogger)
	require.True(t, ok)
	assert.Equal(t, domainlog.DebugLevel, leveled.GetLevel())
}

func TestService_Lifecycle(t *testing.T) {
	d := newTestDeps(t)
	d.collector.EXPECT().Close().Return(nil)

	hooks := &bootstrap.ServerHooks{
		ListenAndServe: func() error { return http.ErrServerClosed },
		Shutdown:       func(context.Context) error { return nil },
	}
	svc := newService(t, d, bootstrap.Options{}, hooks)

	var order []string
	svc.RegisterCloser("cache", func() error {
		order = append(order, "cache")
		return nil
	})
	svc.RegisterCloser("database", func() error {
		order = append(order, "database")
		return errors.New("connection busy")
	})

	require.NoError(t, svc.Start())

	err := svc.Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database shutdown: connection busy")
	assert.Equal(t, []string{"database", "cache"}, order)

	logs := d.logs.String()
	assert.Contains(t, logs, `"message":"Starting server"`)
	assert.Contains(t, logs, `"message":"Server stopped"`)
}

func TestService_ShutdownTracer(t *testing.T) {
	d := newTestDeps(t)
	d.tracerFactory.EXPECT().NewProvider(gomock.Any()).Return(d.tracer, nil)
	d.tracer.EXPECT().IsEnabled().Return(true).AnyTimes()
	d.tracer.EXPECT().Shutdown(gomock.Any()).Return(errors.New("exporter unavailable"))
	d.collector.EXPECT().Close().Return(nil)

	svc := newService(t, d, bootstrap.Options{
		ConfigDefaults: map[string]interface{}{"tracing.endpoint": "grpc://localhost:4317"},
	}, &bootstrap.ServerHooks{Shutdown: func(context.Context) error { return nil }})

	err := svc.Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tracer shutdown")
}

func TestService_StartFailsWithoutPort(t *testing.T) {
	d := newTestDeps(t)

	store := configmocks.NewMockStore(d.ctrl)
	store.EXPECT().GetString(gomock.Any()).Return("", false).AnyTimes()
	store.EXPECT().GetInt(bootstrap.KeyPort).Return(0, false)

	factory := configmocks.NewMockFactory(d.ctrl)
	factory.EXPECT().NewStore(gomock.Any()).Return(store, nil)

	deps := d.dependencies()
	deps.ConfigFactory = factory

	svc, err := bootstrap.NewService(bootstrap.Options{ServiceName: "notesvc"}, deps, nil)
	require.NoError(t, err)

	err = svc.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server port not configured")
}
