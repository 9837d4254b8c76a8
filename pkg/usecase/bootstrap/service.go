// Package bootstrap wires configuration, logging, tracing, metrics, the
// router and the readiness aggregator into a runnable HTTP service.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	domainconfig "github.com/damianoneill/notesvc/pkg/domain/config"
	"github.com/damianoneill/notesvc/pkg/domain/health"
	domainhttp "github.com/damianoneill/notesvc/pkg/domain/http"
	domainlog "github.com/damianoneill/notesvc/pkg/domain/logging"
	domainmetrics "github.com/damianoneill/notesvc/pkg/domain/metrics"
	domaintracing "github.com/damianoneill/notesvc/pkg/domain/tracing"
	"github.com/damianoneill/notesvc/pkg/usecase/readiness"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ServerHooks provides hooks for testing server lifecycle
type ServerHooks struct {
	ListenAndServe func() error
	Shutdown       func(context.Context) error
}

type closer struct {
	name string
	fn   func() error
}

// Service represents a bootstrapped application with core capabilities.
type Service struct {
	logger    domainlog.LeveledLogger
	config    domainconfig.Store
	router    domainhttp.Router
	tracer    domaintracing.Provider
	metrics   domainmetrics.Collector
	startTime time.Time
	server    *http.Server
	deps      Dependencies
	hooks     *ServerHooks
	opts      Options

	mu      sync.RWMutex
	checker health.Checker
	closers []closer
}

// NewService creates a new bootstrap service with all domain capabilities
func NewService(opts Options, deps Dependencies, hooks *ServerHooks) (*Service, error) {
	if err := validateOptions(&opts, deps); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	svc := &Service{
		deps:      deps,
		startTime: time.Now(),
		hooks:     hooks,
		opts:      opts,
	}

	if err := svc.initConfig(opts); err != nil {
		return nil, err
	}
	if err := svc.initLogger(opts); err != nil {
		return nil, err
	}
	if err := svc.initTracing(opts); err != nil {
		return nil, err
	}
	if err := svc.initMetrics(opts); err != nil {
		return nil, err
	}
	if err := svc.initRouter(opts); err != nil {
		return nil, err
	}

	return svc, nil
}

// RegisterProbes builds the readiness aggregator from probes, in the order
// given, and serves it on /internal/ready. The aggregator is returned so
// other handlers can share it.
func (s *Service) RegisterProbes(probes ...health.Probe) (*readiness.Aggregator, error) {
	ropts := []readiness.Option{readiness.WithLogger(s.logger)}
	if s.metrics != nil {
		ropts = append(ropts, readiness.WithMetrics(s.metrics))
	}

	agg, err := readiness.New(probes, ropts...)
	if err != nil {
		return nil, fmt.Errorf("creating readiness aggregator: %w", err)
	}

	s.mu.Lock()
	s.checker = agg
	s.mu.Unlock()

	s.logger.InfoWith("Registered readiness probes", domainlog.Fields{
		"dependencies": agg.Names(),
	})
	return agg, nil
}

// Checker returns the registered readiness checker, or nil.
func (s *Service) Checker() health.Checker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checker
}

// RegisterCloser adds a resource to release on Shutdown. Closers run in
// reverse registration order after the server has stopped.
func (s *Service) RegisterCloser(name string, fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, closer{name: name, fn: fn})
}

// LoadServerConfig loads server configuration from the config store
func (s *Service) LoadServerConfig() (ServerConfig, error) {
	var cfg ServerConfig
	var ok bool

	cfg.Port, ok = s.config.GetInt(KeyPort)
	if !ok {
		return cfg, fmt.Errorf("server port not configured")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("invalid server port: %d", cfg.Port)
	}

	cfg.ReadTimeout, ok = s.config.GetDuration(KeyReadTimeout)
	if !ok {
		cfg.ReadTimeout = 15 * time.Second
	}

	cfg.WriteTimeout, ok = s.config.GetDuration(KeyWriteTimeout)
	if !ok {
		cfg.WriteTimeout = 15 * time.Second
	}

	return cfg, nil
}

func (s *Service) createServer(cfg ServerConfig) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// Start runs the HTTP server until Shutdown is called.
func (s *Service) Start() error {
	cfg, err := s.LoadServerConfig()
	if err != nil {
		return fmt.Errorf("loading server config: %w", err)
	}

	s.mu.Lock()
	s.server = s.createServer(cfg)
	s.mu.Unlock()

	s.logger.InfoWith("Starting server", domainlog.Fields{
		"address": s.server.Addr,
	})

	listenAndServe := s.server.ListenAndServe
	if s.hooks != nil && s.hooks.ListenAndServe != nil {
		listenAndServe = s.hooks.ListenAndServe
	}

	if err := listenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown stops the server, then releases registered closers, the tracer,
// the metrics collector and the logger. All steps run; their errors are
// joined.
func (s *Service) Shutdown(ctx context.Context) error {
	s.logger.Info("Starting graceful shutdown")

	ctx, cancel := context.WithTimeout(ctx, s.opts.Server.ShutdownTimeout)
	defer cancel()

	var errs []error

	s.mu.RLock()
	server, closers := s.server, s.closers
	s.mu.RUnlock()

	shutdown := func(context.Context) error { return nil }
	if server != nil {
		shutdown = server.Shutdown
	}
	if s.hooks != nil && s.hooks.Shutdown != nil {
		shutdown = s.hooks.Shutdown
	}
	if err := shutdown(ctx); err != nil {
		errs = append(errs, s.shutdownError("server", err))
	}

	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].fn(); err != nil {
			errs = append(errs, s.shutdownError(closers[i].name, err))
		}
	}

	if s.tracer != nil {
		if err := s.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, s.shutdownError("tracer", err))
		}
	}

	if s.metrics != nil {
		if err := s.metrics.Close(); err != nil {
			errs = append(errs, s.shutdownError("metrics", err))
		}
	}

	s.logger.Info("Server stopped")

	if c, ok := s.logger.(io.Closer); ok {
		_ = c.Close()
	}

	return errors.Join(errs...)
}

func (s *Service) shutdownError(component string, err error) error {
	s.logger.ErrorWith("Shutdown error", domainlog.Fields{
		"component": component,
		"error":     err.Error(),
	})
	return fmt.Errorf("%s shutdown: %w", component, err)
}

// Router returns the service's router
func (s *Service) Router() domainhttp.Router {
	return s.router
}

// Config returns the service's configuration store
func (s *Service) Config() domainconfig.Store {
	return s.config
}

// Logger returns the service's logger
func (s *Service) Logger() domainlog.Logger {
	return s.logger
}

// Metrics returns the shared metrics collector, or nil when metrics are
// disabled.
func (s *Service) Metrics() domainmetrics.Collector {
	return s.metrics
}

// validateOptions ensures all required options are set and defaults are applied
func validateOptions(opts *Options, deps Dependencies) error {
	if opts.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}
	if deps.ConfigFactory == nil || deps.LoggerFactory == nil || deps.RouterFactory == nil {
		return fmt.Errorf("config, logger and router factories are required")
	}

	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.EnvPrefix == "" {
		opts.EnvPrefix = opts.ServiceName
	}
	if opts.LogLevel == "" {
		opts.LogLevel = domainlog.InfoLevel
	}
	if opts.Server.ShutdownTimeout == 0 {
		opts.Server.ShutdownTimeout = 15 * time.Second
	}
	if opts.Server.ReadTimeout == 0 {
		opts.Server.ReadTimeout = 15 * time.Second
	}
	if opts.Server.WriteTimeout == 0 {
		opts.Server.WriteTimeout = 15 * time.Second
	}
	if opts.Server.Port == 0 {
		opts.Server.Port = 3000
	}
	if opts.TracingSampleRate == 0 {
		opts.TracingSampleRate = 1.0
	}

	return nil
}
