package bootstrap

import (
	"context"
	"fmt"
	"time"

	domainconfig "github.com/damianoneill/notesvc/pkg/domain/config"
	domainhttp "github.com/damianoneill/notesvc/pkg/domain/http"
	domainlog "github.com/damianoneill/notesvc/pkg/domain/logging"
	domainmetrics "github.com/damianoneill/notesvc/pkg/domain/metrics"
	domaintracing "github.com/damianoneill/notesvc/pkg/domain/tracing"
)

func (s *Service) initConfig(opts Options) error {
	defaults := map[string]interface{}{
		KeyPort:         opts.Server.Port,
		KeyReadTimeout:  opts.Server.ReadTimeout,
		KeyWriteTimeout: opts.Server.WriteTimeout,
		KeyLogLevel:     string(opts.LogLevel),
	}

	cfgOpts := []domainconfig.Option{
		domainconfig.WithEnvPrefix(opts.EnvPrefix),
		domainconfig.WithDefaults(defaults),
		domainconfig.WithDefaults(opts.ConfigDefaults),
	}
	if len(opts.EnvBindings) > 0 {
		cfgOpts = append(cfgOpts, domainconfig.WithEnvBindings(opts.EnvBindings))
	}
	if opts.ConfigFile != "" {
		cfgOpts = append(cfgOpts, domainconfig.WithConfigFile(opts.ConfigFile))
	}

	store, err := s.deps.ConfigFactory.NewStore(cfgOpts...)
	if err != nil {
		return fmt.Errorf("creating config store: %w", err)
	}
	s.config = store
	return nil
}

func (s *Service) initLogger(opts Options) error {
	level := opts.LogLevel
	if v, ok := s.config.GetString(KeyLogLevel); ok && v != "" {
		level = domainlog.ParseLevel(v)
	}

	fields := domainlog.Fields{"version": opts.Version}
	for k, v := range opts.LogFields {
		fields[k] = v
	}

	logOpts := []domainlog.Option{
		domainlog.WithLevel(level),
		domainlog.WithServiceName(opts.ServiceName),
		domainlog.WithFields(fields),
	}
	if path, ok := s.config.GetString(KeyLogFile); ok && path != "" {
		file := domainlog.FileOutput{Path: path}
		file.MaxSizeMB, _ = s.config.GetInt(KeyLogMaxSizeMB)
		file.MaxBackups, _ = s.config.GetInt(KeyLogMaxBackups)
		file.MaxAgeDays, _ = s.config.GetInt(KeyLogMaxAgeDays)
		file.Compress, _ = s.config.GetBool(KeyLogCompress)
		logOpts = append(logOpts, domainlog.WithFileOutput(file))
	}

	logger, err := s.deps.LoggerFactory.NewLogger(logOpts...)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	s.logger = logger
	return nil
}

func (s *Service) initTracing(opts Options) error {
	if s.deps.TracerFactory == nil {
		return nil
	}
	endpoint, _ := s.config.GetString(KeyTracingEndpoint)
	if endpoint == "" {
		return nil
	}

	tracingOpts := []domaintracing.Option{
		domaintracing.WithServiceName(opts.ServiceName),
		domaintracing.WithServiceVersion(opts.Version),
		domaintracing.WithEndpointURL(endpoint),
		domaintracing.WithSamplingRate(opts.TracingSampleRate),
	}
	if len(opts.TracingPropagators) > 0 {
		tracingOpts = append(tracingOpts, domaintracing.WithPropagatorTypes(opts.TracingPropagators))
	} else {
		tracingOpts = append(tracingOpts, domaintracing.WithDefaultPropagators())
	}

	provider, err := s.deps.TracerFactory.NewProvider(tracingOpts...)
	if err != nil {
		return fmt.Errorf("creating tracer: %w", err)
	}
	s.tracer = provider

	s.logger.InfoWith("Tracing enabled", domainlog.Fields{
		"endpoint": endpoint,
	})
	return nil
}

// initMetrics creates the collector shared by the router and the
// readiness aggregator.
func (s *Service) initMetrics(opts Options) error {
	if s.deps.MetricsFactory == nil {
		return nil
	}

	collector, err := s.deps.MetricsFactory.NewCollector(
		domainmetrics.WithServiceName(opts.ServiceName),
		domainmetrics.WithLabels(map[string]string{
			"version": opts.Version,
		}),
	)
	if err != nil {
		return fmt.Errorf("creating metrics collector: %w", err)
	}
	s.metrics = collector
	return nil
}

func (s *Service) initRouter(opts Options) error {
	routerOpts := []domainhttp.Option{
		domainhttp.WithService(opts.ServiceName, opts.Version),
		domainhttp.WithLogger(s.logger),
		domainhttp.WithProbeHandlers(s.createProbeHandlers(opts)),
		domainhttp.WithObservabilityExclusions(opts.ExcludeFromLogging, opts.ExcludeFromTracing),
	}
	if s.metrics != nil {
		routerOpts = append(routerOpts, domainhttp.WithMetricsCollector(s.metrics))
	}
	if s.tracer != nil {
		routerOpts = append(routerOpts, domainhttp.WithTracingProvider(s.tracer))
	}

	router, err := s.deps.RouterFactory.NewRouter(routerOpts...)
	if err != nil {
		return fmt.Errorf("creating router: %w", err)
	}
	s.router = router

	if opts.EnableLogConfig {
		if configurable, ok := s.logger.(domainlog.RuntimeConfigurable); ok {
			router.Mount("/internal/logging", configurable.GetConfigHandler())
			s.logger.InfoWith("Registered logger config endpoint", domainlog.Fields{
				"path": "/internal/logging",
			})
		}
	}

	if opts.EnableConfigViewer {
		if masked, ok := s.config.(domainconfig.MaskedStore); ok {
			router.Mount("/internal/config", masked.GetConfigHandler(&domainconfig.DefaultMaskStrategy{
				SensitiveKeys: domainconfig.DefaultSensitiveKeys,
			}))
			s.logger.InfoWith("Registered config viewer endpoint", domainlog.Fields{
				"path": "/internal/config",
			})
		}
	}

	return nil
}

// createProbeHandlers creates probe handlers for Kubernetes health checks.
// Readiness delegates to the checker installed by RegisterProbes.
func (s *Service) createProbeHandlers(opts Options) *domainhttp.ProbeHandlers {
	return &domainhttp.ProbeHandlers{
		LivenessCheck: func(context.Context) domainhttp.ProbeResponse {
			return domainhttp.NewProbeResponse(domainhttp.StatusOK, map[string]interface{}{
				"version": opts.Version,
				"uptime":  time.Since(s.startTime).String(),
			})
		},
		ReadinessCheck: func(ctx context.Context) domainhttp.ProbeResponse {
			checker := s.Checker()
			if checker == nil {
				return domainhttp.NewProbeResponse(domainhttp.StatusOK, map[string]interface{}{
					"deps": []string{},
				})
			}
			return domainhttp.ReadinessCheck(checker)(ctx)
		},
		StartupCheck: func(context.Context) domainhttp.ProbeResponse {
			return domainhttp.NewProbeResponse(domainhttp.StatusOK, map[string]interface{}{
				"startup_time": s.startTime.Format(time.RFC3339),
			})
		},
	}
}
