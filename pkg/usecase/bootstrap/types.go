package bootstrap

import (
	"time"

	domainconfig "github.com/damianoneill/notesvc/pkg/domain/config"
	domainhttp "github.com/damianoneill/notesvc/pkg/domain/http"
	domainlog "github.com/damianoneill/notesvc/pkg/domain/logging"
	domainmetrics "github.com/damianoneill/notesvc/pkg/domain/metrics"
	domaintracing "github.com/damianoneill/notesvc/pkg/domain/tracing"
)

// Configuration keys resolved by the service itself.
const (
	KeyPort            = "server.http.port"
	KeyReadTimeout     = "server.http.read_timeout"
	KeyWriteTimeout    = "server.http.write_timeout"
	KeyLogLevel        = "logging.level"
	KeyLogFile         = "logging.file.path"
	KeyLogMaxSizeMB    = "logging.file.max_size_mb"
	KeyLogMaxBackups   = "logging.file.max_backups"
	KeyLogMaxAgeDays   = "logging.file.max_age_days"
	KeyLogCompress     = "logging.file.compress"
	KeyTracingEndpoint = "tracing.endpoint"
)

// Dependencies contains all external dependencies required by the service.
// TracerFactory and MetricsFactory are optional.
type Dependencies struct {
	ConfigFactory  domainconfig.Factory
	LoggerFactory  domainlog.Factory
	RouterFactory  domainhttp.Factory
	TracerFactory  domaintracing.Factory
	MetricsFactory domainmetrics.Factory
}

// ServerOptions holds the HTTP server defaults. Configured values in the
// store take precedence.
type ServerOptions struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Options configures the bootstrap service.
type Options struct {
	// Service Identity
	ServiceName string
	Version     string

	// Configuration
	ConfigFile         string
	EnvPrefix          string
	ConfigDefaults     map[string]interface{}
	EnvBindings        map[string][]string
	EnableConfigViewer bool

	// Logging
	LogLevel        domainlog.Level
	LogFields       domainlog.Fields
	EnableLogConfig bool

	// HTTP Server
	Server ServerOptions

	// Router/Observability
	ExcludeFromLogging []string
	ExcludeFromTracing []string

	// Tracing
	TracingSampleRate  float64
	TracingPropagators []string
}
