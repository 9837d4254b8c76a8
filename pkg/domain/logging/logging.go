// Package logging defines the structured logging contract shared by the
// service, its adapters and its request handlers.
package logging

import (
	"context"
	"net/http"

	"github.com/damianoneill/notesvc/pkg/domain/options"
)

//go:generate mockgen -destination=mocks/mock_logger.go -package=mocks github.com/damianoneill/notesvc/pkg/domain/logging Logger,LeveledLogger,Factory

// Level represents logging severity levels.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// ParseLevel maps a configuration string onto a Level, falling back to
// InfoLevel for anything unknown.
func ParseLevel(s string) Level {
	switch Level(s) {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel:
		return Level(s)
	default:
		return InfoLevel
	}
}

// Fields represents structured logging key-value pairs.
type Fields map[string]interface{}

// FileOutput configures a size-rotated log file. An empty Path means stdout.
type FileOutput struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// LoggerOptions holds configuration for logger implementations.
type LoggerOptions struct {
	// Level sets the minimum logging level
	Level Level

	// ServiceName identifies the service in log output
	ServiceName string

	// Fields contains default fields added to all log entries
	Fields Fields

	// File redirects output to a rotated file when File.Path is set
	File FileOutput
}

// Option is a function that modifies LoggerOptions
type Option = options.Option[LoggerOptions]

// DefaultOptions returns the default logger options
func DefaultOptions() LoggerOptions {
	return LoggerOptions{
		Level: InfoLevel,
	}
}

// WithLevel sets the minimum logging level.
func WithLevel(level Level) Option {
	return options.Set(func(o *LoggerOptions) { o.Level = level })
}

// WithServiceName sets the service name included in every entry.
func WithServiceName(name string) Option {
	return options.Set(func(o *LoggerOptions) { o.ServiceName = name })
}

// WithFields sets default fields included in every entry.
func WithFields(fields Fields) Option {
	return options.Set(func(o *LoggerOptions) { o.Fields = fields })
}

// WithFileOutput writes entries to a rotated file instead of stdout.
func WithFileOutput(file FileOutput) Option {
	return options.Set(func(o *LoggerOptions) { o.File = file })
}

// Logger defines the core logging interface.
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)

	DebugWith(msg string, fields Fields)
	InfoWith(msg string, fields Fields)
	WarnWith(msg string, fields Fields)
	ErrorWith(msg string, fields Fields)

	// With returns a new Logger with additional default fields
	With(fields Fields) Logger

	// WithContext returns a new Logger carrying trace and span ids from ctx
	WithContext(ctx context.Context) Logger
}

// LeveledLogger extends Logger with level management capabilities.
type LeveledLogger interface {
	Logger
	SetLevel(level Level)
	GetLevel() Level
}

// RuntimeConfigurable represents a logger whose level can be changed over HTTP.
type RuntimeConfigurable interface {
	GetConfigHandler() http.Handler
}

// Factory creates new logger instances
type Factory interface {
	NewLogger(opts ...Option) (LeveledLogger, error)
}
