// Package logging provides a zap implementation of the logging domain interfaces.
package logging

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	domainlog "github.com/damianoneill/notesvc/pkg/domain/logging"
	"github.com/damianoneill/notesvc/pkg/domain/options"
)

type ZapLogger struct {
	logger *zap.Logger
	atom   zap.AtomicLevel
	output io.Closer
}

var (
	_ domainlog.LeveledLogger       = (*ZapLogger)(nil)
	_ domainlog.RuntimeConfigurable = (*ZapLogger)(nil)
)

type ZapOptions struct {
	domainlog.LoggerOptions
	Development bool

	// Writer replaces stdout, mainly for tests. Ignored when a file is set.
	Writer io.Writer
}

type ZapOption = options.Option[ZapOptions]

// WithDevelopment enables development mode
func WithDevelopment(enabled bool) ZapOption {
	return options.OptionFunc[ZapOptions](func(o *ZapOptions) error {
		o.Development = enabled
		return nil
	})
}

// WithWriter sends JSON entries to w instead of stdout.
func WithWriter(w io.Writer) ZapOption {
	return options.OptionFunc[ZapOptions](func(o *ZapOptions) error {
		o.Writer = w
		return nil
	})
}

// Factory builds zap loggers. Zap options given to NewFactory apply to
// every logger it creates.
type Factory struct {
	zopts []ZapOption
}

func NewFactory(zopts ...ZapOption) *Factory {
	return &Factory{zopts: zopts}
}

func (f *Factory) NewLogger(opts ...domainlog.Option) (domainlog.LeveledLogger, error) {
	return f.NewLoggerWithOptions(opts, nil)
}

// NewLoggerWithOptions creates a logger with both domain and zap options
func (f *Factory) NewLoggerWithOptions(dopts []domainlog.Option, zopts []ZapOption) (domainlog.LeveledLogger, error) {
	o := ZapOptions{LoggerOptions: domainlog.DefaultOptions()}

	if err := options.Apply(&o.LoggerOptions, dopts...); err != nil {
		return nil, fmt.Errorf("applying domain options: %w", err)
	}
	if err := options.Apply(&o, append(append([]ZapOption(nil), f.zopts...), zopts...)...); err != nil {
		return nil, fmt.Errorf("applying zap options: %w", err)
	}

	return f.createLogger(o)
}

func (f *Factory) createLogger(o ZapOptions) (*ZapLogger, error) {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	sink, closer, err := openSink(o)
	if err != nil {
		return nil, err
	}

	atom := zap.NewAtomicLevelAt(convertToZapLevel(o.Level))
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), sink, atom)

	zopts := []zap.Option{
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.ErrorOutput(zapcore.Lock(os.Stderr)),
	}
	if o.Development {
		zopts = append(zopts, zap.Development(), zap.AddStacktrace(zapcore.ErrorLevel))
	}

	logger := zap.New(core, zopts...)

	if o.ServiceName != "" {
		logger = logger.With(zap.String("service", o.ServiceName))
	}
	if len(o.Fields) > 0 {
		logger = logger.With(convertFields(o.Fields)...)
	}

	return &ZapLogger{
		logger: logger,
		atom:   atom,
		output: closer,
	}, nil
}

// openSink returns the destination for log entries. A configured file is
// rotated by lumberjack.
func openSink(o ZapOptions) (zapcore.WriteSyncer, io.Closer, error) {
	if o.File.Path == "" {
		if o.Writer != nil {
			return zapcore.Lock(zapcore.AddSync(o.Writer)), nil, nil
		}
		return zapcore.Lock(os.Stdout), nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(o.File.Path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   o.File.Path,
		MaxSize:    o.File.MaxSizeMB,
		MaxBackups: o.File.MaxBackups,
		MaxAge:     o.File.MaxAgeDays,
		Compress:   o.File.Compress,
	}
	return zapcore.AddSync(rotator), rotator, nil
}

func (l *ZapLogger) Debug(msg string) { l.logger.Debug(msg) }
func (l *ZapLogger) Info(msg string)  { l.logger.Info(msg) }
func (l *ZapLogger) Warn(msg string)  { l.logger.Warn(msg) }
func (l *ZapLogger) Error(msg string) { l.logger.Error(msg) }

func (l *ZapLogger) DebugWith(msg string, fields domainlog.Fields) {
	l.logger.Debug(msg, convertFields(fields)...)
}

func (l *ZapLogger) InfoWith(msg string, fields domainlog.Fields) {
	l.logger.Info(msg, convertFields(fields)...)
}

func (l *ZapLogger) WarnWith(msg string, fields domainlog.Fields) {
	l.logger.Warn(msg, convertFields(fields)...)
}

func (l *ZapLogger) ErrorWith(msg string, fields domainlog.Fields) {
	l.logger.Error(msg, convertFields(fields)...)
}

func (l *ZapLogger) With(fields domainlog.Fields) domainlog.Logger {
	return l.derive(l.logger.With(convertFields(fields)...))
}

// WithContext adds trace_id and span_id when ctx carries a valid span.
func (l *ZapLogger) WithContext(ctx context.Context) domainlog.Logger {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return l
	}

	logger := l.logger.With(
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	)
	if spanCtx.IsSampled() {
		logger = logger.With(zap.Bool("sampled", true))
	}
	return l.derive(logger)
}

// derive shares the level and output with l.
func (l *ZapLogger) derive(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{
		logger: logger,
		atom:   l.atom,
		output: l.output,
	}
}

// SetLevel changes the level of l and every logger derived from it.
func (l *ZapLogger) SetLevel(level domainlog.Level) {
	l.atom.SetLevel(convertToZapLevel(level))
}

func (l *ZapLogger) GetLevel() domainlog.Level {
	return convertFromZapLevel(l.atom.Level())
}

// GetConfigHandler serves GET and PUT of the current level as JSON.
func (l *ZapLogger) GetConfigHandler() http.Handler {
	return l.atom
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

// Close flushes entries and releases a rotated log file.
func (l *ZapLogger) Close() error {
	_ = l.logger.Sync()
	if l.output == nil {
		return nil
	}
	return l.output.Close()
}

func convertToZapLevel(level domainlog.Level) zapcore.Level {
	switch level {
	case domainlog.DebugLevel:
		return zapcore.DebugLevel
	case domainlog.InfoLevel:
		return zapcore.InfoLevel
	case domainlog.WarnLevel:
		return zapcore.WarnLevel
	case domainlog.ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func convertFromZapLevel(level zapcore.Level) domainlog.Level {
	switch level {
	case zapcore.DebugLevel:
		return domainlog.DebugLevel
	case zapcore.WarnLevel:
		return domainlog.WarnLevel
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return domainlog.ErrorLevel
	default:
		return domainlog.InfoLevel
	}
}

func convertFields(fields domainlog.Fields) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	zapFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}
	return zapFields
}
