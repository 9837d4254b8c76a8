// Package store provides the PostgreSQL note store and its readiness probe.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/damianoneill/notesvc/pkg/domain/health"
	"github.com/damianoneill/notesvc/pkg/domain/notes"
	"github.com/damianoneill/notesvc/pkg/domain/options"
)

// ProbeName identifies the database in readiness reports.
const ProbeName = "database"

const (
	driverName = "pgx"
	tracerName = "github.com/damianoneill/notesvc/pkg/adapter/store"
)

const (
	createTableSQL = `CREATE TABLE IF NOT EXISTS notes(
  id SERIAL PRIMARY KEY,
  body TEXT NOT NULL,
  created_at TIMESTAMPTZ DEFAULT now()
)`
	insertNoteSQL = `INSERT INTO notes(body) VALUES($1) RETURNING id, body, created_at`
	listNotesSQL  = `SELECT id, body, created_at FROM notes ORDER BY id DESC LIMIT $1`
	nowSQL        = `SELECT now()`
	pingSQL       = `SELECT 1`
)

var errInvalidLimit = errors.New("limit must be positive")

// Options configures the PostgreSQL connection.
type Options struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// ProbeTimeout bounds each readiness probe.
	ProbeTimeout time.Duration

	// MaxOpenConns limits the pool size. Zero means unlimited.
	MaxOpenConns int
}

// Option is a function that modifies Options
type Option = options.Option[Options]

// DefaultOptions returns same-host connection defaults.
func DefaultOptions() Options {
	return Options{
		Host:         "localhost",
		Port:         5432,
		User:         "postgres",
		Password:     "postgres",
		Database:     "caseiq",
		SSLMode:      "disable",
		ProbeTimeout: time.Second,
		MaxOpenConns: 10,
	}
}

// WithHost sets the server host and port.
func WithHost(host string, port int) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		if host == "" {
			return fmt.Errorf("database host cannot be empty")
		}
		if port <= 0 || port > 65535 {
			return fmt.Errorf("invalid database port %d", port)
		}
		o.Host = host
		o.Port = port
		return nil
	})
}

// WithCredentials sets the user and password.
func WithCredentials(user, password string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.User = user
		o.Password = password
		return nil
	})
}

// WithDatabase sets the database name.
func WithDatabase(name string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Database = name
		return nil
	})
}

// WithSSLMode sets the libpq sslmode parameter.
func WithSSLMode(mode string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.SSLMode = mode
		return nil
	})
}

// WithProbeTimeout sets the readiness probe timeout.
func WithProbeTimeout(d time.Duration) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		if d <= 0 {
			return fmt.Errorf("probe timeout must be positive")
		}
		o.ProbeTimeout = d
		return nil
	})
}

// WithMaxOpenConns limits the connection pool size.
func WithMaxOpenConns(n int) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.MaxOpenConns = n
		return nil
	})
}

// DSN renders o as a postgres:// connection URL.
func DSN(o Options) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(o.User, o.Password),
		Host:   net.JoinHostPort(o.Host, strconv.Itoa(o.Port)),
		Path:   "/" + o.Database,
	}
	if o.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {o.SSLMode}}.Encode()
	}
	return u.String()
}

// Postgres implements notes.Store on a shared connection pool.
type Postgres struct {
	db           *sql.DB
	tracer       trace.Tracer
	probeTimeout time.Duration
}

var _ notes.Store = (*Postgres)(nil)

// Open creates the connection pool. Connections are made on first use.
func Open(opts ...Option) (*Postgres, error) {
	o := DefaultOptions()
	if err := options.Apply(&o, opts...); err != nil {
		return nil, fmt.Errorf("applying option: %w", err)
	}

	db, err := sql.Open(driverName, DSN(o))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(o.MaxOpenConns)
	db.SetConnMaxLifetime(time.Hour)

	return newPostgres(db, o.ProbeTimeout), nil
}

// NewWithDB wraps an existing pool.
func NewWithDB(db *sql.DB, probeTimeout time.Duration) *Postgres {
	if probeTimeout <= 0 {
		probeTimeout = DefaultOptions().ProbeTimeout
	}
	return newPostgres(db, probeTimeout)
}

func newPostgres(db *sql.DB, probeTimeout time.Duration) *Postgres {
	return &Postgres{
		db:           db,
		tracer:       otel.Tracer(tracerName),
		probeTimeout: probeTimeout,
	}
}

func (p *Postgres) startSpan(ctx context.Context, op, statement string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "postgres."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.statement", statement),
		),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Migrate creates the notes table if needed.
func (p *Postgres) Migrate(ctx context.Context) (err error) {
	ctx, span := p.startSpan(ctx, "migrate", createTableSQL)
	defer func() { endSpan(span, err) }()

	if _, err = p.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("creating notes table: %w", err)
	}
	return nil
}

// Create inserts a note and returns the stored row.
func (p *Postgres) Create(ctx context.Context, body string) (n notes.Note, err error) {
	if err = notes.ValidateBody(body); err != nil {
		return notes.Note{}, err
	}

	ctx, span := p.startSpan(ctx, "create", insertNoteSQL)
	defer func() { endSpan(span, err) }()

	if err = p.db.QueryRowContext(ctx, insertNoteSQL, body).Scan(&n.ID, &n.Body, &n.CreatedAt); err != nil {
		return notes.Note{}, fmt.Errorf("inserting note: %w", err)
	}
	return n, nil
}

// List returns up to limit notes, newest first.
func (p *Postgres) List(ctx context.Context, limit int) (_ []notes.Note, err error) {
	if limit <= 0 {
		return nil, errInvalidLimit
	}

	ctx, span := p.startSpan(ctx, "list", listNotesSQL)
	defer func() { endSpan(span, err) }()

	rows, err := p.db.QueryContext(ctx, listNotesSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()

	result := make([]notes.Note, 0, limit)
	for rows.Next() {
		var n notes.Note
		if err = rows.Scan(&n.ID, &n.Body, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		result = append(result, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notes: %w", err)
	}
	return result, nil
}

// Now returns the server's current time.
func (p *Postgres) Now(ctx context.Context) (now time.Time, err error) {
	ctx, span := p.startSpan(ctx, "now", nowSQL)
	defer func() { endSpan(span, err) }()

	if err = p.db.QueryRowContext(ctx, nowSQL).Scan(&now); err != nil {
		return time.Time{}, fmt.Errorf("querying database time: %w", err)
	}
	return now, nil
}

// Ping runs a trivial query against the server.
func (p *Postgres) Ping(ctx context.Context) (err error) {
	ctx, span := p.startSpan(ctx, "ping", pingSQL)
	defer func() { endSpan(span, err) }()

	var one int
	if err = p.db.QueryRowContext(ctx, pingSQL).Scan(&one); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	return nil
}

// Probe returns the readiness probe bound to this pool.
func (p *Postgres) Probe() health.Probe {
	return health.NewProbe(ProbeName, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, p.probeTimeout)
		defer cancel()
		return p.Ping(ctx)
	})
}

// Close closes the pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}
