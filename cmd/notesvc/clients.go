package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/damianoneill/notesvc/pkg/adapter/cache"
	"github.com/damianoneill/notesvc/pkg/adapter/search"
	"github.com/damianoneill/notesvc/pkg/adapter/store"
	"github.com/damianoneill/notesvc/pkg/domain/config"
	"github.com/damianoneill/notesvc/pkg/domain/health"
	"github.com/damianoneill/notesvc/pkg/usecase/bootstrap"
)

// envBindings keeps the conventional variable names of each dependency
// working alongside the NOTESVC_ prefixed ones.
var envBindings = map[string][]string{
	bootstrap.KeyPort:            {"PORT"},
	bootstrap.KeyLogLevel:        {"LOG_LEVEL"},
	bootstrap.KeyLogFile:         {"LOG_FILE"},
	bootstrap.KeyTracingEndpoint: {"OTEL_EXPORTER_OTLP_ENDPOINT"},
	"cache.url":                  {"REDIS_URL"},
	"database.host":              {"PGHOST"},
	"database.port":              {"PGPORT"},
	"database.user":              {"PGUSER"},
	"database.password":          {"PGPASSWORD"},
	"database.name":              {"PGDATABASE"},
	"database.sslmode":           {"PGSSLMODE"},
	"search.node":                {"ES_NODE"},
	"search.username":            {"ES_USERNAME"},
	"search.password":            {"ES_PASSWORD"},
}

func configDefaults() map[string]interface{} {
	storeDefaults := store.DefaultOptions()
	return map[string]interface{}{
		bootstrap.KeyPort:          3000,
		bootstrap.KeyLogMaxSizeMB:  100,
		bootstrap.KeyLogMaxBackups: 3,
		bootstrap.KeyLogMaxAgeDays: 28,

		"cache.url":           cache.DefaultOptions().URL,
		"cache.probe_timeout": cache.DefaultOptions().ProbeTimeout,

		"database.host":           storeDefaults.Host,
		"database.port":           storeDefaults.Port,
		"database.user":           storeDefaults.User,
		"database.password":       storeDefaults.Password,
		"database.name":           storeDefaults.Database,
		"database.sslmode":        storeDefaults.SSLMode,
		"database.probe_timeout":  storeDefaults.ProbeTimeout,
		"database.max_open_conns": storeDefaults.MaxOpenConns,

		"search.node":          strings.Join(search.DefaultOptions().Addresses, ","),
		"search.index":         search.DefaultOptions().Index,
		"search.probe_timeout": search.DefaultOptions().ProbeTimeout,
	}
}

func cacheOptions(cfg config.Store, tracing bool) []cache.Option {
	opts := []cache.Option{cache.WithTracing(tracing)}
	if url, ok := cfg.GetString("cache.url"); ok {
		opts = append(opts, cache.WithURL(url))
	}
	if d, ok := cfg.GetDuration("cache.probe_timeout"); ok {
		opts = append(opts, cache.WithProbeTimeout(d))
	}
	return opts
}

func storeOptions(cfg config.Store) []store.Option {
	o := store.DefaultOptions()
	if v, ok := cfg.GetString("database.host"); ok {
		o.Host = v
	}
	if v, ok := cfg.GetInt("database.port"); ok {
		o.Port = v
	}
	if v, ok := cfg.GetString("database.user"); ok {
		o.User = v
	}
	if v, ok := cfg.GetString("database.password"); ok {
		o.Password = v
	}

	opts := []store.Option{
		store.WithHost(o.Host, o.Port),
		store.WithCredentials(o.User, o.Password),
	}
	if v, ok := cfg.GetString("database.name"); ok {
		opts = append(opts, store.WithDatabase(v))
	}
	if v, ok := cfg.GetString("database.sslmode"); ok {
		opts = append(opts, store.WithSSLMode(v))
	}
	if d, ok := cfg.GetDuration("database.probe_timeout"); ok {
		opts = append(opts, store.WithProbeTimeout(d))
	}
	if n, ok := cfg.GetInt("database.max_open_conns"); ok {
		opts = append(opts, store.WithMaxOpenConns(n))
	}
	return opts
}

func searchOptions(cfg config.Store) []search.Option {
	var opts []search.Option
	if node, ok := cfg.GetString("search.node"); ok {
		opts = append(opts, search.WithAddresses(splitList(node)...))
	}
	user, _ := cfg.GetString("search.username")
	password, _ := cfg.GetString("search.password")
	if user != "" {
		opts = append(opts, search.WithBasicAuth(user, password))
	}
	if index, ok := cfg.GetString("search.index"); ok {
		opts = append(opts, search.WithIndex(index))
	}
	if d, ok := cfg.GetDuration("search.probe_timeout"); ok {
		opts = append(opts, search.WithProbeTimeout(d))
	}
	return opts
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// clients holds the process-wide handle of each dependency.
type clients struct {
	cache  *cache.Client
	store  *store.Postgres
	search *search.Client
}

func openClients(cfg config.Store) (*clients, error) {
	endpoint, _ := cfg.GetString(bootstrap.KeyTracingEndpoint)

	c := &clients{}
	var err error

	if c.cache, err = cache.New(cacheOptions(cfg, endpoint != "")...); err != nil {
		return nil, fmt.Errorf("creating cache client: %w", err)
	}
	if c.store, err = store.Open(storeOptions(cfg)...); err != nil {
		_ = c.cache.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if c.search, err = search.New(searchOptions(cfg)...); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("creating search client: %w", err)
	}
	return c, nil
}

// probes returns the readiness probes in reporting order.
func (c *clients) probes() []health.Probe {
	return []health.Probe{
		c.cache.Probe(),
		c.store.Probe(),
		c.search.Probe(),
	}
}

// register hands each closable client to the service for shutdown.
func (c *clients) register(svc *bootstrap.Service) {
	svc.RegisterCloser(cache.ProbeName, c.cache.Close)
	svc.RegisterCloser(store.ProbeName, c.store.Close)
}

func (c *clients) Close() error {
	var errs []error
	if c.store != nil {
		errs = append(errs, c.store.Close())
	}
	if c.cache != nil {
		errs = append(errs, c.cache.Close())
	}
	return errors.Join(errs...)
}

// startupTimeout bounds the migration and the initial search check.
const startupTimeout = 10 * time.Second
