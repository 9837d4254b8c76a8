// Package search provides the Elasticsearch note index and its readiness probe.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/damianoneill/notesvc/pkg/domain/health"
	"github.com/damianoneill/notesvc/pkg/domain/options"
	"github.com/damianoneill/notesvc/pkg/domain/search"
)

// ProbeName identifies the search index in readiness reports.
const ProbeName = "search"

const (
	tracerName            = "github.com/damianoneill/notesvc/pkg/adapter/search"
	indexAlreadyExistsErr = "resource_already_exists_exception"
)

var (
	errEmptyIndex      = errors.New("index name cannot be empty")
	errEmptyQuery      = errors.New("query cannot be empty")
	errOperation       = errors.New("elasticsearch operation error")
	errMarshaling      = errors.New("error marshaling data")
	errParsingResponse = errors.New("error parsing response")
	errResponse        = errors.New("invalid elasticsearch response")
)

// indexMapping is the body used to create the notes index.
var indexMapping = map[string]any{
	"settings": map[string]any{
		"number_of_shards":   1,
		"number_of_replicas": 0,
	},
	"mappings": map[string]any{
		"properties": map[string]any{
			"body":       map[string]any{"type": "text"},
			"created_at": map[string]any{"type": "date"},
		},
	},
}

// Options configures the Elasticsearch client.
type Options struct {
	Addresses []string
	Username  string
	Password  string

	// Index is the index all documents are written to.
	Index string

	// ProbeTimeout bounds each readiness probe.
	ProbeTimeout time.Duration

	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// Option is a function that modifies Options
type Option = options.Option[Options]

// DefaultOptions returns same-host connection defaults.
func DefaultOptions() Options {
	return Options{
		Addresses:    []string{"http://localhost:9200"},
		Index:        search.DefaultIndex,
		ProbeTimeout: 2 * time.Second,
	}
}

// WithAddresses sets the cluster node URLs.
func WithAddresses(addrs ...string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		if len(addrs) == 0 {
			return fmt.Errorf("at least one elasticsearch address is required")
		}
		o.Addresses = addrs
		return nil
	})
}

// WithBasicAuth sets credentials for the cluster.
func WithBasicAuth(username, password string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Username = username
		o.Password = password
		return nil
	})
}

// WithIndex sets the index name.
func WithIndex(index string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		if strings.TrimSpace(index) == "" {
			return errEmptyIndex
		}
		o.Index = index
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

// WithTransport overrides the HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Transport = rt
		return nil
	})
}

// Client implements search.Index against a single index.
type Client struct {
	es           *es.Client
	index        string
	tracer       trace.Tracer
	probeTimeout time.Duration
}

var _ search.Index = (*Client)(nil)

// New creates the client. No request is made until first use.
func New(opts ...Option) (*Client, error) {
	o := DefaultOptions()
	if err := options.Apply(&o, opts...); err != nil {
		return nil, fmt.Errorf("applying option: %w", err)
	}

	client, err := es.NewClient(es.Config{
		Addresses: o.Addresses,
		Username:  o.Username,
		Password:  o.Password,
		Transport: o.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("creating elasticsearch client: %w", err)
	}

	return &Client{
		es:           client,
		index:        o.Index,
		tracer:       otel.Tracer(tracerName),
		probeTimeout: o.ProbeTimeout,
	}, nil
}

func (c *Client) startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "elasticsearch."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "elasticsearch"),
			attribute.String("db.elasticsearch.index", c.index),
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

// do executes req, wrapping transport failures with errOperation.
func (c *Client) do(ctx context.Context, req esapi.Request, op string) (*esapi.Response, error) {
	res, err := req.Do(ctx, c.es)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errOperation, op, err)
	}
	return res, nil
}

// Info succeeds when the cluster answers its root endpoint.
func (c *Client) Info(ctx context.Context) (err error) {
	ctx, span := c.startSpan(ctx, "info")
	defer func() { endSpan(span, err) }()

	res, err := c.do(ctx, esapi.InfoRequest{}, "info")
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: %s", errResponse, res.String())
	}
	return nil
}

// EnsureIndex creates the index with its mapping, tolerating an existing one.
func (c *Client) EnsureIndex(ctx context.Context) (err error) {
	ctx, span := c.startSpan(ctx, "create-index")
	defer func() { endSpan(span, err) }()

	body, err := json.Marshal(indexMapping)
	if err != nil {
		return fmt.Errorf("%w: mapping: %w", errMarshaling, err)
	}

	res, err := c.do(ctx, esapi.IndicesCreateRequest{
		Index: c.index,
		Body:  bytes.NewReader(body),
	}, "creating index")
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if !res.IsError() {
		return nil
	}

	payload, _ := io.ReadAll(res.Body)
	if res.StatusCode == http.StatusBadRequest && errorType(payload) == indexAlreadyExistsErr {
		return nil
	}
	return fmt.Errorf("%w: [%d] %s", errResponse, res.StatusCode, strings.TrimSpace(string(payload)))
}

// errorType extracts error.type from an Elasticsearch error body.
func errorType(payload []byte) string {
	var e struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(payload, &e); err != nil {
		return ""
	}
	return e.Error.Type
}

// IndexDocument adds doc under a generated id.
func (c *Client) IndexDocument(ctx context.Context, doc search.Document, refresh bool) (err error) {
	ctx, span := c.startSpan(ctx, "index-document")
	defer func() { endSpan(span, err) }()

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: document: %w", errMarshaling, err)
	}

	req := esapi.IndexRequest{
		Index: c.index,
		Body:  bytes.NewReader(body),
	}
	if refresh {
		req.Refresh = "true"
	}

	res, err := c.do(ctx, req, "indexing document")
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: %s", errResponse, res.String())
	}
	return nil
}

// Refresh makes indexed documents searchable.
func (c *Client) Refresh(ctx context.Context) (err error) {
	ctx, span := c.startSpan(ctx, "refresh")
	defer func() { endSpan(span, err) }()

	res, err := c.do(ctx, esapi.IndicesRefreshRequest{Index: []string{c.index}}, "refreshing index")
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: %s", errResponse, res.String())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string   `json:"_id"`
			Score  *float64 `json:"_score"`
			Source struct {
				Body      string `json:"body"`
				CreatedAt string `json:"created_at"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs a match query on body and returns at most size hits.
func (c *Client) Search(ctx context.Context, query string, size int) (_ []search.Hit, err error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errEmptyQuery
	}
	if size <= 0 {
		size = search.DefaultSize
	}

	ctx, span := c.startSpan(ctx, "search")
	defer func() { endSpan(span, err) }()

	body, err := json.Marshal(map[string]any{
		"query": map[string]any{
			"match": map[string]any{"body": query},
		},
		"size": size,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", errMarshaling, err)
	}

	res, err := c.do(ctx, esapi.SearchRequest{
		Index: []string{c.index},
		Body:  bytes.NewReader(body),
	}, "searching")
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", errResponse, res.String())
	}

	var sr searchResponse
	if err = json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("%w: %w", errParsingResponse, err)
	}

	hits := make([]search.Hit, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		hit := search.Hit{
			ID:        h.ID,
			Body:      h.Source.Body,
			CreatedAt: h.Source.CreatedAt,
		}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		hits = append(hits, hit)
	}
	span.SetAttributes(attribute.Int("db.elasticsearch.hits", len(hits)))

	return hits, nil
}

// Probe returns the readiness probe bound to this client.
func (c *Client) Probe() health.Probe {
	return health.NewProbe(ProbeName, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
		defer cancel()
		return c.Info(ctx)
	})
}
