// Package search defines the full-text index that mirrors notes.
package search

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mocks/mock_search.go -package=mocks github.com/damianoneill/notesvc/pkg/domain/search Index

// DefaultIndex is the index name used when none is configured.
const DefaultIndex = "notes"

// DefaultSize is the maximum number of hits returned by a query.
const DefaultSize = 10

// Document is the indexed form of a note.
type Document struct {
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Hit is a single query match.
type Hit struct {
	ID        string  `json:"id"`
	Score     float64 `json:"score"`
	Body      string  `json:"body"`
	CreatedAt string  `json:"created_at,omitempty"`
}

// Index stores and queries documents.
type Index interface {
	// Info succeeds when the search cluster answers.
	Info(ctx context.Context) error

	// EnsureIndex creates the index with its mapping. An existing index
	// is not an error.
	EnsureIndex(ctx context.Context) error

	// IndexDocument adds doc to the index. With refresh set the document
	// is searchable when the call returns.
	IndexDocument(ctx context.Context, doc Document, refresh bool) error

	// Refresh makes all indexed documents searchable.
	Refresh(ctx context.Context) error

	// Search runs a match query on the body field.
	Search(ctx context.Context, query string, size int) ([]Hit, error)
}
