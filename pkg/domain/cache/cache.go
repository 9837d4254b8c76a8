// Package cache defines the key-value counter used by the hit-counter endpoint.
package cache

import "context"

//go:generate mockgen -destination=mocks/mock_cache.go -package=mocks github.com/damianoneill/notesvc/pkg/domain/cache Counter

// HitsKey is the key incremented on every cache endpoint request.
const HitsKey = "hits"

// Counter atomically increments integer values.
type Counter interface {
	// Incr increments key by one and returns the new value. A missing key
	// starts at zero.
	Incr(ctx context.Context, key string) (int64, error)
}
