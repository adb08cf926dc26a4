package db

import (
	"context"
	"time"
)

// Store is the Redis-compatible backend behind the catalog: bulk hash
// writes, name reservations and FT indexes.
type Store interface {
	Pinger
	Writer
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem holds a single key+fields pair for pipelined HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// Writer stores catalog records.
type Writer interface {
	// HSetMulti writes every hash in one round-trip. Not atomic: on error
	// some items may have been written.
	HSetMulti(ctx context.Context, items []HashSetItem) error
	// SetNX stores value only if key is absent. Returns ErrKeyExists otherwise.
	SetNX(ctx context.Context, key string, value []byte) error
	// Del removes keys. Missing keys are not an error.
	Del(ctx context.Context, keys ...string) error
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	// SupportsTextSearch reports whether TEXT fields and full-text queries are available.
	SupportsTextSearch(ctx context.Context) bool
}

// Searcher provides search operations over FT indexes.
type Searcher interface {
	Search(ctx context.Context, q *Query) (*SearchResult, error)
}
