// Package db defines the storage facade over the vector index backend.
package db

import (
	"context"
	"time"
)

// Store is the database facade for the chunk corpus. Consumers depend on the
// narrow sub-interfaces, not on Store itself (ISP).
type Store interface {
	Pinger
	HashWriter
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashWriter persists flat hash records.
type HashWriter interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides KNN search over FT indexes.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}
