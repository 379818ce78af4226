// Package db defines the storage contracts croptalk needs from a Redis Stack
// server: passage hashes, the embedding cache and the FT vector index.
// Repositories depend on the narrow interfaces; internal/db/redis implements all of them.
package db

import (
	"context"
	"time"
)

// Searcher runs filtered nearest-neighbour queries.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}

// IndexManager owns the FT index lifecycle.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// HashSetItem is one hash written by HSetMulti.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore reads and writes passage hashes.
type HashStore interface {
	HSetMulti(ctx context.Context, items []HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
}

// KVStore is plain string storage, used by the embedding cache.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Pinger reports whether the server answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store is everything a driver provides, plus connection lifecycle.
//
//nolint:interfacebloat // consumers use narrow sub-interfaces (ISP)
type Store interface {
	Searcher
	IndexManager
	HashStore
	KVStore
	Pinger
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()
}
