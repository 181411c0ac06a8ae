package db

import (
	"context"
	"time"
)

// Backend is a search backend that executes compiled queries.
type Backend interface {
	Pinger
	Searcher
	Close() error
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Searcher executes one compiled query against one index.
type Searcher interface {
	Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
}

// Indexer stores documents in an index. Only embedded backends implement it.
type Indexer interface {
	Index(ctx context.Context, index string, docs []Document) error
}

// HashSetItem holds a single key+fields pair for pipelined HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore provides hash-based key-value operations for record hydration.
type HashStore interface {
	Pinger
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}
