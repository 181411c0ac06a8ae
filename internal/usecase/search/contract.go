package search

import (
	"context"

	"github.com/kailas-cloud/facetdex/internal/domain/schema"
	"github.com/kailas-cloud/facetdex/internal/domain/search/query"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
)

// Executor runs one compiled query against a backend index.
type Executor interface {
	Execute(ctx context.Context, index string, q query.Query) (*result.Response, error)
}

// Hydrator turns raw hits into records.
type Hydrator interface {
	Hydrate(ctx context.Context, hits []result.Hit) ([]result.Record, error)
}

// EntityReader resolves search entities by name.
type EntityReader interface {
	Get(ctx context.Context, name string) (schema.Entity, error)
	List(ctx context.Context) []schema.Entity
}
