package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain/search/query"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResponse, error)
}

// Repo implements usecase/search.Executor over a backend store.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Execute runs one compiled query against index.
func (r *Repo) Execute(ctx context.Context, index string, q query.Query) (*result.Response, error) {
	resp, err := r.store.Search(ctx, &db.SearchRequest{Index: index, Query: q})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}
	return toResponse(resp), nil
}

func toResponse(resp *db.SearchResponse) *result.Response {
	out := &result.Response{
		Total: resp.Total,
		Hits:  make([]result.Hit, len(resp.Hits)),
	}
	for i, h := range resp.Hits {
		out.Hits[i] = result.Hit{ID: h.ID, Index: h.Index, Score: h.Score, Source: h.Source}
	}
	if resp.Aggregations != nil {
		out.Aggregations = make(map[string][]result.Bucket, len(resp.Aggregations))
	}
	for name, buckets := range resp.Aggregations {
		bs := make([]result.Bucket, len(buckets))
		for i, b := range buckets {
			bs[i] = result.Bucket{Key: b.Key, DocCount: b.DocCount}
		}
		out.Aggregations[name] = bs
	}
	return out
}
