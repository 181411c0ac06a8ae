package db

import "github.com/kailas-cloud/facetdex/internal/domain/search/query"

// SearchRequest is one compiled query addressed to one index.
type SearchRequest struct {
	Index string
	Query query.Query
}

// SearchResponse is the output of a search operation.
type SearchResponse struct {
	Total        int64
	Hits         []SearchHit
	Aggregations map[string][]AggregationBucket
}

// SearchHit is a single document hit.
type SearchHit struct {
	ID     string
	Index  string
	Score  float64
	Source map[string]any
}

// AggregationBucket is one terms aggregation entry.
type AggregationBucket struct {
	Key      string
	DocCount int64
}

// Document is one document to store in an embedded index.
type Document struct {
	ID     string
	Source map[string]any
}
