package facetdex

import "encoding/json"

// Sort is one sort key of a search request.
type Sort struct {
	Field string
	Order string // Asc or Desc
}

// SearchRequest is one faceted search.
type SearchRequest struct {
	// Params maps facet names to selections: a string, a list of strings, or
	// a {"gte": n, "lte": m} object for range fields. A nil map means no
	// parameters at all, which matches every document.
	Params map[string]any
	// Sort replaces the entity default sort when non-nil.
	Sort []Sort
	// PerPage overrides the entity page size when non-nil; 0 returns everything.
	PerPage *int
	// Page is 1-based.
	Page int
	// AdditionalQuery is merged into the primary request body last (Elasticsearch only).
	AdditionalQuery map[string]any
	// AdditionalMust are raw backend clauses added to every query.
	AdditionalMust []json.RawMessage
}

// Record is one hydrated hit.
type Record struct {
	ID     string
	Index  string
	Score  float64
	Fields map[string]any
}

// FacetResult is one facet of a search result. Options is nil for fields that
// filter without aggregating.
type FacetResult struct {
	Name    string
	Options []string
}

// SearchResult is one page of records plus the facet list.
type SearchResult struct {
	Records   []Record
	TotalHits int64
	// TotalPages is nil when no page size applies.
	TotalPages *int64
	Facets     []FacetResult
}

// Explanation holds the backend request bodies a search compiles to.
type Explanation struct {
	Primary json.RawMessage
	Facets  map[string]json.RawMessage
}

// Document is a document to index into an embedded backend.
type Document struct {
	ID     string
	Fields map[string]any
}
