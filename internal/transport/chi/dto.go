package chi

import (
	"encoding/json"

	"github.com/kailas-cloud/facetdex/internal/domain/schema"
	"github.com/kailas-cloud/facetdex/internal/domain/search/query"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeEntityNotFound   ErrorCode = "entity_not_found"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeUnsupportedQuery ErrorCode = "unsupported_query"
	ErrorCodeBackendError     ErrorCode = "backend_error"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SortOrder is one sort key of a search request.
type SortOrder struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// SearchRequest is the body of POST /entities/{entity}/search.
type SearchRequest struct {
	Params          map[string]any    `json:"params"`
	Sort            []SortOrder       `json:"sort,omitempty"`
	PerPage         *int              `json:"per_page,omitempty"`
	Page            int               `json:"page,omitempty"`
	AdditionalQuery map[string]any    `json:"additional_query,omitempty"`
	AdditionalMust  []json.RawMessage `json:"additional_must,omitempty"`
}

// Object is one hydrated hit.
type Object struct {
	ID     string         `json:"id"`
	Index  string         `json:"index"`
	Score  float64        `json:"score"`
	Fields map[string]any `json:"fields"`
}

// Hits is one page of objects.
type Hits struct {
	Objects   []Object `json:"objects"`
	TotalHits int64    `json:"total_hits"`
	TotalPage *int64   `json:"total_page,omitempty"`
}

// Facet is one facet entry; Options is absent for non-aggregated fields.
type Facet struct {
	Name    string   `json:"name"`
	Options []string `json:"options,omitempty"`
}

// SearchResponse is the shaped search result.
type SearchResponse struct {
	Hits   Hits    `json:"hits"`
	Facets []Facet `json:"facets"`
}

// ExplainResponse lists the compiled backend queries.
type ExplainResponse struct {
	Primary query.Query            `json:"primary"`
	Facets  map[string]query.Query `json:"facets"`
}

// Field describes one entity field.
type Field struct {
	Name            string   `json:"name"`
	Paths           []string `json:"field"`
	Type            string   `json:"type"`
	Facet           bool     `json:"facet"`
	IncludeInSearch bool     `json:"include_in_search,omitempty"`
	Operator        string   `json:"operator"`
}

// Entity describes a searchable entity.
type Entity struct {
	Name    string  `json:"name"`
	Index   string  `json:"index"`
	PerPage int     `json:"per_page,omitempty"`
	Fields  []Field `json:"fields"`
}

// EntityListResponse is the body of GET /entities.
type EntityListResponse struct {
	Items []Entity `json:"items"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func resultToResponse(r result.Result) SearchResponse {
	objects := make([]Object, len(r.Hits.Objects))
	for i, rec := range r.Hits.Objects {
		objects[i] = Object{ID: rec.ID(), Index: rec.Index(), Score: rec.Score(), Fields: rec.Fields()}
	}
	facets := make([]Facet, len(r.Facets))
	for i, f := range r.Facets {
		facets[i] = Facet{Name: f.Name, Options: f.Options}
	}
	return SearchResponse{
		Hits: Hits{
			Objects:   objects,
			TotalHits: r.Hits.TotalHits,
			TotalPage: r.Hits.TotalPages,
		},
		Facets: facets,
	}
}

func entityToResponse(e schema.Entity) Entity {
	fields := make([]Field, 0, len(e.Fields()))
	for _, f := range e.Fields() {
		fields = append(fields, Field{
			Name:            f.Name(),
			Paths:           f.Paths(),
			Type:            string(f.Kind()),
			Facet:           f.IsFacet(),
			IncludeInSearch: f.IncludeInSearch(),
			Operator:        string(f.Operator()),
		})
	}
	return Entity{Name: e.Name(), Index: e.Index(), PerPage: e.PerPage(), Fields: fields}
}
