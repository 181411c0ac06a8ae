package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/domain/schema"
	"github.com/kailas-cloud/facetdex/internal/domain/search/compile"
	"github.com/kailas-cloud/facetdex/internal/domain/search/params"
	"github.com/kailas-cloud/facetdex/internal/domain/search/query"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
)

// Request is one search call against an entity.
type Request struct {
	Params params.Params
	// Sort replaces the entity's default sort when non-nil.
	Sort []query.Sort
	// PerPage overrides the entity and service defaults when non-nil; 0 returns everything.
	PerPage         *int
	Page            int
	AdditionalQuery query.Fragment
	AdditionalMust  []query.Clause
}

// Limits holds service-wide page size settings.
type Limits struct {
	// DefaultPerPage applies when neither the request nor the entity sets a page size.
	DefaultPerPage int
	// MaxPerPage caps a requested page size; 0 disables the cap.
	MaxPerPage int
}

// Compiled holds the queries a request compiles to.
type Compiled struct {
	Primary query.Query
	Facets  map[string]query.Query
}

// Service runs faceted searches.
type Service struct {
	entities EntityReader
	exec     Executor
	hydrator Hydrator
	limits   Limits
}

// New creates a search service.
func New(entities EntityReader, exec Executor, hydrator Hydrator, limits Limits) *Service {
	return &Service{entities: entities, exec: exec, hydrator: hydrator, limits: limits}
}

// Open resolves the entity and returns a search instance for the request.
func (s *Service) Open(ctx context.Context, entityName string, req Request) (*Search, error) {
	e, err := s.entities.Get(ctx, entityName)
	if err != nil {
		return nil, fmt.Errorf("get entity: %w", err)
	}
	return NewSearch(e, req.Params, s.options(e, req), s.exec, s.hydrator), nil
}

// Search executes hits and facets concurrently.
func (s *Service) Search(ctx context.Context, entityName string, req Request) (result.Result, error) {
	srch, err := s.Open(ctx, entityName, req)
	if err != nil {
		return result.Result{}, err
	}
	res, err := srch.Result(ctx)
	if err != nil {
		return result.Result{}, fmt.Errorf("search %s: %w", entityName, err)
	}
	return res, nil
}

// Compile returns the queries a request would execute, without executing them.
func (s *Service) Compile(ctx context.Context, entityName string, req Request) (Compiled, error) {
	e, err := s.entities.Get(ctx, entityName)
	if err != nil {
		return Compiled{}, fmt.Errorf("get entity: %w", err)
	}
	c := compile.New(e, req.Params, s.options(e, req))
	return Compiled{Primary: c.Primary(), Facets: c.Facets()}, nil
}

// Entities lists the registered entities.
func (s *Service) Entities(ctx context.Context) []schema.Entity {
	return s.entities.List(ctx)
}

func (s *Service) options(e schema.Entity, req Request) compile.Options {
	order := req.Sort
	if order == nil {
		order = e.Sort()
	}

	must := append(rawClauses(e.Must()), req.AdditionalMust...)

	return compile.Options{
		PerPage:         s.perPage(e, req.PerPage),
		Page:            req.Page,
		Sort:            order,
		AdditionalQuery: req.AdditionalQuery,
		AdditionalMust:  must,
	}
}

// perPage resolves the page size: request, then entity, then service default.
// Only an explicit request value is capped.
func (s *Service) perPage(e schema.Entity, requested *int) int {
	if requested != nil {
		n := *requested
		if s.limits.MaxPerPage > 0 && n > s.limits.MaxPerPage {
			n = s.limits.MaxPerPage
		}
		return n
	}
	if e.PerPage() > 0 {
		return e.PerPage()
	}
	return s.limits.DefaultPerPage
}

// rawClauses converts raw JSON objects into query clauses.
func rawClauses(raws []json.RawMessage) []query.Clause {
	out := make([]query.Clause, len(raws))
	for i, r := range raws {
		out[i] = query.Raw(r)
	}
	return out
}
