package search

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/schema"
	"github.com/kailas-cloud/facetdex/internal/domain/search/compile"
	"github.com/kailas-cloud/facetdex/internal/domain/search/params"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
)

// cell computes a value at most once and keeps it, error included.
type cell[T any] struct {
	once sync.Once
	val  T
	err  error
}

func (c *cell[T]) get(fn func() (T, error)) (T, error) {
	c.once.Do(func() { c.val, c.err = fn() })
	return c.val, c.err
}

// Search is one search over one entity with fixed params and options.
//
// Hits and Facets each execute their queries on first call only; later calls,
// concurrent ones included, return the stored outcome. The context of the
// first call is the one the backend sees.
type Search struct {
	entity   schema.Entity
	compiler *compile.Compiler
	exec     Executor
	hydrator Hydrator

	hits   cell[result.Page]
	facets cell[[]result.Facet]
}

// NewSearch creates a search instance. Nothing is executed until Hits or Facets is called.
func NewSearch(
	entity schema.Entity, p params.Params, opts compile.Options,
	exec Executor, hydrator Hydrator,
) *Search {
	return &Search{
		entity:   entity,
		compiler: compile.New(entity, p, opts),
		exec:     exec,
		hydrator: hydrator,
	}
}

// Compiler exposes the compiler behind the search.
func (s *Search) Compiler() *compile.Compiler { return s.compiler }

// Hits returns the current page of hydrated hits.
func (s *Search) Hits(ctx context.Context) (result.Page, error) {
	return s.hits.get(func() (result.Page, error) {
		resp, err := s.exec.Execute(ctx, s.entity.Index(), s.compiler.Primary())
		if err != nil {
			return result.Page{}, fmt.Errorf("execute hits query: %w: %w", domain.ErrBackendUnavailable, err)
		}
		if resp == nil {
			resp = &result.Response{}
		}
		records, err := s.hydrator.Hydrate(ctx, resp.Hits)
		if err != nil {
			return result.Page{}, fmt.Errorf("hydrate hits: %w: %w", domain.ErrBackendUnavailable, err)
		}
		return result.ExtractHits(resp, records, s.compiler.PerPage()), nil
	})
}

// Facets returns the facet list. One aggregation query per facet field runs
// concurrently; the first failure cancels the rest.
func (s *Search) Facets(ctx context.Context) ([]result.Facet, error) {
	return s.facets.get(func() ([]result.Facet, error) {
		queries := s.compiler.Facets()
		responses := make(map[string]*result.Response, len(queries))
		var mu sync.Mutex

		g, gctx := errgroup.WithContext(ctx)
		for name, q := range queries {
			g.Go(func() error {
				resp, err := s.exec.Execute(gctx, s.entity.Index(), q)
				if err != nil {
					return fmt.Errorf("execute facet query %s: %w: %w", name, domain.ErrBackendUnavailable, err)
				}
				mu.Lock()
				responses[name] = resp
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err //nolint:wrapcheck // wrapped inside the group
		}
		return result.ExtractFacets(s.entity, responses), nil
	})
}

// Result runs hits and facets concurrently and shapes both.
func (s *Search) Result(ctx context.Context) (result.Result, error) {
	var out result.Result
	var g errgroup.Group
	g.Go(func() error {
		page, err := s.Hits(ctx)
		out.Hits = page
		return err
	})
	g.Go(func() error {
		facets, err := s.Facets(ctx)
		out.Facets = facets
		return err
	})
	if err := g.Wait(); err != nil {
		return result.Result{}, err //nolint:wrapcheck // already wrapped by Hits/Facets
	}
	return out, nil
}
