package compile

import (
	"github.com/kailas-cloud/facetdex/internal/domain/schema"
	"github.com/kailas-cloud/facetdex/internal/domain/schema/field"
	"github.com/kailas-cloud/facetdex/internal/domain/search/params"
	"github.com/kailas-cloud/facetdex/internal/domain/search/query"
)

const (
	// UnboundedSize is the page size used when no page size is set.
	UnboundedSize = 10000
	// BucketSize is the number of buckets requested per facet aggregation.
	BucketSize = 9999
)

// Options is the per-search configuration.
type Options struct {
	// PerPage is the page size; zero means unset (return everything).
	PerPage int
	// Page is 1-based; values below 1 read as 1.
	Page            int
	Sort            []query.Sort
	AdditionalQuery query.Fragment
	AdditionalMust  []query.Clause
}

// Compiler turns an entity schema and search params into backend queries.
// It is pure: it never mutates its inputs and performs no I/O.
type Compiler struct {
	entity schema.Entity
	params params.Params
	opts   Options
}

// New creates a compiler.
func New(entity schema.Entity, p params.Params, opts Options) *Compiler {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PerPage < 0 {
		opts.PerPage = 0
	}
	return &Compiler{entity: entity, params: p, opts: opts}
}

// Primary builds the paginated, sorted hits query.
func (c *Compiler) Primary() query.Query {
	var q query.Query
	if c.opts.PerPage > 0 {
		q.WithPage(c.opts.PerPage, (c.opts.Page-1)*c.opts.PerPage)
	} else {
		q.WithPage(UnboundedSize, 0)
	}
	q.MergeFilter(c.Filter(""))
	q.MergeSort(c.opts.Sort...)
	q.MergeOverride(c.opts.AdditionalQuery)
	q.MergeMust(c.opts.AdditionalMust...)
	return q
}

// Filter builds the filter query over every field except exclude ("" excludes nothing).
// Without any params at all, and with no additional query or clauses, it falls
// back to match-all. A filter with no clauses is an empty fragment.
func (c *Compiler) Filter(exclude string) query.Query {
	var q query.Query
	if c.params.IsAbsent() {
		if len(c.opts.AdditionalQuery) == 0 && len(c.opts.AdditionalMust) == 0 {
			q.MatchAll = true
		}
		return q
	}
	for _, f := range c.entity.Fields() {
		if exclude != "" && f.Name() == exclude {
			continue
		}
		v, ok := c.params.Lookup(f.Name())
		if !ok {
			continue
		}
		q.MergeMust(FieldClauses(f, v)...)
	}
	return q
}

// Facet builds the aggregation query for one facet field. The field's own
// filter is excluded unless the field keeps it.
func (c *Compiler) Facet(f field.Field) query.Query {
	exclude := f.Name()
	if f.IncludeInSearch() {
		exclude = ""
	}

	var q query.Query
	size := 0
	q.Size = &size
	q.MergeFilter(c.Filter(exclude))
	q.MergeAggregation(Aggregation(f))
	q.MergeMust(c.opts.AdditionalMust...)
	return q
}

// Facets builds one aggregation query per facet-enabled field, keyed by facet name.
func (c *Compiler) Facets() map[string]query.Query {
	out := make(map[string]query.Query)
	for _, f := range c.entity.Fields() {
		if f.IsFacet() {
			out[f.Name()] = c.Facet(f)
		}
	}
	return out
}

// Aggregation returns the terms aggregation named after the facet.
func Aggregation(f field.Field) query.TermsAggregation {
	return query.TermsAggregation{Name: f.Name(), Field: f.Path(), Size: BucketSize}
}

// PerPage returns the effective page size (0 = unset).
func (c *Compiler) PerPage() int { return c.opts.PerPage }
