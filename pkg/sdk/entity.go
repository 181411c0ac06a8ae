package facetdex

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/domain/schema"
	"github.com/kailas-cloud/facetdex/internal/domain/schema/field"
	"github.com/kailas-cloud/facetdex/internal/domain/search/query"
)

// Sort directions.
const (
	Asc  = query.Asc
	Desc = query.Desc
)

// FieldOption configures one entity field.
type FieldOption struct {
	opt field.Option
}

// Facet aggregates the field's distinct values into facet options.
func Facet() FieldOption { return FieldOption{opt: field.Faceted()} }

// IncludeInSearch keeps the field's own filter when computing its facet options.
// By default a facet's options ignore the field's own selection.
func IncludeInSearch() FieldOption { return FieldOption{opt: field.KeepOwnFilter()} }

// Or matches any of several selected values of a Terms field instead of all of them.
func Or() FieldOption { return FieldOption{opt: field.WithOperator(field.Or)} }

// Entity describes a searchable entity: the index it lives in and the facets
// a search over it accepts. Build it with NewEntity and the field methods.
type Entity struct {
	name    string
	index   string
	perPage int
	sort    []query.Sort
	must    []json.RawMessage
	fields  []field.Field
}

// NewEntity starts an entity definition.
func NewEntity(name, index string) *Entity {
	return &Entity{name: name, index: index}
}

// Term adds an exact-match field. It accepts a single value or a list, plus the
// "none" and "#none" sentinels.
func (e *Entity) Term(name, path string, opts ...FieldOption) *Entity {
	return e.add(name, []string{path}, field.Term, opts)
}

// Terms adds a field where every selected value must match (any with Or).
func (e *Entity) Terms(name, path string, opts ...FieldOption) *Entity {
	return e.add(name, []string{path}, field.Terms, opts)
}

// Match adds a full-text field.
func (e *Entity) Match(name, path string, opts ...FieldOption) *Entity {
	return e.add(name, []string{path}, field.Match, opts)
}

// MultiMatch adds a full-text field searching several paths.
func (e *Entity) MultiMatch(name string, paths []string, opts ...FieldOption) *Entity {
	return e.add(name, paths, field.MultiMatch, opts)
}

// Range adds a numeric field filtered by {"gte": n, "lte": m}.
func (e *Entity) Range(name, path string, opts ...FieldOption) *Entity {
	return e.add(name, []string{path}, field.Range, opts)
}

// PerPage sets the entity's default page size.
func (e *Entity) PerPage(n int) *Entity {
	e.perPage = n
	return e
}

// SortBy appends a default sort key.
func (e *Entity) SortBy(fieldPath, order string) *Entity {
	e.sort = append(e.sort, query.Sort{Field: fieldPath, Order: order})
	return e
}

// Must adds a raw backend clause applied to every query of the entity.
func (e *Entity) Must(clause json.RawMessage) *Entity {
	e.must = append(e.must, clause)
	return e
}

// Name returns the entity name.
func (e *Entity) Name() string { return e.name }

func (e *Entity) add(name string, paths []string, kind field.Kind, opts []FieldOption) *Entity {
	fopts := make([]field.Option, len(opts))
	for i, o := range opts {
		fopts[i] = o.opt
	}
	e.fields = append(e.fields, field.New(name, paths, kind, fopts...))
	return e
}

func (e *Entity) build() (schema.Entity, error) {
	opts := []schema.Option{schema.WithPerPage(e.perPage), schema.WithSort(e.sort...), schema.WithMust(e.must...)}
	se, err := schema.New(e.name, e.index, e.fields, opts...)
	if err != nil {
		return schema.Entity{}, fmt.Errorf("facetdex: entity %q: %w", e.name, err)
	}
	return se, nil
}
