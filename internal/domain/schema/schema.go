package schema

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/schema/field"
	"github.com/kailas-cloud/facetdex/internal/domain/search/query"
)

// MaxFields caps the number of facets per entity.
const MaxFields = 128

// Entity is one searchable entity: a backend index plus its ordered field schema
// and the search defaults configured for it.
type Entity struct {
	name    string
	index   string
	fields  []field.Field
	perPage int
	sort    []query.Sort
	must    []json.RawMessage
}

// Option configures entity defaults.
type Option func(*Entity)

// WithPerPage sets the default page size. Zero means unset (return everything).
func WithPerPage(n int) Option {
	return func(e *Entity) {
		if n > 0 {
			e.perPage = n
		}
	}
}

// WithSort sets the default sort.
func WithSort(s ...query.Sort) Option {
	return func(e *Entity) { e.sort = append(e.sort, s...) }
}

// WithMust adds raw backend clauses applied to every query of the entity.
func WithMust(clauses ...json.RawMessage) Option {
	return func(e *Entity) { e.must = append(e.must, clauses...) }
}

// New validates addressing (name, index, unique facet names) and creates an Entity.
// Field-level problems are not rejected here; they compile to empty clauses.
func New(name, index string, fields []field.Field, opts ...Option) (Entity, error) {
	if name == "" {
		return Entity{}, fmt.Errorf("%w: entity name is required", domain.ErrInvalidSchema)
	}
	if index == "" {
		return Entity{}, fmt.Errorf("%w: index is required for entity %q", domain.ErrInvalidSchema, name)
	}
	if len(fields) > MaxFields {
		return Entity{}, fmt.Errorf("%w: too many fields in %q (max %d)", domain.ErrInvalidSchema, name, MaxFields)
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.Name() == "" {
			return Entity{}, fmt.Errorf("%w: field name is required in %q", domain.ErrInvalidSchema, name)
		}
		if seen[f.Name()] {
			return Entity{}, fmt.Errorf("%w: duplicate field %q in %q", domain.ErrInvalidSchema, f.Name(), name)
		}
		seen[f.Name()] = true
	}

	e := Entity{
		name:   name,
		index:  index,
		fields: append([]field.Field(nil), fields...),
	}
	for _, o := range opts {
		o(&e)
	}
	return e, nil
}

// Name returns the entity name.
func (e Entity) Name() string { return e.name }

// Index returns the backend index name.
func (e Entity) Index() string { return e.index }

// Fields returns the fields in declaration order.
func (e Entity) Fields() []field.Field { return append([]field.Field(nil), e.fields...) }

// FieldByName looks up a field by facet name.
func (e Entity) FieldByName(name string) (field.Field, bool) {
	for _, f := range e.fields {
		if f.Name() == name {
			return f, true
		}
	}
	return field.Field{}, false
}

// PerPage returns the default page size (0 = unset).
func (e Entity) PerPage() int { return e.perPage }

// Sort returns the default sort.
func (e Entity) Sort() []query.Sort { return append([]query.Sort(nil), e.sort...) }

// Must returns the raw clauses applied to every query of the entity.
func (e Entity) Must() []json.RawMessage { return append([]json.RawMessage(nil), e.must...) }
