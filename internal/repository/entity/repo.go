package entity

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/schema"
)

// Repo is the in-memory entity registry. It is read-only after construction.
type Repo struct {
	byName map[string]schema.Entity
	order  []schema.Entity
}

// New creates a registry; entity names must be unique.
func New(entities ...schema.Entity) (*Repo, error) {
	r := &Repo{byName: make(map[string]schema.Entity, len(entities))}
	for _, e := range entities {
		if _, ok := r.byName[e.Name()]; ok {
			return nil, fmt.Errorf("%w: duplicate entity %q", domain.ErrInvalidSchema, e.Name())
		}
		r.byName[e.Name()] = e
		r.order = append(r.order, e)
	}
	return r, nil
}

// Get returns the entity by name.
func (r *Repo) Get(_ context.Context, name string) (schema.Entity, error) {
	e, ok := r.byName[name]
	if !ok {
		return schema.Entity{}, fmt.Errorf("entity %q: %w", name, domain.ErrNotFound)
	}
	return e, nil
}

// List returns all entities in registration order.
func (r *Repo) List(context.Context) []schema.Entity {
	return append([]schema.Entity(nil), r.order...)
}
