package entity

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/facetdex/internal/config"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/schema"
	"github.com/kailas-cloud/facetdex/internal/domain/schema/field"
	"github.com/kailas-cloud/facetdex/internal/domain/search/query"
)

// FromConfig builds the registry from configured entities.
func FromConfig(cfgs []config.EntityConfig) (*Repo, error) {
	entities := make([]schema.Entity, 0, len(cfgs))
	for _, c := range cfgs {
		e, err := toEntity(c)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return New(entities...)
}

func toEntity(c config.EntityConfig) (schema.Entity, error) {
	fields := make([]field.Field, 0, len(c.Fields))
	for _, fc := range c.Fields {
		fields = append(fields, toField(fc))
	}

	opts := []schema.Option{schema.WithPerPage(c.PerPage)}
	for _, s := range c.Sort {
		order := s.Order
		if order == "" {
			order = query.Asc
		}
		opts = append(opts, schema.WithSort(query.Sort{Field: s.Field, Order: order}))
	}
	for i, m := range c.AdditionalMust {
		raw, err := json.Marshal(m)
		if err != nil {
			return schema.Entity{}, fmt.Errorf("%w: entity %q additional_must[%d]: %w",
				domain.ErrInvalidSchema, c.Name, i, err)
		}
		opts = append(opts, schema.WithMust(raw))
	}

	return schema.New(c.Name, c.Index, fields, opts...)
}

func toField(fc config.FieldConfig) field.Field {
	var opts []field.Option
	if fc.Facet {
		opts = append(opts, field.Faceted())
	}
	if fc.IncludeInSearch {
		opts = append(opts, field.KeepOwnFilter())
	}
	if fc.Operator != "" {
		opts = append(opts, field.WithOperator(field.Operator(fc.Operator)))
	}
	return field.New(fc.Name, fc.Field, field.Kind(fc.Type), opts...)
}
