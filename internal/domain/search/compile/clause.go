package compile

import (
	"github.com/kailas-cloud/facetdex/internal/domain/schema/field"
	"github.com/kailas-cloud/facetdex/internal/domain/search/params"
	"github.com/kailas-cloud/facetdex/internal/domain/search/query"
)

// FieldClauses compiles one field's selected value into must clauses.
// An empty result means the field does not filter. Terms fields without the
// or operator yield one clause per value so that every value is required.
func FieldClauses(f field.Field, v params.Value) []query.Clause {
	if v.IsBlank() {
		return nil
	}
	switch f.Kind() {
	case field.MultiMatch:
		return multiMatchClauses(f, v)
	case field.Term:
		return termClauses(f, v)
	case field.Terms:
		return termsClauses(f, v)
	case field.Match:
		return matchClauses(f, v)
	case field.Range:
		return rangeClauses(f, v)
	default:
		return nil
	}
}

func multiMatchClauses(f field.Field, v params.Value) []query.Clause {
	if v.Shape() == params.Bounds || len(f.Paths()) == 0 {
		return nil
	}
	return []query.Clause{query.MultiMatch{Fields: f.Paths(), Text: v.Text()}}
}

func termClauses(f field.Field, v params.Value) []query.Clause {
	if v.Shape() == params.Bounds || f.Path() == "" {
		return nil
	}
	sel := v.Select()
	// A list left empty by "none" still filters, on no values.
	if sel.IsEmpty() && !sel.Multi {
		return nil
	}

	var exact query.Clause
	if sel.Multi {
		exact = query.Terms{Field: f.Path(), Values: sel.Values}
	} else {
		exact = query.Term{Field: f.Path(), Value: sel.Values[0]}
	}
	if sel.Missing {
		return []query.Clause{query.AnyOf(query.Missing(f.Path()), exact)}
	}
	return []query.Clause{exact}
}

func termsClauses(f field.Field, v params.Value) []query.Clause {
	values := v.Strings()
	if len(values) == 0 || f.Path() == "" {
		return nil
	}
	clauses := make([]query.Clause, len(values))
	for i, val := range values {
		clauses[i] = query.Term{Field: f.Path(), Value: val}
	}
	if f.Operator() == field.Or {
		return []query.Clause{query.AnyOf(clauses...)}
	}
	return clauses
}

func matchClauses(f field.Field, v params.Value) []query.Clause {
	if v.Shape() == params.Bounds || f.Path() == "" {
		return nil
	}
	return []query.Clause{query.Match{Field: f.Path(), Text: v.Text()}}
}

func rangeClauses(f field.Field, v params.Value) []query.Clause {
	gte, lte := v.Bounds()
	if (gte == nil && lte == nil) || f.Path() == "" {
		return nil
	}
	return []query.Clause{query.Range{Field: f.Path(), GTE: gte, LTE: lte}}
}
