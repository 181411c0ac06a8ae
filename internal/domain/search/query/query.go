package query

import (
	"encoding/json"
	"fmt"
)

// Sort direction constants.
const (
	Asc  = "asc"
	Desc = "desc"
)

// Sort orders hits by one field.
type Sort struct {
	Field string `json:"field" yaml:"field"`
	Order string `json:"order" yaml:"order"`
}

// TermsAggregation collects the distinct values of one field as buckets.
type TermsAggregation struct {
	Name  string
	Field string
	Size  int
}

// Fragment is a raw backend query object supplied by the caller.
type Fragment map[string]any

// Query is a compiled search request body.
//
// The root query is a conjunctive Must list when it has clauses, otherwise
// match-all when MatchAll is set, otherwise absent. Override is applied last
// at encode time: its keys win, nested objects are merged key by key.
type Query struct {
	Size     *int
	From     *int
	MatchAll bool
	Must     []Clause
	Sort     []Sort
	Aggs     []TermsAggregation
	Override Fragment
}

// HasRoot reports whether the query carries a root query clause.
func (q Query) HasRoot() bool {
	return q.MatchAll || len(q.Must) > 0
}

// IsEmpty reports whether q is an empty fragment.
func (q Query) IsEmpty() bool {
	return q.Size == nil && q.From == nil && !q.HasRoot() &&
		len(q.Sort) == 0 && len(q.Aggs) == 0 && len(q.Override) == 0
}

// Root returns the root clause, or nil when there is none.
func (q Query) Root() Clause {
	switch {
	case len(q.Must) > 0:
		return Bool{Must: q.Must}
	case q.MatchAll:
		return MatchAll{}
	default:
		return nil
	}
}

// WithPage sets size and from.
func (q *Query) WithPage(size, from int) {
	q.Size = &size
	q.From = &from
}

// MergeFilter merges the root query of f into q.
func (q *Query) MergeFilter(f Query) {
	q.MatchAll = q.MatchAll || f.MatchAll
	q.MergeMust(f.Must...)
}

// MergeMust appends clauses to the conjunctive list, creating it when absent.
func (q *Query) MergeMust(clauses ...Clause) {
	if len(clauses) == 0 {
		return
	}
	q.Must = append(q.Must, clauses...)
}

// MergeSort appends sort keys.
func (q *Query) MergeSort(s ...Sort) {
	q.Sort = append(q.Sort, s...)
}

// MergeAggregation adds a terms aggregation.
func (q *Query) MergeAggregation(a TermsAggregation) {
	q.Aggs = append(q.Aggs, a)
}

// MergeOverride merges a raw caller fragment. Clauses under query.bool.must
// join the conjunctive list as raw clauses, so they add to the compiled
// filters instead of replacing them. The rest is applied last at encode time.
func (q *Query) MergeOverride(f Fragment) {
	if len(f) == 0 {
		return
	}
	rest, must := liftMust(f)
	q.MergeMust(must...)
	if len(rest) == 0 {
		return
	}
	if q.Override == nil {
		q.Override = Fragment{}
	}
	mergeObjects(q.Override, rest)
}

// liftMust splits query.bool.must out of f without modifying f.
func liftMust(f Fragment) (Fragment, []Clause) {
	qObj, ok := asObject(f["query"])
	if !ok {
		return f, nil
	}
	boolObj, ok := asObject(qObj["bool"])
	if !ok {
		return f, nil
	}
	mv, ok := boolObj["must"]
	if !ok {
		return f, nil
	}

	var items []any
	switch m := mv.(type) {
	case []any:
		items = m
	case []map[string]any:
		for _, it := range m {
			items = append(items, it)
		}
	case []Fragment:
		for _, it := range m {
			items = append(items, it)
		}
	default:
		items = []any{m}
	}
	clauses := make([]Clause, 0, len(items))
	for _, it := range items {
		raw, err := json.Marshal(it)
		if err != nil {
			return f, nil
		}
		clauses = append(clauses, Raw(raw))
	}

	restBool := without(boolObj, "must")
	restQuery := without(qObj, "bool")
	if len(restBool) > 0 {
		restQuery["bool"] = restBool
	}
	rest := Fragment(without(f, "query"))
	if len(restQuery) > 0 {
		rest["query"] = restQuery
	}
	return rest, clauses
}

func without(m map[string]any, key string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k != key {
			out[k] = v
		}
	}
	return out
}

type wireQuery struct {
	Size  *int                    `json:"size,omitempty"`
	From  *int                    `json:"from,omitempty"`
	Query Clause                  `json:"query,omitempty"`
	Sort  []map[string]wireOrder  `json:"sort,omitempty"`
	Aggs  map[string]wireTermsAgg `json:"aggs,omitempty"`
}

type wireOrder struct {
	Order string `json:"order"`
}

type wireTermsAgg struct {
	Terms wireTerms `json:"terms"`
}

type wireTerms struct {
	Field string `json:"field"`
	Size  int    `json:"size"`
}

// MarshalJSON encodes the query in the Elasticsearch request body format.
func (q Query) MarshalJSON() ([]byte, error) {
	w := wireQuery{Size: q.Size, From: q.From, Query: q.Root()}
	for _, s := range q.Sort {
		w.Sort = append(w.Sort, map[string]wireOrder{s.Field: {Order: s.Order}})
	}
	if len(q.Aggs) > 0 {
		w.Aggs = make(map[string]wireTermsAgg, len(q.Aggs))
		for _, a := range q.Aggs {
			w.Aggs[a.Name] = wireTermsAgg{Terms: wireTerms{Field: a.Field, Size: a.Size}}
		}
	}

	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	if len(q.Override) == 0 {
		return data, nil
	}

	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("decode query for override: %w", err)
	}
	mergeObjects(body, q.Override)
	return json.Marshal(body)
}

// mergeObjects merges src into dst: nested objects merge, anything else replaces.
func mergeObjects(dst, src map[string]any) {
	for k, sv := range src {
		srcObj, srcIsObj := asObject(sv)
		dstObj, dstIsObj := asObject(dst[k])
		if srcIsObj && dstIsObj {
			merged := make(map[string]any, len(dstObj))
			for dk, dv := range dstObj {
				merged[dk] = dv
			}
			mergeObjects(merged, srcObj)
			dst[k] = merged
			continue
		}
		dst[k] = sv
	}
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Fragment:
		return m, true
	}
	return nil, false
}
