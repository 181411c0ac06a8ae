package query

import (
	"encoding/json"
	"errors"
)

// Clause is one node of a compiled backend query.
// The set of implementations is closed: Term, Terms, Match, MultiMatch,
// Range, Exists, MatchAll, Bool and Raw.
type Clause interface {
	json.Marshaler
	isClause()
}

var (
	_ Clause = Term{}
	_ Clause = Terms{}
	_ Clause = Match{}
	_ Clause = MultiMatch{}
	_ Clause = Range{}
	_ Clause = Exists{}
	_ Clause = MatchAll{}
	_ Clause = Bool{}
	_ Clause = Raw(nil)
)

// Term is an exact match on a single value.
type Term struct {
	Field string
	Value string
}

func (Term) isClause() {}

// MarshalJSON encodes {"term": {field: value}}.
func (c Term) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"term": map[string]string{c.Field: c.Value}})
}

// Terms is an exact match on any of several values.
type Terms struct {
	Field  string
	Values []string
}

func (Terms) isClause() {}

// MarshalJSON encodes {"terms": {field: [values]}}.
func (c Terms) MarshalJSON() ([]byte, error) {
	values := c.Values
	if values == nil {
		values = []string{}
	}
	return json.Marshal(map[string]any{"terms": map[string][]string{c.Field: values}})
}

// Match is a partial text match on one field.
type Match struct {
	Field string
	Text  string
}

func (Match) isClause() {}

// MarshalJSON encodes {"match": {field: text}}.
func (c Match) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"match": map[string]string{c.Field: c.Text}})
}

// MultiMatch is a most_fields match over several fields requiring every query term.
type MultiMatch struct {
	Fields []string
	Text   string
}

func (MultiMatch) isClause() {}

// MarshalJSON encodes the multi_match clause with most_fields scoring and the and operator.
func (c MultiMatch) MarshalJSON() ([]byte, error) {
	fields := c.Fields
	if fields == nil {
		fields = []string{}
	}
	return json.Marshal(map[string]any{"multi_match": multiMatchBody{
		Query:    c.Text,
		Type:     "most_fields",
		Fields:   fields,
		Operator: "and",
	}})
}

type multiMatchBody struct {
	Query    string   `json:"query"`
	Type     string   `json:"type"`
	Fields   []string `json:"fields"`
	Operator string   `json:"operator"`
}

// Range is an inclusive integer range; nil bounds are open.
type Range struct {
	Field string
	GTE   *int64
	LTE   *int64
}

func (Range) isClause() {}

// MarshalJSON encodes {"range": {field: {"gte": n, "lte": m}}}.
func (c Range) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"range": map[string]rangeBounds{
		c.Field: {GTE: c.GTE, LTE: c.LTE},
	}})
}

type rangeBounds struct {
	GTE *int64 `json:"gte,omitempty"`
	LTE *int64 `json:"lte,omitempty"`
}

// Exists matches documents where the field is present.
type Exists struct {
	Field string
}

func (Exists) isClause() {}

// MarshalJSON encodes {"exists": {"field": field}}.
func (c Exists) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"exists": map[string]string{"field": c.Field}})
}

// MatchAll matches every document.
type MatchAll struct{}

func (MatchAll) isClause() {}

// MarshalJSON encodes {"match_all": {}}.
func (MatchAll) MarshalJSON() ([]byte, error) {
	return []byte(`{"match_all":{}}`), nil
}

// Bool combines clauses: all of Must, at least one of Should, none of MustNot.
type Bool struct {
	Must    []Clause
	Should  []Clause
	MustNot []Clause
}

func (Bool) isClause() {}

// MarshalJSON encodes {"bool": {...}} omitting empty groups.
func (c Bool) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"bool": boolBody(c)})
}

type boolBody struct {
	Must    []Clause `json:"must,omitempty"`
	Should  []Clause `json:"should,omitempty"`
	MustNot []Clause `json:"must_not,omitempty"`
}

// Raw is a caller-supplied backend clause passed through verbatim.
type Raw json.RawMessage

func (Raw) isClause() {}

// MarshalJSON returns the raw bytes.
func (c Raw) MarshalJSON() ([]byte, error) {
	if len(c) == 0 {
		return nil, errors.New("query: empty raw clause")
	}
	return []byte(c), nil
}

// AnyOf is a disjunction of the given clauses.
func AnyOf(clauses ...Clause) Bool {
	return Bool{Should: clauses}
}

// Missing matches documents where the field is absent.
func Missing(field string) Bool {
	return Bool{MustNot: []Clause{Exists{Field: field}}}
}
