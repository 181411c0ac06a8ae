package query

import (
	"encoding/json"
	"reflect"
	"testing"
)

func assertJSON(t *testing.T, v any, want string) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got, exp any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal got: %v", err)
	}
	if err := json.Unmarshal([]byte(want), &exp); err != nil {
		t.Fatalf("Unmarshal want: %v", err)
	}
	if !reflect.DeepEqual(got, exp) {
		t.Errorf("json = %s\nwant %s", data, want)
	}
}

func int64p(n int64) *int64 { return &n }

func TestClause_MarshalJSON(t *testing.T) {
	tests := []struct {
		name   string
		clause Clause
		want   string
	}{
		{"term", Term{Field: "cat", Value: "shoes"}, `{"term":{"cat":"shoes"}}`},
		{"terms", Terms{Field: "cat", Values: []string{"a", "b"}}, `{"terms":{"cat":["a","b"]}}`},
		{"terms empty", Terms{Field: "cat"}, `{"terms":{"cat":[]}}`},
		{"match", Match{Field: "title", Text: "red boot"}, `{"match":{"title":"red boot"}}`},
		{"multi_match", MultiMatch{Fields: []string{"title", "body"}, Text: "boot"},
			`{"multi_match":{"query":"boot","type":"most_fields","fields":["title","body"],"operator":"and"}}`},
		{"range both", Range{Field: "price", GTE: int64p(10), LTE: int64p(20)}, `{"range":{"price":{"gte":10,"lte":20}}}`},
		{"range gte", Range{Field: "price", GTE: int64p(0)}, `{"range":{"price":{"gte":0}}}`},
		{"exists", Exists{Field: "owner"}, `{"exists":{"field":"owner"}}`},
		{"match_all", MatchAll{}, `{"match_all":{}}`},
		{"missing", Missing("owner"), `{"bool":{"must_not":[{"exists":{"field":"owner"}}]}}`},
		{"any of", AnyOf(Term{Field: "a", Value: "1"}, Term{Field: "a", Value: "2"}),
			`{"bool":{"should":[{"term":{"a":"1"}},{"term":{"a":"2"}}]}}`},
		{"raw", Raw(`{"term":{"active":true}}`), `{"term":{"active":true}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertJSON(t, tt.clause, tt.want)
		})
	}
}

func TestRaw_Empty(t *testing.T) {
	if _, err := json.Marshal(Raw(nil)); err == nil {
		t.Error("expected error for empty raw clause")
	}
}

func TestQuery_Root(t *testing.T) {
	var q Query
	if q.Root() != nil || q.HasRoot() || !q.IsEmpty() {
		t.Fatalf("zero query should be empty: %+v", q)
	}

	q.MatchAll = true
	if _, ok := q.Root().(MatchAll); !ok {
		t.Errorf("Root() = %T, want MatchAll", q.Root())
	}

	q.MergeMust(Term{Field: "a", Value: "b"})
	if _, ok := q.Root().(Bool); !ok {
		t.Errorf("Root() = %T, want Bool", q.Root())
	}
}

func TestQuery_MergeMust(t *testing.T) {
	var q Query
	q.MergeMust()
	if q.Must != nil {
		t.Fatalf("MergeMust() with no clauses created list: %v", q.Must)
	}

	q.MergeMust(Term{Field: "a", Value: "1"})
	if len(q.Must) != 1 {
		t.Fatalf("len(Must) = %d, want 1", len(q.Must))
	}

	q.MergeMust(Term{Field: "b", Value: "2"}, Term{Field: "c", Value: "3"})
	if len(q.Must) != 3 {
		t.Fatalf("len(Must) = %d, want 3", len(q.Must))
	}
}

func TestQuery_MarshalJSON(t *testing.T) {
	var q Query
	q.WithPage(20, 40)
	q.MergeMust(Term{Field: "cat", Value: "shoes"})
	q.MergeSort(Sort{Field: "price", Order: Desc})
	q.MergeAggregation(TermsAggregation{Name: "category", Field: "cat", Size: 9999})

	assertJSON(t, q, `{
		"size": 20,
		"from": 40,
		"query": {"bool": {"must": [{"term": {"cat": "shoes"}}]}},
		"sort": [{"price": {"order": "desc"}}],
		"aggs": {"category": {"terms": {"field": "cat", "size": 9999}}}
	}`)
}

func TestQuery_MarshalJSON_Empty(t *testing.T) {
	assertJSON(t, Query{}, `{}`)
}

func TestQuery_MarshalJSON_Override(t *testing.T) {
	var q Query
	q.WithPage(10, 0)
	q.MergeMust(Term{Field: "cat", Value: "shoes"})
	q.MergeOverride(Fragment{
		"size":             5,
		"track_total_hits": true,
		"query":            map[string]any{"bool": map[string]any{"filter": []any{map[string]any{"term": map[string]any{"active": true}}}}},
	})

	assertJSON(t, q, `{
		"size": 5,
		"from": 0,
		"track_total_hits": true,
		"query": {"bool": {
			"must": [{"term": {"cat": "shoes"}}],
			"filter": [{"term": {"active": true}}]
		}}
	}`)
}

func TestQuery_MergeOverride_LiftsMust(t *testing.T) {
	var q Query
	q.MergeMust(Term{Field: "cat", Value: "shoes"})
	f := Fragment{
		"track_total_hits": true,
		"query": map[string]any{"bool": map[string]any{
			"must":   map[string]any{"term": map[string]any{"x": "1"}},
			"filter": []any{map[string]any{"term": map[string]any{"active": true}}},
		}},
	}
	q.MergeOverride(f)

	if len(q.Must) != 2 {
		t.Fatalf("len(Must) = %d, want 2", len(q.Must))
	}
	assertJSON(t, q, `{
		"track_total_hits": true,
		"query": {"bool": {
			"must": [{"term": {"cat": "shoes"}}, {"term": {"x": "1"}}],
			"filter": [{"term": {"active": true}}]
		}}
	}`)

	inner := f["query"].(map[string]any)["bool"].(map[string]any)
	if _, ok := inner["must"]; !ok {
		t.Error("caller fragment was modified")
	}
}

func TestQuery_MergeOverride_MustOnly(t *testing.T) {
	var q Query
	q.MergeOverride(Fragment{"query": map[string]any{"bool": map[string]any{
		"must": []any{map[string]any{"term": map[string]any{"x": "1"}}},
	}}})

	if q.Override != nil {
		t.Errorf("Override = %v, want nil after lifting every key", q.Override)
	}
	assertJSON(t, q, `{"query": {"bool": {"must": [{"term": {"x": "1"}}]}}}`)
}

func TestQuery_MergeOverride_Accumulates(t *testing.T) {
	var q Query
	q.MergeOverride(nil)
	if q.Override != nil {
		t.Fatalf("empty override created map: %v", q.Override)
	}
	q.MergeOverride(Fragment{"a": map[string]any{"x": 1}})
	q.MergeOverride(Fragment{"a": map[string]any{"y": 2}})

	assertJSON(t, q, `{"a": {"x": 1, "y": 2}}`)
}
