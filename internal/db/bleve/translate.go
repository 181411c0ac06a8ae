package bleve

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	bq "github.com/blevesearch/bleve/v2/search/query"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain/search/query"
)

// translate converts a compiled query root into a bleve query.
// A nil clause matches everything.
func translate(c query.Clause) (bq.Query, error) {
	switch t := c.(type) {
	case nil:
		return bleve.NewMatchAllQuery(), nil
	case query.MatchAll:
		return bleve.NewMatchAllQuery(), nil
	case query.Term:
		return term(t.Field, t.Value), nil
	case query.Terms:
		if len(t.Values) == 0 {
			return bleve.NewMatchNoneQuery(), nil
		}
		qs := make([]bq.Query, len(t.Values))
		for i, v := range t.Values {
			qs[i] = term(t.Field, v)
		}
		return bleve.NewDisjunctionQuery(qs...), nil
	case query.Match:
		mq := bleve.NewMatchQuery(t.Text)
		mq.SetField(t.Field)
		return mq, nil
	case query.MultiMatch:
		if len(t.Fields) == 0 {
			return bleve.NewMatchNoneQuery(), nil
		}
		qs := make([]bq.Query, len(t.Fields))
		for i, f := range t.Fields {
			mq := bleve.NewMatchQuery(t.Text)
			mq.SetField(f)
			mq.SetOperator(bq.MatchQueryOperatorAnd)
			qs[i] = mq
		}
		return bleve.NewDisjunctionQuery(qs...), nil
	case query.Range:
		inclusive := true
		rq := bleve.NewNumericRangeInclusiveQuery(toFloat(t.GTE), toFloat(t.LTE), &inclusive, &inclusive)
		rq.SetField(t.Field)
		return rq, nil
	case query.Exists:
		wq := bleve.NewWildcardQuery("*")
		wq.SetField(t.Field)
		return wq, nil
	case query.Bool:
		return translateBool(t)
	case query.Raw:
		q, err := bq.ParseQuery(t)
		if err != nil {
			return nil, fmt.Errorf("%w: raw clause: %w", db.ErrUnsupportedQuery, err)
		}
		return q, nil
	default:
		return nil, fmt.Errorf("%w: clause %T", db.ErrUnsupportedQuery, c)
	}
}

// translateBool keeps bool semantics: should is required when there is no
// must, and a must_not-only bool matches everything else.
func translateBool(b query.Bool) (bq.Query, error) {
	must, err := translateAll(b.Must)
	if err != nil {
		return nil, err
	}
	should, err := translateAll(b.Should)
	if err != nil {
		return nil, err
	}
	mustNot, err := translateAll(b.MustNot)
	if err != nil {
		return nil, err
	}

	out := bleve.NewBooleanQuery()
	switch {
	case len(must) > 0:
		out.AddMust(must...)
		if len(should) > 0 {
			out.AddShould(should...)
		}
	case len(should) > 0:
		out.AddMust(bleve.NewDisjunctionQuery(should...))
	default:
		out.AddMust(bleve.NewMatchAllQuery())
	}
	if len(mustNot) > 0 {
		out.AddMustNot(mustNot...)
	}
	return out, nil
}

func translateAll(clauses []query.Clause) ([]bq.Query, error) {
	out := make([]bq.Query, 0, len(clauses))
	for _, c := range clauses {
		q, err := translate(c)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func term(field, value string) bq.Query {
	tq := bleve.NewTermQuery(value)
	tq.SetField(field)
	return tq
}

func toFloat(n *int64) *float64 {
	if n == nil {
		return nil
	}
	f := float64(*n)
	return &f
}

// sortOrder converts sort keys into bleve sort strings ("-field" for descending).
func sortOrder(sorts []query.Sort) []string {
	out := make([]string, 0, len(sorts))
	for _, s := range sorts {
		if s.Order == query.Desc {
			out = append(out, "-"+s.Field)
			continue
		}
		out = append(out, s.Field)
	}
	return out
}
