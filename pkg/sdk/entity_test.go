package facetdex

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/domain/schema/field"
)

func TestEntity_Build(t *testing.T) {
	e := NewEntity("products", "catalog").
		Term("category", "cat", Facet(), IncludeInSearch()).
		Terms("tag", "tags", Facet(), Or()).
		MultiMatch("q", []string{"title", "brand.name"}).
		Range("price", "price").
		PerPage(25).
		SortBy("price", Desc).
		Must(json.RawMessage(`{"term":{"visible":true}}`))

	se, err := e.build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if se.Name() != "products" || se.Index() != "catalog" || se.PerPage() != 25 {
		t.Errorf("entity = %s/%s/%d", se.Name(), se.Index(), se.PerPage())
	}
	if len(se.Fields()) != 4 || len(se.Sort()) != 1 || len(se.Must()) != 1 {
		t.Fatalf("fields/sort/must = %d/%d/%d", len(se.Fields()), len(se.Sort()), len(se.Must()))
	}

	cat, _ := se.FieldByName("category")
	if !cat.IsFacet() || !cat.IncludeInSearch() || cat.Kind() != field.Term {
		t.Errorf("category = %+v", cat)
	}
	tag, _ := se.FieldByName("tag")
	if tag.Operator() != field.Or {
		t.Errorf("tag operator = %s, want or", tag.Operator())
	}
	q, _ := se.FieldByName("q")
	if len(q.Paths()) != 2 || q.IsFacet() {
		t.Errorf("q = %+v", q)
	}
}

func TestEntity_BuildDuplicateField(t *testing.T) {
	_, err := NewEntity("products", "products").
		Term("category", "cat").
		Match("category", "title").
		build()
	if !errors.Is(err, ErrInvalidSchema) {
		t.Errorf("err = %v, want ErrInvalidSchema", err)
	}
}
