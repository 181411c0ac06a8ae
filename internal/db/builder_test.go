package db

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/domain/schema"
	"github.com/kailas-cloud/facetdex/internal/domain/schema/field"
)

func TestIndexBuilder_Simple(t *testing.T) {
	idx := NewIndex("products").
		Keyword("category").
		Numeric("price").
		Text("title").
		MustBuild()

	if err := idx.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Name != "products" {
		t.Errorf("name = %q, want products", idx.Name)
	}
	if len(idx.Fields) != 3 {
		t.Fatalf("fields count = %d, want 3", len(idx.Fields))
	}
	if idx.Fields[0].Path != "category" || idx.Fields[0].Type != IndexFieldKeyword {
		t.Errorf("field[0] = %+v, want category keyword", idx.Fields[0])
	}
	if idx.Fields[1].Path != "price" || idx.Fields[1].Type != IndexFieldNumeric {
		t.Errorf("field[1] = %+v, want price numeric", idx.Fields[1])
	}
	if idx.Fields[2].Type != IndexFieldText {
		t.Errorf("field[2] = %+v, want text", idx.Fields[2])
	}
}

func TestIndexBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder func() (*IndexDefinition, error)
		wantErr string
	}{
		{
			name: "empty name",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("").Keyword("x").Build()
			},
			wantErr: "index name is required",
		},
		{
			name: "no fields",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Build()
			},
			wantErr: "at least one field",
		},
		{
			name: "invalid characters",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx with spaces").Keyword("x").Build()
			},
			wantErr: "invalid characters",
		},
		{
			name: "duplicate path",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Keyword("x").Text("x").Build()
			},
			wantErr: "duplicate field path",
		},
		{
			name: "empty path",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Keyword("").Build()
			},
			wantErr: "field path is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestIndexDefinition_String(t *testing.T) {
	idx := NewIndex("my-idx").
		Keyword("cat").
		Numeric("price").
		MustBuild()

	s := idx.String()
	if s != "MAPPING my-idx (cat keyword, price numeric)" {
		t.Errorf("String() = %q", s)
	}
}

func TestIndexFromEntity(t *testing.T) {
	e, err := schema.New("products", "products_v1", []field.Field{
		field.New("q", []string{"title", "brand.name"}, field.MultiMatch),
		field.New("category", []string{"cat"}, field.Term, field.Faceted()),
		field.New("tags", []string{"tags"}, field.Terms, field.Faceted()),
		field.New("title", []string{"title"}, field.Match),
		field.New("price", []string{"price"}, field.Range),
		field.New("geo", []string{"loc"}, "geo_distance"),
		field.New("broken", nil, field.Term),
	})
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}

	idx, err := IndexFromEntity(e)
	if err != nil {
		t.Fatalf("IndexFromEntity: %v", err)
	}

	want := []IndexField{
		{Path: "title", Type: IndexFieldText},
		{Path: "brand.name", Type: IndexFieldText},
		{Path: "cat", Type: IndexFieldKeyword},
		{Path: "tags", Type: IndexFieldKeyword},
		{Path: "price", Type: IndexFieldNumeric},
	}
	if idx.Name != "products_v1" {
		t.Errorf("name = %q", idx.Name)
	}
	if len(idx.Fields) != len(want) {
		t.Fatalf("fields = %+v, want %+v", idx.Fields, want)
	}
	for i := range want {
		if idx.Fields[i] != want[i] {
			t.Errorf("field[%d] = %+v, want %+v", i, idx.Fields[i], want[i])
		}
	}
}

func TestIndexFromEntity_NoMappableFields(t *testing.T) {
	e, err := schema.New("products", "idx", []field.Field{field.New("geo", []string{"loc"}, "geo")})
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	if _, err := IndexFromEntity(e); err == nil {
		t.Fatal("expected error for entity without mappable fields")
	}
}

func TestError_Unwrap(t *testing.T) {
	err := &Error{Op: OpSearch, Err: ErrIndexNotFound}
	if err.Error() != "search: db: index not found" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Unwrap() != ErrIndexNotFound {
		t.Errorf("Unwrap() = %v", err.Unwrap())
	}
}
