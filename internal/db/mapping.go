package db

import (
	"errors"
	"strconv"
	"strings"

	"github.com/kailas-cloud/facetdex/internal/domain/schema"
	"github.com/kailas-cloud/facetdex/internal/domain/schema/field"
)

// IndexFieldType enumerates supported index field types.
type IndexFieldType int

const (
	// IndexFieldKeyword is an unanalyzed field matched exactly and aggregated by whole value.
	IndexFieldKeyword IndexFieldType = iota
	// IndexFieldText is an analyzed full-text field.
	IndexFieldText
	// IndexFieldNumeric is a numeric field.
	IndexFieldNumeric
)

func (t IndexFieldType) String() string {
	switch t {
	case IndexFieldKeyword:
		return "keyword"
	case IndexFieldText:
		return "text"
	case IndexFieldNumeric:
		return "numeric"
	}
	return "unknown"
}

// IndexField describes a single field of an index mapping.
type IndexField struct {
	// Path is the document field path; dots address nested objects.
	Path string
	Type IndexFieldType
}

// IndexDefinition is a complete index mapping used to create embedded indexes.
type IndexDefinition struct {
	Name   string
	Fields []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return errors.New("index name contains invalid characters")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]bool)
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Path == "" {
			return errors.New("field path is required at index " + strconv.Itoa(i))
		}
		if seen[f.Path] {
			return errors.New("duplicate field path: " + f.Path)
		}
		seen[f.Path] = true
	}

	return nil
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_.:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-' || r == '.'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}

// String returns a debug representation of the mapping.
func (idx *IndexDefinition) String() string {
	parts := make([]string, 0, len(idx.Fields))
	for i := range idx.Fields {
		parts = append(parts, idx.Fields[i].Path+" "+idx.Fields[i].Type.String())
	}
	return "MAPPING " + idx.Name + " (" + strings.Join(parts, ", ") + ")"
}

// IndexBuilder is a fluent builder for index definitions.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts building an index definition.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Keyword adds an exact-match field.
func (b *IndexBuilder) Keyword(path string) *IndexBuilder {
	return b.add(path, IndexFieldKeyword)
}

// Text adds a full-text field.
func (b *IndexBuilder) Text(path string) *IndexBuilder {
	return b.add(path, IndexFieldText)
}

// Numeric adds a numeric field.
func (b *IndexBuilder) Numeric(path string) *IndexBuilder {
	return b.add(path, IndexFieldNumeric)
}

func (b *IndexBuilder) add(path string, t IndexFieldType) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Path: path, Type: t})
	return b
}

// Build validates and returns the index definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	return &b.def, nil
}

// MustBuild calls Build and panics on error.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// IndexFromEntity derives the index mapping of an entity: term and terms
// fields are keywords, match and multi_match fields are text, range fields
// are numeric. A path shared by several fields keeps the first type seen.
// Fields with an unknown kind or no paths are skipped.
func IndexFromEntity(e schema.Entity) (*IndexDefinition, error) {
	b := NewIndex(e.Index())
	seen := make(map[string]bool)
	for _, f := range e.Fields() {
		t, ok := fieldType(f.Kind())
		if !ok {
			continue
		}
		for _, p := range f.Paths() {
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			b.add(p, t)
		}
	}
	return b.Build()
}

func fieldType(k field.Kind) (IndexFieldType, bool) {
	switch k {
	case field.Term, field.Terms:
		return IndexFieldKeyword, true
	case field.Match, field.MultiMatch:
		return IndexFieldText, true
	case field.Range:
		return IndexFieldNumeric, true
	}
	return 0, false
}
