package bleve

import (
	"strings"

	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/kailas-cloud/facetdex/internal/db"
)

// sourceField stores the original document as JSON so hits can return it.
const sourceField = "__source"

// buildMapping converts an index definition into a bleve mapping. Only the
// listed paths are indexed; the whole document is kept in sourceField.
func buildMapping(def *db.IndexDefinition) *mapping.IndexMappingImpl {
	idx := mapping.NewIndexMapping()
	idx.DefaultAnalyzer = standard.Name

	root := mapping.NewDocumentMapping()
	root.Dynamic = false

	src := mapping.NewTextFieldMapping()
	src.Index = false
	src.Store = true
	src.IncludeInAll = false
	src.DocValues = false
	root.AddFieldMappingsAt(sourceField, src)

	for _, f := range def.Fields {
		addField(root, f.Path, fieldMapping(f.Type))
	}

	idx.DefaultMapping = root
	return idx
}

func fieldMapping(t db.IndexFieldType) *mapping.FieldMapping {
	switch t {
	case db.IndexFieldNumeric:
		num := mapping.NewNumericFieldMapping()
		num.Store = false
		num.IncludeInAll = false
		return num
	case db.IndexFieldText:
		text := mapping.NewTextFieldMapping()
		text.Store = false
		text.Analyzer = standard.Name
		text.IncludeInAll = false
		return text
	default:
		kw := mapping.NewTextFieldMapping()
		kw.Store = false
		kw.Analyzer = keyword.Name
		kw.IncludeInAll = false
		return kw
	}
}

// addField registers fm at a dotted path, creating nested document mappings.
func addField(root *mapping.DocumentMapping, path string, fm *mapping.FieldMapping) {
	parts := strings.Split(path, ".")
	dm := root
	for _, p := range parts[:len(parts)-1] {
		sub, ok := dm.Properties[p]
		if !ok {
			sub = mapping.NewDocumentMapping()
			sub.Dynamic = false
			dm.AddSubDocumentMapping(p, sub)
		}
		dm = sub
	}
	dm.AddFieldMappingsAt(parts[len(parts)-1], fm)
}
