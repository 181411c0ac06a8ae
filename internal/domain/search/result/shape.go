package result

import "github.com/kailas-cloud/facetdex/internal/domain/schema"

// Page is one page of hydrated hits with totals.
type Page struct {
	Objects   []Record
	TotalHits int64
	// TotalPages is nil when no page size is set.
	TotalPages *int64
}

// Facet is one entry of the facet list. Options is nil for fields that are
// filterable but not aggregated.
type Facet struct {
	Name    string
	Options []string
}

// IsAggregated reports whether the facet carries options.
func (f Facet) IsAggregated() bool { return f.Options != nil }

// Result is the shaped output of one search.
type Result struct {
	Hits   Page
	Facets []Facet
}

// ExtractHits shapes the primary query response into a page.
func ExtractHits(resp *Response, objects []Record, perPage int) Page {
	var total int64
	if resp != nil && resp.Total > 0 {
		total = resp.Total
	}
	if objects == nil {
		objects = []Record{}
	}
	return Page{
		Objects:    objects,
		TotalHits:  total,
		TotalPages: TotalPages(total, perPage),
	}
}

// TotalPages returns ceil(total/perPage), or nil when perPage is unset.
func TotalPages(total int64, perPage int) *int64 {
	if perPage <= 0 {
		return nil
	}
	n := (total + int64(perPage) - 1) / int64(perPage)
	return &n
}

// ExtractFacets shapes per-field aggregation responses into the facet list,
// in schema order. A facet field whose aggregation returned no buckets is
// omitted; a non-facet field is listed by name only.
func ExtractFacets(entity schema.Entity, responses map[string]*Response) []Facet {
	facets := make([]Facet, 0, len(entity.Fields()))
	for _, f := range entity.Fields() {
		if !f.IsFacet() {
			facets = append(facets, Facet{Name: f.Name()})
			continue
		}
		buckets := responses[f.Name()].Buckets(f.Name())
		if len(buckets) == 0 {
			continue
		}
		options := make([]string, len(buckets))
		for i, b := range buckets {
			options[i] = b.Key
		}
		facets = append(facets, Facet{Name: f.Name(), Options: options})
	}
	return facets
}
