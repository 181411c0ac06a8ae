package facetdex

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"
	"testing"
)

type product struct {
	Title string  `facetdex:"title"`
	Cat   string  `facetdex:"cat"`
	Price float64 `facetdex:"price"`
}

func productEntity() *Entity {
	return NewEntity("products", "products").
		Term("category", "cat", Facet()).
		Terms("tag", "tags", Facet(), Or()).
		Match("q", "title").
		Range("price", "price").
		PerPage(10).
		SortBy("price", Asc)
}

func newBleveClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	c, err := New(ctx, WithBleve(""), WithEntities(productEntity()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	docs := []Document{
		{ID: "1", Fields: map[string]any{"title": "Red leather boots", "cat": "shoes", "tags": []any{"red", "leather"}, "price": 120.0}},
		{ID: "2", Fields: map[string]any{"title": "Blue running shoes", "cat": "shoes", "tags": []any{"blue"}, "price": 80.0}},
		{ID: "3", Fields: map[string]any{"title": "Red wool hat", "cat": "hats", "tags": []any{"red"}, "price": 25.0}},
	}
	if err := c.Index(ctx, "products", docs); err != nil {
		t.Fatalf("Index: %v", err)
	}
	return c
}

func facetByName(facets []FacetResult, name string) (FacetResult, bool) {
	for _, f := range facets {
		if f.Name == name {
			return f, true
		}
	}
	return FacetResult{}, false
}

func TestClient_SearchBleve(t *testing.T) {
	c := newBleveClient(t)

	res, err := c.Search(context.Background(), "products", SearchRequest{
		Params: map[string]any{
			"category": "shoes",
			"price":    map[string]any{"lte": 100},
		},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if res.TotalHits != 1 || len(res.Records) != 1 || res.Records[0].ID != "2" {
		t.Fatalf("records = %+v (total %d), want only 2", res.Records, res.TotalHits)
	}
	if res.TotalPages == nil || *res.TotalPages != 1 {
		t.Errorf("TotalPages = %v, want 1", res.TotalPages)
	}

	// The category facet ignores its own selection but keeps the price filter.
	cat, ok := facetByName(res.Facets, "category")
	if !ok {
		t.Fatalf("facets = %+v, want category", res.Facets)
	}
	got := slices.Clone(cat.Options)
	slices.Sort(got)
	if !slices.Equal(got, []string{"hats", "shoes"}) {
		t.Errorf("category options = %v, want hats and shoes", cat.Options)
	}

	price, ok := facetByName(res.Facets, "price")
	if !ok || price.Options != nil {
		t.Errorf("price facet = %+v, want listed without options", price)
	}

	items, err := DecodeAll[product](res.Records)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if items[0].Title != "Blue running shoes" || items[0].Price != 80 {
		t.Errorf("decoded = %+v", items[0])
	}
}

func TestClient_SearchSortAndPaging(t *testing.T) {
	c := newBleveClient(t)

	perPage := 2
	res, err := c.Search(context.Background(), "products", SearchRequest{
		Sort:    []Sort{{Field: "price", Order: Desc}},
		PerPage: &perPage,
		Page:    1,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.TotalHits != 3 || res.TotalPages == nil || *res.TotalPages != 2 {
		t.Errorf("total = %d pages = %v, want 3 over 2 pages", res.TotalHits, res.TotalPages)
	}
	if len(res.Records) != 2 || res.Records[0].ID != "1" || res.Records[1].ID != "2" {
		t.Errorf("records = %+v, want 1 then 2", res.Records)
	}
}

func TestClient_SearchErrors(t *testing.T) {
	c := newBleveClient(t)
	ctx := context.Background()

	tests := []struct {
		name string
		ent  string
		req  SearchRequest
		want error
	}{
		{"unknown entity", "nope", SearchRequest{}, ErrNotFound},
		{"non-numeric bound", "products", SearchRequest{Params: map[string]any{"price": map[string]any{"gte": "cheap"}}}, ErrInvalidParams},
		{"bad sort order", "products", SearchRequest{Sort: []Sort{{Field: "price", Order: "up"}}}, ErrInvalidParams},
		{"additional query on bleve", "products", SearchRequest{AdditionalQuery: map[string]any{"track_total_hits": true}}, ErrUnsupportedQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Search(ctx, tt.ent, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClient_Explain(t *testing.T) {
	c := newBleveClient(t)

	ex, err := c.Explain(context.Background(), "products", SearchRequest{
		Params: map[string]any{"category": "shoes"},
	})
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}

	var primary map[string]any
	if err := json.Unmarshal(ex.Primary, &primary); err != nil {
		t.Fatalf("primary: %v", err)
	}
	if primary["size"] != float64(10) {
		t.Errorf("primary size = %v, want 10", primary["size"])
	}
	if _, ok := primary["query"]; !ok {
		t.Errorf("primary = %s, want a query", ex.Primary)
	}
	if _, ok := ex.Facets["category"]; !ok {
		t.Errorf("facets = %v, want category", ex.Facets)
	}
	if _, ok := ex.Facets["price"]; ok {
		t.Error("price is not faceted and should not compile a facet query")
	}
}

func TestClient_Health(t *testing.T) {
	c := newBleveClient(t)

	h := c.Health(context.Background())
	if h.Status != "ok" || h.Checks["backend"] != "ok" {
		t.Errorf("health = %+v, want ok", h)
	}
	if _, ok := h.Checks["hydration"]; ok {
		t.Error("hydration check reported without a hash store")
	}
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestClient_IndexRequiresID(t *testing.T) {
	c := newBleveClient(t)

	err := c.Index(context.Background(), "products", []Document{{Fields: map[string]any{"cat": "shoes"}}})
	if !errors.Is(err, ErrInvalidParams) {
		t.Errorf("err = %v, want ErrInvalidParams", err)
	}
}

func TestNew_RequiresBackend(t *testing.T) {
	if _, err := New(context.Background(), WithEntities(productEntity())); err == nil {
		t.Fatal("expected error without a backend option")
	}
}

func TestNew_InvalidEntity(t *testing.T) {
	_, err := New(context.Background(), WithBleve(""), WithEntities(NewEntity("", "products")))
	if !errors.Is(err, ErrInvalidSchema) {
		t.Errorf("err = %v, want ErrInvalidSchema", err)
	}
}

// esTransport answers as a healthy, empty cluster.
type esTransport struct{}

func (esTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	header := http.Header{}
	header.Set("X-Elastic-Product", "Elasticsearch")
	header.Set("Content-Type", "application/json")
	body := `{"version":{"number":"7.17.0","build_flavor":"default"},"tagline":"You Know, for Search"}`
	if strings.HasSuffix(req.URL.Path, "/_search") {
		body = `{"hits":{"total":{"value":0},"hits":[]},"aggregations":{"category":{"buckets":[]}}}`
	}
	return &http.Response{StatusCode: http.StatusOK, Header: header, Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestClient_Elasticsearch(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx,
		WithElasticsearch([]string{"http://es.test:9200"}, "", ""),
		WithElasticsearchTransport(esTransport{}),
		WithEntities(productEntity()),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	res, err := c.Search(ctx, "products", SearchRequest{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.TotalHits != 0 || len(res.Records) != 0 {
		t.Errorf("result = %+v, want empty", res)
	}

	err = c.Index(ctx, "products", []Document{{ID: "1"}})
	if !errors.Is(err, ErrIndexingNotSupported) {
		t.Errorf("Index err = %v, want ErrIndexingNotSupported", err)
	}
}

func TestHashFields(t *testing.T) {
	got, err := hashFields(map[string]any{
		"title": "boots",
		"price": 80,
		"sale":  true,
		"tags":  []string{"red", "blue"},
	})
	if err != nil {
		t.Fatalf("hashFields: %v", err)
	}
	want := map[string]string{"title": "boots", "price": "80", "sale": "true", "tags": `["red","blue"]`}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}
