package elastic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/domain/search/query"
)

// fakeTransport answers every request with a canned response and records the last one.
type fakeTransport struct {
	status int
	body   string
	err    error

	lastMethod string
	lastPath   string
	lastBody   []byte
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	header := http.Header{}
	header.Set("X-Elastic-Product", "Elasticsearch")
	header.Set("Content-Type", "application/json")

	// Product check on older 7.x clients.
	if req.Method == http.MethodGet && req.URL.Path == "/" {
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     header,
			Body:       io.NopCloser(strings.NewReader(`{"version":{"number":"7.17.0","build_flavor":"default"},"tagline":"You Know, for Search"}`)),
		}, nil
	}

	f.lastMethod = req.Method
	f.lastPath = req.URL.Path
	if req.Body != nil {
		f.lastBody, _ = io.ReadAll(req.Body)
	}
	return &http.Response{
		StatusCode: f.status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(f.body)),
	}, nil
}

func newTestStore(t *testing.T, tr *fakeTransport) *Store {
	t.Helper()
	s, err := NewStore(Config{Addrs: []string{"http://es.test:9200"}, Transport: tr})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestNewStore_NoAddrs(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error for empty addrs")
	}
}

func TestSearch_Success(t *testing.T) {
	tr := &fakeTransport{status: http.StatusOK, body: `{
		"hits": {
			"total": {"value": 45, "relation": "eq"},
			"hits": [
				{"_id": "1", "_index": "products", "_score": 1.5, "_source": {"title": "boots", "price": 120}},
				{"_id": "2", "_index": "products", "_score": null, "_source": {"title": "hat"}}
			]
		},
		"aggregations": {
			"category": {"buckets": [
				{"key": "shoes", "doc_count": 30},
				{"key": 42, "doc_count": 2},
				{"key": 1, "key_as_string": "true", "doc_count": 1}
			]}
		}
	}`}
	s := newTestStore(t, tr)

	var q query.Query
	q.WithPage(20, 0)
	q.MergeMust(query.Term{Field: "cat", Value: "shoes"})

	resp, err := s.Search(context.Background(), &db.SearchRequest{Index: "products", Query: q})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if tr.lastMethod != http.MethodPost || tr.lastPath != "/products/_search" {
		t.Errorf("request = %s %s, want POST /products/_search", tr.lastMethod, tr.lastPath)
	}
	var sent map[string]any
	if err := json.Unmarshal(tr.lastBody, &sent); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if sent["size"] != float64(20) {
		t.Errorf("sent size = %v, want 20", sent["size"])
	}

	if resp.Total != 45 {
		t.Errorf("Total = %d, want 45", resp.Total)
	}
	if len(resp.Hits) != 2 {
		t.Fatalf("len(Hits) = %d, want 2", len(resp.Hits))
	}
	if resp.Hits[0].ID != "1" || resp.Hits[0].Score != 1.5 || resp.Hits[0].Source["title"] != "boots" {
		t.Errorf("Hits[0] = %+v", resp.Hits[0])
	}
	if resp.Hits[1].Score != 0 {
		t.Errorf("Hits[1].Score = %f, want 0", resp.Hits[1].Score)
	}

	buckets := resp.Aggregations["category"]
	want := []db.AggregationBucket{{Key: "shoes", DocCount: 30}, {Key: "42", DocCount: 2}, {Key: "true", DocCount: 1}}
	if len(buckets) != len(want) {
		t.Fatalf("buckets = %+v, want %+v", buckets, want)
	}
	for i := range want {
		if buckets[i] != want[i] {
			t.Errorf("bucket[%d] = %+v, want %+v", i, buckets[i], want[i])
		}
	}
}

func TestSearch_LegacyTotal(t *testing.T) {
	tr := &fakeTransport{status: http.StatusOK, body: `{"hits": {"total": 7, "hits": []}}`}
	s := newTestStore(t, tr)

	resp, err := s.Search(context.Background(), &db.SearchRequest{Index: "products"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Total != 7 {
		t.Errorf("Total = %d, want 7", resp.Total)
	}
	if resp.Aggregations != nil {
		t.Errorf("Aggregations = %v, want nil", resp.Aggregations)
	}
}

func TestSearch_IndexNotFound(t *testing.T) {
	tr := &fakeTransport{status: http.StatusNotFound, body: `{
		"error": {"type": "index_not_found_exception", "reason": "no such index [nope]"},
		"status": 404
	}`}
	s := newTestStore(t, tr)

	_, err := s.Search(context.Background(), &db.SearchRequest{Index: "nope"})
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Fatalf("err = %v, want ErrIndexNotFound", err)
	}
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpSearch {
		t.Errorf("err = %#v, want db.Error with op search", err)
	}
}

func TestSearch_BadRequest(t *testing.T) {
	tr := &fakeTransport{status: http.StatusBadRequest, body: `{
		"error": {"type": "parsing_exception", "reason": "unknown query [tem]"},
		"status": 400
	}`}
	s := newTestStore(t, tr)

	_, err := s.Search(context.Background(), &db.SearchRequest{Index: "products"})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, db.ErrIndexNotFound) {
		t.Error("parsing error reported as index not found")
	}
	if !strings.Contains(err.Error(), "parsing_exception") {
		t.Errorf("err = %v, want parsing_exception", err)
	}
}

func TestSearch_TransportError(t *testing.T) {
	tr := &fakeTransport{err: errors.New("connection refused")}
	s := newTestStore(t, tr)

	_, err := s.Search(context.Background(), &db.SearchRequest{Index: "products"})
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Fatalf("err = %v, want db.Error", err)
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t, &fakeTransport{status: http.StatusOK, body: `{}`})
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	s = newTestStore(t, &fakeTransport{status: http.StatusServiceUnavailable, body: ``})
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error for 503")
	}
}

func TestDecodeTotal(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{``, 0},
		{`null`, 0},
		{`12`, 12},
		{`{"value": 3, "relation": "gte"}`, 3},
	}
	for _, tt := range tests {
		got, err := decodeTotal(json.RawMessage(tt.raw))
		if err != nil {
			t.Errorf("decodeTotal(%q): %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("decodeTotal(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}
