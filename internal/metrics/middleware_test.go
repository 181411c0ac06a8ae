package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func searchRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/entities/{entity}/search", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "entity") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"hits":{}}`))
	})
	r.Get("/entities/{entity}/search", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	return r
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	h := searchRouter()
	const pattern = "/entities/{entity}/search"

	tests := []struct {
		method string
		target string
		status string
	}{
		{http.MethodPost, "/entities/products/search", "200"},
		{http.MethodPost, "/entities/missing/search", "404"},
		{http.MethodGet, "/entities/products/search?category=shoes", "502"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.status, func(t *testing.T) {
			before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tt.method, pattern, tt.status))

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.target, http.NoBody))

			after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tt.method, pattern, tt.status))
			if after != before+1 {
				t.Errorf("requests{%s %s %s} = %v, want %v", tt.method, pattern, tt.status, after, before+1)
			}
		})
	}
}

func TestMiddleware_MetricNames(t *testing.T) {
	h := searchRouter()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/entities/products/search", http.NoBody))

	if n := testutil.CollectAndCount(httpRequestsTotal, "facetdex_http_requests_total"); n == 0 {
		t.Error("no facetdex_http_requests_total series")
	}
	if n := testutil.CollectAndCount(httpRequestDuration, "facetdex_http_request_duration_seconds"); n == 0 {
		t.Error("no facetdex_http_request_duration_seconds series")
	}
}

func TestMiddleware_UnmatchedRoute(t *testing.T) {
	h := searchRouter()
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "unknown", "404"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", http.NoBody))

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "unknown", "404")); got != before+1 {
		t.Errorf("unknown route requests = %v, want %v", got, before+1)
	}
}

func TestMiddleware_FirstStatusWins(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.WriteHeader(http.StatusOK)
	})
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/health", "503"))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/health", "503")); got != before+1 {
		t.Errorf("degraded health requests = %v, want %v", got, before+1)
	}
}
