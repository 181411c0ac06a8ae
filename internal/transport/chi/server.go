package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/search/params"
	"github.com/kailas-cloud/facetdex/internal/domain/search/query"
	healthuc "github.com/kailas-cloud/facetdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/facetdex/internal/usecase/search"
)

const maxBodyBytes = 1 << 20

// Query string keys that are not facet parameters.
const (
	queryKeyPage    = "page"
	queryKeyPerPage = "per_page"
	queryKeySort    = "sort"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the search API.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		health: health,
		logger: logger,
	}
	// Order matters: backend failures caused by an unsupported query are client errors.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeEntityNotFound),
		sentinelHandler(domain.ErrInvalidParams, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrUnsupportedQuery, http.StatusBadRequest, ErrorCodeUnsupportedQuery),
		sentinelHandler(domain.ErrBackendUnavailable, http.StatusBadGateway, ErrorCodeBackendError),
	}
	return s
}

// Routes registers the API routes on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Get("/entities", s.ListEntities)
	r.Route("/entities/{entity}", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Get("/search", s.SearchQuery)
		r.Post("/explain", s.Explain)
	})
}

// Search handles POST /entities/{entity}/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeSearchRequest(w, r)
	if !ok {
		return
	}

	res, err := s.search.Search(r.Context(), chi.URLParam(r, "entity"), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultToResponse(res))
}

// SearchQuery handles GET /entities/{entity}/search with parameters in the query string.
func (s *Server) SearchQuery(w http.ResponseWriter, r *http.Request) {
	req, err := searchRequestFromQuery(r.URL.Query())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	res, err := s.search.Search(r.Context(), chi.URLParam(r, "entity"), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultToResponse(res))
}

// Explain handles POST /entities/{entity}/explain.
func (s *Server) Explain(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeSearchRequest(w, r)
	if !ok {
		return
	}

	compiled, err := s.search.Compile(r.Context(), chi.URLParam(r, "entity"), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ExplainResponse{Primary: compiled.Primary, Facets: compiled.Facets})
}

// ListEntities handles GET /entities.
func (s *Server) ListEntities(w http.ResponseWriter, r *http.Request) {
	entities := s.search.Entities(r.Context())
	items := make([]Entity, len(entities))
	for i, e := range entities {
		items[i] = entityToResponse(e)
	}
	writeJSON(w, http.StatusOK, EntityListResponse{Items: items})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) decodeSearchRequest(w http.ResponseWriter, r *http.Request) (searchuc.Request, bool) {
	var body SearchRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return searchuc.Request{}, false
	}

	req, err := searchRequestFromBody(body)
	if err != nil {
		s.handleDomainError(w, err)
		return searchuc.Request{}, false
	}
	return req, true
}

func searchRequestFromBody(body SearchRequest) (searchuc.Request, error) {
	p, err := params.FromMap(body.Params)
	if err != nil {
		return searchuc.Request{}, fmt.Errorf("decode params: %w", err)
	}

	sort, err := sortFromDTO(body.Sort)
	if err != nil {
		return searchuc.Request{}, err
	}

	must := make([]query.Clause, 0, len(body.AdditionalMust))
	for i, raw := range body.AdditionalMust {
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil || len(obj) == 0 {
			return searchuc.Request{}, fmt.Errorf("%w: additional_must[%d] must be a non-empty object",
				domain.ErrInvalidParams, i)
		}
		must = append(must, query.Raw(raw))
	}

	return searchuc.Request{
		Params:          p,
		Sort:            sort,
		PerPage:         body.PerPage,
		Page:            body.Page,
		AdditionalQuery: query.Fragment(body.AdditionalQuery),
		AdditionalMust:  must,
	}, nil
}

// searchRequestFromQuery reads page, per_page and sort ("price:desc", repeated or
// comma separated); every other key is a facet parameter.
func searchRequestFromQuery(values map[string][]string) (searchuc.Request, error) {
	var req searchuc.Request
	facetValues := make(map[string][]string, len(values))

	for key, vs := range values {
		switch key {
		case queryKeyPage:
			n, err := atoiLast(key, vs)
			if err != nil {
				return searchuc.Request{}, err
			}
			req.Page = n
		case queryKeyPerPage:
			n, err := atoiLast(key, vs)
			if err != nil {
				return searchuc.Request{}, err
			}
			req.PerPage = &n
		case queryKeySort:
			var orders []SortOrder
			for _, v := range vs {
				for _, part := range strings.Split(v, ",") {
					if part == "" {
						continue
					}
					fieldName, order, _ := strings.Cut(part, ":")
					orders = append(orders, SortOrder{Field: fieldName, Order: order})
				}
			}
			sort, err := sortFromDTO(orders)
			if err != nil {
				return searchuc.Request{}, err
			}
			req.Sort = sort
		default:
			facetValues[key] = vs
		}
	}

	p, err := params.FromQuery(facetValues)
	if err != nil {
		return searchuc.Request{}, fmt.Errorf("decode params: %w", err)
	}
	req.Params = p
	return req, nil
}

func atoiLast(key string, vs []string) (int, error) {
	if len(vs) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(vs[len(vs)-1])
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidParams, key)
	}
	return n, nil
}

func sortFromDTO(orders []SortOrder) ([]query.Sort, error) {
	if orders == nil {
		return nil, nil
	}
	out := make([]query.Sort, 0, len(orders))
	for _, o := range orders {
		if o.Field == "" {
			return nil, fmt.Errorf("%w: sort field is required", domain.ErrInvalidParams)
		}
		order := strings.ToLower(o.Order)
		switch order {
		case "":
			order = query.Asc
		case query.Asc, query.Desc:
		default:
			return nil, fmt.Errorf("%w: sort order %q must be asc or desc", domain.ErrInvalidParams, o.Order)
		}
		out = append(out, query.Sort{Field: o.Field, Order: order})
	}
	return out, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// Parameter errors carry their full message since it only describes the caller's input.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidParams) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrUnsupportedQuery,
		domain.ErrBackendUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
