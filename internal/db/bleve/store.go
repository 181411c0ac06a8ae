package bleve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/kailas-cloud/facetdex/internal/db"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("bleve: store closed")

// Compile-time checks.
var (
	_ db.Backend = (*Store)(nil)
	_ db.Indexer = (*Store)(nil)
)

// defaultSize mirrors the Elasticsearch default page size.
const defaultSize = 10

// Config holds embedded index settings.
type Config struct {
	// Dir holds one index directory per index name. Empty keeps indexes in memory.
	Dir string
}

// Store executes compiled queries against embedded bleve indexes.
type Store struct {
	cfg     Config
	mu      sync.RWMutex
	indexes map[string]bleve.Index
	closed  bool
}

// NewStore creates an empty store. Indexes are added with Open.
func NewStore(cfg Config) *Store {
	return &Store{cfg: cfg, indexes: make(map[string]bleve.Index)}
}

// Open opens the index named by def, creating it from def when it does not exist yet.
// Opening an index twice is a no-op.
func (s *Store) Open(def *db.IndexDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.indexes[def.Name]; ok {
		return nil
	}

	idx, err := s.open(def)
	if err != nil {
		return &db.Error{Op: db.OpOpenIndex, Err: fmt.Errorf("%s: %w", def.Name, err)}
	}
	s.indexes[def.Name] = idx
	return nil
}

func (s *Store) open(def *db.IndexDefinition) (bleve.Index, error) {
	m := buildMapping(def)
	if s.cfg.Dir == "" {
		return bleve.NewMemOnly(m)
	}
	path := filepath.Join(s.cfg.Dir, def.Name)
	if _, err := os.Stat(path); err == nil {
		return bleve.Open(path)
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	return bleve.New(path, m)
}

func (s *Store) index(name string) (bleve.Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	idx, ok := s.indexes[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, db.ErrIndexNotFound)
	}
	return idx, nil
}

// Index stores documents in one batch.
func (s *Store) Index(ctx context.Context, index string, docs []db.Document) error {
	idx, err := s.index(index)
	if err != nil {
		return &db.Error{Op: db.OpIndex, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return &db.Error{Op: db.OpIndex, Err: err}
	}

	b := idx.NewBatch()
	for _, d := range docs {
		raw, err := json.Marshal(d.Source)
		if err != nil {
			return &db.Error{Op: db.OpIndex, Err: fmt.Errorf("document %s: %w", d.ID, err)}
		}
		data := make(map[string]any, len(d.Source)+1)
		for k, v := range d.Source {
			data[k] = v
		}
		data[sourceField] = string(raw)
		if err := b.Index(d.ID, data); err != nil {
			return &db.Error{Op: db.OpIndex, Err: fmt.Errorf("document %s: %w", d.ID, err)}
		}
	}
	if err := idx.Batch(b); err != nil {
		return &db.Error{Op: db.OpIndex, Err: err}
	}
	return nil
}

// Search translates the compiled query and runs it against req.Index.
// Raw overrides cannot be expressed in bleve and yield db.ErrUnsupportedQuery.
func (s *Store) Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResponse, error) {
	idx, err := s.index(req.Index)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	q := req.Query
	if len(q.Override) > 0 {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("%w: additional query", db.ErrUnsupportedQuery)}
	}

	root, err := translate(q.Root())
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	size, from := defaultSize, 0
	if q.Size != nil {
		size = *q.Size
	}
	if q.From != nil {
		from = *q.From
	}
	sr := bleve.NewSearchRequestOptions(root, size, from, false)
	sr.Fields = []string{sourceField}
	if len(q.Sort) > 0 {
		sr.SortBy(sortOrder(q.Sort))
	}
	for _, a := range q.Aggs {
		sr.AddFacet(a.Name, bleve.NewFacetRequest(a.Field, a.Size))
	}

	res, err := idx.SearchInContext(ctx, sr)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return toResponse(req.Index, res)
}

func toResponse(index string, res *bleve.SearchResult) (*db.SearchResponse, error) {
	out := &db.SearchResponse{
		Total: int64(res.Total),
		Hits:  make([]db.SearchHit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		hit := db.SearchHit{ID: h.ID, Index: index, Score: h.Score}
		if raw, ok := h.Fields[sourceField].(string); ok {
			if err := json.Unmarshal([]byte(raw), &hit.Source); err != nil {
				return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("document %s: %w", h.ID, err)}
			}
		}
		out.Hits = append(out.Hits, hit)
	}

	if len(res.Facets) > 0 {
		out.Aggregations = make(map[string][]db.AggregationBucket, len(res.Facets))
	}
	for name, fr := range res.Facets {
		var buckets []db.AggregationBucket
		if fr.Terms != nil {
			for _, t := range fr.Terms.Terms() {
				buckets = append(buckets, db.AggregationBucket{Key: t.Term, DocCount: int64(t.Count)})
			}
		}
		out.Aggregations[name] = buckets
	}
	return out, nil
}

// Ping reports whether the store is open.
func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return &db.Error{Op: db.OpPing, Err: ErrClosed}
	}
	return nil
}

// Close closes every index.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for name, idx := range s.indexes {
		if err := idx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
