package facetdex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cast"

	"github.com/kailas-cloud/facetdex/internal/db"
	dbBleve "github.com/kailas-cloud/facetdex/internal/db/bleve"
	dbElastic "github.com/kailas-cloud/facetdex/internal/db/elastic"
	dbRedis "github.com/kailas-cloud/facetdex/internal/db/redis"
	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/schema"
	"github.com/kailas-cloud/facetdex/internal/domain/search/params"
	"github.com/kailas-cloud/facetdex/internal/domain/search/query"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
	entityrepo "github.com/kailas-cloud/facetdex/internal/repository/entity"
	recordrepo "github.com/kailas-cloud/facetdex/internal/repository/record"
	searchrepo "github.com/kailas-cloud/facetdex/internal/repository/search"
	healthuc "github.com/kailas-cloud/facetdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/facetdex/internal/usecase/search"
)

const readinessTimeout = 30 * time.Second

// Client runs faceted searches against one backend.
type Client struct {
	backend   db.Backend
	indexer   db.Indexer // nil unless the backend is embedded
	hashes    *dbRedis.Store
	keyPrefix string

	entities  *entityrepo.Repo
	searchSvc *searchuc.Service
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client. A backend option (WithElasticsearch or WithBleve) is required.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.driver == "" {
		return nil, errors.New("facetdex: backend is required (use WithElasticsearch or WithBleve)")
	}

	built := make([]schema.Entity, 0, len(cfg.entities))
	for _, e := range cfg.entities {
		se, err := e.build()
		if err != nil {
			return nil, err
		}
		built = append(built, se)
	}
	entities, err := entityrepo.New(built...)
	if err != nil {
		return nil, fmt.Errorf("facetdex: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	c := &Client{entities: entities, keyPrefix: cfg.redisKeyPrefix, obs: obs}
	if err := c.openBackend(ctx, cfg, built); err != nil {
		return nil, err
	}

	var hydrator searchuc.Hydrator = recordrepo.NewSourceHydrator()
	var hydration healthuc.Pinger
	if len(cfg.redisAddrs) > 0 {
		hashes, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.redisAddrs, Password: cfg.redisPassword})
		if err != nil {
			_ = c.backend.Close()
			return nil, fmt.Errorf("facetdex: redis: %w", err)
		}
		if err := hashes.WaitForReady(ctx, readinessTimeout); err != nil {
			hashes.Close()
			_ = c.backend.Close()
			return nil, fmt.Errorf("facetdex: redis not ready: %w", err)
		}
		c.hashes = hashes
		hydrator = recordrepo.NewHashHydrator(hashes, cfg.redisKeyPrefix)
		hydration = hashes
	}

	c.searchSvc = searchuc.New(entities, searchrepo.New(c.backend), hydrator, searchuc.Limits{
		DefaultPerPage: cfg.defaultPerPage,
		MaxPerPage:     cfg.maxPerPage,
	})
	c.healthSvc = healthuc.New(c.backend, hydration)
	return c, nil
}

func (c *Client) openBackend(ctx context.Context, cfg *clientConfig, entities []schema.Entity) error {
	switch cfg.driver {
	case driverElasticsearch:
		store, err := dbElastic.NewStore(dbElastic.Config{
			Addrs:     cfg.esAddrs,
			Username:  cfg.esUsername,
			Password:  cfg.esPassword,
			Transport: cfg.esTransport,
		})
		if err != nil {
			return fmt.Errorf("facetdex: elasticsearch: %w", err)
		}
		if err := store.WaitForReady(ctx, readinessTimeout); err != nil {
			return fmt.Errorf("facetdex: elasticsearch not ready: %w", err)
		}
		c.backend = store

	case driverBleve:
		store := dbBleve.NewStore(dbBleve.Config{Dir: cfg.bleveDir})
		for _, e := range entities {
			def, err := db.IndexFromEntity(e)
			if err != nil {
				_ = store.Close()
				return fmt.Errorf("facetdex: mapping for %s: %w", e.Name(), err)
			}
			if err := store.Open(def); err != nil {
				_ = store.Close()
				return fmt.Errorf("facetdex: %w", err)
			}
		}
		c.backend = store
		c.indexer = store
	}
	return nil
}

// Search runs hits and facets for one entity concurrently.
func (c *Client) Search(ctx context.Context, entity string, req SearchRequest) (*SearchResult, error) {
	start := time.Now()
	res, err := c.search(ctx, entity, req)
	c.obs.observe("search", start, err)
	return res, err
}

func (c *Client) search(ctx context.Context, entity string, req SearchRequest) (*SearchResult, error) {
	ucReq, err := toRequest(req)
	if err != nil {
		return nil, err
	}
	res, err := c.searchSvc.Search(ctx, entity, ucReq)
	if err != nil {
		return nil, fmt.Errorf("facetdex: %w", err)
	}
	return fromResult(res), nil
}

// Explain returns the backend request bodies a search would send, without sending them.
func (c *Client) Explain(ctx context.Context, entity string, req SearchRequest) (*Explanation, error) {
	start := time.Now()
	ex, err := c.explain(ctx, entity, req)
	c.obs.observe("explain", start, err)
	return ex, err
}

func (c *Client) explain(ctx context.Context, entity string, req SearchRequest) (*Explanation, error) {
	ucReq, err := toRequest(req)
	if err != nil {
		return nil, err
	}
	compiled, err := c.searchSvc.Compile(ctx, entity, ucReq)
	if err != nil {
		return nil, fmt.Errorf("facetdex: %w", err)
	}
	primary, err := json.Marshal(compiled.Primary)
	if err != nil {
		return nil, fmt.Errorf("facetdex: encode primary query: %w", err)
	}
	out := &Explanation{Primary: primary, Facets: make(map[string]json.RawMessage, len(compiled.Facets))}
	for name, q := range compiled.Facets {
		body, err := json.Marshal(q)
		if err != nil {
			return nil, fmt.Errorf("facetdex: encode facet %s: %w", name, err)
		}
		out.Facets[name] = body
	}
	return out, nil
}

// Index stores documents in the entity's index. Only embedded bleve indexes
// are written; with Redis hydration configured each document is also stored
// as a hash with stringified field values.
func (c *Client) Index(ctx context.Context, entity string, docs []Document) error {
	start := time.Now()
	err := c.index(ctx, entity, docs)
	c.obs.observe("index", start, err)
	return err
}

func (c *Client) index(ctx context.Context, entity string, docs []Document) error {
	if c.indexer == nil {
		return ErrIndexingNotSupported
	}
	e, err := c.entities.Get(ctx, entity)
	if err != nil {
		return fmt.Errorf("facetdex: %w", err)
	}

	dbDocs := make([]db.Document, len(docs))
	for i, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("facetdex: document %d: %w: id is required", i, domain.ErrInvalidParams)
		}
		dbDocs[i] = db.Document{ID: d.ID, Source: d.Fields}
	}
	if err := c.indexer.Index(ctx, e.Index(), dbDocs); err != nil {
		return fmt.Errorf("facetdex: index %s: %w", e.Index(), err)
	}

	if c.hashes == nil {
		return nil
	}
	items := make([]db.HashSetItem, len(docs))
	for i, d := range docs {
		fields, err := hashFields(d.Fields)
		if err != nil {
			return fmt.Errorf("facetdex: document %s: %w", d.ID, err)
		}
		items[i] = db.HashSetItem{Key: recordrepo.Key(c.keyPrefix, e.Index(), d.ID), Fields: fields}
	}
	if err := c.hashes.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("facetdex: store hashes: %w", err)
	}
	return nil
}

// hashFields stringifies scalars with cast and encodes anything else as JSON.
func hashFields(fields map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		if s, err := cast.ToStringE(v); err == nil {
			out[k] = s
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = string(raw)
	}
	return out, nil
}

// Ping checks that the search backend responds.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.backend.Ping(ctx); err != nil {
		return fmt.Errorf("facetdex: %w: %w", ErrBackendUnavailable, err)
	}
	return nil
}

// Close releases the backend and hydration store.
func (c *Client) Close() error {
	if c.hashes != nil {
		c.hashes.Close()
	}
	if err := c.backend.Close(); err != nil {
		return fmt.Errorf("facetdex: close: %w", err)
	}
	return nil
}

func toRequest(req SearchRequest) (searchuc.Request, error) {
	p, err := params.FromMap(req.Params)
	if err != nil {
		return searchuc.Request{}, fmt.Errorf("facetdex: %w", err)
	}

	var order []query.Sort
	if req.Sort != nil {
		order = make([]query.Sort, len(req.Sort))
		for i, s := range req.Sort {
			dir := s.Order
			if dir == "" {
				dir = Asc
			}
			if dir != Asc && dir != Desc {
				return searchuc.Request{}, fmt.Errorf("facetdex: %w: sort order %q", ErrInvalidParams, s.Order)
			}
			order[i] = query.Sort{Field: s.Field, Order: dir}
		}
	}

	must := make([]query.Clause, len(req.AdditionalMust))
	for i, raw := range req.AdditionalMust {
		if !json.Valid(raw) {
			return searchuc.Request{}, fmt.Errorf("facetdex: %w: additional must %d is not valid JSON", ErrInvalidParams, i)
		}
		must[i] = query.Raw(raw)
	}

	return searchuc.Request{
		Params:          p,
		Sort:            order,
		PerPage:         req.PerPage,
		Page:            req.Page,
		AdditionalQuery: query.Fragment(req.AdditionalQuery),
		AdditionalMust:  must,
	}, nil
}

func fromResult(r result.Result) *SearchResult {
	records := make([]Record, len(r.Hits.Objects))
	for i, rec := range r.Hits.Objects {
		records[i] = Record{ID: rec.ID(), Index: rec.Index(), Score: rec.Score(), Fields: rec.Fields()}
	}
	facets := make([]FacetResult, len(r.Facets))
	for i, f := range r.Facets {
		facets[i] = FacetResult{Name: f.Name, Options: f.Options}
	}
	return &SearchResult{
		Records:    records,
		TotalHits:  r.Hits.TotalHits,
		TotalPages: r.Hits.TotalPages,
		Facets:     facets,
	}
}
