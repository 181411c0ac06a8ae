package facetdex

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// Backend drivers.
const (
	driverElasticsearch = "elasticsearch"
	driverBleve         = "bleve"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver string

	esAddrs     []string
	esUsername  string
	esPassword  string
	esTransport http.RoundTripper

	bleveDir string

	redisAddrs     []string
	redisPassword  string
	redisKeyPrefix string

	entities       []*Entity
	defaultPerPage int
	maxPerPage     int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithElasticsearch executes searches on an Elasticsearch cluster.
func WithElasticsearch(addrs []string, username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverElasticsearch
		c.esAddrs = addrs
		c.esUsername = username
		c.esPassword = password
	})
}

// WithElasticsearchTransport overrides the HTTP transport of the Elasticsearch client.
func WithElasticsearchTransport(rt http.RoundTripper) Option {
	return optionFunc(func(c *clientConfig) {
		c.esTransport = rt
	})
}

// WithBleve executes searches on embedded bleve indexes stored under dir,
// one directory per index. An empty dir keeps the indexes in memory.
func WithBleve(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverBleve
		c.bleveDir = dir
	})
}

// WithRedisHydration loads hit records from Redis hashes named
// {keyPrefix}{index}:{id} instead of the backend document source.
func WithRedisHydration(addr, password, keyPrefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = []string{addr}
		c.redisPassword = password
		c.redisKeyPrefix = keyPrefix
	})
}

// WithEntities registers searchable entities.
func WithEntities(entities ...*Entity) Option {
	return optionFunc(func(c *clientConfig) {
		c.entities = append(c.entities, entities...)
	})
}

// WithPageLimits sets the default page size for entities without one and the
// largest page size a request may ask for. Zero disables either.
func WithPageLimits(defaultPerPage, maxPerPage int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultPerPage = defaultPerPage
		c.maxPerPage = maxPerPage
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
