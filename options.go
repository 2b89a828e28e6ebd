package solrq

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	baseURL         string
	core            string
	httpClient      *http.Client
	timeout         time.Duration
	maxGetURLLength int

	cacheAddrs    []string
	cachePassword string
	cacheTTL      time.Duration
	cachePrefix   string

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithURL sets the search service root (e.g. http://localhost:8983/solr)
// and the core to query. core may be empty when baseURL already names it.
func WithURL(baseURL, core string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = baseURL
		c.core = core
	})
}

// WithHTTPClient replaces the HTTP client. WithTimeout is ignored when set.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithTimeout sets the per-request timeout. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithMaxGetURLLength sets the URL length above which selects are sent as
// form POSTs. Default: 2048.
func WithMaxGetURLLength(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxGetURLLength = n
	})
}

// WithCache caches select responses in Redis or Valkey for ttl. A non-positive
// ttl keeps entries until they are invalidated.
// Deletes through the client flush the cache.
func WithCache(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
		c.cacheTTL = ttl
	})
}

// WithCacheKeyPrefix namespaces cache keys. Default: "solrq:select:".
func WithCacheKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cachePrefix = prefix
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations,
// transport and cache counters) on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
