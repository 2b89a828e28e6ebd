package solrq

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbRedis "github.com/kailas-cloud/solrq/internal/db/redis"
	"github.com/kailas-cloud/solrq/internal/metrics"
	"github.com/kailas-cloud/solrq/internal/repository/respcache"
	"github.com/kailas-cloud/solrq/internal/transport/solr"
	searchuc "github.com/kailas-cloud/solrq/internal/usecase/search"
)

const cacheReadyTimeout = 10 * time.Second

// Client builds schema-checked queries and, when connected, runs them.
// Safe for concurrent use.
type Client struct {
	schema *Schema
	solr   *solr.Client
	store  *dbRedis.Store
	cache  *respcache.CachedSelecter
	svc    *searchuc.Service
	obs    *observer
}

// New creates a client. Without WithURL the client only builds queries and
// requests; operations that need a search service return ErrNotConnected.
func New(ctx context.Context, src SchemaSource, opts ...Option) (*Client, error) {
	if src == nil {
		return nil, errors.New("solrq: schema source is required")
	}
	s, err := src()
	if err != nil {
		return nil, fmt.Errorf("solrq: load schema: %w", err)
	}
	if s == nil {
		return nil, errors.New("solrq: schema source returned nil")
	}

	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	c := &Client{schema: s, obs: obs}
	if cfg.baseURL == "" {
		return c, nil
	}

	c.solr, err = solr.NewClient(&solr.Config{
		BaseURL:         cfg.baseURL,
		Core:            cfg.core,
		Timeout:         cfg.timeout,
		MaxGetURLLength: cfg.maxGetURLLength,
		HTTPClient:      cfg.httpClient,
		Logger:          cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("solrq: %w", err)
	}

	// nil interfaces, not typed nil pointers
	var selecter searchuc.Selecter = c.solr
	var invalidator searchuc.Invalidator
	if len(cfg.cacheAddrs) > 0 {
		if err := c.connectCache(ctx, cfg); err != nil {
			return nil, err
		}
		selecter = c.cache
		invalidator = c.cache
	}
	c.svc = searchuc.New(s, selecter, c.solr, invalidator)
	return c, nil
}

func (c *Client) connectCache(ctx context.Context, cfg *clientConfig) error {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.cacheAddrs,
		Password: cfg.cachePassword,
	})
	if err != nil {
		return fmt.Errorf("solrq: connect cache: %w", err)
	}
	if err := store.WaitForReady(ctx, cacheReadyTimeout); err != nil {
		store.Close()
		return fmt.Errorf("solrq: cache not ready: %w", err)
	}

	cacheTotal := metrics.ResponseCacheTotal
	if cfg.metricsReg == nil {
		cacheTotal = nil
	}
	c.store = store
	c.cache = respcache.New(c.solr, store, respcache.Config{
		TTL:        cfg.cacheTTL,
		KeyPrefix:  cfg.cachePrefix,
		CacheTotal: cacheTotal,
		Logger:     cfg.logger,
	})
	return nil
}

// Schema returns the schema queries are checked against.
func (c *Client) Schema() *Schema { return c.schema }

// Query returns an empty query bound to the client schema.
func (c *Client) Query() Query { return NewQuery(c.schema) }

// Search returns an empty request bound to the client schema.
func (c *Client) Search() Request { return NewRequest(c.schema) }

// Select runs req and decodes the hits with the client schema.
func (c *Client) Select(ctx context.Context, req Request) (_ *Response, err error) {
	defer func(start time.Time) { c.obs.observe("select", start, err) }(time.Now())
	if c.svc == nil {
		return nil, ErrNotConnected
	}
	if req.Schema() != c.schema {
		return nil, fmt.Errorf("%w: request built for a different schema", ErrInvalidRequest)
	}
	return c.svc.Execute(ctx, req)
}

// DeleteByQuery removes every document matching q. The response cache is
// flushed afterwards.
func (c *Client) DeleteByQuery(ctx context.Context, q Query) (err error) {
	defer func(start time.Time) { c.obs.observe("delete_by_query", start, err) }(time.Now())
	if c.svc == nil {
		return ErrNotConnected
	}
	return c.svc.DeleteQuery(ctx, q)
}

// DeleteAll removes every document from the core.
func (c *Client) DeleteAll(ctx context.Context) (err error) {
	defer func(start time.Time) { c.obs.observe("delete_all", start, err) }(time.Now())
	if c.svc == nil {
		return ErrNotConnected
	}
	return c.svc.DeleteAll(ctx)
}

// InvalidateCache drops every cached select response. It is a no-op without WithCache.
func (c *Client) InvalidateCache(ctx context.Context) (err error) {
	defer func(start time.Time) { c.obs.observe("invalidate_cache", start, err) }(time.Now())
	if c.cache == nil {
		return nil
	}
	return c.cache.Invalidate(ctx)
}

// Ping checks the search service and, when configured, the cache.
func (c *Client) Ping(ctx context.Context) (err error) {
	defer func(start time.Time) { c.obs.observe("ping", start, err) }(time.Now())
	if c.solr == nil {
		return ErrNotConnected
	}
	if err := c.solr.Ping(ctx); err != nil {
		return err
	}
	if c.store != nil {
		if err := c.store.Ping(ctx); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
	}
	return nil
}

// Close releases the cache connection.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
	if c.obs != nil && c.obs.logger != nil {
		_ = c.obs.logger.Sync()
	}
}

