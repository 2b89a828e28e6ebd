package respcache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/solrq/internal/db"
	"github.com/kailas-cloud/solrq/internal/transport/solr"
)

// DefaultKeyPrefix namespaces cached select responses.
const DefaultKeyPrefix = "solrq:select:"

// delBatch bounds the number of keys per DEL during invalidation.
const delBatch = 500

// store is the consumer interface for the response cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// selecter runs select requests against the search service.
type selecter interface {
	Select(ctx context.Context, params url.Values) (*solr.Response, error)
}

// CachedSelecter caches select responses in a key-value store. Store failures
// degrade to uncached requests.
type CachedSelecter struct {
	inner      selecter
	store      store
	ttl        time.Duration
	prefix     string
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// Config holds cache settings.
type Config struct {
	TTL       time.Duration
	KeyPrefix string
	// CacheTotal is a counter vec with label "result" ("hit"/"miss"). Optional.
	CacheTotal *prometheus.CounterVec
	Logger     *zap.Logger
}

// New creates a caching decorator.
func New(inner selecter, s store, cfg Config) *CachedSelecter {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSelecter{
		inner:      inner,
		store:      s,
		ttl:        cfg.TTL,
		prefix:     prefix,
		cacheTotal: cfg.CacheTotal,
		logger:     logger,
	}
}

// Select returns a cached response or calls the inner selecter.
func (c *CachedSelecter) Select(ctx context.Context, params url.Values) (*solr.Response, error) {
	key := c.cacheKey(params)

	if resp, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return resp, nil
	}

	c.incCache("miss")

	resp, err := c.inner.Select(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	c.putToCache(ctx, key, resp)
	return resp, nil
}

// Invalidate drops every cached response under the prefix.
func (c *CachedSelecter) Invalidate(ctx context.Context) error {
	keys, err := c.store.Scan(ctx, c.prefix+"*")
	if err != nil {
		return fmt.Errorf("scan cached responses: %w", err)
	}
	for start := 0; start < len(keys); start += delBatch {
		end := min(start+delBatch, len(keys))
		if err := c.store.Del(ctx, keys[start:end]...); err != nil {
			return fmt.Errorf("drop cached responses: %w", err)
		}
	}
	c.logger.Debug("Response cache invalidated", zap.Int("keys", len(keys)))
	return nil
}

func (c *CachedSelecter) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey hashes the encoded parameters; Encode sorts by key, so equal
// requests share an entry.
func (c *CachedSelecter) cacheKey(params url.Values) string {
	h := sha256.Sum256([]byte(params.Encode()))
	return c.prefix + hex.EncodeToString(h[:])
}

func (c *CachedSelecter) getFromCache(ctx context.Context, key string) (*solr.Response, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached response", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var resp solr.Response
	if err := dec.Decode(&resp); err != nil {
		c.logger.Warn("Failed to parse cached response", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &resp, true
}

func (c *CachedSelecter) putToCache(ctx context.Context, key string, resp *solr.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Warn("Failed to encode response for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache response", zap.String("key", key), zap.Error(err))
	}
}
