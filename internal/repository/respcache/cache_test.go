package respcache

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/transport/solr"
)

func testResponse() *solr.Response {
	return &solr.Response{
		Header: solr.Header{QTime: 4},
		Response: &solr.DocList{
			NumFound: 1,
			Docs:     []map[string]any{{"id": "a", "views": json.Number("9007199254740993")}},
		},
	}
}

func TestSelect_CacheMissThenHit(t *testing.T) {
	inner := &mockSelecter{resp: testResponse()}
	c, ms := newTestCache(t, inner)
	ctx := context.Background()
	params := url.Values{"q": {"title:go"}, "wt": {"json"}}

	first, err := c.Select(ctx, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Response.NumFound != 1 {
		t.Fatalf("unexpected response: %+v", first.Response)
	}
	if len(ms.data) != 1 {
		t.Fatalf("expected 1 cached entry, got %d", len(ms.data))
	}
	for k, ttl := range ms.ttls {
		if !strings.HasPrefix(k, DefaultKeyPrefix) {
			t.Errorf("key %q lacks prefix", k)
		}
		if ttl != time.Minute {
			t.Errorf("ttl = %v", ttl)
		}
	}

	second, err := c.Select(ctx, url.Values{"wt": {"json"}, "q": {"title:go"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected inner to be called once, got %d", inner.calls)
	}
	if got := second.Response.Docs[0]["views"]; got != json.Number("9007199254740993") {
		t.Errorf("cached number lost precision: %#v", got)
	}
}

func TestSelect_DifferentParamsMiss(t *testing.T) {
	inner := &mockSelecter{resp: testResponse()}
	c, _ := newTestCache(t, inner)
	ctx := context.Background()

	_, _ = c.Select(ctx, url.Values{"q": {"a"}})
	_, _ = c.Select(ctx, url.Values{"q": {"b"}})
	if inner.calls != 2 {
		t.Errorf("expected 2 inner calls, got %d", inner.calls)
	}
}

func TestSelect_InnerError(t *testing.T) {
	inner := &mockSelecter{err: &solr.StatusError{Op: "select", Code: 400}}
	c, ms := newTestCache(t, inner)

	_, err := c.Select(context.Background(), url.Values{"q": {"x"}})
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if len(ms.data) != 0 {
		t.Error("errors must not be cached")
	}
}

func TestSelect_StoreErrorsDegrade(t *testing.T) {
	inner := &mockSelecter{resp: testResponse()}
	c, ms := newTestCache(t, inner)
	ms.getErr = errors.New("conn refused")
	ms.setErr = errors.New("conn refused")

	for range 2 {
		if _, err := c.Select(context.Background(), url.Values{"q": {"x"}}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if inner.calls != 2 {
		t.Errorf("expected every call to reach inner, got %d", inner.calls)
	}
}

func TestSelect_CorruptEntry(t *testing.T) {
	inner := &mockSelecter{resp: testResponse()}
	c, ms := newTestCache(t, inner)
	params := url.Values{"q": {"x"}}
	ms.data[c.cacheKey(params)] = []byte("{not json")

	if _, err := c.Select(context.Background(), params); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("corrupt entry should fall through to inner")
	}
}

func TestSelect_CountsHitsAndMisses(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
	inner := &mockSelecter{resp: testResponse()}
	c := New(inner, newMockKVStore(), Config{CacheTotal: counter})

	params := url.Values{"q": {"x"}}
	_, _ = c.Select(context.Background(), params)
	_, _ = c.Select(context.Background(), params)
	_, _ = c.Select(context.Background(), params)

	if got := testutil.ToFloat64(counter.WithLabelValues("miss")); got != 1 {
		t.Errorf("misses = %v", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("hit")); got != 2 {
		t.Errorf("hits = %v", got)
	}
}

func TestInvalidate(t *testing.T) {
	inner := &mockSelecter{resp: testResponse()}
	c, ms := newTestCache(t, inner)
	ctx := context.Background()
	ms.data["other:key"] = []byte("keep")

	_, _ = c.Select(ctx, url.Values{"q": {"a"}})
	_, _ = c.Select(ctx, url.Values{"q": {"b"}})

	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ms.data) != 1 || ms.data["other:key"] == nil {
		t.Errorf("unexpected store contents after invalidate: %v", ms.data)
	}

	_, _ = c.Select(ctx, url.Values{"q": {"a"}})
	if inner.calls != 3 {
		t.Errorf("expected a miss after invalidation, inner calls = %d", inner.calls)
	}

	ms.delErr = errors.New("readonly")
	if err := c.Invalidate(ctx); err == nil {
		t.Error("expected Del error to surface")
	}
}

func TestCacheKey_CustomPrefix(t *testing.T) {
	c := New(&mockSelecter{}, newMockKVStore(), Config{KeyPrefix: "p:"})
	key := c.cacheKey(url.Values{"q": {"a"}})
	if !strings.HasPrefix(key, "p:") || len(key) != len("p:")+64 {
		t.Errorf("unexpected key %q", key)
	}
}
