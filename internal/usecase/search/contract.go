package search

import (
	"context"
	"net/url"

	"github.com/kailas-cloud/solrq/internal/domain/query"
	"github.com/kailas-cloud/solrq/internal/transport/solr"
)

// Selecter runs select requests against the search service.
type Selecter interface {
	Select(ctx context.Context, params url.Values) (*solr.Response, error)
}

// Deleter removes documents from the search service.
type Deleter interface {
	DeleteByQuery(ctx context.Context, q query.Query) error
	DeleteAll(ctx context.Context) error
}

// Invalidator drops cached select responses after writes.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}
