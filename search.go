package solrq

import (
	"github.com/kailas-cloud/solrq/internal/domain/search/request"
	"github.com/kailas-cloud/solrq/internal/domain/search/result"
	"github.com/kailas-cloud/solrq/internal/transport/solr"
	searchuc "github.com/kailas-cloud/solrq/internal/usecase/search"
)

// Request is a persistent search request: query, filters, paging, sorting,
// facets, highlighting and more-like-this.
type Request = request.Request

// Request options.
type (
	FacetOptions        = request.FacetOptions
	HighlightOptions    = request.HighlightOptions
	MoreLikeThisOptions = request.MoreLikeThisOptions
)

// Facet sort orders.
const (
	FacetSortCount = request.FacetSortCount
	FacetSortIndex = request.FacetSortIndex
)

// NewRequest returns an empty request bound to s.
func NewRequest(s *Schema) Request { return request.New(s) }

// Response is a decoded select response.
type Response = searchuc.Result

// Document is one hit with values typed by the schema.
type Document = result.Document

// Page is one page of hits.
type Page = result.Page

// FacetCount is one value of a field facet.
type FacetCount = solr.FacetCount

// StatusError is returned when the search service answers with a non-200 status.
type StatusError = solr.StatusError
