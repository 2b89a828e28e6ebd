package search

import (
	"github.com/kailas-cloud/solrq/internal/domain/search/expr"
	"github.com/kailas-cloud/solrq/internal/domain/search/request"
)

// SelectInput describes a search in expression form.
type SelectInput struct {
	Query        expr.Expr
	Filters      []expr.Expr
	Start        *int
	Rows         *int
	Sort         []string
	Fields       []string
	Facets       []FacetInput
	Highlight    *HighlightInput
	MoreLikeThis *MoreLikeThisInput
}

// FacetInput requests counts for one field.
type FacetInput struct {
	Field   string
	Options request.FacetOptions
}

// HighlightInput turns on highlighting.
type HighlightInput struct {
	Fields  []string
	Options request.HighlightOptions
}

// MoreLikeThisInput requests similar documents.
type MoreLikeThisInput struct {
	Fields      []string
	QueryFields map[string]float64
	Options     request.MoreLikeThisOptions
}

// Compiled is the query-language text of a query and its filters.
type Compiled struct {
	Q  string   `json:"q"`
	FQ []string `json:"fq"`
}
