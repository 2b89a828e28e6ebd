package chi

import (
	"github.com/kailas-cloud/solrq/internal/domain/search/expr"
	"github.com/kailas-cloud/solrq/internal/domain/search/request"
	"github.com/kailas-cloud/solrq/internal/usecase/health"
)

// ErrorCode is a machine-readable error class.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeUpstreamError    ErrorCode = "upstream_error"
	ErrorCodeUpstreamTimeout  ErrorCode = "upstream_timeout"
	ErrorCodeNotImplemented   ErrorCode = "not_implemented"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status health.Status                 `json:"status"`
	Checks map[string]health.CheckResult `json:"checks"`
}

// CompileRequest is the body of POST /v1/compile.
type CompileRequest struct {
	Query  expr.Expr   `json:"query"`
	Filter []expr.Expr `json:"filter,omitempty"`
}

// CompileResponse carries the rendered query and filter queries.
type CompileResponse struct {
	Q  string   `json:"q"`
	FQ []string `json:"fq"`
}

// SelectRequest is the body of POST /v1/select. start and rows query
// parameters take precedence over the body.
type SelectRequest struct {
	Query        expr.Expr         `json:"query"`
	Filter       []expr.Expr       `json:"filter,omitempty"`
	Start        *int              `json:"start,omitempty"`
	Rows         *int              `json:"rows,omitempty"`
	Sort         []string          `json:"sort,omitempty"`
	Fields       []string          `json:"fl,omitempty"`
	Facets       []FacetSpec       `json:"facets,omitempty"`
	Highlight    *HighlightSpec    `json:"highlight,omitempty"`
	MoreLikeThis *MoreLikeThisSpec `json:"more_like_this,omitempty"`
}

// FacetSpec requests counts for one field.
type FacetSpec struct {
	Field string `json:"field"`
	request.FacetOptions
}

// HighlightSpec turns on highlighting for fields (all when empty).
type HighlightSpec struct {
	Fields []string `json:"fields,omitempty"`
	request.HighlightOptions
}

// MoreLikeThisSpec requests similar documents per hit.
type MoreLikeThisSpec struct {
	Fields      []string           `json:"fields"`
	QueryFields map[string]float64 `json:"query_fields,omitempty"`
	request.MoreLikeThisOptions
}
