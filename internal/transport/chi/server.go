package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/schema"
	"github.com/kailas-cloud/solrq/internal/domain/search/expr"
	healthuc "github.com/kailas-cloud/solrq/internal/usecase/health"
	searchuc "github.com/kailas-cloud/solrq/internal/usecase/search"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the query compilation and search API.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	maxBodyBytes  int64
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:       search,
		health:       health,
		logger:       logger,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrUpstream, http.StatusBadGateway, ErrorCodeUpstreamError),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, ErrorCodeUpstreamTimeout),
		sentinelHandler(searchuc.ErrDeleteDisabled, http.StatusNotImplemented, ErrorCodeNotImplemented),
	}
	return s
}

// WithMaxBodyBytes overrides the request body limit.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBodyBytes = n
	}
	return s
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: report.Status,
		Checks: report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// GetSchema handles GET /v1/schema.
func (s *Server) GetSchema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, schema.Describe(s.search.Schema()))
}

// Compile handles POST /v1/compile.
func (s *Server) Compile(w http.ResponseWriter, r *http.Request) {
	var req CompileRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	out, err := s.search.Compile(r.Context(), req.Query, req.Filter)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, CompileResponse{Q: out.Q, FQ: out.FQ})
}

// Select handles POST /v1/select.
func (s *Server) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if !bindPage(w, r, &req.Start, &req.Rows) {
		return
	}

	in := selectInputFromAPI(&req)
	res, err := s.search.Select(r.Context(), &in)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// SelectArgs handles GET /v1/select. q carries one expression in argument
// form (bare terms, field=value, field__relation=a,b); each fq value is a
// space-separated argument list.
func (s *Server) SelectArgs(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	lists := make(map[string][]string, 4)
	for _, name := range []string{"q", "fq", "sort", "fl"} {
		var v *[]string
		if err := runtime.BindQueryParameter("form", true, false, name, params, &v); err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest,
				fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
			return
		}
		if v != nil {
			lists[name] = *v
		}
	}

	var in searchuc.SelectInput
	if !bindPage(w, r, &in.Start, &in.Rows) {
		return
	}

	main, err := expr.ParseArgs(lists["q"])
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	in.Query = main
	for _, f := range lists["fq"] {
		filter, err := expr.ParseArgs(strings.Fields(f))
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		in.Filters = append(in.Filters, filter)
	}
	in.Sort = splitList(lists["sort"])
	in.Fields = splitList(lists["fl"])

	res, err := s.search.Select(r.Context(), &in)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// bindPage reads optional start and rows query parameters into the targets.
func bindPage(w http.ResponseWriter, r *http.Request, start, rows **int) bool {
	params := r.URL.Query()
	for _, p := range []struct {
		name string
		dest **int
	}{{"start", start}, {"rows", rows}} {
		name, dest := p.name, p.dest
		var v *int
		if err := runtime.BindQueryParameter("form", true, false, name, params, &v); err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest,
				fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
			return false
		}
		if v != nil {
			*dest = v
		}
	}
	return true
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Request body is required")
			return false
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorCodeBadRequest,
				fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func selectInputFromAPI(req *SelectRequest) searchuc.SelectInput {
	in := searchuc.SelectInput{
		Query:   req.Query,
		Filters: req.Filter,
		Start:   req.Start,
		Rows:    req.Rows,
		Sort:    req.Sort,
		Fields:  req.Fields,
	}
	for _, f := range req.Facets {
		in.Facets = append(in.Facets, searchuc.FacetInput{Field: f.Field, Options: f.FacetOptions})
	}
	if h := req.Highlight; h != nil {
		in.Highlight = &searchuc.HighlightInput{Fields: h.Fields, Options: h.HighlightOptions}
	}
	if m := req.MoreLikeThis; m != nil {
		in.MoreLikeThis = &searchuc.MoreLikeThisInput{
			Fields:      m.Fields,
			QueryFields: m.QueryFields,
			Options:     m.MoreLikeThisOptions,
		}
	}
	return in
}

// splitList flattens repeated and comma-separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// validationErrors are caused by the caller's input; their text names the
// offending field and value and is safe to return.
var validationErrors = []error{
	domain.ErrUnknownField,
	domain.ErrNotIndexed,
	domain.ErrNotMultiValued,
	domain.ErrValueType,
	domain.ErrValueRange,
	domain.ErrInvalidRelation,
	domain.ErrMalformedRange,
	domain.ErrEmptyQueryBoost,
	domain.ErrInvalidRequest,
}

func validationHandler(w http.ResponseWriter, err error) bool {
	for _, sentinel := range validationErrors {
		if errors.Is(err, sentinel) {
			writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
			return true
		}
	}
	return false
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// The client sees only the sentinel text.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.logger.With(zap.String("request_id", chiMiddleware.GetReqID(r.Context())))
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
