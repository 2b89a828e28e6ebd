package search

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/solrq/internal/domain/query"
	"github.com/kailas-cloud/solrq/internal/domain/schema"
	"github.com/kailas-cloud/solrq/internal/domain/search/expr"
	"github.com/kailas-cloud/solrq/internal/domain/search/request"
	"github.com/kailas-cloud/solrq/internal/domain/search/result"
	"github.com/kailas-cloud/solrq/internal/logger"
	"github.com/kailas-cloud/solrq/internal/transport/solr"
)

// ErrDeleteDisabled is returned by deletes when the service has no Deleter.
var ErrDeleteDisabled = errors.New("delete is not configured")

// Service compiles expressions against a schema and runs them on the search service.
type Service struct {
	schema   *schema.Schema
	selecter Selecter
	deleter  Deleter
	cache    Invalidator
}

// New creates a search service. deleter and cache can be nil.
func New(s *schema.Schema, selecter Selecter, deleter Deleter, cache Invalidator) *Service {
	return &Service{schema: s, selecter: selecter, deleter: deleter, cache: cache}
}

// Schema returns the schema queries are checked against.
func (s *Service) Schema() *schema.Schema { return s.schema }

// Compile renders a query expression and filter expressions.
func (s *Service) Compile(_ context.Context, main expr.Expr, filters []expr.Expr) (Compiled, error) {
	q, err := expr.Compile(s.schema, main)
	if err != nil {
		return Compiled{}, fmt.Errorf("compile query: %w", err)
	}
	fqs, err := expr.CompileAll(s.schema, filters)
	if err != nil {
		return Compiled{}, fmt.Errorf("compile filter: %w", err)
	}

	out := Compiled{Q: q.String(), FQ: make([]string, 0, len(fqs))}
	for _, fq := range fqs {
		if text := fq.String(); text != "" {
			out.FQ = append(out.FQ, text)
		}
	}
	return out, nil
}

// BuildRequest turns an expression-form search into a request.
func (s *Service) BuildRequest(in *SelectInput) (request.Request, error) {
	q, err := expr.Compile(s.schema, in.Query)
	if err != nil {
		return request.Request{}, fmt.Errorf("compile query: %w", err)
	}
	req, err := request.New(s.schema).WithQuery(q)
	if err != nil {
		return request.Request{}, err
	}

	fqs, err := expr.CompileAll(s.schema, in.Filters)
	if err != nil {
		return request.Request{}, fmt.Errorf("compile filter: %w", err)
	}
	for _, fq := range fqs {
		if req, err = req.WithFilter(fq); err != nil {
			return request.Request{}, err
		}
	}

	if in.Start != nil || in.Rows != nil {
		start, rows := request.DefaultStart, request.DefaultRows
		if in.Start != nil {
			start = *in.Start
		}
		if in.Rows != nil {
			rows = *in.Rows
		}
		if req, err = req.Paginate(start, rows); err != nil {
			return request.Request{}, err
		}
	}
	if len(in.Sort) > 0 {
		if req, err = req.SortBy(in.Sort...); err != nil {
			return request.Request{}, err
		}
	}
	if len(in.Fields) > 0 {
		if req, err = req.FieldList(in.Fields...); err != nil {
			return request.Request{}, err
		}
	}
	for _, f := range in.Facets {
		if req, err = req.FacetBy(f.Field, f.Options); err != nil {
			return request.Request{}, err
		}
	}
	if h := in.Highlight; h != nil {
		if req, err = req.Highlight(h.Options, h.Fields...); err != nil {
			return request.Request{}, err
		}
	}
	if m := in.MoreLikeThis; m != nil {
		if req, err = req.MoreLikeThis(m.Fields, m.QueryFields, m.Options); err != nil {
			return request.Request{}, err
		}
	}
	return req, nil
}

// Select builds and runs an expression-form search.
func (s *Service) Select(ctx context.Context, in *SelectInput) (*Result, error) {
	req, err := s.BuildRequest(in)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, req)
}

// Execute runs a request and types the returned documents by the schema.
func (s *Service) Execute(ctx context.Context, req request.Request) (*Result, error) {
	params := req.Params()
	logger.FromContext(ctx).Debug("executing search",
		zap.String("q", params.Get("q")),
		zap.Strings("fq", params["fq"]),
	)

	resp, err := s.selecter.Select(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return decodeResult(s.schema, resp)
}

// DeleteByQuery deletes the documents matching e and drops cached responses.
// An empty expression is rejected; use DeleteAll.
func (s *Service) DeleteByQuery(ctx context.Context, e expr.Expr) error {
	q, err := expr.Compile(s.schema, e)
	if err != nil {
		return fmt.Errorf("compile query: %w", err)
	}
	return s.delete(ctx, func(d Deleter) error { return d.DeleteByQuery(ctx, q) })
}

// DeleteQuery deletes the documents matching a prebuilt query.
func (s *Service) DeleteQuery(ctx context.Context, q query.Query) error {
	return s.delete(ctx, func(d Deleter) error { return d.DeleteByQuery(ctx, q) })
}

// DeleteAll deletes every document and drops cached responses.
func (s *Service) DeleteAll(ctx context.Context) error {
	return s.delete(ctx, func(d Deleter) error { return d.DeleteAll(ctx) })
}

func (s *Service) delete(ctx context.Context, run func(Deleter) error) error {
	if s.deleter == nil {
		return ErrDeleteDisabled
	}
	if err := run(s.deleter); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			logger.FromContext(ctx).Warn("Failed to invalidate response cache", zap.Error(err))
		}
	}
	return nil
}

// Result is a decoded search response.
type Result struct {
	Page         result.Page                    `json:"response"`
	Facets       map[string][]solr.FacetCount   `json:"facets,omitempty"`
	Highlighting map[string]map[string][]string `json:"highlighting,omitempty"`
	MoreLikeThis map[string]result.Page         `json:"more_like_this,omitempty"`
	QTime        int                            `json:"qtime"`
}

func decodeResult(s *schema.Schema, resp *solr.Response) (*Result, error) {
	out := &Result{
		Highlighting: resp.Highlighting,
		QTime:        resp.Header.QTime,
	}
	if resp.Response != nil {
		page, err := decodePage(s, resp.Response)
		if err != nil {
			return nil, err
		}
		out.Page = page
	}
	facets, err := resp.FacetCounts.Fields()
	if err != nil {
		return nil, fmt.Errorf("decode facets: %w", err)
	}
	out.Facets = facets

	if len(resp.MoreLikeThis) > 0 {
		out.MoreLikeThis = make(map[string]result.Page, len(resp.MoreLikeThis))
		for id, list := range resp.MoreLikeThis {
			page, err := decodePage(s, &list)
			if err != nil {
				return nil, fmt.Errorf("more like %q: %w", id, err)
			}
			out.MoreLikeThis[id] = page
		}
	}
	return out, nil
}

func decodePage(s *schema.Schema, list *solr.DocList) (result.Page, error) {
	page := result.Page{
		NumFound: list.NumFound,
		Start:    list.Start,
		MaxScore: list.MaxScore,
		Docs:     make([]result.Document, 0, len(list.Docs)),
	}
	for i, raw := range list.Docs {
		doc, err := result.Decode(s, raw)
		if err != nil {
			return result.Page{}, fmt.Errorf("decode document %d: %w", i, err)
		}
		page.Docs = append(page.Docs, doc)
	}
	return page, nil
}
