package request

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/query"
	"github.com/kailas-cloud/solrq/internal/domain/schema"
)

// Paging defaults.
const (
	DefaultStart = 0
	DefaultRows  = 10
)

// ScoreField is the pseudo-field holding the relevancy score.
const ScoreField = "score"

// Request is a persistent search request: a main query, filter queries and
// result options. Every builder method returns a new Request.
type Request struct {
	schema  *schema.Schema
	query   query.Query
	filter  query.Query
	extra   []query.Query
	start   *int
	rows    *int
	sort    []string
	fl      []string
	facets  []facet
	hl      *highlight
	mlt     *moreLikeThis
	options url.Values
}

// New returns an empty request against s.
func New(s *schema.Schema) Request {
	return Request{schema: s, query: query.New(s), filter: query.New(s)}
}

// Schema returns the schema the request validates against.
func (r Request) Schema() *schema.Schema { return r.schema }

// MainQuery returns the main query tree.
func (r Request) MainQuery() query.Query { return r.query }

// FilterQueries returns the non-empty filter trees in the order they are sent.
func (r Request) FilterQueries() []query.Query {
	out := make([]query.Query, 0, 1+len(r.extra))
	if !r.filter.IsEmpty() {
		out = append(out, r.filter)
	}
	for _, q := range r.extra {
		if !q.IsEmpty() {
			out = append(out, q)
		}
	}
	return out
}

// Query adds clauses to the main query. See query.Query.Add.
func (r Request) Query(fields query.Fields, values ...any) (Request, error) {
	q, err := r.query.Add(fields, values...)
	if err != nil {
		return r, err
	}
	r.query = q
	return r, nil
}

// QueryByTerm adds clauses to the main query, treating all text as terms.
func (r Request) QueryByTerm(fields query.Fields, values ...any) (Request, error) {
	q, err := r.query.AddTerms(fields, values...)
	if err != nil {
		return r, err
	}
	r.query = q
	return r, nil
}

// QueryByPhrase adds clauses to the main query, treating all text as phrases.
func (r Request) QueryByPhrase(fields query.Fields, values ...any) (Request, error) {
	q, err := r.query.AddPhrases(fields, values...)
	if err != nil {
		return r, err
	}
	r.query = q
	return r, nil
}

// Filter adds clauses to the filter query.
func (r Request) Filter(fields query.Fields, values ...any) (Request, error) {
	q, err := r.filter.Add(fields, values...)
	if err != nil {
		return r, err
	}
	r.filter = q
	return r, nil
}

// FilterByTerm is Filter with all text treated as terms.
func (r Request) FilterByTerm(fields query.Fields, values ...any) (Request, error) {
	q, err := r.filter.AddTerms(fields, values...)
	if err != nil {
		return r, err
	}
	r.filter = q
	return r, nil
}

// FilterByPhrase is Filter with all text treated as phrases.
func (r Request) FilterByPhrase(fields query.Fields, values ...any) (Request, error) {
	q, err := r.filter.AddPhrases(fields, values...)
	if err != nil {
		return r, err
	}
	r.filter = q
	return r, nil
}

// Exclude adds the negation of the given clauses to the filter query.
func (r Request) Exclude(fields query.Fields, values ...any) (Request, error) {
	excluded, err := query.New(r.schema).Add(fields, values...)
	if err != nil {
		return r, err
	}
	if excluded.IsEmpty() {
		return r, nil
	}
	q, err := r.filter.Add(nil, query.Not(excluded))
	if err != nil {
		return r, err
	}
	r.filter = q
	return r, nil
}

// WithQuery ANDs a prebuilt query into the main query.
func (r Request) WithQuery(q query.Query) (Request, error) {
	if q.Schema() != nil && q.Schema() != r.schema {
		return r, fmt.Errorf("%w: query is bound to a different schema", domain.ErrInvalidRequest)
	}
	merged, err := r.query.Add(nil, q)
	if err != nil {
		return r, err
	}
	r.query = merged
	return r, nil
}

// WithFilter adds a prebuilt query as a separate filter query.
func (r Request) WithFilter(q query.Query) (Request, error) {
	if q.Schema() != nil && q.Schema() != r.schema {
		return r, fmt.Errorf("%w: filter is bound to a different schema", domain.ErrInvalidRequest)
	}
	r.extra = append(append([]query.Query(nil), r.extra...), q)
	return r, nil
}

// BoostRelevancy boosts documents of the main query that also match fields.
func (r Request) BoostRelevancy(score float64, fields query.Fields) (Request, error) {
	q, err := r.query.BoostRelevancy(score, fields)
	if err != nil {
		return r, err
	}
	r.query = q
	return r, nil
}

// Paginate sets the offset of the first result and the page size.
func (r Request) Paginate(start, rows int) (Request, error) {
	if start < 0 || rows < 0 {
		return r, fmt.Errorf("%w: start and rows must not be negative (got %d, %d)",
			domain.ErrInvalidRequest, start, rows)
	}
	r.start, r.rows = &start, &rows
	return r, nil
}

// Start returns the result offset.
func (r Request) Start() int {
	if r.start == nil {
		return DefaultStart
	}
	return *r.start
}

// Rows returns the page size.
func (r Request) Rows() int {
	if r.rows == nil {
		return DefaultRows
	}
	return *r.rows
}

// SortBy appends sort keys. A leading "-" sorts descending.
func (r Request) SortBy(fields ...string) (Request, error) {
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		name, dir := f, "asc"
		if strings.HasPrefix(f, "-") {
			name, dir = f[1:], "desc"
		}
		if name != ScoreField {
			if err := r.checkIndexed(name); err != nil {
				return r, err
			}
		}
		keys = append(keys, query.EscapeTerm(name)+" "+dir)
	}
	r.sort = append(append([]string(nil), r.sort...), keys...)
	return r, nil
}

// FieldList restricts the returned fields. "score" and "*" are accepted.
func (r Request) FieldList(fields ...string) (Request, error) {
	for _, f := range fields {
		if f == ScoreField || f == schema.MatchAll {
			continue
		}
		if _, ok := r.schema.Lookup(f); !ok {
			return r, domain.NewFieldError(f, domain.ErrUnknownField)
		}
	}
	r.fl = append(append([]string(nil), r.fl...), fields...)
	return r, nil
}

// Param sets a raw request parameter, replacing earlier values.
func (r Request) Param(key string, values ...string) Request {
	opts := url.Values{}
	for k, v := range r.options {
		opts[k] = append([]string(nil), v...)
	}
	opts[key] = append([]string(nil), values...)
	r.options = opts
	return r
}

// Params encodes the request as select parameters.
func (r Request) Params() url.Values {
	p := url.Values{}
	if q := r.query.String(); q != "" {
		p.Set("q", q)
	} else {
		p.Set("q", MatchAllQuery)
	}
	for _, fq := range r.FilterQueries() {
		if s := fq.String(); s != "" {
			p.Add("fq", s)
		}
	}
	if r.start != nil {
		p.Set("start", strconv.Itoa(*r.start))
	}
	if r.rows != nil {
		p.Set("rows", strconv.Itoa(*r.rows))
	}
	if len(r.sort) > 0 {
		p.Set("sort", strings.Join(r.sort, ","))
	}
	if len(r.fl) > 0 {
		p.Set("fl", strings.Join(r.fl, ","))
	}
	for _, f := range r.facets {
		f.encode(p)
	}
	if r.hl != nil {
		r.hl.encode(p)
	}
	if r.mlt != nil {
		r.mlt.encode(p)
	}
	for k, v := range r.options {
		p[k] = append([]string(nil), v...)
	}
	p.Set("wt", "json")
	return p
}

// String returns the encoded parameters.
func (r Request) String() string { return r.Params().Encode() }

func (r Request) checkIndexed(name string) error {
	if name == "" {
		return fmt.Errorf("%w: field name is required", domain.ErrInvalidRequest)
	}
	_, err := r.schema.Resolve(name)
	return err
}

func checkScore(name string, score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return domain.NewFieldError(name,
			fmt.Errorf("%w: boost %v must be finite and non-negative", domain.ErrValueRange, score))
	}
	return nil
}
