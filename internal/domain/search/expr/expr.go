// Package expr decodes the JSON and command-line query expression language
// and compiles it into schema-checked queries.
package expr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/query"
	"github.com/kailas-cloud/solrq/internal/domain/schema"
	"github.com/kailas-cloud/solrq/internal/domain/search/mode"
)

// Expression limits.
const (
	MaxDepth    = 16
	MaxChildren = 32
)

// Expr is one query expression. Clauses of a single expression are ANDed;
// And, Or and Not add nested expressions as subqueries.
type Expr struct {
	Mode           mode.Mode      `json:"mode,omitempty"`
	Values         []any          `json:"values,omitempty"`
	Fields         map[string]any `json:"fields,omitempty"`
	Terms          map[string]any `json:"terms,omitempty"`
	Phrases        map[string]any `json:"phrases,omitempty"`
	Wildcards      map[string]any `json:"wildcards,omitempty"`
	And            []Expr         `json:"and,omitempty"`
	Or             []Expr         `json:"or,omitempty"`
	Not            *Expr          `json:"not,omitempty"`
	Boost          any            `json:"boost,omitempty"`
	BoostRelevancy []Relevancy    `json:"boost_relevancy,omitempty"`
}

// Relevancy is a relevancy boost: matches of Fields rank higher by Score.
type Relevancy struct {
	Score  any            `json:"score"`
	Fields map[string]any `json:"fields"`
}

// Decode reads a single expression. Numbers are kept exact.
func Decode(r io.Reader) (Expr, error) {
	var e Expr
	if err := newDecoder(r).Decode(&e); err != nil {
		return Expr{}, fmt.Errorf("%w: decode expression: %w", domain.ErrInvalidRequest, err)
	}
	return e, nil
}

// UnmarshalJSON decodes with exact numbers so integers beyond 2^53 survive.
func (e *Expr) UnmarshalJSON(b []byte) error {
	type plain Expr
	var p plain
	if err := newDecoder(bytes.NewReader(b)).Decode(&p); err != nil {
		return err
	}
	*e = Expr(p)
	return nil
}

func newDecoder(r io.Reader) *json.Decoder {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	dec.DisallowUnknownFields()
	return dec
}

// IsZero reports whether the expression has no clauses at all.
func (e Expr) IsZero() bool {
	return len(e.Values) == 0 && len(e.Fields) == 0 && len(e.Terms) == 0 &&
		len(e.Phrases) == 0 && len(e.Wildcards) == 0 && len(e.And) == 0 &&
		len(e.Or) == 0 && e.Not == nil
}

// Compile builds the query for e against s.
func Compile(s *schema.Schema, e Expr) (query.Query, error) {
	return compile(s, e, 0)
}

// CompileAll compiles each expression separately.
func CompileAll(s *schema.Schema, es []Expr) ([]query.Query, error) {
	out := make([]query.Query, 0, len(es))
	for i, e := range es {
		q, err := Compile(s, e)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, q)
	}
	return out, nil
}

func compile(s *schema.Schema, e Expr, depth int) (query.Query, error) {
	if depth > MaxDepth {
		return query.Query{}, fmt.Errorf("%w: expression nested deeper than %d", domain.ErrInvalidRequest, MaxDepth)
	}
	if len(e.And) > MaxChildren || len(e.Or) > MaxChildren {
		return query.Query{}, fmt.Errorf("%w: too many subexpressions (max %d)", domain.ErrInvalidRequest, MaxChildren)
	}
	m, err := mode.Parse(string(e.Mode))
	if err != nil {
		return query.Query{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	q := query.New(s)
	if q, err = q.AddWith(m, e.Fields, e.Values...); err != nil {
		return query.Query{}, err
	}
	if q, err = q.AddTerms(e.Terms); err != nil {
		return query.Query{}, err
	}
	if q, err = q.AddPhrases(e.Phrases); err != nil {
		return query.Query{}, err
	}
	wildcards, err := toWildcards(e.Wildcards)
	if err != nil {
		return query.Query{}, err
	}
	if q, err = q.Add(wildcards); err != nil {
		return query.Query{}, err
	}

	ands, err := compileEach(s, "and", e.And, depth)
	if err != nil {
		return query.Query{}, err
	}
	ors, err := compileEach(s, "or", e.Or, depth)
	if err != nil {
		return query.Query{}, err
	}
	subs := make([]any, 0, len(ands)+2)
	for _, a := range ands {
		subs = append(subs, a)
	}
	if len(ors) > 0 {
		subs = append(subs, query.Or(ors...))
	}
	if e.Not != nil {
		n, err := compile(s, *e.Not, depth+1)
		if err != nil {
			return query.Query{}, fmt.Errorf("not: %w", err)
		}
		subs = append(subs, query.Not(n))
	}
	if q, err = q.Add(nil, subs...); err != nil {
		return query.Query{}, err
	}

	for i, r := range e.BoostRelevancy {
		score, err := query.ParseScore(r.Score)
		if err != nil {
			return query.Query{}, fmt.Errorf("boost_relevancy[%d]: %w", i, err)
		}
		if q, err = q.BoostRelevancy(score, r.Fields); err != nil {
			return query.Query{}, fmt.Errorf("boost_relevancy[%d]: %w", i, err)
		}
	}
	if e.Boost != nil {
		score, err := query.ParseScore(e.Boost)
		if err != nil {
			return query.Query{}, fmt.Errorf("boost: %w", err)
		}
		if q, err = q.Boost(score); err != nil {
			return query.Query{}, fmt.Errorf("boost: %w", err)
		}
	}
	return q, nil
}

func compileEach(s *schema.Schema, op string, es []Expr, depth int) ([]query.Query, error) {
	out := make([]query.Query, 0, len(es))
	for i, child := range es {
		q, err := compile(s, child, depth+1)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", op, i, err)
		}
		out = append(out, q)
	}
	return out, nil
}

var errWildcardType = errors.New("wildcards must be strings")

func toWildcards(in map[string]any) (query.Fields, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(query.Fields, len(in))
	for k, v := range in {
		switch t := v.(type) {
		case string:
			out[k] = query.Wildcard(t)
		case []any:
			list := make([]query.Wildcard, len(t))
			for i, item := range t {
				str, ok := item.(string)
				if !ok {
					return nil, domain.NewFieldError(k, fmt.Errorf("%w: %w", domain.ErrValueType, errWildcardType))
				}
				list[i] = query.Wildcard(str)
			}
			out[k] = list
		default:
			return nil, domain.NewFieldError(k, fmt.Errorf("%w: %w", domain.ErrValueType, errWildcardType))
		}
	}
	return out, nil
}
