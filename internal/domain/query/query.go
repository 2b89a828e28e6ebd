// Package query builds, normalizes and serializes boolean search queries
// validated against a schema.
package query

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/schema"
	"github.com/kailas-cloud/solrq/internal/domain/schema/field"
	"github.com/kailas-cloud/solrq/internal/domain/search/mode"
)

// Fields maps "field" or "field__rel" keys to raw values.
type Fields map[string]any

// termRe decides whether a text value is a bare term. ASCII only, applied per value.
var termRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

var errNoSchema = errors.New("query has no schema")

// Query is a persistent boolean query expression bound to a schema.
// Every method returns a new Query; the receiver is never modified, so a
// Query can be shared between goroutines and reused as a base for many others.
type Query struct {
	schema *schema.Schema
	root   *node
}

// New returns an empty query bound to s.
func New(s *schema.Schema) Query {
	return Query{schema: s, root: newLeaf()}
}

// Schema returns the schema the query validates against.
func (q Query) Schema() *schema.Schema { return q.schema }

// IsEmpty reports whether the query has no clauses.
func (q Query) IsEmpty() bool { return q.root.empty() }

// Add adds clauses. Positional values target the default field; a positional
// Query is added as a subquery. Text values that are a single ASCII word
// become terms, anything else a phrase.
func (q Query) Add(fields Fields, values ...any) (Query, error) {
	return q.add(mode.Auto, fields, values)
}

// AddTerms is Add with every text value treated as a term.
func (q Query) AddTerms(fields Fields, values ...any) (Query, error) {
	return q.add(mode.Terms, fields, values)
}

// AddPhrases is Add with every text value treated as a phrase.
func (q Query) AddPhrases(fields Fields, values ...any) (Query, error) {
	return q.add(mode.Phrases, fields, values)
}

// AddWith is Add with an explicit text classification mode.
func (q Query) AddWith(m mode.Mode, fields Fields, values ...any) (Query, error) {
	if !m.IsValid() {
		return q, fmt.Errorf("%w: text mode %q", domain.ErrInvalidRequest, m)
	}
	return q.add(m, fields, values)
}

// AddRange adds a range clause. An empty name targets the default field.
func (q Query) AddRange(name string, rel Relation, bounds ...any) (Query, error) {
	if q.schema == nil {
		return q, errNoSchema
	}
	leaf := q.leaf()
	if err := q.addRange(leaf, name, rel, bounds); err != nil {
		return q, err
	}
	return q.with(leaf), nil
}

func (q Query) add(m mode.Mode, fields Fields, values []any) (Query, error) {
	if q.schema == nil {
		return q, errNoSchema
	}
	leaf := q.leaf()

	for _, v := range values {
		switch sub := v.(type) {
		case Query:
			if !sub.IsEmpty() {
				leaf.subs = append(leaf.subs, sub.root)
			}
			continue
		case *Query:
			if sub != nil && !sub.IsEmpty() {
				leaf.subs = append(leaf.subs, sub.root)
			}
			continue
		}
		if err := q.addExact(leaf, "", v, m); err != nil {
			return q, err
		}
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := q.addField(leaf, k, fields[k], m); err != nil {
			return q, err
		}
	}
	return q.with(leaf), nil
}

func (q Query) addField(leaf *node, key string, raw any, m mode.Mode) error {
	name, rel, err := splitKey(key)
	if err != nil {
		return domain.NewFieldError(key, err)
	}
	if rel == Eq {
		return q.addExact(leaf, name, raw, m)
	}

	var bounds []any
	switch rel.bounds() {
	case 0:
		if b, ok := raw.(bool); !ok || !b {
			return domain.NewFieldError(name,
				fmt.Errorf("%w: %s__%s takes the value true", domain.ErrMalformedRange, name, rel))
		}
	case 1:
		if field.IsList(raw) {
			return domain.NewFieldError(name,
				fmt.Errorf("%w: %s__%s takes a single bound", domain.ErrMalformedRange, name, rel))
		}
		bounds = []any{raw}
	default:
		if !field.IsList(raw) {
			return domain.NewFieldError(name,
				fmt.Errorf("%w: %s__%s takes a pair of bounds", domain.ErrMalformedRange, name, rel))
		}
		rv := reflect.ValueOf(raw)
		for i := range rv.Len() {
			bounds = append(bounds, rv.Index(i).Interface())
		}
	}
	return q.addRange(leaf, name, rel, bounds)
}

func splitKey(key string) (string, Relation, error) {
	idx := strings.LastIndex(key, "__")
	if idx < 0 {
		return key, Eq, nil
	}
	rel, err := ParseRelation(key[idx+2:])
	if err != nil {
		return "", "", err
	}
	return key[:idx], rel, nil
}

func (q Query) addExact(leaf *node, name string, raw any, m mode.Mode) error {
	wildcard := false
	switch w := raw.(type) {
	case Wildcard:
		raw, wildcard = string(w), true
	case []Wildcard:
		list := make([]string, len(w))
		for i, s := range w {
			list[i] = string(s)
		}
		raw, wildcard = list, true
	}

	f, vals, err := q.schema.Normalize(name, raw)
	if err != nil {
		return err
	}
	if wildcard && f.Kind() != field.Text {
		return domain.NewFieldError(name,
			fmt.Errorf("%w: wildcards need a text field, %q is %s", domain.ErrValueType, f.Name(), f.Kind()))
	}

	// Positional values search the default field unqualified. A field named
	// explicitly stays qualified even when it is the default.
	stored := f.Name()
	if name == "" {
		stored = ""
	}

	for _, v := range vals {
		switch {
		case wildcard || name == schema.MatchAll || f.Kind() != field.Text:
			leaf.addTerm(Term{Field: stored, Value: v, Wildcard: wildcard})
		case m == mode.Terms || (m == mode.Auto && termRe.MatchString(v.Str())):
			leaf.addTerm(Term{Field: stored, Value: v})
		default:
			leaf.addPhrase(Phrase{Field: stored, Value: v})
		}
	}
	return nil
}

func (q Query) addRange(leaf *node, name string, rel Relation, bounds []any) error {
	if _, err := ParseRelation(string(rel)); err != nil || rel == Eq {
		return domain.NewFieldError(name, fmt.Errorf("%w: %q is not a range relation", domain.ErrInvalidRelation, rel))
	}
	if name == schema.MatchAll {
		return domain.NewFieldError(name, domain.ErrUnknownField)
	}
	f, err := q.schema.Resolve(name)
	if err != nil {
		return err
	}
	if f.Kind() == field.Boolean {
		return domain.NewFieldError(name,
			fmt.Errorf("%w: cannot do a %q query on a boolean field", domain.ErrInvalidRelation, rel))
	}
	if len(bounds) != rel.bounds() {
		return domain.NewFieldError(name,
			fmt.Errorf("%w: %q takes %d bounds, got %d", domain.ErrMalformedRange, rel, rel.bounds(), len(bounds)))
	}

	vals := make([]field.Value, len(bounds))
	for i, b := range bounds {
		if field.IsList(b) {
			return domain.NewFieldError(name, fmt.Errorf("%w: bound %d is a list", domain.ErrMalformedRange, i))
		}
		v, err := field.Coerce(f.Kind(), b)
		if err != nil {
			return domain.NewFieldError(name, err)
		}
		vals[i] = v
	}
	sort.SliceStable(vals, func(i, j int) bool { return vals[i].Compare(vals[j]) < 0 })

	leaf.addRange(Range{Field: f.Name(), Rel: rel, Bounds: vals})
	return nil
}

// leaf returns a fresh leaf to add clauses to: a copy of the root when the
// root is a leaf, otherwise a leaf wrapping the root as its subquery.
func (q Query) leaf() *node {
	if q.root == nil {
		return newLeaf()
	}
	if q.root.op == opLeaf {
		return q.root.shallow()
	}
	l := newLeaf()
	l.subs = []*node{q.root}
	return l
}

func (q Query) with(root *node) Query {
	return Query{schema: q.schema, root: root}
}

// And returns the conjunction of q and o.
func (q Query) And(o Query) Query { return And(q, o) }

// Or returns the disjunction of q and o.
func (q Query) Or(o Query) Query { return Or(q, o) }

// Not returns the negation of q.
func (q Query) Not() Query { return Not(q) }

// Boost weights q by score. The score must be finite and non-negative.
func (q Query) Boost(score float64) (Query, error) {
	if err := checkScore(score); err != nil {
		return q, err
	}
	n := newOp(opBoost, q.rootOrEmpty())
	n.score = score
	return q.with(n), nil
}

// BoostRelevancy ranks documents that also match fields higher without
// excluding the rest: Q becomes Q OR (Q AND match)^score when serialized.
func (q Query) BoostRelevancy(score float64, fields Fields) (Query, error) {
	if q.IsEmpty() {
		return q, domain.ErrEmptyQueryBoost
	}
	if err := checkScore(score); err != nil {
		return q, err
	}
	match, err := New(q.schema).Add(fields)
	if err != nil {
		return q, fmt.Errorf("boost relevancy: %w", err)
	}
	if match.IsEmpty() {
		return q, fmt.Errorf("%w: no boost clauses given", domain.ErrEmptyQueryBoost)
	}
	root := q.root.shallow()
	root.boosts = append(root.boosts, boostDirective{match: match.root, score: score})
	return q.with(root), nil
}

// Clone returns a structurally independent deep copy.
func (q Query) Clone() Query {
	return q.with(q.rootOrEmpty().deepCopy())
}

func (q Query) rootOrEmpty() *node {
	if q.root == nil {
		return newLeaf()
	}
	return q.root
}

// And combines queries with AND. Empty operands are dropped on normalization.
func And(qs ...Query) Query { return combine(opAnd, qs) }

// Or combines queries with OR.
func Or(qs ...Query) Query { return combine(opOr, qs) }

// Not negates q.
func Not(q Query) Query { return q.with(newOp(opNot, q.rootOrEmpty())) }

func combine(o op, qs []Query) Query {
	var s *schema.Schema
	children := make([]*node, 0, len(qs))
	for _, q := range qs {
		if s == nil {
			s = q.schema
		}
		children = append(children, q.rootOrEmpty())
	}
	return Query{schema: s, root: newOp(o, children...)}
}

func checkScore(score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return fmt.Errorf("%w: boost score %v is not finite", domain.ErrValueType, score)
	}
	if score < 0 {
		return fmt.Errorf("%w: boost score %v is negative", domain.ErrValueRange, score)
	}
	return nil
}

// ParseScore converts a raw boost score (number or numeric string).
func ParseScore(raw any) (float64, error) {
	var f float64
	switch v := raw.(type) {
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: boost score %q is not numeric", domain.ErrValueType, v)
		}
		f = parsed
	default:
		val, err := field.Coerce(field.Double, raw)
		if err != nil {
			return 0, fmt.Errorf("%w: boost score %v is not numeric", domain.ErrValueType, raw)
		}
		f = val.Float()
	}
	if err := checkScore(f); err != nil {
		return 0, err
	}
	return f, nil
}
