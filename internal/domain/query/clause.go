package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/schema/field"
)

// Relation is the comparison a clause applies to its field.
type Relation string

// Relation tokens, used as "field__rel" keys in Fields.
const (
	Eq        Relation = "eq"
	Lt        Relation = "lt"
	Lte       Relation = "lte"
	Gt        Relation = "gt"
	Gte       Relation = "gte"
	Between   Relation = "range"
	Exclusive Relation = "rangeexc"
	Any       Relation = "any"
)

// ParseRelation validates a relation token.
func ParseRelation(s string) (Relation, error) {
	switch r := Relation(s); r {
	case Eq, Lt, Lte, Gt, Gte, Between, Exclusive, Any:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrInvalidRelation, s)
}

// bounds returns the number of bounds a range relation takes.
func (r Relation) bounds() int {
	switch r {
	case Between, Exclusive:
		return 2
	case Any:
		return 0
	default:
		return 1
	}
}

// Wildcard is a text value whose * and ? are kept as wildcards instead of being escaped.
type Wildcard string

// Term is an unquoted match of one value. An empty Field targets the default field.
type Term struct {
	Field    string
	Value    field.Value
	Wildcard bool
}

// Phrase is a quoted exact-sequence match on a text field.
type Phrase struct {
	Field string
	Value field.Value
}

// Range matches values in an interval. Bounds are sorted ascending.
type Range struct {
	Field  string
	Rel    Relation
	Bounds []field.Value
}

func (t Term) key() string {
	return fmt.Sprintf("%s\x00%t\x00%s\x00%s", t.Field, t.Wildcard, t.Value.Kind(), t.Value.Text())
}

func (p Phrase) key() string {
	return p.Field + "\x00" + p.Value.Text()
}

func (r Range) key() string {
	parts := make([]string, 0, len(r.Bounds)+2)
	parts = append(parts, r.Field, string(r.Rel))
	for _, b := range r.Bounds {
		parts = append(parts, b.Text())
	}
	return strings.Join(parts, "\x00")
}

func (r Range) clone() Range {
	b := make([]field.Value, len(r.Bounds))
	copy(b, r.Bounds)
	r.Bounds = b
	return r
}

func compareTerms(a, b Term) int {
	if c := strings.Compare(a.Field, b.Field); c != 0 {
		return c
	}
	if c := strings.Compare(a.Value.Text(), b.Value.Text()); c != 0 {
		return c
	}
	switch {
	case a.Wildcard == b.Wildcard:
		return 0
	case a.Wildcard:
		return 1
	default:
		return -1
	}
}

func comparePhrases(a, b Phrase) int {
	if c := strings.Compare(a.Field, b.Field); c != 0 {
		return c
	}
	return strings.Compare(a.Value.Text(), b.Value.Text())
}

func compareRanges(a, b Range) int {
	if c := strings.Compare(a.Field, b.Field); c != 0 {
		return c
	}
	if c := strings.Compare(string(a.Rel), string(b.Rel)); c != 0 {
		return c
	}
	for i := 0; i < len(a.Bounds) && i < len(b.Bounds); i++ {
		if c := a.Bounds[i].Compare(b.Bounds[i]); c != 0 {
			return c
		}
	}
	return len(a.Bounds) - len(b.Bounds)
}
