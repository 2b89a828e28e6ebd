package solrq

import (
	"github.com/kailas-cloud/solrq/internal/domain/query"
	"github.com/kailas-cloud/solrq/internal/domain/search/mode"
)

// Query is a persistent boolean query tree bound to a schema.
// Builder methods return a new Query and never modify the receiver.
type Query = query.Query

// Fields maps "field" or "field__relation" keys to values.
type Fields = query.Fields

// Relation is a range comparison used as a "field__relation" key suffix.
type Relation = query.Relation

// Relations.
const (
	Eq        = query.Eq
	Lt        = query.Lt
	Lte       = query.Lte
	Gt        = query.Gt
	Gte       = query.Gte
	Between   = query.Between
	Exclusive = query.Exclusive
	Any       = query.Any
)

// Wildcard marks a text value whose * and ? must not be escaped.
type Wildcard = query.Wildcard

// Mode selects how values become clauses.
type Mode = mode.Mode

// Value modes.
const (
	ModeAuto    = mode.Auto
	ModeTerms   = mode.Terms
	ModePhrases = mode.Phrases
)

// NewQuery returns an empty query bound to s.
func NewQuery(s *Schema) Query { return query.New(s) }

// And combines queries into a conjunction. Empty queries are skipped.
func And(qs ...Query) Query { return query.And(qs...) }

// Or combines queries into a disjunction. Empty queries are skipped.
func Or(qs ...Query) Query { return query.Or(qs...) }

// Not negates q.
func Not(q Query) Query { return query.Not(q) }
