package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/schema/field"
)

// MatchAll is the field name and value pair that matches every document.
const MatchAll = "*"

// Schema is a read-only registry of fields. Safe for concurrent use.
type Schema struct {
	fields       map[string]field.Field
	order        []string
	dynamic      []field.Field
	defaultField string
	uniqueKey    string
}

// Option configures a Schema in New.
type Option func(*Schema)

// WithDefaultField sets the field targeted by unqualified clauses.
func WithDefaultField(name string) Option {
	return func(s *Schema) { s.defaultField = name }
}

// WithUniqueKey sets the document identifier field.
func WithUniqueKey(name string) Option {
	return func(s *Schema) { s.uniqueKey = name }
}

// New builds a Schema. Default field and unique key must name static fields.
func New(fields []field.Field, opts ...Option) (*Schema, error) {
	s := &Schema{fields: make(map[string]field.Field, len(fields))}
	for _, f := range fields {
		if f.Dynamic() {
			for _, d := range s.dynamic {
				if d.Pattern() == f.Pattern() {
					return nil, fmt.Errorf("%w: duplicate dynamic field %q", domain.ErrInvalidSchema, f.Pattern())
				}
			}
			s.dynamic = append(s.dynamic, f)
			continue
		}
		if _, ok := s.fields[f.Name()]; ok {
			return nil, fmt.Errorf("%w: duplicate field %q", domain.ErrInvalidSchema, f.Name())
		}
		s.fields[f.Name()] = f
		s.order = append(s.order, f.Name())
	}
	for _, o := range opts {
		o(s)
	}

	if s.defaultField != "" {
		if _, ok := s.fields[s.defaultField]; !ok {
			return nil, fmt.Errorf("%w: default field %q is not defined", domain.ErrInvalidSchema, s.defaultField)
		}
	}
	if s.uniqueKey != "" {
		if _, ok := s.fields[s.uniqueKey]; !ok {
			return nil, fmt.Errorf("%w: unique key %q is not defined", domain.ErrInvalidSchema, s.uniqueKey)
		}
	}

	// Longer patterns win, as in Solr.
	sort.SliceStable(s.dynamic, func(i, j int) bool {
		return len(s.dynamic[i].Pattern()) > len(s.dynamic[j].Pattern())
	})
	return s, nil
}

// DefaultField returns the default search field name, or "".
func (s *Schema) DefaultField() string { return s.defaultField }

// UniqueKey returns the unique key field name, or "".
func (s *Schema) UniqueKey() string { return s.uniqueKey }

// Fields returns static fields in declaration order.
func (s *Schema) Fields() []field.Field {
	out := make([]field.Field, len(s.order))
	for i, name := range s.order {
		out[i] = s.fields[name]
	}
	return out
}

// DynamicFields returns dynamic field patterns, longest first.
func (s *Schema) DynamicFields() []field.Field {
	out := make([]field.Field, len(s.dynamic))
	copy(out, s.dynamic)
	return out
}

// Lookup finds a field by exact name, then by dynamic pattern.
func (s *Schema) Lookup(name string) (field.Field, bool) {
	if f, ok := s.fields[name]; ok {
		return f, true
	}
	for _, d := range s.dynamic {
		if d.Matches(name) {
			return d.Instance(name), true
		}
	}
	return field.Field{}, false
}

// Resolve maps a clause field name to its definition. An empty name resolves
// to the default field. The field must exist and be indexed.
func (s *Schema) Resolve(name string) (field.Field, error) {
	lookup := name
	if lookup == "" {
		if s.defaultField == "" {
			return field.Field{}, domain.NewFieldError(name,
				fmt.Errorf("%w: schema has no default field", domain.ErrUnknownField))
		}
		lookup = s.defaultField
	}
	f, ok := s.Lookup(lookup)
	if !ok {
		return field.Field{}, domain.NewFieldError(name, domain.ErrUnknownField)
	}
	if !f.Indexed() {
		return field.Field{}, domain.NewFieldError(name, domain.ErrNotIndexed)
	}
	return f, nil
}

// Normalize resolves name and coerces raw into values of the field's kind.
// The pair ("*", "*") yields the match-all sentinel.
func (s *Schema) Normalize(name string, raw any) (field.Field, []field.Value, error) {
	if name == MatchAll {
		if str, ok := raw.(string); ok && str == MatchAll {
			return field.Reconstruct(MatchAll, field.Text), []field.Value{field.TextValue(MatchAll)}, nil
		}
		return field.Field{}, nil, domain.NewFieldError(name,
			fmt.Errorf("%w: %q only matches the value %q", domain.ErrUnknownField, MatchAll, MatchAll))
	}
	f, err := s.Resolve(name)
	if err != nil {
		return field.Field{}, nil, err
	}
	vals, err := f.Normalize(raw)
	if err != nil {
		return field.Field{}, nil, domain.NewFieldError(name, err)
	}
	return f, vals, nil
}

// String renders a compact description, one field per line.
func (s *Schema) String() string {
	var b strings.Builder
	write := func(f field.Field) {
		fmt.Fprintf(&b, "%s %s", f.Name(), f.Kind())
		if f.MultiValued() {
			b.WriteString(" multi")
		}
		if f.Required() {
			b.WriteString(" required")
		}
		if !f.Indexed() {
			b.WriteString(" unindexed")
		}
		if f.Name() == s.defaultField {
			b.WriteString(" default")
		}
		if f.Name() == s.uniqueKey {
			b.WriteString(" key")
		}
		b.WriteByte('\n')
	}
	for _, f := range s.Fields() {
		write(f)
	}
	for _, f := range s.dynamic {
		write(f)
	}
	return b.String()
}
