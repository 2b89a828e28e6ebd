package field

import (
	"fmt"
	"strings"
)

// Kind is the value type of a schema field.
type Kind string

// Field kind constants.
const (
	Text    Kind = "text"
	Boolean Kind = "boolean"
	// Integer is a signed 32-bit integer.
	Integer Kind = "integer"
	// Long is a signed 64-bit integer.
	Long Kind = "long"
	// Float is an IEEE-754 single precision number.
	Float Kind = "float"
	// Double is an IEEE-754 double precision number.
	Double Kind = "double"
	// Date is a UTC instant with microsecond precision.
	Date Kind = "date"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case Text, Boolean, Integer, Long, Float, Double, Date:
		return true
	}
	return false
}

// Numeric reports whether k is one of the integer or floating point kinds.
func (k Kind) Numeric() bool {
	switch k {
	case Integer, Long, Float, Double:
		return true
	}
	return false
}

// Field is an immutable value object describing a schema field.
// A name with a leading or trailing "*" declares a dynamic field pattern.
type Field struct {
	name     string
	pattern  string
	kind     Kind
	multi    bool
	required bool
	indexed  bool
}

// Option configures a Field in New.
type Option func(*Field)

// Multi marks the field as multi-valued.
func Multi() Option { return func(f *Field) { f.multi = true } }

// Required marks the field as required.
func Required() Option { return func(f *Field) { f.required = true } }

// Unindexed marks the field as stored only.
func Unindexed() Option { return func(f *Field) { f.indexed = false } }

// Indexed sets the indexed flag explicitly.
func Indexed(v bool) Option { return func(f *Field) { f.indexed = v } }

// New validates and creates a Field. Fields are indexed unless Unindexed is given.
func New(name string, kind Kind, opts ...Option) (Field, error) {
	if name == "" {
		return Field{}, fmt.Errorf("field name is required")
	}
	if strings.ContainsAny(name, " \t\n") {
		return Field{}, fmt.Errorf("field name %q contains whitespace", name)
	}
	if n := strings.Count(name, "*"); n > 0 && name != "*" {
		if n > 1 || (!strings.HasPrefix(name, "*") && !strings.HasSuffix(name, "*")) {
			return Field{}, fmt.Errorf("dynamic field %q must have a single leading or trailing *", name)
		}
	}
	if !kind.Valid() {
		return Field{}, fmt.Errorf("invalid field kind %q for %q", kind, name)
	}
	return Reconstruct(name, kind, opts...), nil
}

// Reconstruct creates a Field without validation (schema hydration).
func Reconstruct(name string, kind Kind, opts ...Option) Field {
	f := Field{name: name, kind: kind, indexed: true}
	if strings.Contains(name, "*") {
		f.pattern = name
	}
	for _, o := range opts {
		o(&f)
	}
	return f
}

// Instance binds a dynamic field to a concrete name matched by its pattern.
func (f Field) Instance(name string) Field {
	f.name = name
	return f
}

// Name returns the field name. For a bound dynamic field this is the concrete name.
func (f Field) Name() string { return f.name }

// Pattern returns the dynamic field pattern, or "" for a static field.
func (f Field) Pattern() string { return f.pattern }

// Dynamic reports whether the field was declared as a pattern.
func (f Field) Dynamic() bool { return f.pattern != "" }

// Kind returns the field kind.
func (f Field) Kind() Kind { return f.kind }

// MultiValued reports whether the field accepts several values.
func (f Field) MultiValued() bool { return f.multi }

// Required reports whether documents must carry the field.
func (f Field) Required() bool { return f.required }

// Indexed reports whether the field can be queried.
func (f Field) Indexed() bool { return f.indexed }

// Matches reports whether name is matched by the field's pattern (or equals its name).
func (f Field) Matches(name string) bool {
	if f.pattern == "" {
		return f.name == name
	}
	switch {
	case f.pattern == "*":
		return name != ""
	case strings.HasPrefix(f.pattern, "*"):
		suffix := f.pattern[1:]
		return len(name) > len(suffix) && strings.HasSuffix(name, suffix)
	default:
		prefix := f.pattern[:len(f.pattern)-1]
		return len(name) > len(prefix) && strings.HasPrefix(name, prefix)
	}
}
