package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownField signals a field name missing from the schema.
	ErrUnknownField = errors.New("unknown field")
	// ErrNotIndexed signals a query, filter, sort or facet on a non-indexed field.
	ErrNotIndexed = errors.New("field not indexed")
	// ErrNotMultiValued signals a list value for a single-valued field.
	ErrNotMultiValued = errors.New("field not multi-valued")
	// ErrValueType signals a value that cannot be coerced to the field kind.
	ErrValueType = errors.New("invalid value type")
	// ErrValueRange signals a numeric value outside the kind's representable range.
	ErrValueRange = errors.New("value out of range")
	// ErrInvalidRelation signals an unknown relation or one incompatible with the field kind.
	ErrInvalidRelation = errors.New("invalid relation")
	// ErrMalformedRange signals a range with the wrong number of bounds.
	ErrMalformedRange = errors.New("malformed range")
	// ErrEmptyQueryBoost signals a relevancy boost on an empty query.
	ErrEmptyQueryBoost = errors.New("cannot boost an empty query")

	// ErrInvalidSchema signals an invalid schema definition.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrInvalidRequest signals invalid search request options.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUpstream signals a failed call to the search service.
	ErrUpstream = errors.New("search service error")
)

// FieldError attaches the offending field name to a query construction error.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	name := e.Field
	if name == "" {
		name = "<default>"
	}
	return fmt.Sprintf("field %q: %s", name, e.Err.Error())
}

func (e *FieldError) Unwrap() error { return e.Err }

// NewFieldError wraps err with the field name. Nested field errors are not re-wrapped.
func NewFieldError(name string, err error) error {
	var fe *FieldError
	if errors.As(err, &fe) {
		return err
	}
	return &FieldError{Field: name, Err: err}
}
