package solrq

import (
	"errors"

	"github.com/kailas-cloud/solrq/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrUnknownField    = domain.ErrUnknownField
	ErrNotIndexed      = domain.ErrNotIndexed
	ErrNotMultiValued  = domain.ErrNotMultiValued
	ErrValueType       = domain.ErrValueType
	ErrValueRange      = domain.ErrValueRange
	ErrInvalidRelation = domain.ErrInvalidRelation
	ErrMalformedRange  = domain.ErrMalformedRange
	ErrEmptyQueryBoost = domain.ErrEmptyQueryBoost
	ErrInvalidSchema   = domain.ErrInvalidSchema
	ErrInvalidRequest  = domain.ErrInvalidRequest
	ErrUpstream        = domain.ErrUpstream
)

// ErrNotConnected is returned by operations that need a search service when
// the client was created without WithURL.
var ErrNotConnected = errors.New("solrq: no search service configured (use WithURL)")

// FieldError names the field a query construction error is about.
// Use errors.As() to extract it.
type FieldError = domain.FieldError
