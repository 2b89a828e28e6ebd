package result

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/schema"
	"github.com/kailas-cloud/solrq/internal/domain/schema/field"
)

// ScoreField is the pseudo-field holding the relevancy score.
const ScoreField = "score"

// Document is a single search hit with values typed by the schema:
// bool, int64, float64, time.Time or string, and []any for multi-valued fields.
type Document struct {
	fields map[string]any
}

// New creates a document from already typed values.
func New(fields map[string]any) Document {
	return Document{fields: maps.Clone(fields)}
}

// Decode types the raw values of a response document by the schema.
// Fields missing from the schema are kept with JSON numbers resolved.
func Decode(s *schema.Schema, raw map[string]any) (Document, error) {
	fields := make(map[string]any, len(raw))
	for name, v := range raw {
		f, ok := s.Lookup(name)
		if !ok {
			fields[name] = plain(v)
			continue
		}
		typed, err := decodeValue(f, v)
		if err != nil {
			return Document{}, domain.NewFieldError(name, err)
		}
		fields[name] = typed
	}
	return Document{fields: fields}, nil
}

func decodeValue(f field.Field, v any) (any, error) {
	list, isList := v.([]any)
	if !isList {
		val, err := field.Coerce(f.Kind(), v)
		if err != nil {
			return nil, err
		}
		return val.Interface(), nil
	}
	out := make([]any, len(list))
	for i, item := range list {
		val, err := field.Coerce(f.Kind(), item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = val.Interface()
	}
	return out, nil
}

func plain(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(string(t), 10, 64); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return string(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plain(item)
		}
		return out
	default:
		return v
	}
}

// Get returns a field value.
func (d Document) Get(name string) (any, bool) {
	v, ok := d.fields[name]
	return v, ok
}

// Score returns the relevancy score, if it was requested.
func (d Document) Score() (float64, bool) {
	switch v := d.fields[ScoreField].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Fields returns a copy of all field values.
func (d Document) Fields() map[string]any { return maps.Clone(d.fields) }

// Names returns the field names in sorted order.
func (d Document) Names() []string {
	return slices.Sorted(maps.Keys(d.fields))
}

// MarshalJSON encodes the field values.
func (d Document) MarshalJSON() ([]byte, error) {
	if d.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d.fields)
}

// Page is one page of search hits.
type Page struct {
	NumFound int64      `json:"num_found"`
	Start    int64      `json:"start"`
	MaxScore *float64   `json:"max_score,omitempty"`
	Docs     []Document `json:"docs"`
}
