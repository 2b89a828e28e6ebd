package solrq

import (
	"io"

	"github.com/kailas-cloud/solrq/internal/domain/schema"
	"github.com/kailas-cloud/solrq/internal/domain/schema/field"
)

// Schema is a read-only registry of index fields. Safe for concurrent use.
type Schema = schema.Schema

// Field is one static or dynamic schema field.
type Field = field.Field

// FieldKind is the value type of a field.
type FieldKind = field.Kind

// Field kinds.
const (
	KindText    = field.Text
	KindBoolean = field.Boolean
	KindInteger = field.Integer
	KindLong    = field.Long
	KindFloat   = field.Float
	KindDouble  = field.Double
	KindDate    = field.Date
)

// NewField validates and creates a field. A name ending or starting with "*"
// declares a dynamic field.
func NewField(name string, kind FieldKind, opts ...FieldOption) (Field, error) {
	return field.New(name, kind, opts...)
}

// FieldOption sets a field flag.
type FieldOption = field.Option

// Field options.
var (
	MultiValued = field.Multi
	Required    = field.Required
	Unindexed   = field.Unindexed
)

// NewSchema builds a schema from fields. defaultField and uniqueKey may be empty.
func NewSchema(fields []Field, defaultField, uniqueKey string) (*Schema, error) {
	return schema.New(fields, schema.WithDefaultField(defaultField), schema.WithUniqueKey(uniqueKey))
}

// ParseSchemaXML reads a Solr schema.xml.
func ParseSchemaXML(r io.Reader) (*Schema, error) { return schema.ParseXML(r) }

// ParseSchemaYAML reads a YAML schema description.
func ParseSchemaYAML(r io.Reader) (*Schema, error) { return schema.ParseYAML(r) }

// LoadSchema reads a schema file; .yaml and .yml are YAML, anything else schema.xml.
func LoadSchema(path string) (*Schema, error) { return schema.LoadFile(path) }

// SchemaSource yields the schema a Client checks queries against.
type SchemaSource func() (*Schema, error)

// FromSchema uses an already built schema.
func FromSchema(s *Schema) SchemaSource {
	return func() (*Schema, error) { return s, nil }
}

// SchemaFile loads the schema from a file when the client is created.
func SchemaFile(path string) SchemaSource {
	return func() (*Schema, error) { return LoadSchema(path) }
}

// SchemaXML parses a schema.xml stream when the client is created.
func SchemaXML(r io.Reader) SchemaSource {
	return func() (*Schema, error) { return ParseSchemaXML(r) }
}

// SchemaYAML parses a YAML schema description when the client is created.
func SchemaYAML(r io.Reader) SchemaSource {
	return func() (*Schema, error) { return ParseSchemaYAML(r) }
}
