package schema

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/schema/field"
)

// Document is the YAML (and JSON) description of a schema.
type Document struct {
	DefaultField string          `yaml:"default_field" json:"default_field,omitempty"`
	UniqueKey    string          `yaml:"unique_key" json:"unique_key,omitempty"`
	Fields       []FieldDocument `yaml:"fields" json:"fields"`
}

// FieldDocument describes one field. Indexed defaults to true.
type FieldDocument struct {
	Name        string `yaml:"name" json:"name"`
	Type        string `yaml:"type" json:"type"`
	MultiValued bool   `yaml:"multi_valued" json:"multi_valued"`
	Required    bool   `yaml:"required" json:"required"`
	Indexed     *bool  `yaml:"indexed" json:"indexed"`
}

// ParseYAML reads a YAML schema description.
func ParseYAML(r io.Reader) (*Schema, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode yaml: %w", domain.ErrInvalidSchema, err)
	}
	return doc.Build()
}

// Build validates the document and creates the Schema.
func (d Document) Build() (*Schema, error) {
	fields := make([]field.Field, 0, len(d.Fields))
	for _, fd := range d.Fields {
		var opts []field.Option
		if fd.MultiValued {
			opts = append(opts, field.Multi())
		}
		if fd.Required {
			opts = append(opts, field.Required())
		}
		if fd.Indexed != nil {
			opts = append(opts, field.Indexed(*fd.Indexed))
		}
		f, err := field.New(fd.Name, field.Kind(fd.Type), opts...)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidSchema, err)
		}
		fields = append(fields, f)
	}
	return New(fields, WithDefaultField(d.DefaultField), WithUniqueKey(d.UniqueKey))
}

// Describe converts a Schema back into its YAML description.
func Describe(s *Schema) Document {
	doc := Document{DefaultField: s.DefaultField(), UniqueKey: s.UniqueKey()}
	all := append(s.Fields(), s.DynamicFields()...)
	for _, f := range all {
		name := f.Name()
		if f.Dynamic() {
			name = f.Pattern()
		}
		indexed := f.Indexed()
		doc.Fields = append(doc.Fields, FieldDocument{
			Name:        name,
			Type:        string(f.Kind()),
			MultiValued: f.MultiValued(),
			Required:    f.Required(),
			Indexed:     &indexed,
		})
	}
	return doc
}
