package schema

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/schema/field"
)

// classKinds maps Solr field type classes to field kinds.
// Classes missing from the table are treated as text.
var classKinds = map[string]field.Kind{
	"StrField":            field.Text,
	"TextField":           field.Text,
	"BoolField":           field.Boolean,
	"IntField":            field.Integer,
	"SortableIntField":    field.Integer,
	"TrieIntField":        field.Integer,
	"IntPointField":       field.Integer,
	"LongField":           field.Long,
	"SortableLongField":   field.Long,
	"TrieLongField":       field.Long,
	"LongPointField":      field.Long,
	"FloatField":          field.Float,
	"SortableFloatField":  field.Float,
	"TrieFloatField":      field.Float,
	"FloatPointField":     field.Float,
	"DoubleField":         field.Double,
	"SortableDoubleField": field.Double,
	"TrieDoubleField":     field.Double,
	"DoublePointField":    field.Double,
	"DateField":           field.Date,
	"TrieDateField":       field.Date,
	"DatePointField":      field.Date,
}

type xmlSchema struct {
	XMLName       xml.Name       `xml:"schema"`
	Types         []xmlFieldType `xml:"types>fieldType"`
	TypesLower    []xmlFieldType `xml:"types>fieldtype"`
	TopTypes      []xmlFieldType `xml:"fieldType"`
	Fields        []xmlField     `xml:"fields>field"`
	DynamicFields []xmlField     `xml:"fields>dynamicField"`
	TopFields     []xmlField     `xml:"field"`
	TopDynamic    []xmlField     `xml:"dynamicField"`
	DefaultField  string         `xml:"defaultSearchField"`
	UniqueKey     string         `xml:"uniqueKey"`
}

type xmlFieldType struct {
	Name        string `xml:"name,attr"`
	Class       string `xml:"class,attr"`
	MultiValued string `xml:"multiValued,attr"`
	Indexed     string `xml:"indexed,attr"`
}

type xmlField struct {
	Name        string `xml:"name,attr"`
	Type        string `xml:"type,attr"`
	MultiValued string `xml:"multiValued,attr"`
	Required    string `xml:"required,attr"`
	Indexed     string `xml:"indexed,attr"`
}

// ParseXML reads a Solr schema.xml document.
func ParseXML(r io.Reader) (*Schema, error) {
	var doc xmlSchema
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode xml: %w", domain.ErrInvalidSchema, err)
	}

	types := make(map[string]xmlFieldType)
	for _, list := range [][]xmlFieldType{doc.Types, doc.TypesLower, doc.TopTypes} {
		for _, t := range list {
			types[t.Name] = t
		}
	}

	var fields []field.Field
	add := func(list []xmlField) error {
		for _, xf := range list {
			f, err := xf.toField(types)
			if err != nil {
				return err
			}
			fields = append(fields, f)
		}
		return nil
	}
	for _, list := range [][]xmlField{doc.Fields, doc.TopFields, doc.DynamicFields, doc.TopDynamic} {
		if err := add(list); err != nil {
			return nil, err
		}
	}

	return New(fields,
		WithDefaultField(strings.TrimSpace(doc.DefaultField)),
		WithUniqueKey(strings.TrimSpace(doc.UniqueKey)),
	)
}

func (xf xmlField) toField(types map[string]xmlFieldType) (field.Field, error) {
	t, ok := types[xf.Type]
	if !ok {
		return field.Field{}, fmt.Errorf("%w: field %q has undefined type %q", domain.ErrInvalidSchema, xf.Name, xf.Type)
	}
	kind, ok := classKinds[t.Class[strings.LastIndex(t.Class, ".")+1:]]
	if !ok {
		kind = field.Text
	}

	var opts []field.Option
	if attrBool(xf.MultiValued, attrBool(t.MultiValued, false)) {
		opts = append(opts, field.Multi())
	}
	if attrBool(xf.Required, false) {
		opts = append(opts, field.Required())
	}
	opts = append(opts, field.Indexed(attrBool(xf.Indexed, attrBool(t.Indexed, true))))

	f, err := field.New(xf.Name, kind, opts...)
	if err != nil {
		return field.Field{}, fmt.Errorf("%w: %w", domain.ErrInvalidSchema, err)
	}
	return f, nil
}

func attrBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return def
	}
}
