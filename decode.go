package solrq

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/solrq/internal/domain"
)

const tagKey = "solrq"

var timeType = reflect.TypeOf(time.Time{})

// structMeta maps document field names to struct field indexes.
type structMeta struct {
	typ    reflect.Type
	fields []fieldMapping
}

type fieldMapping struct {
	structIdx int
	name      string
}

// metaCache holds parsed struct metadata per type.
var metaCache sync.Map // reflect.Type -> *structMeta

// Decode converts every hit of resp into T. Struct fields are matched by their
// `solrq:"name"` tag; untagged fields and fields tagged "-" are left alone.
// Fields missing from a hit keep their zero value.
//
//	type Product struct {
//		ID    string   `solrq:"id"`
//		Tags  []string `solrq:"tags"`
//		Score float64  `solrq:"score"`
//	}
func Decode[T any](resp *Response) ([]T, error) {
	if resp == nil {
		return nil, nil
	}
	out := make([]T, 0, len(resp.Page.Docs))
	for i, doc := range resp.Page.Docs {
		v, err := DecodeDocument[T](doc)
		if err != nil {
			return nil, fmt.Errorf("solrq: document %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// DecodeDocument converts one hit into T. T must be a struct or a pointer to one.
func DecodeDocument[T any](doc Document) (T, error) {
	var zero T
	t := reflect.TypeOf(zero)
	ptr := t != nil && t.Kind() == reflect.Pointer
	if ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return zero, fmt.Errorf("solrq: type %v is not a struct", t)
	}
	meta := structMetaOf(t)

	v := reflect.New(t)
	for _, fm := range meta.fields {
		raw, ok := doc.Get(fm.name)
		if !ok || raw == nil {
			continue
		}
		dst := v.Elem().Field(fm.structIdx)
		if err := assign(dst, raw); err != nil {
			return zero, domain.NewFieldError(fm.name, err)
		}
	}
	if ptr {
		return v.Interface().(T), nil
	}
	return v.Elem().Interface().(T), nil
}

// structMetaOf parses the solrq tags of t once and caches the result.
func structMetaOf(t reflect.Type) *structMeta {
	if m, ok := metaCache.Load(t); ok {
		return m.(*structMeta)
	}
	meta := &structMeta{typ: t}
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get(tagKey)
		name, _, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" {
			continue
		}
		meta.fields = append(meta.fields, fieldMapping{structIdx: i, name: name})
	}
	m, _ := metaCache.LoadOrStore(t, meta)
	return m.(*structMeta)
}

func assign(dst reflect.Value, raw any) error {
	if raw == nil {
		return nil
	}
	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), raw); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}
	if dst.Kind() == reflect.Interface {
		rv := reflect.ValueOf(raw)
		if !rv.Type().AssignableTo(dst.Type()) {
			return mismatch(raw, dst.Type())
		}
		dst.Set(rv)
		return nil
	}

	list, isList := raw.([]any)
	if dst.Kind() == reflect.Slice {
		if !isList {
			list = []any{raw}
		}
		out := reflect.MakeSlice(dst.Type(), len(list), len(list))
		for i, item := range list {
			if err := assign(out.Index(i), item); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		dst.Set(out)
		return nil
	}
	if isList {
		if len(list) != 1 {
			return fmt.Errorf("%w: %d values for single-valued %s", domain.ErrNotMultiValued, len(list), dst.Type())
		}
		raw = list[0]
	}
	return assignScalar(dst, raw)
}

func assignScalar(dst reflect.Value, raw any) error {
	if dst.Type() == timeType {
		t, ok := raw.(time.Time)
		if !ok {
			return mismatch(raw, dst.Type())
		}
		dst.Set(reflect.ValueOf(t))
		return nil
	}

	switch dst.Kind() {
	case reflect.String:
		s, ok := raw.(string)
		if !ok {
			return mismatch(raw, dst.Type())
		}
		dst.SetString(s)
	case reflect.Bool:
		b, ok := raw.(bool)
		if !ok {
			return mismatch(raw, dst.Type())
		}
		dst.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := raw.(int64)
		if !ok {
			return mismatch(raw, dst.Type())
		}
		if dst.OverflowInt(i) {
			return fmt.Errorf("%w: %d overflows %s", domain.ErrValueRange, i, dst.Type())
		}
		dst.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, ok := raw.(int64)
		if !ok {
			return mismatch(raw, dst.Type())
		}
		if i < 0 || dst.OverflowUint(uint64(i)) {
			return fmt.Errorf("%w: %d overflows %s", domain.ErrValueRange, i, dst.Type())
		}
		dst.SetUint(uint64(i))
	case reflect.Float32, reflect.Float64:
		switch n := raw.(type) {
		case float64:
			dst.SetFloat(n)
		case int64:
			dst.SetFloat(float64(n))
		default:
			return mismatch(raw, dst.Type())
		}
	default:
		return mismatch(raw, dst.Type())
	}
	return nil
}

func mismatch(raw any, t reflect.Type) error {
	return fmt.Errorf("%w: cannot assign %T to %s", domain.ErrValueType, raw, t)
}
