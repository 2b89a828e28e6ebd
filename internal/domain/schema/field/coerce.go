package field

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/kailas-cloud/solrq/internal/domain"
)

// Date layouts accepted for strings without a zone; UTC is assumed.
var naiveDateLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Normalize coerces raw into one or more values of the field's kind.
// Slices and arrays (other than []byte) require a multi-valued field.
func (f Field) Normalize(raw any) ([]Value, error) {
	if IsList(raw) {
		if !f.multi {
			return nil, domain.ErrNotMultiValued
		}
		rv := reflect.ValueOf(raw)
		out := make([]Value, 0, rv.Len())
		for i := range rv.Len() {
			v, err := Coerce(f.kind, rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	v, err := Coerce(f.kind, raw)
	if err != nil {
		return nil, err
	}
	return []Value{v}, nil
}

// IsList reports whether raw is a slice or array other than a byte slice.
func IsList(raw any) bool {
	if raw == nil {
		return false
	}
	if _, ok := raw.([]byte); ok {
		return false
	}
	k := reflect.TypeOf(raw).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// Coerce converts a single raw value to kind.
func Coerce(kind Kind, raw any) (Value, error) {
	raw = deref(raw)
	if raw == nil {
		return Value{}, fmt.Errorf("%w: nil is not a valid %s", domain.ErrValueType, kind)
	}
	switch kind {
	case Boolean:
		return coerceBool(raw)
	case Integer:
		return coerceInt(raw, Integer, math.MinInt32, math.MaxInt32)
	case Long:
		return coerceInt(raw, Long, math.MinInt64, math.MaxInt64)
	case Float:
		return coerceFloat(raw, Float, math.MaxFloat32)
	case Double:
		return coerceFloat(raw, Double, math.MaxFloat64)
	case Date:
		return coerceDate(raw)
	case Text:
		return coerceText(raw)
	default:
		return Value{}, fmt.Errorf("%w: unknown kind %q", domain.ErrValueType, kind)
	}
}

func deref(raw any) any {
	if raw == nil {
		return nil
	}
	rv := reflect.ValueOf(raw)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

func coerceBool(raw any) (Value, error) {
	rv := reflect.ValueOf(raw)
	var b bool
	switch rv.Kind() {
	case reflect.Bool:
		b = rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b = rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		b = rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		b = rv.Float() != 0
	case reflect.String:
		s := strings.TrimSpace(rv.String())
		parsed, err := strconv.ParseBool(s)
		if err != nil {
			parsed = s != ""
		}
		b = parsed
	default:
		return Value{}, fmt.Errorf("%w: %T is not a valid boolean", domain.ErrValueType, raw)
	}
	return Value{kind: Boolean, b: b}, nil
}

func coerceInt(raw any, kind Kind, lo, hi int64) (Value, error) {
	n, err := toInt64(raw)
	if err != nil {
		return Value{}, fmt.Errorf("%s: %w", kind, err)
	}
	if n < lo || n > hi {
		return Value{}, fmt.Errorf("%w: %d outside %s bounds [%d, %d]", domain.ErrValueRange, n, kind, lo, hi)
	}
	return Value{kind: kind, i: n}, nil
}

func toInt64(raw any) (int64, error) {
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", domain.ErrValueRange, u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return floatToInt64(rv.Float())
	case reflect.String:
		s := strings.TrimSpace(rv.String())
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return n, nil
		}
		if isRangeErr(err) {
			return 0, fmt.Errorf("%w: %q overflows int64", domain.ErrValueRange, s)
		}
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, fmt.Errorf("%w: %q is not a number", domain.ErrValueType, s)
		}
		return floatToInt64(f)
	default:
		return 0, fmt.Errorf("%w: %T is not an integer", domain.ErrValueType, raw)
	}
}

func floatToInt64(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v is not finite", domain.ErrValueRange, f)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %v is not integral", domain.ErrValueType, f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v overflows int64", domain.ErrValueRange, f)
	}
	return int64(f), nil
}

func coerceFloat(raw any, kind Kind, maxAbs float64) (Value, error) {
	var f float64
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f = float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		f = float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		f = rv.Float()
	case reflect.String:
		s := strings.TrimSpace(rv.String())
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			if isRangeErr(err) {
				return Value{}, fmt.Errorf("%w: %q overflows %s", domain.ErrValueRange, s, kind)
			}
			return Value{}, fmt.Errorf("%w: %q is not a number", domain.ErrValueType, s)
		}
		f = parsed
	default:
		return Value{}, fmt.Errorf("%w: %T is not a %s", domain.ErrValueType, raw, kind)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > maxAbs {
		return Value{}, fmt.Errorf("%w: %v outside %s range", domain.ErrValueRange, f, kind)
	}
	return Value{kind: kind, f: f}, nil
}

func coerceDate(raw any) (Value, error) {
	var t time.Time
	switch v := raw.(type) {
	case time.Time:
		t = v
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return Value{}, err
		}
		t = parsed
	default:
		return Value{}, fmt.Errorf("%w: %T is not a date", domain.ErrValueType, raw)
	}
	return Value{kind: Date, t: t.UTC().Truncate(time.Microsecond)}, nil
}

// ParseDate parses an ISO-8601 date. Strings without a zone are taken as UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range naiveDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not an ISO-8601 date", domain.ErrValueType, s)
}

func coerceText(raw any) (Value, error) {
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case time.Time:
		s = FormatDate(v)
	case fmt.Stringer:
		s = v.String()
	default:
		rv := reflect.ValueOf(raw)
		switch rv.Kind() {
		case reflect.String:
			s = rv.String()
		case reflect.Bool:
			s = strconv.FormatBool(rv.Bool())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			s = strconv.FormatInt(rv.Int(), 10)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			s = strconv.FormatUint(rv.Uint(), 10)
		case reflect.Float32:
			s = strconv.FormatFloat(rv.Float(), 'g', -1, 32)
		case reflect.Float64:
			s = strconv.FormatFloat(rv.Float(), 'g', -1, 64)
		default:
			return Value{}, fmt.Errorf("%w: %T is not text", domain.ErrValueType, raw)
		}
	}
	if !utf8.ValidString(s) {
		return Value{}, fmt.Errorf("%w: text is not valid UTF-8", domain.ErrValueType)
	}
	return Value{kind: Text, s: norm.NFC.String(s)}, nil
}

func isRangeErr(err error) bool {
	return errors.Is(err, strconv.ErrRange)
}
