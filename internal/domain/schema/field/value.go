package field

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02T15:04:05"

// Value is a schema-typed scalar ready for inclusion in a query clause.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	t    time.Time
	s    string
}

// TextValue creates a text Value without coercion.
func TextValue(s string) Value { return Value{kind: Text, s: s} }

// Kind returns the kind the value was coerced to.
func (v Value) Kind() Kind { return v.kind }

// Bool returns the boolean payload.
func (v Value) Bool() bool { return v.b }

// Int returns the integer payload.
func (v Value) Int() int64 { return v.i }

// Float returns the floating point payload.
func (v Value) Float() float64 { return v.f }

// Time returns the date payload (UTC).
func (v Value) Time() time.Time { return v.t }

// Str returns the text payload.
func (v Value) Str() string { return v.s }

// Interface returns the payload as a plain Go value.
func (v Value) Interface() any {
	switch v.kind {
	case Boolean:
		return v.b
	case Integer, Long:
		return v.i
	case Float, Double:
		return v.f
	case Date:
		return v.t
	default:
		return v.s
	}
}

// Text serializes the value to query-language text. Text values are returned unescaped.
func (v Value) Text() string {
	switch v.kind {
	case Boolean:
		return strconv.FormatBool(v.b)
	case Integer, Long:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return formatFloat(v.f, 32)
	case Double:
		return formatFloat(v.f, 64)
	case Date:
		return FormatDate(v.t)
	default:
		return v.s
	}
}

func (v Value) String() string { return v.Text() }

// Compare orders values of the same kind by their typed payload.
// Values of different kinds fall back to comparing their text.
func (v Value) Compare(o Value) int {
	if v.kind != o.kind {
		return strings.Compare(v.Text(), o.Text())
	}
	switch v.kind {
	case Boolean:
		return cmp.Compare(boolRank(v.b), boolRank(o.b))
	case Integer, Long:
		return cmp.Compare(v.i, o.i)
	case Float, Double:
		return cmp.Compare(v.f, o.f)
	case Date:
		return v.t.Compare(o.t)
	default:
		return strings.Compare(v.s, o.s)
	}
}

// Equal reports whether both values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.Compare(o) == 0
}

// FormatDate renders t as YYYY-MM-DDTHH:MM:SS.ffffffZ in UTC.
func FormatDate(t time.Time) string {
	t = t.UTC()
	return t.Format(dateLayout) + fmt.Sprintf(".%06dZ", t.Nanosecond()/int(time.Microsecond))
}

func formatFloat(f float64, bitSize int) string {
	s := strconv.FormatFloat(f, 'f', -1, bitSize)
	if !strings.ContainsAny(s, ".nN") {
		s += ".0"
	}
	return s
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
