package expr

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/solrq/internal/domain"
)

// ParseArgs builds an expression from command-line words:
//
//	word                 value on the default field
//	field=value          exact match, repeated to give a list
//	field__rel=a,b       range bounds separated by commas
//	field__any           any value
func ParseArgs(args []string) (Expr, error) {
	var e Expr
	for _, arg := range args {
		key, value, hasValue := strings.Cut(arg, "=")
		if !hasValue {
			if strings.HasSuffix(arg, "__any") {
				e.addField(arg, true)
				continue
			}
			e.Values = append(e.Values, arg)
			continue
		}
		if key == "" {
			return Expr{}, fmt.Errorf("%w: missing field name in %q", domain.ErrInvalidRequest, arg)
		}

		rel := ""
		if i := strings.LastIndex(key, "__"); i >= 0 {
			rel = key[i+2:]
		}
		switch rel {
		case "range", "rangeexc":
			bounds := strings.Split(value, ",")
			list := make([]any, len(bounds))
			for i, b := range bounds {
				list[i] = b
			}
			e.addField(key, list)
		case "any":
			e.addField(key, value == "" || value == "true")
		default:
			e.addField(key, value)
		}
	}
	return e, nil
}

func (e *Expr) addField(key string, v any) {
	if e.Fields == nil {
		e.Fields = map[string]any{}
	}
	prev, ok := e.Fields[key]
	if !ok {
		e.Fields[key] = v
		return
	}
	if list, isList := prev.([]any); isList && !strings.Contains(key, "__") {
		e.Fields[key] = append(list, v)
		return
	}
	e.Fields[key] = []any{prev, v}
}
