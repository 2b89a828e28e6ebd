package query

import (
	"slices"
	"strconv"
	"strings"

	"github.com/kailas-cloud/solrq/internal/domain/schema"
	"github.com/kailas-cloud/solrq/internal/domain/schema/field"
)

// textEscaper backslash-escapes query syntax characters in terms and field names.
var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	`+`, `\+`,
	`-`, `\-`,
	`&`, `\&`,
	`|`, `\|`,
	`!`, `\!`,
	`(`, `\(`,
	`)`, `\)`,
	`{`, `\{`,
	`}`, `\}`,
	`[`, `\[`,
	`]`, `\]`,
	`^`, `\^`,
	`"`, `\"`,
	`~`, `\~`,
	`*`, `\*`,
	`?`, `\?`,
	`:`, `\:`,
	`/`, `\/`,
	` `, `\ `,
	"\t", "\\\t",
	"\n", "\\\n",
)

var phraseEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// keywords would be parsed as operators when bare.
var keywords = map[string]bool{"AND": true, "OR": true, "NOT": true}

// EscapeTerm escapes s for use as an unquoted term or field name.
func EscapeTerm(s string) string {
	if keywords[s] {
		return `"` + s + `"`
	}
	return textEscaper.Replace(s)
}

// EscapeWildcard escapes s like EscapeTerm but keeps * and ? as wildcards.
// A backslash makes the next character literal, so `\*` matches an asterisk.
// A trailing backslash is itself literal.
func EscapeWildcard(s string) string {
	if keywords[s] {
		return `"` + s + `"`
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	literal := false
	for _, r := range s {
		switch {
		case literal:
			literal = false
			b.WriteString(textEscaper.Replace(string(r)))
		case r == '\\':
			literal = true
		case r == '*' || r == '?':
			b.WriteRune(r)
		default:
			b.WriteString(textEscaper.Replace(string(r)))
		}
	}
	if literal {
		b.WriteString(`\\`)
	}
	return b.String()
}

// QuotePhrase renders s as a quoted phrase.
func QuotePhrase(s string) string {
	return `"` + phraseEscaper.Replace(s) + `"`
}

// String serializes the normalized query to query-language text.
// An empty query serializes to "".
func (q Query) String() string {
	n, _ := q.Normalize()
	if n.root.empty() {
		return ""
	}
	text, _ := render(n.root)
	return text
}

// Serialize is String.
func (q Query) Serialize() string { return q.String() }

// shape is the top-level operator of rendered text, used for parenthesization.
type shape int

const (
	shapeAtom shape = iota
	shapeAnd
	shapeOr
	shapeNot
	shapeBoost
)

func render(n *node) (string, shape) {
	switch n.op {
	case opAnd:
		return join(n.subs, " AND ", shapeAnd), shapeAnd
	case opOr:
		return join(n.subs, " OR ", shapeOr), shapeOr
	case opNot:
		return "NOT " + renderChild(n.subs[0], shapeNot), shapeNot
	case opBoost:
		return renderChild(n.subs[0], shapeBoost) + "^" + FormatScore(n.score), shapeBoost
	}

	parts := renderClauses(n)
	if len(parts) == 1 && len(n.subs) == 0 {
		return parts[0], shapeAtom
	}
	if len(parts) == 0 && len(n.subs) == 1 {
		return render(n.subs[0])
	}
	for _, s := range n.subs {
		parts = append(parts, renderChild(s, shapeAnd))
	}
	return strings.Join(parts, " AND "), shapeAnd
}

func join(children []*node, sep string, parent shape) string {
	parts := make([]string, 0, len(children))
	for _, c := range children {
		parts = append(parts, renderChild(c, parent))
	}
	return strings.Join(parts, sep)
}

// renderChild wraps the child in parentheses unless its operator associates
// into the parent's without changing meaning.
func renderChild(n *node, parent shape) string {
	text, s := render(n)
	if s == shapeAtom || !needsParens(parent, s) {
		return text
	}
	return "(" + text + ")"
}

func needsParens(parent, child shape) bool {
	switch parent {
	case shapeAnd:
		return child == shapeOr
	case shapeOr:
		return child == shapeAnd || child == shapeNot
	case shapeNot:
		return child != shapeBoost
	default:
		return true
	}
}

func renderClauses(n *node) []string {
	parts := make([]string, 0, n.clauseCount())

	terms := slices.Clone(n.terms)
	slices.SortFunc(terms, compareTerms)
	for _, t := range terms {
		parts = append(parts, renderTerm(t))
	}

	phrases := slices.Clone(n.phrases)
	slices.SortFunc(phrases, comparePhrases)
	for _, p := range phrases {
		parts = append(parts, qualify(p.Field, QuotePhrase(p.Value.Text())))
	}

	ranges := slices.Clone(n.ranges)
	slices.SortFunc(ranges, compareRanges)
	for _, r := range ranges {
		parts = append(parts, qualify(r.Field, renderRange(r)))
	}
	return parts
}

func renderTerm(t Term) string {
	if t.Field == schema.MatchAll {
		return "*:*"
	}
	var value string
	switch {
	case t.Wildcard:
		value = EscapeWildcard(t.Value.Text())
	case t.Value.Kind() == field.Date || t.Value.Kind() == field.Boolean:
		value = t.Value.Text()
	default:
		value = EscapeTerm(t.Value.Text())
	}
	return qualify(t.Field, value)
}

func qualify(name, value string) string {
	if name == "" {
		return value
	}
	return EscapeTerm(name) + ":" + value
}

func renderRange(r Range) string {
	switch r.Rel {
	case Lt:
		return "{* TO " + rangeBound(r.Bounds[0]) + "}"
	case Lte:
		return "[* TO " + rangeBound(r.Bounds[0]) + "]"
	case Gt:
		return "{" + rangeBound(r.Bounds[0]) + " TO *}"
	case Gte:
		return "[" + rangeBound(r.Bounds[0]) + " TO *]"
	case Between:
		return "[" + rangeBound(r.Bounds[0]) + " TO " + rangeBound(r.Bounds[1]) + "]"
	case Exclusive:
		return "{" + rangeBound(r.Bounds[0]) + " TO " + rangeBound(r.Bounds[1]) + "}"
	default:
		return "[* TO *]"
	}
}

// rangeBound quotes text bounds that are not a single word.
func rangeBound(v field.Value) string {
	text := v.Text()
	if v.Kind() == field.Text && (!termRe.MatchString(text) || keywords[text] || text == "TO") {
		return QuotePhrase(text)
	}
	return text
}

// FormatScore renders a boost score in fixed notation with a decimal point.
func FormatScore(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
