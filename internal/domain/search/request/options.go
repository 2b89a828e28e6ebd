package request

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/query"
)

// Facet sort orders.
const (
	FacetSortCount = "count"
	FacetSortIndex = "index"
)

// FacetOptions tune a field facet. Zero values leave the server default.
type FacetOptions struct {
	Limit    int    `json:"limit,omitempty"`
	MinCount int    `json:"min_count,omitempty"`
	Offset   int    `json:"offset,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
	Sort     string `json:"sort,omitempty"`
	Missing  bool   `json:"missing,omitempty"`
}

type facet struct {
	field string
	opts  FacetOptions
}

func (f facet) encode(p url.Values) {
	p.Set("facet", "true")
	p.Add("facet.field", f.field)
	prefix := "f." + f.field + ".facet."
	setInt(p, prefix+"limit", f.opts.Limit)
	setInt(p, prefix+"mincount", f.opts.MinCount)
	setInt(p, prefix+"offset", f.opts.Offset)
	if f.opts.Prefix != "" {
		p.Set(prefix+"prefix", f.opts.Prefix)
	}
	if f.opts.Sort != "" {
		p.Set(prefix+"sort", f.opts.Sort)
	}
	if f.opts.Missing {
		p.Set(prefix+"missing", "true")
	}
}

// FacetBy requests facet counts for an indexed field.
func (r Request) FacetBy(name string, opts FacetOptions) (Request, error) {
	if err := r.checkIndexed(name); err != nil {
		return r, err
	}
	if opts.Limit < -1 || opts.MinCount < 0 || opts.Offset < 0 {
		return r, domain.NewFieldError(name,
			fmt.Errorf("%w: negative facet option", domain.ErrInvalidRequest))
	}
	switch opts.Sort {
	case "", FacetSortCount, FacetSortIndex:
	default:
		return r, domain.NewFieldError(name,
			fmt.Errorf("%w: facet sort %q", domain.ErrInvalidRequest, opts.Sort))
	}

	facets := make([]facet, 0, len(r.facets)+1)
	for _, f := range r.facets {
		if f.field != name {
			facets = append(facets, f)
		}
	}
	r.facets = append(facets, facet{field: name, opts: opts})
	return r, nil
}

// HighlightOptions tune highlighting. Zero values leave the server default.
type HighlightOptions struct {
	Snippets          int    `json:"snippets,omitempty"`
	FragSize          int    `json:"frag_size,omitempty"`
	MergeContiguous   bool   `json:"merge_contiguous,omitempty"`
	RequireFieldMatch bool   `json:"require_field_match,omitempty"`
	Pre               string `json:"pre,omitempty"`
	Post              string `json:"post,omitempty"`
}

type highlight struct {
	fields []string
	opts   HighlightOptions
}

func (h *highlight) encode(p url.Values) {
	p.Set("hl", "true")
	if len(h.fields) > 0 {
		p.Set("hl.fl", strings.Join(h.fields, ","))
	}
	if h.opts.RequireFieldMatch {
		p.Set("hl.requireFieldMatch", "true")
	}
	if h.opts.Pre != "" {
		p.Set("hl.simple.pre", h.opts.Pre)
	}
	if h.opts.Post != "" {
		p.Set("hl.simple.post", h.opts.Post)
	}

	// Per-field options when fields are named, global ones otherwise.
	prefixes := []string{"hl."}
	if len(h.fields) > 0 {
		prefixes = prefixes[:0]
		for _, f := range h.fields {
			prefixes = append(prefixes, "f."+f+".hl.")
		}
	}
	for _, prefix := range prefixes {
		setInt(p, prefix+"snippets", h.opts.Snippets)
		setInt(p, prefix+"fragsize", h.opts.FragSize)
		if h.opts.MergeContiguous {
			p.Set(prefix+"mergeContiguous", "true")
		}
	}
}

// Highlight turns on highlighting, optionally restricted to fields.
func (r Request) Highlight(opts HighlightOptions, fields ...string) (Request, error) {
	for _, f := range fields {
		if err := r.checkIndexed(f); err != nil {
			return r, err
		}
	}
	if opts.Snippets < 0 || opts.FragSize < 0 {
		return r, fmt.Errorf("%w: negative highlight option", domain.ErrInvalidRequest)
	}
	r.hl = &highlight{fields: slices.Clone(fields), opts: opts}
	return r, nil
}

// MoreLikeThisOptions tune similar-document search. Zero values leave the server default.
type MoreLikeThisOptions struct {
	Count  int     `json:"count,omitempty"`
	MinTF  float64 `json:"min_tf,omitempty"`
	MinDF  float64 `json:"min_df,omitempty"`
	MinWL  int     `json:"min_wl,omitempty"`
	MaxWL  int     `json:"max_wl,omitempty"`
	MaxQT  int     `json:"max_qt,omitempty"`
	MaxNTP int     `json:"max_ntp,omitempty"`
	Boost  bool    `json:"boost,omitempty"`
}

type moreLikeThis struct {
	fields      []string
	queryFields map[string]float64
	opts        MoreLikeThisOptions
}

func (m *moreLikeThis) encode(p url.Values) {
	p.Set("mlt", "true")
	p.Set("mlt.fl", strings.Join(m.fields, ","))
	if len(m.queryFields) > 0 {
		names := make([]string, 0, len(m.queryFields))
		for k := range m.queryFields {
			names = append(names, k)
		}
		slices.Sort(names)
		qf := make([]string, len(names))
		for i, k := range names {
			qf[i] = k
			if b := m.queryFields[k]; b != 0 {
				qf[i] += "^" + query.FormatScore(b)
			}
		}
		p.Set("mlt.qf", strings.Join(qf, " "))
	}
	setInt(p, "mlt.count", m.opts.Count)
	setFloat(p, "mlt.mintf", m.opts.MinTF)
	setFloat(p, "mlt.mindf", m.opts.MinDF)
	setInt(p, "mlt.minwl", m.opts.MinWL)
	setInt(p, "mlt.maxwl", m.opts.MaxWL)
	setInt(p, "mlt.maxqt", m.opts.MaxQT)
	setInt(p, "mlt.maxntp", m.opts.MaxNTP)
	if m.opts.Boost {
		p.Set("mlt.boost", "true")
	}
}

// MoreLikeThis requests similar documents by the terms of fields. Query field
// boosts must name one of fields; a zero boost sends the field unboosted.
func (r Request) MoreLikeThis(fields []string, queryFields map[string]float64, opts MoreLikeThisOptions) (Request, error) {
	if len(fields) == 0 {
		return r, fmt.Errorf("%w: more-like-this needs at least one field", domain.ErrInvalidRequest)
	}
	for _, f := range fields {
		if err := r.checkIndexed(f); err != nil {
			return r, err
		}
	}
	qf := make(map[string]float64, len(queryFields))
	for k, v := range queryFields {
		if !slices.Contains(fields, k) {
			return r, domain.NewFieldError(k,
				fmt.Errorf("%w: query field is not a more-like-this field", domain.ErrInvalidRequest))
		}
		if err := checkScore(k, v); err != nil {
			return r, err
		}
		qf[k] = v
	}
	if opts.Count < 0 || opts.MinTF < 0 || opts.MinDF < 0 || opts.MinWL < 0 ||
		opts.MaxWL < 0 || opts.MaxQT < 0 || opts.MaxNTP < 0 {
		return r, fmt.Errorf("%w: negative more-like-this option", domain.ErrInvalidRequest)
	}
	r.mlt = &moreLikeThis{fields: slices.Clone(fields), queryFields: qf, opts: opts}
	return r, nil
}

func setInt(p url.Values, key string, v int) {
	if v != 0 {
		p.Set(key, strconv.Itoa(v))
	}
}

func setFloat(p url.Values, key string, v float64) {
	if v != 0 {
		p.Set(key, strconv.FormatFloat(v, 'g', -1, 64))
	}
}
