package solr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Response is a decoded select response. Document values keep JSON numbers
// exact; type them against a schema with result.Decode.
type Response struct {
	Header       Header                         `json:"responseHeader"`
	Response     *DocList                       `json:"response,omitempty"`
	FacetCounts  *FacetCounts                   `json:"facet_counts,omitempty"`
	Highlighting map[string]map[string][]string `json:"highlighting,omitempty"`
	MoreLikeThis map[string]DocList             `json:"moreLikeThis,omitempty"`
}

// Header is the responseHeader block.
type Header struct {
	Status int            `json:"status"`
	QTime  int            `json:"QTime"`
	Params map[string]any `json:"params,omitempty"`
}

// DocList is a page of raw documents.
type DocList struct {
	NumFound int64            `json:"numFound"`
	Start    int64            `json:"start"`
	MaxScore *float64         `json:"maxScore,omitempty"`
	Docs     []map[string]any `json:"docs"`
}

// FacetCounts holds facet results. Field facets arrive as flat
// [value, count, value, count, ...] lists.
type FacetCounts struct {
	FacetQueries map[string]int64 `json:"facet_queries,omitempty"`
	FacetFields  map[string][]any `json:"facet_fields,omitempty"`
}

// FacetCount is one value of a field facet.
type FacetCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// Field returns the counts of a field facet in server order.
func (f *FacetCounts) Field(name string) ([]FacetCount, error) {
	if f == nil {
		return nil, nil
	}
	flat := f.FacetFields[name]
	if len(flat)%2 != 0 {
		return nil, fmt.Errorf("facet %q: odd number of entries", name)
	}
	out := make([]FacetCount, 0, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		count, err := toInt64(flat[i+1])
		if err != nil {
			return nil, fmt.Errorf("facet %q: %w", name, err)
		}
		value := ""
		if flat[i] != nil {
			value = fmt.Sprint(flat[i])
		}
		out = append(out, FacetCount{Value: value, Count: count})
	}
	return out, nil
}

// Fields returns every field facet, paired.
func (f *FacetCounts) Fields() (map[string][]FacetCount, error) {
	if f == nil {
		return nil, nil
	}
	out := make(map[string][]FacetCount, len(f.FacetFields))
	for name := range f.FacetFields {
		counts, err := f.Field(name)
		if err != nil {
			return nil, err
		}
		out[name] = counts
	}
	return out, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := strconv.ParseInt(string(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("count %q: %w", n, err)
		}
		return i, nil
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, fmt.Errorf("count has type %T", v)
	}
}

func decodeResponse(body []byte) (*Response, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var resp Response
	if err := dec.Decode(&resp); err != nil {
		return nil, err //nolint:wrapcheck // wrapped by the caller
	}
	return &resp, nil
}
