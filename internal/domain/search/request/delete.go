package request

import (
	"encoding/xml"
	"fmt"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/query"
)

// MatchAllQuery matches every document.
const MatchAllQuery = "*:*"

type deleteBody struct {
	XMLName xml.Name `xml:"delete"`
	Query   string   `xml:"query"`
}

// DeleteQuery builds the update body deleting every document matching q.
// An empty query is rejected; use DeleteAll to clear the index.
func DeleteQuery(q query.Query) ([]byte, error) {
	text := q.String()
	if text == "" {
		return nil, fmt.Errorf("%w: refusing to delete by an empty query", domain.ErrInvalidRequest)
	}
	return marshalDelete(text)
}

// DeleteAll builds the update body deleting every document.
func DeleteAll() []byte {
	body, _ := marshalDelete(MatchAllQuery)
	return body
}

func marshalDelete(text string) ([]byte, error) {
	body, err := xml.Marshal(deleteBody{Query: text})
	if err != nil {
		return nil, fmt.Errorf("marshal delete: %w", err)
	}
	return body, nil
}
