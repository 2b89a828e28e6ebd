package search

import (
	"context"
	"net/url"
	"testing"

	"github.com/kailas-cloud/solrq/internal/domain/query"
	"github.com/kailas-cloud/solrq/internal/domain/schema"
	"github.com/kailas-cloud/solrq/internal/domain/schema/field"
	"github.com/kailas-cloud/solrq/internal/transport/solr"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New([]field.Field{
		field.Reconstruct("id", field.Text, field.Required()),
		field.Reconstruct("title", field.Text),
		field.Reconstruct("int_field", field.Integer),
		field.Reconstruct("tags", field.Text, field.Multi()),
		field.Reconstruct("date_field", field.Date),
		field.Reconstruct("body", field.Text, field.Unindexed()),
	}, schema.WithDefaultField("title"), schema.WithUniqueKey("id"))
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

type mockSelecter struct {
	resp   *solr.Response
	err    error
	params []url.Values
}

func (m *mockSelecter) Select(_ context.Context, params url.Values) (*solr.Response, error) {
	m.params = append(m.params, params)
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

type mockDeleter struct {
	queries []string
	all     int
	err     error
}

func (m *mockDeleter) DeleteByQuery(_ context.Context, q query.Query) error {
	if m.err != nil {
		return m.err
	}
	m.queries = append(m.queries, q.String())
	return nil
}

func (m *mockDeleter) DeleteAll(_ context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.all++
	return nil
}

type mockInvalidator struct {
	calls int
	err   error
}

func (m *mockInvalidator) Invalidate(_ context.Context) error {
	m.calls++
	return m.err
}
