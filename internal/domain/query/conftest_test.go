package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/solrq/internal/domain/schema"
	"github.com/kailas-cloud/solrq/internal/domain/schema/field"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	fields := []field.Field{
		field.Reconstruct("int_field", field.Integer, field.Required()),
		field.Reconstruct("text_field", field.Text, field.Required(), field.Multi()),
		field.Reconstruct("boolean_field", field.Boolean),
		field.Reconstruct("long_field", field.Long),
		field.Reconstruct("float_field", field.Float),
		field.Reconstruct("double_field", field.Double),
		field.Reconstruct("date_field", field.Date),
		field.Reconstruct("title", field.Text),
		field.Reconstruct("stored", field.Text, field.Unindexed()),
		field.Reconstruct("*_s", field.Text),
	}
	s, err := schema.New(fields, schema.WithDefaultField("text_field"))
	require.NoError(t, err)
	return s
}

// term builds a single-value query on the default field.
func term(t *testing.T, s *schema.Schema, v string) Query {
	t.Helper()
	q, err := New(s).Add(nil, v)
	require.NoError(t, err)
	return q
}

func mustAdd(t *testing.T, q Query, fields Fields, values ...any) Query {
	t.Helper()
	out, err := q.Add(fields, values...)
	require.NoError(t, err)
	return out
}

func mustRange(t *testing.T, q Query, name string, rel Relation, bounds ...any) Query {
	t.Helper()
	out, err := q.AddRange(name, rel, bounds...)
	require.NoError(t, err)
	return out
}

func mustBoost(t *testing.T, q Query, score float64) Query {
	t.Helper()
	out, err := q.Boost(score)
	require.NoError(t, err)
	return out
}
