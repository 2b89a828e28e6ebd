package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/solrq/internal/domain"
)

func TestCompileCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bare term", []string{"hello"}, "hello\n"},
		{"field", []string{"int_field=5"}, "int_field:5\n"},
		{"range", []string{"int_field__range=1,10"}, "int_field:[1 TO 10]\n"},
		{"with filter", []string{"hello", "-f", "tags=a"}, "hello\nfq: tags:a\n"},
		{"empty", nil, "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"compile", "--schema", testSchema}, tt.args...)
			out, err := run(t, args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestCompileCommand_JSON(t *testing.T) {
	out, err := run(t, "--format", "json", "compile", "--schema", testSchema, "hello", "--filter", "int_field__gte=3")
	require.NoError(t, err)

	var got struct {
		Q  string   `json:"q"`
		FQ []string `json:"fq"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "hello", got.Q)
	assert.Equal(t, []string{"int_field:[3 TO *]"}, got.FQ)
}

func TestCompileCommand_Errors(t *testing.T) {
	_, err := run(t, "compile", "--schema", testSchema, "nope=1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownField))
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = run(t, "compile", "--schema", "testdata/missing.yaml", "x")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = run(t, "compile", "--schema", testSchema, "=x")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSchemaCommand(t *testing.T) {
	out, err := run(t, "schema", "--schema", testSchema)
	require.NoError(t, err)
	assert.Contains(t, out, "default_field: title")
	assert.Contains(t, out, "name: int_field")

	out, err = run(t, "--format", "json", "schema", "--schema", testSchema)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "id", doc["unique_key"])
}
