package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialects_Table(t *testing.T) {
	out, _, err := execute(t, "dialects")
	require.NoError(t, err)

	assert.Contains(t, out, "DIALECT")
	for _, name := range []string{"mysql", "oracle", "postgres", "sqlite"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "predicate")
	assert.Contains(t, out, "native")
	assert.Contains(t, out, "dollar")
}

func TestDialects_JSON(t *testing.T) {
	out, _, err := execute(t, "dialects", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   []DialectSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	byName := make(map[string]DialectSummary)
	names := make([]string, 0, len(resp.Data))
	for _, s := range resp.Data {
		byName[s.Name] = s
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"mysql", "oracle", "postgres", "sqlite"}, names)

	oracle := byName["oracle"]
	assert.Equal(t, "predicate", oracle.Paging)
	assert.Equal(t, "question", oracle.Placeholder)
	assert.Positive(t, oracle.Operators)
	assert.Positive(t, oracle.Types)

	assert.Equal(t, "native", byName["postgres"].Paging)
	assert.Equal(t, "dollar", byName["postgres"].Placeholder)
	assert.Equal(t, "(select 1)", byName["sqlite"].DummyTable)
}

func TestDialectsShow(t *testing.T) {
	out, _, err := execute(t, "dialects", "show", "oracle")
	require.NoError(t, err)
	assert.Contains(t, out, "oracle: predicate paging, question placeholders")
	assert.Contains(t, out, "OPERATOR")
	assert.Contains(t, out, "eq")
}

func TestDialectsShow_JSON(t *testing.T) {
	out, _, err := execute(t, "dialects", "show", "postgres", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   DialectDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "postgres", resp.Data.Name)
	assert.Len(t, resp.Data.Templates, resp.Data.Operators)
	assert.Len(t, resp.Data.TypeNames, resp.Data.Types)
	assert.Contains(t, resp.Data.Templates, "eq")
}

func TestDialectsShow_Unknown(t *testing.T) {
	out, _, err := execute(t, "dialects", "show", "db2")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeNotFound+"]")
}
