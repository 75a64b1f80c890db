package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExec_Table(t *testing.T) {
	path := writeFile(t, t.TempDir(), "weekly.yaml", weeklyDoc)

	args := append([]string{"exec", "-d", "sqlite"}, surveySetup...)
	out, _, err := execute(t, append(args, path)...)
	require.NoError(t, err)

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "gamma")
	assert.Contains(t, out, "alpha")
	assert.NotContains(t, out, "beta")
	assert.Contains(t, out, "(2 rows)")
}

func TestExec_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "weekly.yaml", weeklyDoc)

	args := append([]string{"exec", "-d", "sqlite", "--format", "json"}, surveySetup...)
	out, _, err := execute(t, append(args, path)...)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   ExecResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "sqlite", resp.Data.Dialect)
	assert.Equal(t, "sqlite3", resp.Data.Driver)
	assert.Equal(t, sqliteWeekly, resp.Data.SQL)
	assert.Equal(t, []string{"id", "name"}, resp.Data.Columns)
	assert.Equal(t, [][]any{{float64(3), "gamma"}, {float64(1), "alpha"}}, resp.Data.Rows)
}

func TestExec_Count(t *testing.T) {
	path := writeFile(t, t.TempDir(), "weekly.yaml", weeklyDoc)

	args := append([]string{"exec", "-d", "sqlite", "--count", "--format", "json"}, surveySetup...)
	out, _, err := execute(t, append(args, path)...)
	require.NoError(t, err)

	var resp struct {
		Data ExecResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, [][]any{{float64(2)}}, resp.Data.Rows)
}

func TestExec_NoRows(t *testing.T) {
	path := writeFile(t, t.TempDir(), "weekly.yaml", weeklyDoc)

	out, _, err := execute(t, "exec", "-d", "sqlite",
		"--setup", "create table survey (id integer primary key, name text, kind text)", path)
	require.NoError(t, err)
	assert.Equal(t, "(0 rows)\n", out)
}

func TestExec_QueryError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "weekly.yaml", weeklyDoc)

	out, _, err := execute(t, "exec", "-d", "sqlite", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeDatabase+"]")
	assert.Contains(t, out, "no such table")
}

func TestExec_SetupError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "weekly.yaml", weeklyDoc)

	out, _, err := execute(t, "exec", "-d", "sqlite", "--setup", "create tabel survey (id int)", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "setup: statement 1")
}

func TestExec_RenderError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "full_join.yaml", fullJoinDoc)

	out, _, err := execute(t, "exec", "-d", "mysql", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "UNMAPPED_CLAUSE")
}

func TestExec_UnknownDriver(t *testing.T) {
	path := writeFile(t, t.TempDir(), "weekly.yaml", weeklyDoc)

	out, _, err := execute(t, "exec", "-d", "sqlite", "--driver", "oracle", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `unknown driver "oracle"`)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", formatValue(nil))
	assert.Equal(t, "42", formatValue(int64(42)))
	assert.Equal(t, "alpha", formatValue("alpha"))
}
