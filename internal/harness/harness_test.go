package harness

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querytext/internal/dialects"
)

func loadTestScenario(t *testing.T, path string) *Scenario {
	t.Helper()
	s, err := LoadScenario(path)
	require.NoError(t, err)
	return s
}

func TestRun_Weekly(t *testing.T) {
	result, err := Run(loadTestScenario(t, "testdata/scenarios/weekly.yaml"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.NotEmpty(t, result.RunID)
	require.Len(t, result.Renders, 3)

	pg, ok := result.Render("postgres")
	require.True(t, ok)
	assert.Equal(t, "select s.id, s.name from survey s where s.kind = $1 order by s.id desc limit 10", pg.SQL)
	assert.Equal(t, []any{"weekly"}, pg.Constants)

	assert.Equal(t, [][]any{{int64(3), "gamma"}, {int64(1), "alpha"}}, result.Rows)
}

func TestRun_Count(t *testing.T) {
	result, err := Run(loadTestScenario(t, "testdata/scenarios/count.yaml"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, [][]any{{int64(2)}}, result.Rows)
}

func TestRun_ExpectedError(t *testing.T) {
	result, err := Run(loadTestScenario(t, "testdata/scenarios/full_join.yaml"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	mysql, ok := result.Render("mysql")
	require.True(t, ok)
	assert.Equal(t, "UNMAPPED_CLAUSE", mysql.ErrorCode)
	assert.Contains(t, mysql.Err, "full join")
	assert.Nil(t, result.Rows)
}

func TestRun_Mismatches(t *testing.T) {
	scenario := loadTestScenario(t, "testdata/scenarios/weekly.yaml")
	scenario.Expect["oracle"] = Expectation{
		SQL:       "select s.id from survey s",
		Constants: []any{"daily"},
	}
	scenario.Expect["postgres"] = Expectation{Error: "UNMAPPED_OPERATOR"}
	scenario.Execute.Rows = [][]any{{3, "gamma"}}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "Assertion failed: sql [oracle]")
	assert.Contains(t, result.Errors[1], "Assertion failed: constants [oracle]")
	assert.Contains(t, result.Errors[1], `Expected: ["daily"]`)
	assert.Contains(t, result.Errors[1], `Actual: ["weekly"]`)
	assert.Contains(t, result.Errors[2], "Assertion failed: error [postgres]")
	assert.Contains(t, result.Errors[2], "rendered successfully")
	assert.Contains(t, result.Errors[3], "Assertion failed: rows [sqlite]")
}

func TestRun_UnexpectedRenderError(t *testing.T) {
	scenario := loadTestScenario(t, "testdata/scenarios/full_join.yaml")
	scenario.Expect["mysql"] = Expectation{SQL: "select s.id from survey s"}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "UNMAPPED_CLAUSE")
}

func TestRun_RowCount(t *testing.T) {
	scenario := loadTestScenario(t, "testdata/scenarios/weekly.yaml")
	scenario.Execute.Rows = nil
	two, five := 2, 5

	scenario.Execute.RowCount = &two
	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	scenario.Execute.RowCount = &five
	result, err = Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "Expected: 5 rows")
}

func TestRun_ExecuteWithoutSQLiteExpectation(t *testing.T) {
	scenario := loadTestScenario(t, "testdata/scenarios/weekly.yaml")
	delete(scenario.Expect, "sqlite")

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Renders, 2)
	assert.Len(t, result.Rows, 2)
}

func TestRun_FreshDatabasePerRun(t *testing.T) {
	scenario := loadTestScenario(t, "testdata/scenarios/weekly.yaml")

	// Setup creates the table, so a shared database would fail the second run.
	for i := 0; i < 2; i++ {
		result, err := Run(scenario)
		require.NoError(t, err)
		assert.True(t, result.Pass, "run %d errors: %v", i, result.Errors)
	}
}

func TestRun_SetupFailure(t *testing.T) {
	scenario := loadTestScenario(t, "testdata/scenarios/weekly.yaml")
	scenario.Execute.Setup = []string{"create table broken ("}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute setup: statement 1")
}

func TestRun_UnknownDialect(t *testing.T) {
	scenario := loadTestScenario(t, "testdata/scenarios/full_join.yaml")
	scenario.Expect["db2"] = Expectation{SQL: "select 1"}

	reg, err := dialects.Builtin()
	require.NoError(t, err)
	_, err = New(reg).Run(context.Background(), scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown dialect "db2"`)
}

func TestRun_Deterministic(t *testing.T) {
	scenario := loadTestScenario(t, "testdata/scenarios/weekly.yaml")

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := Snapshot(scenario.Name, first)
	require.NoError(t, err)
	b, err := Snapshot(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestResult_AddError(t *testing.T) {
	r := NewResult("run")
	assert.True(t, r.Pass)

	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}

func TestCheckRender_DecimalConstants(t *testing.T) {
	errs := checkRender(
		Expectation{SQL: "x", Constants: []any{1.5, 3}},
		Render{Dialect: "oracle", SQL: "x", Constants: []any{decimal.NewFromFloat(1.5), int64(3)}},
	)
	assert.Empty(t, errs)
}
