package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Regenerate with:
//
//	go test ./internal/harness -run TestRunWithGolden -update
func TestRunWithGolden_Weekly(t *testing.T) {
	err := RunWithGolden(t, loadTestScenario(t, "testdata/scenarios/weekly.yaml"))
	require.NoError(t, err)
}

func TestRunWithGolden_ExpectedError(t *testing.T) {
	err := RunWithGolden(t, loadTestScenario(t, "testdata/scenarios/full_join.yaml"))
	require.NoError(t, err)
}

func TestSnapshot_OmitsRunID(t *testing.T) {
	result := NewResult("0192d1a4-0000-7000-8000-000000000000")
	result.AddRender(Render{Dialect: "oracle", SQL: "select ? from dual", Constants: []any{int64(1)}})

	data, err := Snapshot("dual", result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"renders":[{"constants":[1],"dialect":"oracle","sql":"select ? from dual"}],"scenario_name":"dual"}`,
		string(data))
}

func TestGoldenPath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "weekly.golden"),
		GoldenPath(filepath.Join("scenarios", "weekly.yaml")))
}

func TestUpdateAndCompareGolden(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "queries"), 0755))
	src, err := os.ReadFile("testdata/scenarios/queries/weekly.yaml")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "queries", "weekly.yaml"), src, 0644))
	src, err = os.ReadFile("testdata/scenarios/weekly.yaml")
	require.NoError(t, err)
	path := writeScenario(t, dir, "weekly.yaml", string(src))

	scenario := loadTestScenario(t, path)
	result, err := Run(scenario)
	require.NoError(t, err)

	_, found, err := CompareGolden(scenario, result)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, UpdateGolden(scenario, result))
	match, found, err := CompareGolden(scenario, result)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, match)

	result.Renders[0].SQL = "select 1"
	match, _, err = CompareGolden(scenario, result)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestUpdateGolden_RequiresFile(t *testing.T) {
	err := UpdateGolden(&Scenario{Name: "built"}, NewResult("run"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not loaded from a file")
}
