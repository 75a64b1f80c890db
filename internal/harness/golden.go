package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/querytext/internal/ir"
)

// Snapshot returns the canonical JSON snapshot of a scenario result.
// The run id is left out so snapshots are identical across runs.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	renders := make([]any, len(result.Renders))
	for i, r := range result.Renders {
		m := map[string]any{"dialect": r.Dialect}
		if r.ErrorCode != "" {
			m["error"] = r.ErrorCode
		} else {
			constants := r.Constants
			if constants == nil {
				constants = []any{}
			}
			m["sql"] = r.SQL
			m["constants"] = constants
		}
		renders[i] = m
	}

	snapshot := map[string]any{
		"scenario_name": scenarioName,
		"renders":       renders,
	}
	if result.Rows != nil {
		rows := make([]any, len(result.Rows))
		for i, row := range result.Rows {
			v, err := normalizeValues(row)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			rows[i] = v
		}
		snapshot["rows"] = rows
	}

	data, err := ir.MarshalCanonical(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// GoldenPath returns the golden file of a scenario file:
// <dir>/golden/<name>.golden.
func GoldenPath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// UpdateGolden writes the result snapshot as the scenario's golden file.
func UpdateGolden(scenario *Scenario, result *Result) error {
	if scenario.Path == "" {
		return fmt.Errorf("scenario %s was not loaded from a file", scenario.Name)
	}
	data, err := Snapshot(scenario.Name, result)
	if err != nil {
		return err
	}

	goldenPath := GoldenPath(scenario.Path)
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(goldenPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// CompareGolden compares the result snapshot with the scenario's golden
// file. found is false when no golden file exists.
func CompareGolden(scenario *Scenario, result *Result) (match, found bool, err error) {
	if scenario.Path == "" {
		return false, false, nil
	}
	goldenData, err := os.ReadFile(GoldenPath(scenario.Path))
	if os.IsNotExist(err) {
		return false, false, nil
	}
	if err != nil {
		return false, true, fmt.Errorf("failed to read golden file: %w", err)
	}

	current, err := Snapshot(scenario.Name, result)
	if err != nil {
		return false, true, err
	}
	return bytes.Equal(bytes.TrimSpace(goldenData), current), true, nil
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
