package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/querytext/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run render scenarios using the harness framework.

Each scenario renders a query document with every dialect it lists and
compares SQL, constants and error codes. Scenarios with an execute step
also run the SQLite rendering against a fresh in-memory database.
A golden snapshot in <scenarios-dir>/golden/<name>.golden is compared
when present.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  querytext test ./scenarios
  querytext test ./scenarios --filter "weekly*"
  querytext test ./scenarios --update
  querytext test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		msg := fmt.Sprintf("scenarios directory not found: %s", scenariosDir)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	scenarios, err := harness.LoadScenarios(scenariosDir, opts.Filter)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenarios", err)
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarios)),
		Total:     len(scenarios),
	}

	if len(scenarios) == 0 {
		if formatter.Format == "json" {
			return formatter.Success(result)
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	h := harness.New(opts.registry, harness.WithLogger(opts.logger(formatter)))
	for _, scenario := range scenarios {
		sr := runScenario(cmd.Context(), h, scenario, opts)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}

		if formatter.Format != "json" {
			writeScenarioText(formatter, sr, opts.Update)
		}
	}

	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if result.Failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeGeneric,
				Message: fmt.Sprintf("%d of %d scenario(s) failed", result.Failed, result.Total),
			}
		}
		if err := formatter.Respond(resp); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// runScenario executes a single scenario and checks its golden file.
func runScenario(ctx context.Context, h *harness.Harness, scenario *harness.Scenario, opts *TestOptions) ScenarioResult {
	if ctx == nil {
		ctx = context.Background()
	}
	sr := ScenarioResult{Name: scenario.Name, File: scenario.Path}

	result, err := h.Run(ctx, scenario)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}
	if !result.Pass {
		sr.Errors = result.Errors
		return sr
	}

	if opts.Update {
		if err := harness.UpdateGolden(scenario, result); err != nil {
			sr.Errors = []string{fmt.Sprintf("failed to update golden file: %v", err)}
			return sr
		}
		sr.Pass = true
		return sr
	}

	match, found, err := harness.CompareGolden(scenario, result)
	switch {
	case err != nil:
		sr.Errors = []string{fmt.Sprintf("golden comparison failed: %v", err)}
	case found && !match:
		sr.Errors = []string{"snapshot does not match golden file (run with --update to regenerate)"}
	default:
		sr.Pass = true
	}
	return sr
}

func writeScenarioText(f *OutputFormatter, sr ScenarioResult, updated bool) {
	if sr.Pass {
		if updated {
			fmt.Fprintf(f.Writer, "✓ %s (golden updated)\n", sr.Name)
		} else {
			fmt.Fprintf(f.Writer, "✓ %s\n", sr.Name)
		}
		return
	}
	fmt.Fprintf(f.Writer, "✗ %s\n", sr.Name)
	for _, e := range sr.Errors {
		fmt.Fprintf(f.Writer, "  %s\n", e)
	}
}
