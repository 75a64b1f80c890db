package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/querytext/internal/compiler"
)

// ValidationResult holds validation results for one document.
type ValidationResult struct {
	File     string    `json:"file"`
	Valid    bool      `json:"valid"`
	Problems []string  `json:"problems,omitempty"`
	Error    *CLIError `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate query documents without rendering",
		Long: `Compile query documents and check their structure without rendering SQL.

Reports every structural problem at once (having without group by,
negative limit, misplaced constructors, wrong argument counts), where
render stops at the first.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	results := make([]ValidationResult, 0, len(paths))
	invalid := 0
	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)
		r := validateFile(path)
		if !r.Valid {
			invalid++
		}
		results = append(results, r)
	}

	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: results}
		if invalid > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeInvalid,
				Message: fmt.Sprintf("%d of %d document(s) invalid", invalid, len(paths)),
			}
		}
		if err := formatter.Respond(resp); err != nil {
			return err
		}
	} else {
		writeValidationText(formatter, results)
	}

	if invalid > 0 {
		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed for %d document(s)", invalid))
	}
	return nil
}

// validateFile compiles one document and runs the structural checks.
func validateFile(path string) ValidationResult {
	doc, err := compiler.Load(path)
	if err != nil {
		return ValidationResult{File: path, Error: compileCLIError(err)}
	}

	v := doc.Validate()
	return ValidationResult{File: path, Valid: v.Valid, Problems: v.Problems}
}

func writeValidationText(f *OutputFormatter, results []ValidationResult) {
	for _, r := range results {
		if r.Valid {
			fmt.Fprintf(f.Writer, "✓ %s\n", r.File)
			continue
		}
		fmt.Fprintf(f.Writer, "✗ %s\n", r.File)
		if r.Error != nil {
			fmt.Fprintf(f.Writer, "  %s: %s\n", r.Error.Code, r.Error.Message)
		}
		for _, p := range r.Problems {
			fmt.Fprintf(f.Writer, "  %s\n", p)
		}
	}
}
