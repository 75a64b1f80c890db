package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/querytext/internal/ir"
)

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Check that failed: "sql", "constants", "error", "rows"
	Dialect  string
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	SQL      string // Rendered statement, if any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Dialect != "" {
		fmt.Fprintf(&buf, " [%s]", e.Dialect)
	}
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.SQL != "" && e.Type != "sql" {
		fmt.Fprintf(&buf, "  Statement: %s\n", e.SQL)
	}

	return buf.String()
}

// checkRender compares one dialect's outcome against its expectation.
func checkRender(exp Expectation, got Render) []error {
	if exp.Error != "" {
		if got.ErrorCode != exp.Error {
			actual := "rendered successfully"
			if got.ErrorCode != "" {
				actual = got.Err
			}
			return []error{&AssertionError{
				Type:     "error",
				Dialect:  got.Dialect,
				Expected: exp.Error,
				Actual:   actual,
				SQL:      got.SQL,
			}}
		}
		return nil
	}

	if got.ErrorCode != "" {
		return []error{&AssertionError{
			Type:     "sql",
			Dialect:  got.Dialect,
			Expected: exp.SQL,
			Actual:   got.Err,
		}}
	}

	var errs []error
	if got.SQL != exp.SQL {
		errs = append(errs, &AssertionError{
			Type:     "sql",
			Dialect:  got.Dialect,
			Expected: exp.SQL,
			Actual:   got.SQL,
		})
	}

	expected, err := normalizeValues(exp.Constants)
	if err != nil {
		return append(errs, fmt.Errorf("expect.%s.constants: %w", got.Dialect, err))
	}
	if want, have, equal := compareCanonical(expected, got.Constants); !equal {
		errs = append(errs, &AssertionError{
			Type:     "constants",
			Dialect:  got.Dialect,
			Expected: want,
			Actual:   have,
			SQL:      got.SQL,
		})
	}
	return errs
}

// checkRows compares executed rows against the execute step.
func checkRows(exec *Execution, rows [][]any, sql string) []error {
	if len(exec.Rows) == 0 {
		if len(rows) != *exec.RowCount {
			return []error{&AssertionError{
				Type:     "rows",
				Dialect:  ExecutionDialect,
				Expected: fmt.Sprintf("%d rows", *exec.RowCount),
				Actual:   fmt.Sprintf("%d rows", len(rows)),
				SQL:      sql,
			}}
		}
		return nil
	}

	expected := make([]any, len(exec.Rows))
	for i, row := range exec.Rows {
		v, err := normalizeValues(row)
		if err != nil {
			return []error{fmt.Errorf("execute.rows[%d]: %w", i, err)}
		}
		expected[i] = v
	}
	actual := make([]any, len(rows))
	for i, row := range rows {
		v, err := normalizeValues(row)
		if err != nil {
			return []error{fmt.Errorf("result row %d: %w", i+1, err)}
		}
		actual[i] = v
	}

	if want, have, equal := compareCanonical(expected, actual); !equal {
		return []error{&AssertionError{
			Type:     "rows",
			Dialect:  ExecutionDialect,
			Expected: want,
			Actual:   have,
			SQL:      sql,
		}}
	}
	return nil
}

// normalizeValues converts decoded YAML or driver values into the literal
// forms the serializer binds: integers become int64 and floats become
// decimals.
func normalizeValues(values []any) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		n, err := ir.Literal(v, ir.KindAuto)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = n
	}
	return out, nil
}

// compareCanonical compares two value lists by their canonical JSON form.
func compareCanonical(expected, actual []any) (want, have string, equal bool) {
	if expected == nil {
		expected = []any{}
	}
	if actual == nil {
		actual = []any{}
	}
	w, err := ir.MarshalCanonical(expected)
	if err != nil {
		return fmt.Sprintf("%v", expected), err.Error(), false
	}
	h, err := ir.MarshalCanonical(actual)
	if err != nil {
		return string(w), err.Error(), false
	}
	return string(w), string(h), string(w) == string(h)
}
