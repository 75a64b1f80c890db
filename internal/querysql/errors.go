package querysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/querytext/internal/queryir"
)

// RenderError is returned when a query cannot be rendered for a dialect.
//
// Render errors include:
//   - Structural violations: having without group by, nil nodes, misplaced constructors
//   - Empty projection outside a count render
//   - Operators, cast types or clauses the dialect has no pattern for
//   - Operations with the wrong number of arguments
//
// RenderError carries the offending operator, type or clause for diagnostics.
// Rendering is pure, so retrying the same input always fails the same way.
type RenderError struct {
	// Code identifies the error category.
	Code RenderErrorCode

	// Message is a human-readable description.
	Message string

	// Dialect is the pattern table in use.
	Dialect string

	// Operator is set for UNMAPPED_OPERATOR and ARITY_MISMATCH.
	Operator queryir.Operator

	// Type is set for UNMAPPED_TYPE.
	Type queryir.TypeTag

	// Clause names the clause being rendered (e.g. "having", "full join").
	Clause string
}

// RenderErrorCode categorizes render errors.
type RenderErrorCode string

const (
	// ErrCodeInvalidStructure indicates the query violates a structural invariant.
	ErrCodeInvalidStructure RenderErrorCode = "INVALID_STRUCTURE"

	// ErrCodeEmptyProjection indicates a non-count render with nothing to select.
	ErrCodeEmptyProjection RenderErrorCode = "EMPTY_PROJECTION"

	// ErrCodeUnmappedOperator indicates the dialect has no template for an operator.
	ErrCodeUnmappedOperator RenderErrorCode = "UNMAPPED_OPERATOR"

	// ErrCodeUnmappedType indicates the dialect has no type name for a cast target.
	ErrCodeUnmappedType RenderErrorCode = "UNMAPPED_TYPE"

	// ErrCodeUnmappedClause indicates the dialect has no token for a clause.
	ErrCodeUnmappedClause RenderErrorCode = "UNMAPPED_CLAUSE"

	// ErrCodeArityMismatch indicates an operation with the wrong argument count.
	ErrCodeArityMismatch RenderErrorCode = "ARITY_MISMATCH"
)

// Error implements the error interface.
func (e *RenderError) Error() string {
	var ctx []string
	if e.Dialect != "" {
		ctx = append(ctx, "dialect="+e.Dialect)
	}
	if e.Operator != "" {
		ctx = append(ctx, "operator="+string(e.Operator))
	}
	if e.Type != "" {
		ctx = append(ctx, "type="+string(e.Type))
	}
	if e.Clause != "" {
		ctx = append(ctx, "clause="+e.Clause)
	}
	if len(ctx) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(ctx, ", "))
}

// CodeOf returns the code of a RenderError in err's chain, or "".
func CodeOf(err error) RenderErrorCode {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsInvalidStructure returns true if err is a structural violation.
func IsInvalidStructure(err error) bool {
	return CodeOf(err) == ErrCodeInvalidStructure
}

// IsEmptyProjection returns true if err is an empty projection error.
func IsEmptyProjection(err error) bool {
	return CodeOf(err) == ErrCodeEmptyProjection
}

// IsUnmappedOperator returns true if err is an unmapped operator error.
func IsUnmappedOperator(err error) bool {
	return CodeOf(err) == ErrCodeUnmappedOperator
}

// IsUnmappedType returns true if err is an unmapped cast type error.
func IsUnmappedType(err error) bool {
	return CodeOf(err) == ErrCodeUnmappedType
}

// IsUnmappedClause returns true if err is an unmapped clause error.
func IsUnmappedClause(err error) bool {
	return CodeOf(err) == ErrCodeUnmappedClause
}

// IsArityMismatch returns true if err is an arity mismatch error.
func IsArityMismatch(err error) bool {
	return CodeOf(err) == ErrCodeArityMismatch
}
