package queryir

import (
	"fmt"
)

// ValidationResult contains the structural problems found in a query.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems lists each violation as "<path>: <message>",
	// e.g. "joins[1].target: nil expression".
	Problems []string
}

// Validate checks the structural invariants of a query without rendering it.
//
// Rules:
//  1. Having requires a non-empty GroupBy
//  2. No nil expressions where an expression is required
//  3. Limit and Offset are non-negative
//  4. Constructor only appears directly in the projection
//  5. OpNumCast carries a TypeTag constant as its second argument
//  6. Built-in operators have their declared number of arguments
//
// The serializer enforces the same rules while rendering; Validate exists so
// callers can report every problem at once instead of the first one.
//
// Validate is a pure function with no side effects.
func Validate(md *Metadata) ValidationResult {
	v := &validator{}
	v.validateMetadata("query", md)
	return v.result()
}

// ValidateUnion checks every branch of a union plus the shared order.
func ValidateUnion(branches []*Metadata, orderBy []OrderSpec) ValidationResult {
	v := &validator{}
	if len(branches) == 0 {
		v.addProblem("union", "at least one branch is required")
	}
	for i, md := range branches {
		v.validateMetadata(fmt.Sprintf("union[%d]", i), md)
	}
	v.validateOrder("union.order_by", orderBy)
	return v.result()
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) result() ValidationResult {
	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// addProblem appends a problem message.
func (v *validator) addProblem(path, format string, args ...any) {
	v.problems = append(v.problems, path+": "+fmt.Sprintf(format, args...))
}

func (v *validator) validateMetadata(path string, md *Metadata) {
	if md == nil {
		v.addProblem(path, "nil query")
		return
	}

	for i, e := range md.Projection {
		p := fmt.Sprintf("%s.select[%d]", path, i)
		if c, ok := Deref(e).(Constructor); ok {
			for j, arg := range c.Args {
				v.validateExpr(fmt.Sprintf("%s.args[%d]", p, j), arg)
			}
			continue
		}
		v.validateExpr(p, e)
	}

	for i, j := range md.Joins {
		p := fmt.Sprintf("%s.joins[%d]", path, i)
		v.validateExpr(p+".target", j.Target)
		if j.Condition != nil {
			v.validateExpr(p+".on", j.Condition)
		}
	}

	if md.Where != nil {
		v.validateExpr(path+".where", md.Where)
	}
	for i, e := range md.GroupBy {
		v.validateExpr(fmt.Sprintf("%s.group_by[%d]", path, i), e)
	}
	if md.Having != nil {
		if len(md.GroupBy) == 0 {
			v.addProblem(path+".having", "having, but not group by was given")
		}
		v.validateExpr(path+".having", md.Having)
	}
	v.validateOrder(path+".order_by", md.OrderBy)

	if md.Limit != nil && *md.Limit < 0 {
		v.addProblem(path+".limit", "must be non-negative, got %d", *md.Limit)
	}
	if md.Offset != nil && *md.Offset < 0 {
		v.addProblem(path+".offset", "must be non-negative, got %d", *md.Offset)
	}
	if md.Limit != nil && md.Offset != nil && !PagingInRange(*md.Limit, *md.Offset) {
		v.addProblem(path+".limit", "offset %d + limit %d overflows the row number range", *md.Offset, *md.Limit)
	}
}

func (v *validator) validateOrder(path string, specs []OrderSpec) {
	for i, os := range specs {
		p := fmt.Sprintf("%s[%d]", path, i)
		v.validateExpr(p, os.Target)
		if os.Order != Asc && os.Order != Desc {
			v.addProblem(p, "unknown order %q", os.Order)
		}
	}
}

// validateExpr recursively validates an expression node.
func (v *validator) validateExpr(path string, e Expr) {
	switch expr := Deref(e).(type) {
	case nil:
		v.addProblem(path, "nil expression")
	case Constant:
		if list, ok := expr.Value.([]any); ok && len(list) == 0 {
			v.addProblem(path, "empty constant list")
		}
	case Operation:
		v.validateOperation(path, expr)
	case EntityRef:
		if expr.Name == "" {
			v.addProblem(path, "entity reference without a name")
		}
	case Constructor:
		v.addProblem(path, "constructor is only allowed in the projection")
	case SubQuery:
		v.validateMetadata(path+".subquery", expr.Metadata)
	case WindowAggregate:
		if expr.Aggregate == "" {
			v.addProblem(path, "window without an aggregate")
		}
		v.validateExpr(path+".target", expr.Target)
		if expr.PartitionBy != nil {
			v.validateExpr(path+".partition_by", expr.PartitionBy)
		}
		v.validateOrder(path+".order_by", expr.OrderBy)
	default:
		v.addProblem(path, "unknown expression type %T", e)
	}
}

func (v *validator) validateOperation(path string, op Operation) {
	if n, ok := op.Op.Arity(); ok && n != len(op.Args) {
		v.addProblem(path, "operator %s takes %d arguments, got %d", op.Op, n, len(op.Args))
	}

	if op.Op == OpNumCast && len(op.Args) == 2 {
		c, ok := Deref(op.Args[1]).(Constant)
		if _, isTag := c.Value.(TypeTag); !ok || !isTag {
			v.addProblem(path, "numcast target must be a type tag constant")
		}
		v.validateExpr(path+".args[0]", op.Args[0])
		return
	}

	for i, arg := range op.Args {
		v.validateExpr(fmt.Sprintf("%s.args[%d]", path, i), arg)
	}
}
