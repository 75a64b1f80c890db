package querysql

import (
	"fmt"
	"strconv"

	"github.com/roach88/querytext/internal/dialect"
	"github.com/roach88/querytext/internal/queryir"
)

// expr renders one expression node.
func (rc *renderContext) expr(e queryir.Expr) error {
	switch n := queryir.Deref(e).(type) {
	case nil:
		return rc.fail(ErrCodeInvalidStructure, "", "nil expression")
	case queryir.Constant:
		return rc.constant(n)
	case queryir.Operation:
		return rc.operation(n)
	case queryir.EntityRef:
		if n.Name == "" {
			return rc.fail(ErrCodeInvalidStructure, "", "entity reference without a name")
		}
		rc.write(n.Path())
		return nil
	case queryir.Constructor:
		return rc.fail(ErrCodeInvalidStructure, "", "constructor is only valid in the select list")
	case queryir.SubQuery:
		if n.Metadata == nil {
			return rc.fail(ErrCodeInvalidStructure, "", "subquery without a query")
		}
		rc.subqueries++
		rc.write("(")
		if err := rc.query(n.Metadata, false); err != nil {
			return err
		}
		rc.write(")")
		return nil
	case queryir.WindowAggregate:
		return rc.window(n)
	default:
		return rc.fail(ErrCodeInvalidStructure, "", fmt.Sprintf("unsupported expression %T", e))
	}
}

// list renders exprs separated by sep.
func (rc *renderContext) list(exprs []queryir.Expr, sep string) error {
	for i, e := range exprs {
		if i > 0 {
			rc.write(sep)
		}
		if err := rc.expr(e); err != nil {
			return err
		}
	}
	return nil
}

// operand renders e as an argument of an operator that binds at parentPrec,
// adding parentheses when e binds looser.
func (rc *renderContext) operand(e queryir.Expr, parentPrec int, parentOp queryir.Operator) error {
	if !rc.needsParens(e, parentPrec, parentOp) {
		return rc.expr(e)
	}
	rc.write("(")
	if err := rc.expr(e); err != nil {
		return err
	}
	rc.write(")")
	return nil
}

func (rc *renderContext) needsParens(e queryir.Expr, parentPrec int, parentOp queryir.Operator) bool {
	if parentPrec == dialect.PrecedenceNone {
		return false
	}
	op, ok := queryir.Deref(e).(queryir.Operation)
	if !ok || op.Op.IsCast() {
		return false
	}
	t, ok := rc.p.Template(op.Op)
	if !ok {
		return false
	}
	prec := t.Precedence()
	switch {
	case prec == dialect.PrecedenceNone:
		return false
	case prec > parentPrec:
		return true
	case prec == parentPrec:
		return op.Op != parentOp || !parentOp.Associative()
	default:
		return false
	}
}

func (rc *renderContext) constant(c queryir.Constant) error {
	switch v := c.Value.(type) {
	case queryir.TypeTag:
		return &RenderError{
			Code:    ErrCodeInvalidStructure,
			Message: "type tag constant outside of a cast",
			Dialect: rc.p.Name(),
			Type:    v,
		}
	case []any:
		if len(v) == 0 {
			return rc.fail(ErrCodeInvalidStructure, "", "empty constant list")
		}
		rc.write("(")
		for i, elem := range v {
			if i > 0 {
				rc.write(", ")
			}
			rc.bind(elem)
		}
		rc.write(")")
		return nil
	default:
		rc.bind(v)
		return nil
	}
}

// bind appends v to the constants and writes its placeholder.
func (rc *renderContext) bind(v any) {
	rc.constants = append(rc.constants, v)
	rc.write(rc.p.Placeholder(len(rc.constants)))
}

func (rc *renderContext) operation(o queryir.Operation) error {
	if o.Op.IsCast() {
		return rc.cast(o)
	}

	t, ok := rc.p.Template(o.Op)
	if !ok {
		return &RenderError{
			Code:     ErrCodeUnmappedOperator,
			Message:  "dialect has no template for operator",
			Dialect:  rc.p.Name(),
			Operator: o.Op,
		}
	}
	want, known := o.Op.Arity()
	if !known {
		want = t.Arity()
	}
	if len(o.Args) != want {
		return rc.arityMismatch(o, want)
	}

	// Arguments are rendered in template order, so repeated slots bind their
	// constants again and unused slots bind nothing.
	prec := t.Precedence()
	for _, part := range t.Parts() {
		if !part.IsSlot() {
			rc.write(part.Text)
			continue
		}
		if err := rc.operand(o.Args[part.Slot], prec, o.Op); err != nil {
			return err
		}
	}
	return nil
}

func (rc *renderContext) arityMismatch(o queryir.Operation, want int) *RenderError {
	return &RenderError{
		Code:     ErrCodeArityMismatch,
		Message:  fmt.Sprintf("operator takes %d arguments, got %d", want, len(o.Args)),
		Dialect:  rc.p.Name(),
		Operator: o.Op,
	}
}

// cast renders the two cast operators as cast(<source> as <type name>).
func (rc *renderContext) cast(o queryir.Operation) error {
	want, _ := o.Op.Arity()
	if len(o.Args) != want {
		return rc.arityMismatch(o, want)
	}

	tag := queryir.TypeString
	if o.Op == queryir.OpNumCast {
		c, ok := queryir.Deref(o.Args[1]).(queryir.Constant)
		if !ok {
			return rc.fail(ErrCodeInvalidStructure, "", "numcast target must be a type tag constant")
		}
		if tag, ok = c.Value.(queryir.TypeTag); !ok {
			return rc.fail(ErrCodeInvalidStructure, "", "numcast target must be a type tag constant")
		}
	}

	name, ok := rc.p.TypeName(tag)
	if !ok {
		return &RenderError{
			Code:     ErrCodeUnmappedType,
			Message:  "dialect has no type name for cast target",
			Dialect:  rc.p.Name(),
			Operator: o.Op,
			Type:     tag,
		}
	}

	rc.write("cast(")
	if err := rc.expr(o.Args[0]); err != nil {
		return err
	}
	rc.write(" as ")
	rc.write(name)
	rc.write(")")
	return nil
}

// window renders <agg>(<target>) over (partition by <p> order by <o>, ...).
// Order direction is not rendered inside the window.
func (rc *renderContext) window(w queryir.WindowAggregate) error {
	agg, ok := rc.p.Aggregate(w.Aggregate)
	if !ok {
		return &RenderError{
			Code:     ErrCodeUnmappedOperator,
			Message:  "dialect has no window aggregate token",
			Dialect:  rc.p.Name(),
			Operator: w.Aggregate,
		}
	}
	if w.Target == nil {
		return rc.fail(ErrCodeInvalidStructure, "over", "window aggregate without a target")
	}

	rc.write(agg)
	rc.write("(")
	if err := rc.expr(w.Target); err != nil {
		return err
	}
	rc.write(") ")
	rc.write(rc.tok.Over)
	rc.write(" (")

	if w.PartitionBy != nil {
		rc.write(rc.tok.PartitionBy)
		if err := rc.expr(w.PartitionBy); err != nil {
			return err
		}
	}
	if len(w.OrderBy) > 0 {
		tok := rc.tok.OrderBy
		if w.PartitionBy == nil {
			tok = trimLeadingSpace(tok)
		}
		rc.write(tok)
		for i, o := range w.OrderBy {
			if i > 0 {
				rc.write(", ")
			}
			if err := rc.expr(o.Target); err != nil {
				return err
			}
		}
	}
	rc.write(")")
	return nil
}

func trimLeadingSpace(s string) string {
	for len(s) > 0 && s[0] == ' ' {
		s = s[1:]
	}
	return s
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
