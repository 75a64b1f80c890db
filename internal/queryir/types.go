package queryir

// Expr is a node in the expression tree.
//
// This is a sealed interface - only types in this package implement it.
// Renderers switch over the concrete types; there is no visitor indirection.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// Constant is a literal bound as a query parameter.
//
// Value is passed to the driver untouched, except for two cases:
//   - []any expands to "(?, ?, ...)" with one bound value per element
//   - TypeTag is only meaningful as the second argument of OpNumCast
type Constant struct {
	Value any
}

func (Constant) exprNode() {}

// Operation applies an operator to ordered arguments.
//
// Arity and meaning are defined by Op (see Arity). The rendered text comes
// from the dialect's operator template for Op.
type Operation struct {
	Op   Operator
	Args []Expr
}

func (Operation) exprNode() {}

// EntityRef references a table variable or a path below one.
//
// A root reference (Parent == nil) names a table variable: Entity is the
// table name and Name the variable (alias) used elsewhere in the query.
// A child reference names a column or nested path and renders as
// "parent.name".
//
// Example:
//
//	s := &EntityRef{Entity: "survey", Name: "s"}
//	id := EntityRef{Name: "id", Parent: s}
//
// In a FROM position s renders as "survey s"; id renders as "s.id".
type EntityRef struct {
	Entity string
	Name   string
	Parent *EntityRef
}

func (EntityRef) exprNode() {}

// IsRoot reports whether r has no parent.
func (r EntityRef) IsRoot() bool {
	return r.Parent == nil
}

// Path returns the dotted path of r.
func (r EntityRef) Path() string {
	if r.Parent == nil {
		return r.Name
	}
	return r.Parent.Path() + "." + r.Name
}

// Constructor groups projection expressions.
//
// It is only valid in projection position, where its arguments are spliced
// into the select list as if they had been listed individually.
type Constructor struct {
	Args []Expr
}

func (Constructor) exprNode() {}

// SubQuery nests a complete query inside an expression.
type SubQuery struct {
	Metadata *Metadata
}

func (SubQuery) exprNode() {}

// WindowAggregate is an aggregate computed over a window.
//
// Semantics:
//
//	<aggregate>(<target>) over (partition by <partitionBy> order by <orderBy...>)
//
// Order direction is not rendered inside the window.
type WindowAggregate struct {
	Aggregate   Operator    // e.g. OpSum
	Target      Expr        // aggregated expression (required)
	PartitionBy Expr        // nil = no partition clause
	OrderBy     []OrderSpec // empty = no order clause
}

func (WindowAggregate) exprNode() {}

// Convenience constructors used by tests and the document compiler.

// Const returns a Constant holding v.
func Const(v any) Constant {
	return Constant{Value: v}
}

// Op returns an Operation applying op to args.
func Op(op Operator, args ...Expr) Operation {
	return Operation{Op: op, Args: args}
}

// Entity returns a root reference to table entity under variable name.
func Entity(entity, name string) *EntityRef {
	return &EntityRef{Entity: entity, Name: name}
}

// Col returns a reference to column name below parent.
func Col(parent *EntityRef, name string) EntityRef {
	return EntityRef{Name: name, Parent: parent}
}

// Ref returns a bare root reference with no entity, such as a select alias.
func Ref(name string) EntityRef {
	return EntityRef{Name: name}
}

// Cast returns an OpNumCast of source to the given type.
func Cast(source Expr, to TypeTag) Operation {
	return Operation{Op: OpNumCast, Args: []Expr{source, Constant{Value: to}}}
}

// Deref returns the value form of a pointer expression, so that switches
// only need to handle value types. A nil pointer yields a nil Expr.
func Deref(e Expr) Expr {
	switch x := e.(type) {
	case *Constant:
		if x == nil {
			return nil
		}
		return *x
	case *Operation:
		if x == nil {
			return nil
		}
		return *x
	case *EntityRef:
		if x == nil {
			return nil
		}
		return *x
	case *Constructor:
		if x == nil {
			return nil
		}
		return *x
	case *SubQuery:
		if x == nil {
			return nil
		}
		return *x
	case *WindowAggregate:
		if x == nil {
			return nil
		}
		return *x
	}
	return e
}
