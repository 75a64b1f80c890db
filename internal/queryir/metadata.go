package queryir

import "math"

// JoinKind is the kind of a join entry.
type JoinKind string

const (
	// JoinPlain is a comma join (cross product filtered by WHERE).
	JoinPlain JoinKind = "plain"
	JoinInner JoinKind = "inner"
	JoinLeft  JoinKind = "left"
	JoinFull  JoinKind = "full"
)

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Join is one entry of the FROM/JOIN list.
//
// The first join of a Metadata is the FROM target; its Kind is ignored and
// no join keyword is rendered for it.
type Join struct {
	Target    Expr     // EntityRef or SubQuery
	Kind      JoinKind // ignored for the first entry
	Condition Expr     // nil = no ON clause
}

// OrderSpec is one ORDER BY item.
type OrderSpec struct {
	Target Expr
	Order  Order
}

// Metadata describes a single SELECT statement.
//
// Semantics:
//
//	SELECT [DISTINCT] <projection>
//	FROM <joins[0]> [<kind> <joins[i]> ON <condition>]...
//	WHERE <where>
//	GROUP BY <groupBy> HAVING <having>
//	ORDER BY <orderBy>
//	LIMIT <limit> OFFSET <offset>
//
// Having requires a non-empty GroupBy. Limit and Offset are independent:
// either, both or neither may be set.
type Metadata struct {
	Projection []Expr
	Distinct   bool
	Joins      []Join
	Where      Expr
	GroupBy    []Expr
	Having     Expr
	OrderBy    []OrderSpec
	Limit      *int64
	Offset     *int64
}

// IsRestricting reports whether a limit or an offset is set.
func (m *Metadata) IsRestricting() bool {
	return m.Limit != nil || m.Offset != nil
}

// PagingInRange reports whether the row numbers offset+1 and offset+limit
// fit in an int64. Negative values are rejected separately.
func PagingInRange(limit, offset int64) bool {
	if limit < 0 || offset < 0 {
		return true
	}
	return offset < math.MaxInt64 && limit <= math.MaxInt64-offset
}

// Int64 returns a pointer to n, for Limit and Offset literals.
func Int64(n int64) *int64 {
	return &n
}

// Builder methods below make hand-written metadata in tests and examples
// readable. They mutate and return the receiver.

// Select appends projection expressions.
func (m *Metadata) Select(exprs ...Expr) *Metadata {
	m.Projection = append(m.Projection, exprs...)
	return m
}

// From appends plain join targets.
func (m *Metadata) From(targets ...Expr) *Metadata {
	for _, t := range targets {
		m.Joins = append(m.Joins, Join{Target: t, Kind: JoinPlain})
	}
	return m
}

// Join appends a join of the given kind.
func (m *Metadata) Join(kind JoinKind, target Expr, on Expr) *Metadata {
	m.Joins = append(m.Joins, Join{Target: target, Kind: kind, Condition: on})
	return m
}

// Filter sets the WHERE predicate.
func (m *Metadata) Filter(where Expr) *Metadata {
	m.Where = where
	return m
}

// Group appends GROUP BY expressions.
func (m *Metadata) Group(exprs ...Expr) *Metadata {
	m.GroupBy = append(m.GroupBy, exprs...)
	return m
}

// OrderAsc appends an ascending order item.
func (m *Metadata) OrderAsc(target Expr) *Metadata {
	m.OrderBy = append(m.OrderBy, OrderSpec{Target: target, Order: Asc})
	return m
}

// OrderDesc appends a descending order item.
func (m *Metadata) OrderDesc(target Expr) *Metadata {
	m.OrderBy = append(m.OrderBy, OrderSpec{Target: target, Order: Desc})
	return m
}

// Restrict sets limit and offset; a negative value leaves the field unset.
func (m *Metadata) Restrict(limit, offset int64) *Metadata {
	if limit >= 0 {
		m.Limit = Int64(limit)
	}
	if offset >= 0 {
		m.Offset = Int64(offset)
	}
	return m
}
