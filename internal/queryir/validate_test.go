package queryir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuery() *Metadata {
	s := Entity("survey", "s")
	return (&Metadata{}).
		Select(Col(s, "id"), Col(s, "name")).
		From(s).
		Filter(Op(OpEq, Col(s, "name"), Const("weekly")))
}

func TestValidate_ValidQuery(t *testing.T) {
	result := Validate(validQuery())

	assert.True(t, result.Valid)
	assert.Empty(t, result.Problems)
}

func TestValidate_NoJoinsIsValid(t *testing.T) {
	// Table-less selects render against the dialect's dummy table.
	md := (&Metadata{}).Select(Const(1))

	result := Validate(md)
	assert.True(t, result.Valid, "problems: %v", result.Problems)
}

func TestValidate_HavingRequiresGroupBy(t *testing.T) {
	s := Entity("survey", "s")
	having := Op(OpGt, Op(OpCount, Col(s, "id")), Const(1))

	md := (&Metadata{}).Select(Col(s, "name")).From(s)
	md.Having = having

	result := Validate(md)
	assert.False(t, result.Valid)
	require.Len(t, result.Problems, 1)
	assert.Equal(t, "query.having: having, but not group by was given", result.Problems[0])

	md.Group(Col(s, "name"))
	result = Validate(md)
	assert.True(t, result.Valid, "problems: %v", result.Problems)
}

func TestValidate_Problems(t *testing.T) {
	s := Entity("survey", "s")

	tests := []struct {
		name string
		md   *Metadata
		want string
	}{
		{
			name: "nil query",
			md:   nil,
			want: "query: nil query",
		},
		{
			name: "nil projection item",
			md:   (&Metadata{}).Select(nil).From(s),
			want: "query.select[0]: nil expression",
		},
		{
			name: "nil join target",
			md:   &Metadata{Projection: []Expr{Const(1)}, Joins: []Join{{Target: nil}}},
			want: "query.joins[0].target: nil expression",
		},
		{
			name: "negative limit",
			md:   &Metadata{Projection: []Expr{Const(1)}, Limit: Int64(-1)},
			want: "query.limit: must be non-negative, got -1",
		},
		{
			name: "negative offset",
			md:   &Metadata{Projection: []Expr{Const(1)}, Offset: Int64(-2)},
			want: "query.offset: must be non-negative, got -2",
		},
		{
			name: "constructor in where",
			md:   (&Metadata{}).Select(Const(1)).From(s).Filter(Constructor{Args: []Expr{Const(1)}}),
			want: "query.where: constructor is only allowed in the projection",
		},
		{
			name: "numcast without type tag",
			md:   (&Metadata{}).Select(Op(OpNumCast, Col(s, "id"), Const("integer"))).From(s),
			want: "query.select[0]: numcast target must be a type tag constant",
		},
		{
			name: "arity mismatch",
			md:   (&Metadata{}).Select(Op(OpEq, Col(s, "id"))).From(s),
			want: "query.select[0]: operator eq takes 2 arguments, got 1",
		},
		{
			name: "empty constant list",
			md:   (&Metadata{}).Select(Const(1)).From(s).Filter(Op(OpIn, Col(s, "id"), Const([]any{}))),
			want: "query.where.args[1]: empty constant list",
		},
		{
			name: "unnamed reference",
			md:   (&Metadata{}).Select(EntityRef{}).From(s),
			want: "query.select[0]: entity reference without a name",
		},
		{
			name: "unknown order",
			md:   &Metadata{Projection: []Expr{Const(1)}, OrderBy: []OrderSpec{{Target: Const(1), Order: "up"}}},
			want: `query.order_by[0]: unknown order "up"`,
		},
		{
			name: "paging bound overflow",
			md:   (&Metadata{}).Select(Const(1)).From(s).Restrict(math.MaxInt64, 1),
			want: "query.limit: offset 1 + limit 9223372036854775807 overflows the row number range",
		},
		{
			name: "maximum offset with limit",
			md:   (&Metadata{}).Select(Const(1)).From(s).Restrict(0, math.MaxInt64),
			want: "query.limit: offset 9223372036854775807 + limit 0 overflows the row number range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.md)
			assert.False(t, result.Valid)
			assert.Contains(t, result.Problems, tt.want)
		})
	}
}

func TestValidate_RecursesIntoSubqueries(t *testing.T) {
	inner := &Metadata{Projection: []Expr{Const(1)}, Limit: Int64(-5)}
	outer := (&Metadata{}).Select(SubQuery{Metadata: inner})

	result := Validate(outer)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Problems, "query.select[0].subquery.limit: must be non-negative, got -5")
}

func TestValidate_ConstructorSplicedArgs(t *testing.T) {
	s := Entity("survey", "s")
	md := (&Metadata{}).Select(Constructor{Args: []Expr{Col(s, "id"), nil}}).From(s)

	result := Validate(md)
	assert.Equal(t, []string{"query.select[0].args[1]: nil expression"}, result.Problems)
}

func TestValidate_Window(t *testing.T) {
	s := Entity("survey", "s")
	w := WindowAggregate{
		Target:  Col(s, "score"),
		OrderBy: []OrderSpec{{Target: nil, Order: Asc}},
	}
	md := (&Metadata{}).Select(w).From(s)

	result := Validate(md)
	assert.Contains(t, result.Problems, "query.select[0]: window without an aggregate")
	assert.Contains(t, result.Problems, "query.select[0].order_by[0]: nil expression")
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	md := &Metadata{
		Projection: []Expr{nil},
		Having:     Const(true),
		Limit:      Int64(-1),
	}

	result := Validate(md)
	assert.Len(t, result.Problems, 3)
}

func TestValidateUnion(t *testing.T) {
	result := ValidateUnion(nil, nil)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Problems, "union: at least one branch is required")

	result = ValidateUnion([]*Metadata{validQuery(), validQuery()}, []OrderSpec{{Target: Ref("name"), Order: Asc}})
	assert.True(t, result.Valid, "problems: %v", result.Problems)

	result = ValidateUnion([]*Metadata{validQuery(), nil}, nil)
	assert.Contains(t, result.Problems, "union[1]: nil query")
}

func TestPagingInRange(t *testing.T) {
	assert.True(t, PagingInRange(10, 5))
	assert.True(t, PagingInRange(math.MaxInt64-1, 1))
	assert.True(t, PagingInRange(math.MaxInt64, 0))
	assert.False(t, PagingInRange(math.MaxInt64, 1))
	assert.False(t, PagingInRange(0, math.MaxInt64))
}
