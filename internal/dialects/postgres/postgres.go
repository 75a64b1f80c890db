// Package postgres provides the PostgreSQL pattern table.
package postgres

import (
	"github.com/roach88/querytext/internal/dialect"
	"github.com/roach88/querytext/internal/queryir"
)

// Name is the registry name of this dialect.
const Name = "postgres"

// New builds the PostgreSQL pattern table.
//
// Parameters use "$n" markers, numbered across the whole statement including
// subqueries and union branches.
func New() (*dialect.Patterns, error) {
	return dialect.Extend(dialect.Base(), Name).
		Tokens(func(t *dialect.Tokens) {
			t.DummyTable = "(select 1) as dual"
		}).
		Placeholder(dialect.PlaceholderDollar).
		TypeName(queryir.TypeBigInteger, "numeric(19,0)").
		TypeName(queryir.TypeString, "text").
		Operator(queryir.OpCeil, "ceil({0})").
		Operator(queryir.OpLog10, "log({0})").
		Operator(queryir.OpLength, "length({0})").
		Operator(queryir.OpSubstr, "substr({0},{1},{2})").
		Operator(queryir.OpSpace, "repeat(' ',{0})").
		Operator(queryir.OpDayOfMonth, "extract(day from {0})").
		Operator(queryir.OpDayOfWeek, "extract(dow from {0})").
		Operator(queryir.OpDayOfYear, "extract(doy from {0})").
		Build()
}
