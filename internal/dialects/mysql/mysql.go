// Package mysql provides the MySQL pattern table.
//
// MySQL has no FULL JOIN; rendering one fails instead of producing SQL the
// server rejects. OFFSET requires a LIMIT, so an offset-only query renders
// with the largest unsigned limit.
package mysql

import (
	"github.com/roach88/querytext/internal/dialect"
	"github.com/roach88/querytext/internal/queryir"
)

// Name is the registry name of this dialect.
const Name = "mysql"

// maxLimit is the documented "all remaining rows" limit.
const maxLimit = "18446744073709551615"

// New builds the MySQL pattern table.
func New() (*dialect.Patterns, error) {
	return dialect.Extend(dialect.Base(), Name).
		Tokens(func(t *dialect.Tokens) {
			t.DummyTable = "dual"
			t.FullJoin = ""
		}).
		NativePaging(maxLimit).
		TypeName(queryir.TypeBoolean, "unsigned").
		TypeName(queryir.TypeByte, "signed").
		TypeName(queryir.TypeShort, "signed").
		TypeName(queryir.TypeInteger, "signed").
		TypeName(queryir.TypeLong, "signed").
		TypeName(queryir.TypeBigInteger, "decimal(19,0)").
		TypeName(queryir.TypeFloat, "float").
		TypeName(queryir.TypeDouble, "double").
		TypeName(queryir.TypeBigDecimal, "decimal(65,30)").
		TypeName(queryir.TypeString, "char").
		TypeName(queryir.TypeTimestamp, "datetime").
		Operator(queryir.OpConcat, "concat({0},{1})").
		Operator(queryir.OpMod, "{0} % {1}").
		Operator(queryir.OpCeil, "ceil({0})").
		Operator(queryir.OpRandom, "rand()").
		Operator(queryir.OpLength, "char_length({0})").
		Operator(queryir.OpSubstr, "substring({0},{1},{2})").
		Operator(queryir.OpSpace, "space({0})").
		Operator(queryir.OpYear, "year({0})").
		Operator(queryir.OpMonth, "month({0})").
		Operator(queryir.OpWeek, "week({0})").
		Operator(queryir.OpDay, "day({0})").
		Operator(queryir.OpHour, "hour({0})").
		Operator(queryir.OpMinute, "minute({0})").
		Operator(queryir.OpSecond, "second({0})").
		Operator(queryir.OpDayOfMonth, "dayofmonth({0})").
		Operator(queryir.OpDayOfWeek, "dayofweek({0})").
		Operator(queryir.OpDayOfYear, "dayofyear({0})").
		Build()
}
