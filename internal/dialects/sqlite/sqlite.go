// Package sqlite provides the SQLite pattern table.
//
// SQLite has no EXTRACT; date parts go through strftime and are cast back to
// integers. OFFSET requires a LIMIT, so an offset-only query renders with
// "limit -1".
package sqlite

import (
	"github.com/roach88/querytext/internal/dialect"
	"github.com/roach88/querytext/internal/queryir"
)

// Name is the registry name of this dialect.
const Name = "sqlite"

// New builds the SQLite pattern table.
func New() (*dialect.Patterns, error) {
	return dialect.Extend(dialect.Base(), Name).
		Tokens(func(t *dialect.Tokens) {
			t.DummyTable = "(select 1)"
		}).
		NativePaging("-1").
		TypeName(queryir.TypeBoolean, "integer").
		TypeName(queryir.TypeByte, "integer").
		TypeName(queryir.TypeShort, "integer").
		TypeName(queryir.TypeLong, "integer").
		TypeName(queryir.TypeBigInteger, "integer").
		TypeName(queryir.TypeFloat, "real").
		TypeName(queryir.TypeDouble, "real").
		TypeName(queryir.TypeBigDecimal, "numeric").
		TypeName(queryir.TypeString, "text").
		TypeName(queryir.TypeDate, "text").
		TypeName(queryir.TypeTime, "text").
		TypeName(queryir.TypeTimestamp, "text").
		Operator(queryir.OpMod, "{0} % {1}").
		Operator(queryir.OpCeil, "ceil({0})").
		Operator(queryir.OpLength, "length({0})").
		Operator(queryir.OpSubstr, "substr({0},{1},{2})").
		Operator(queryir.OpSpace, "printf('%.*c',{0},' ')").
		Operator(queryir.OpYear, "cast(strftime('%Y',{0}) as integer)").
		Operator(queryir.OpMonth, "cast(strftime('%m',{0}) as integer)").
		Operator(queryir.OpWeek, "cast(strftime('%W',{0}) as integer)").
		Operator(queryir.OpDay, "cast(strftime('%d',{0}) as integer)").
		Operator(queryir.OpHour, "cast(strftime('%H',{0}) as integer)").
		Operator(queryir.OpMinute, "cast(strftime('%M',{0}) as integer)").
		Operator(queryir.OpSecond, "cast(strftime('%S',{0}) as integer)").
		Operator(queryir.OpDayOfMonth, "cast(strftime('%d',{0}) as integer)").
		Operator(queryir.OpDayOfWeek, "cast(strftime('%w',{0}) as integer)").
		Operator(queryir.OpDayOfYear, "cast(strftime('%j',{0}) as integer)").
		Build()
}
