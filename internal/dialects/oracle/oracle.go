// Package oracle provides the Oracle pattern table.
//
// Oracle has no LIMIT/OFFSET keywords in the versions this table targets, so
// paging is simulated with predicates over the rownum pseudocolumn:
//
//	limit 5            → rownum < 5
//	offset 5           → rownum > 5
//	limit 5 offset 10  → rownum between 11 and 15
//
// The predicate is applied before ORDER BY, as the database evaluates rownum
// before sorting.
package oracle

import (
	"github.com/roach88/querytext/internal/dialect"
	"github.com/roach88/querytext/internal/queryir"
)

// Name is the registry name of this dialect.
const Name = "oracle"

// New builds the Oracle pattern table.
func New() (*dialect.Patterns, error) {
	return dialect.Extend(dialect.Base(), Name).
		Tokens(func(t *dialect.Tokens) {
			t.DummyTable = "dual"
		}).
		// type mappings
		TypeName(queryir.TypeByte, "number(3,0)").
		TypeName(queryir.TypeBoolean, "number(1,0)").
		TypeName(queryir.TypeBigInteger, "number(19,0)").
		TypeName(queryir.TypeLong, "number(19,0)").
		TypeName(queryir.TypeShort, "number(5,0)").
		TypeName(queryir.TypeInteger, "number(10,0)").
		TypeName(queryir.TypeDouble, "double precision").
		TypeName(queryir.TypeString, "varchar(4000 char)").
		// math
		Operator(queryir.OpCeil, "ceil({0})").
		Operator(queryir.OpRandom, "dbms_random.value").
		Operator(queryir.OpLog, "ln({0})").
		Operator(queryir.OpLog10, "log(10,{0})").
		// string
		Operator(queryir.OpConcat, "{0} || {1}").
		Operator(queryir.OpSpace, "lpad('',{0},' ')").
		Operator(queryir.OpLength, "length({0})").
		Operator(queryir.OpSubstr, "substr({0},{1},{2})").
		// date parts
		Operator(queryir.OpYear, "extract(year from {0})").
		Operator(queryir.OpMonth, "extract(month from {0})").
		Operator(queryir.OpWeek, "to_number(to_char({0},'WW'))").
		Operator(queryir.OpDay, "extract(day from {0})").
		Operator(queryir.OpHour, "to_number(to_char({0},'HH24'))").
		Operator(queryir.OpMinute, "to_number(to_char({0},'MI'))").
		Operator(queryir.OpSecond, "to_number(to_char({0},'SS'))").
		Operator(queryir.OpDayOfMonth, "to_number(to_char({0},'DD'))").
		Operator(queryir.OpDayOfWeek, "to_number(to_char({0},'D'))").
		Operator(queryir.OpDayOfYear, "to_number(to_char({0},'DDD'))").
		// paging
		PredicatePaging("rownum < {0}", "rownum > {0}", "rownum between {0} and {2}").
		Build()
}
