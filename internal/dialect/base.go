package dialect

import (
	"github.com/roach88/querytext/internal/queryir"
)

// defaultPrecedence is the binding level of each operator when its template
// exposes a slot at an edge.
var defaultPrecedence = map[queryir.Operator]int{
	queryir.OpNegate: PrecedenceUnary,

	queryir.OpMult: PrecedenceMultiplicative,
	queryir.OpDiv:  PrecedenceMultiplicative,
	queryir.OpMod:  PrecedenceMultiplicative,

	queryir.OpAdd:    PrecedenceAdditive,
	queryir.OpSub:    PrecedenceAdditive,
	queryir.OpConcat: PrecedenceAdditive,

	queryir.OpEq:        PrecedenceComparison,
	queryir.OpNe:        PrecedenceComparison,
	queryir.OpLt:        PrecedenceComparison,
	queryir.OpGt:        PrecedenceComparison,
	queryir.OpLoe:       PrecedenceComparison,
	queryir.OpGoe:       PrecedenceComparison,
	queryir.OpLike:      PrecedenceComparison,
	queryir.OpIn:        PrecedenceComparison,
	queryir.OpBetween:   PrecedenceComparison,
	queryir.OpIsNull:    PrecedenceComparison,
	queryir.OpIsNotNull: PrecedenceComparison,

	queryir.OpNot: PrecedenceNot,
	queryir.OpAnd: PrecedenceAnd,
	queryir.OpOr:  PrecedenceOr,

	queryir.OpAlias: PrecedenceAlias,
}

// ANSI tokens shared by every built-in dialect.
var ansiTokens = Tokens{
	Select:         "select ",
	SelectDistinct: "select distinct ",
	From:           " from ",
	DummyTable:     "(values (1))",

	Join:      ", ",
	InnerJoin: " inner join ",
	LeftJoin:  " left join ",
	FullJoin:  " full join ",
	On:        " on ",

	Where:   " where ",
	And:     " and ",
	GroupBy: " group by ",
	Having:  " having ",
	OrderBy: " order by ",
	Asc:     " asc",
	Desc:    " desc",

	Union:      " union ",
	TableAlias: " ",
	CountStar:  "count(*)",

	Over:        "over",
	PartitionBy: "partition by ",

	Limit:  " limit ",
	Offset: " offset ",
}

// Base builds the ANSI pattern table that product dialects extend.
//
// Each call returns a new table; callers build their dialects once at
// startup and pass them around by reference.
func Base() *Patterns {
	return newBase().MustBuild()
}

func newBase() *Builder {
	return NewDialect("ansi").
		Tokens(func(t *Tokens) { *t = ansiTokens }).
		NativePaging("").
		Placeholder(PlaceholderQuestion).
		Alias(true).
		// comparison
		Operator(queryir.OpEq, "{0} = {1}").
		Operator(queryir.OpNe, "{0} <> {1}").
		Operator(queryir.OpLt, "{0} < {1}").
		Operator(queryir.OpGt, "{0} > {1}").
		Operator(queryir.OpLoe, "{0} <= {1}").
		Operator(queryir.OpGoe, "{0} >= {1}").
		Operator(queryir.OpLike, "{0} like {1}").
		Operator(queryir.OpIn, "{0} in {1}").
		Operator(queryir.OpBetween, "{0} between {1} and {2}").
		Operator(queryir.OpIsNull, "{0} is null").
		Operator(queryir.OpIsNotNull, "{0} is not null").
		// boolean
		Operator(queryir.OpAnd, "{0} and {1}").
		Operator(queryir.OpOr, "{0} or {1}").
		Operator(queryir.OpNot, "not {0}").
		Operator(queryir.OpExists, "exists {0}").
		// arithmetic
		Operator(queryir.OpAdd, "{0} + {1}").
		Operator(queryir.OpSub, "{0} - {1}").
		Operator(queryir.OpMult, "{0} * {1}").
		Operator(queryir.OpDiv, "{0} / {1}").
		Operator(queryir.OpMod, "mod({0},{1})").
		Operator(queryir.OpNegate, "-{0}").
		Operator(queryir.OpAbs, "abs({0})").
		Operator(queryir.OpSqrt, "sqrt({0})").
		Operator(queryir.OpCeil, "ceiling({0})").
		Operator(queryir.OpFloor, "floor({0})").
		Operator(queryir.OpRandom, "random()").
		Operator(queryir.OpLog, "ln({0})").
		Operator(queryir.OpLog10, "log10({0})").
		// string
		Operator(queryir.OpConcat, "{0} || {1}").
		Operator(queryir.OpLower, "lower({0})").
		Operator(queryir.OpUpper, "upper({0})").
		Operator(queryir.OpTrim, "trim({0})").
		Operator(queryir.OpLength, "char_length({0})").
		Operator(queryir.OpSubstr, "substring({0} from {1} for {2})").
		Operator(queryir.OpSpace, "repeat(' ',{0})").
		// aggregates
		Operator(queryir.OpCount, "count({0})").
		Operator(queryir.OpCountDistinct, "count(distinct {0})").
		Operator(queryir.OpSum, "sum({0})").
		Operator(queryir.OpAvg, "avg({0})").
		Operator(queryir.OpMin, "min({0})").
		Operator(queryir.OpMax, "max({0})").
		Aggregate(queryir.OpSum, "sum").
		Aggregate(queryir.OpAvg, "avg").
		Aggregate(queryir.OpMin, "min").
		Aggregate(queryir.OpMax, "max").
		Aggregate(queryir.OpCount, "count").
		// date parts
		Operator(queryir.OpYear, "extract(year from {0})").
		Operator(queryir.OpMonth, "extract(month from {0})").
		Operator(queryir.OpWeek, "extract(week from {0})").
		Operator(queryir.OpDay, "extract(day from {0})").
		Operator(queryir.OpHour, "extract(hour from {0})").
		Operator(queryir.OpMinute, "extract(minute from {0})").
		Operator(queryir.OpSecond, "extract(second from {0})").
		Operator(queryir.OpDayOfMonth, "extract(day from {0})").
		Operator(queryir.OpDayOfWeek, "extract(dow from {0})").
		Operator(queryir.OpDayOfYear, "extract(doy from {0})").
		// misc
		Operator(queryir.OpCoalesce, "coalesce({0},{1})").
		Operator(queryir.OpAlias, "{0} as {1}").
		// cast targets
		TypeName(queryir.TypeBoolean, "boolean").
		TypeName(queryir.TypeByte, "smallint").
		TypeName(queryir.TypeShort, "smallint").
		TypeName(queryir.TypeInteger, "integer").
		TypeName(queryir.TypeLong, "bigint").
		TypeName(queryir.TypeBigInteger, "numeric(38,0)").
		TypeName(queryir.TypeFloat, "real").
		TypeName(queryir.TypeDouble, "double precision").
		TypeName(queryir.TypeBigDecimal, "decimal").
		TypeName(queryir.TypeString, "varchar").
		TypeName(queryir.TypeDate, "date").
		TypeName(queryir.TypeTime, "time").
		TypeName(queryir.TypeTimestamp, "timestamp")
}
