package queryir

import "sort"

// Operator tags an Operation. Dialects map tags to SQL templates.
//
// Operator is an open string type: dialect authors may register templates
// for tags not listed here, in which case the template itself defines the
// arity.
type Operator string

// Comparison.
const (
	OpEq        Operator = "eq"
	OpNe        Operator = "ne"
	OpLt        Operator = "lt"
	OpGt        Operator = "gt"
	OpLoe       Operator = "loe"
	OpGoe       Operator = "goe"
	OpLike      Operator = "like"
	OpIn        Operator = "in"
	OpBetween   Operator = "between"
	OpIsNull    Operator = "is_null"
	OpIsNotNull Operator = "is_not_null"
)

// Boolean.
const (
	OpAnd    Operator = "and"
	OpOr     Operator = "or"
	OpNot    Operator = "not"
	OpExists Operator = "exists"
)

// Arithmetic and math.
const (
	OpAdd    Operator = "add"
	OpSub    Operator = "sub"
	OpMult   Operator = "mult"
	OpDiv    Operator = "div"
	OpMod    Operator = "mod"
	OpNegate Operator = "negate"
	OpAbs    Operator = "abs"
	OpSqrt   Operator = "sqrt"
	OpCeil   Operator = "ceil"
	OpFloor  Operator = "floor"
	OpRandom Operator = "random"
	OpLog    Operator = "log"
	OpLog10  Operator = "log10"
)

// String.
const (
	OpConcat Operator = "concat"
	OpLower  Operator = "lower"
	OpUpper  Operator = "upper"
	OpTrim   Operator = "trim"
	OpLength Operator = "length"
	OpSubstr Operator = "substr"
	OpSpace  Operator = "space"
)

// Aggregates. OpSum is also the default window aggregate.
const (
	OpCount         Operator = "count"
	OpCountDistinct Operator = "count_distinct"
	OpSum           Operator = "sum"
	OpAvg           Operator = "avg"
	OpMin           Operator = "min"
	OpMax           Operator = "max"
)

// Date parts.
const (
	OpYear       Operator = "year"
	OpMonth      Operator = "month"
	OpWeek       Operator = "week"
	OpDay        Operator = "day"
	OpHour       Operator = "hour"
	OpMinute     Operator = "minute"
	OpSecond     Operator = "second"
	OpDayOfMonth Operator = "day_of_month"
	OpDayOfWeek  Operator = "day_of_week"
	OpDayOfYear  Operator = "day_of_year"
)

// Miscellaneous.
const (
	OpCoalesce Operator = "coalesce"
	OpAlias    Operator = "alias"

	// OpStringCast casts its single argument to TypeString.
	OpStringCast Operator = "string_cast"

	// OpNumCast casts its first argument to the TypeTag held by its second
	// argument, which must be a Constant.
	OpNumCast Operator = "numcast"
)

type operatorInfo struct {
	arity       int
	associative bool
}

var operators = map[Operator]operatorInfo{
	OpEq: {arity: 2}, OpNe: {arity: 2}, OpLt: {arity: 2}, OpGt: {arity: 2},
	OpLoe: {arity: 2}, OpGoe: {arity: 2}, OpLike: {arity: 2}, OpIn: {arity: 2},
	OpBetween: {arity: 3}, OpIsNull: {arity: 1}, OpIsNotNull: {arity: 1},

	OpAnd: {arity: 2, associative: true}, OpOr: {arity: 2, associative: true},
	OpNot: {arity: 1}, OpExists: {arity: 1},

	OpAdd: {arity: 2, associative: true}, OpSub: {arity: 2},
	OpMult: {arity: 2, associative: true}, OpDiv: {arity: 2}, OpMod: {arity: 2},
	OpNegate: {arity: 1}, OpAbs: {arity: 1}, OpSqrt: {arity: 1},
	OpCeil: {arity: 1}, OpFloor: {arity: 1}, OpRandom: {arity: 0},
	OpLog: {arity: 1}, OpLog10: {arity: 1},

	OpConcat: {arity: 2, associative: true}, OpLower: {arity: 1},
	OpUpper: {arity: 1}, OpTrim: {arity: 1}, OpLength: {arity: 1},
	OpSubstr: {arity: 3}, OpSpace: {arity: 1},

	OpCount: {arity: 1}, OpCountDistinct: {arity: 1}, OpSum: {arity: 1},
	OpAvg: {arity: 1}, OpMin: {arity: 1}, OpMax: {arity: 1},

	OpYear: {arity: 1}, OpMonth: {arity: 1}, OpWeek: {arity: 1},
	OpDay: {arity: 1}, OpHour: {arity: 1}, OpMinute: {arity: 1},
	OpSecond: {arity: 1}, OpDayOfMonth: {arity: 1}, OpDayOfWeek: {arity: 1},
	OpDayOfYear: {arity: 1},

	OpCoalesce: {arity: 2}, OpAlias: {arity: 2},
	OpStringCast: {arity: 1}, OpNumCast: {arity: 2},
}

// Arity returns the fixed argument count of a built-in operator.
// ok is false for tags this package does not define.
func (o Operator) Arity() (n int, ok bool) {
	info, ok := operators[o]
	return info.arity, ok
}

// Associative reports whether nested uses of o need no parentheses,
// e.g. "a and b and c".
func (o Operator) Associative() bool {
	return operators[o].associative
}

// Known reports whether o is a built-in operator.
func (o Operator) Known() bool {
	_, ok := operators[o]
	return ok
}

// IsCast reports whether o renders through the dialect's type name table.
func (o Operator) IsCast() bool {
	return o == OpStringCast || o == OpNumCast
}

// Operators returns all built-in operator tags in sorted order.
func Operators() []Operator {
	ops := make([]Operator, 0, len(operators))
	for op := range operators {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// TypeTag names a semantic type for CAST rendering.
type TypeTag string

const (
	TypeBoolean    TypeTag = "boolean"
	TypeByte       TypeTag = "byte"
	TypeShort      TypeTag = "short"
	TypeInteger    TypeTag = "integer"
	TypeLong       TypeTag = "long"
	TypeBigInteger TypeTag = "big_integer"
	TypeFloat      TypeTag = "float"
	TypeDouble     TypeTag = "double"
	TypeBigDecimal TypeTag = "big_decimal"
	TypeString     TypeTag = "string"
	TypeDate       TypeTag = "date"
	TypeTime       TypeTag = "time"
	TypeTimestamp  TypeTag = "timestamp"
)

var typeTags = []TypeTag{
	TypeBigDecimal, TypeBigInteger, TypeBoolean, TypeByte, TypeDate,
	TypeDouble, TypeFloat, TypeInteger, TypeLong, TypeShort, TypeString,
	TypeTime, TypeTimestamp,
}

// TypeTags returns all built-in type tags in sorted order.
func TypeTags() []TypeTag {
	return append([]TypeTag(nil), typeTags...)
}

// ParseTypeTag resolves a type tag by name.
func ParseTypeTag(s string) (TypeTag, bool) {
	for _, t := range typeTags {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}
