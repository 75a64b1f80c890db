// Package queryir provides the database-agnostic query representation that
// querytext renders into dialect-specific SQL.
//
// ARCHITECTURE:
//
//	[query document] → [compiler] → [queryir.Metadata] → [querysql.Serializer] → SQL + constants
//	                                                            ↑
//	                                                  [dialect.Patterns]
//
// The IR has two layers:
//
//   - Expr: a recursive expression tree (Constant, Operation, EntityRef,
//     Constructor, SubQuery, WindowAggregate)
//   - Metadata: the clause-level description of one SELECT (projection,
//     joins, where, group by, having, order by, limit, offset)
//
// Both are plain data. They are never mutated by the serializer and may be
// rendered any number of times, concurrently, against any dialect.
//
// SEALED INTERFACES:
//
// Expr is a sealed interface using the marker method pattern. Only types in
// this package implement it, so backends can switch exhaustively:
//
//	switch e := expr.(type) {
//	case queryir.Constant:
//	case queryir.Operation:
//	case queryir.EntityRef:
//	case queryir.Constructor:
//	case queryir.SubQuery:
//	case queryir.WindowAggregate:
//	}
//
// OPERATORS:
//
// Operations carry an Operator tag. The tag decides arity and meaning; the
// SQL text for a tag lives in the dialect pattern table, never here. Two tags
// are special: OpStringCast and OpNumCast render through the dialect's type
// name table instead of an operator template.
//
// CONSTANTS:
//
// Constant values are always bound as parameters, never inlined. A Constant
// holding a []any renders as a parenthesised placeholder list and contributes
// one bound value per element, which is how IN lists are expressed.
package queryir
