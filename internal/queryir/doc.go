// Package queryir provides the query intermediate representation (IR) that
// every shop question is expressed in before it is compiled to SQL.
//
// ARCHITECTURE:
//
//	[shop operation] → [Query IR] → [querysql compiler] → [database/sql]
//
// An operation never writes SQL by hand. It composes IR nodes; the compiler
// turns the tree into exactly one parameterized statement.
//
// NODE FAMILIES:
//
// Query (sealed):
//   - Select: rows of one root table, optional filter, projections,
//     grouping, ordering, limit
//   - Aggregate: one row of scalar aggregates over a filtered root table
//   - Insert, Update, Delete: single-table writes; Update and Delete are
//     set-based (one statement for every qualifying row)
//
// Predicate (sealed):
//   - Compare: <expr> <op> <literal> for = <> < <= > >=
//   - IContains: case-insensitive substring match on text
//   - YearEquals: year part of a date column
//   - HasElement: membership in a keyword list
//   - And, Or, Not
//
// Expr (sealed):
//   - Col: a field of the current scope, possibly through relations
//     ("product.price", "items.order.customer.id")
//   - Lit, Arith, Greatest, JSONNumber
//   - Agg: COUNT/SUM/AVG/MAX/MIN over the rows of the current scope
//   - Subquery: a scalar derived from the related rows of the current outer
//     row (correlated)
//   - Exceeds: boolean flag, false when the compared value is absent
//   - Rank: window rank over the whole result set
//   - OutputRef: names a projection, for ORDER BY
//
// SEALED INTERFACES:
//
// Query, Predicate, Expr and Value use the marker method pattern so that
// backends can switch exhaustively over node types:
//
//	switch q := queryir.Normalize(query).(type) {
//	case queryir.Select:
//	case queryir.Aggregate:
//	...
//	}
//
// Nodes may be passed by value or by pointer. Normalize, NormalizePredicate
// and NormalizeExpr strip the pointer so consumers only match value types.
//
// ABSENCE:
//
// SUM, AVG, MAX and MIN over zero rows produce SQL NULL. The IR never
// substitutes zero for NULL; decoded results carry an explicit "no value".
// COUNT over zero rows is 0.
//
// FAN-OUT:
//
// A path that crosses a to-many relation can match several child rows per
// root row. Such paths are legal in filters (the compiler turns the filter
// into a DISTINCT semi-join on the root id) and inside Subquery values, but
// not as plain projections.
package queryir
