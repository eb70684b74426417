// Package queryir is the query intermediate representation shared by the
// composer and the SQL backend.
//
// The composer builds queryir values; querysql renders them. Neither side
// knows about the other, so querysql can be swapped for any library that
// accepts this IR.
//
// The fragment is deliberately small:
//   - Select(from, inner equi-joins, filter, explicit or implicit columns)
//   - With(ordered CTEs, final Select)
//   - Predicates: Compare, IsNull, And, Or
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed with marker methods. Only types in this
// package implement them, so backends can switch exhaustively:
//
//	switch q := query.(type) {
//	case Select:
//	    // Handle select
//	case With:
//	    // Handle CTE chain
//	}
//
// CHECKING:
//
// Check resolves every table, CTE and column a Select references against a
// schema.View and returns the Select's output row shape. Any unresolved
// reference is a SCHEMA_MISMATCH error from package schema. A Select is only
// ever checked against the exact view that existed when it was registered;
// names registered later are invisible to it.
package queryir
