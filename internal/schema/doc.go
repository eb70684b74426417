// Package schema defines the relational context queries are checked against.
//
// A Schema is the fixed set of base tables, each with a RowShape (column name
// to column type). A View is the Extended Schema: the base tables plus one
// entry per registered common-table-expression, in registration order.
//
// Both are immutable values. View.Extend returns a new View and never
// mutates its receiver, so any number of chains may branch from one
// intermediate view without locking.
//
// All failures are reported as *Error with one of four codes:
//
//	SCHEMA_CONFLICT  a name is already present in the view
//	SCHEMA_MISMATCH  a query references a name or column the view lacks
//	EMPTY_NAME       a table or CTE was registered without a name
//	INVALID_NAME     a name is not a plain SQL identifier
package schema
