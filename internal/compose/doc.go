// Package compose is the typed query composer: it chains named
// common-table-expressions onto a base schema, checking each one against the
// view that exists when it is registered.
//
// RUNTIME LAYER:
//
// A Composer holds a schema.View and the CTEs registered so far. With
// evaluates a Definition against a Creator bound to the current view, checks
// the resulting query and returns a new Composer whose view includes the new
// name:
//
//	c := compose.New(base)
//	c, err := c.With("charles", func(q compose.Creator) *compose.SelectBuilder {
//	    return q.SelectFrom("people").Where("name", "=", "Charles")
//	})
//	stmt, err := c.Build(func(q compose.Creator) *compose.SelectBuilder {
//	    return q.SelectFrom("charles").Select("name")
//	})
//
// Composers are immutable. Branching two chains from one intermediate
// Composer is safe from any number of goroutines.
//
// BINDING STRATEGIES:
//
// Re-declare: the typed layer (Chain, Query, Table) makes the view a type
// parameter. A Query[V, R] authored against a narrower view type does not
// compile when handed to a Chain of a wider view; it has to be re-declared
// against the wider type or adapted with Widen.
//
// Defer: WithDeferred takes a zero-argument closure returning a Definition.
// The composer invokes it at registration time against the current extended
// Creator, so references are checked when the closure runs rather than when
// it was written.
//
// Name errors (EMPTY_NAME, INVALID_NAME, SCHEMA_CONFLICT) are reported before
// a definition or closure is evaluated.
package compose
