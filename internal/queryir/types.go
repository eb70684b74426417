package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/cteq/internal/ir"
)

// Query represents a query node.
//
// This is a sealed interface - only Select and With implement it.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Predicate represents a filter condition.
//
// This is a sealed interface - only Compare, IsNull, And and Or implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Select is a single-source query with optional inner joins.
//
// Semantics:
//
//	SELECT <columns> FROM <from> [INNER JOIN <table> ON <left> = <right>]... WHERE <filter>
//
// A nil Columns slice selects every column of every source. From and every
// join table may name a base table or a previously registered CTE.
type Select struct {
	From    string    // Table or CTE name
	Joins   []Join    // Inner equi-joins, applied in order
	Filter  Predicate // WHERE conditions (nil = no filter)
	Columns []Column  // Projection (nil = all columns)
}

func (Select) queryNode() {}

// Join is an inner equi-join of Table onto the sources before it.
//
// Left resolves against the sources joined so far; Right resolves against
// Table only (an empty Right.Source defaults to Table).
type Join struct {
	Table string
	Left  Column
	Right Column
}

// Column is a column reference with an optional source qualifier and alias.
type Column struct {
	Source string // Table or CTE name (empty = resolve unambiguously)
	Name   string
	Alias  string // Output name (empty = Name)
}

// OutputName returns the column name the reference produces.
func (c Column) OutputName() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.Name
}

// String renders the reference as "source.name AS alias".
func (c Column) String() string {
	var sb strings.Builder
	if c.Source != "" {
		sb.WriteString(c.Source)
		sb.WriteByte('.')
	}
	sb.WriteString(c.Name)
	if c.Alias != "" {
		sb.WriteString(" AS ")
		sb.WriteString(c.Alias)
	}
	return sb.String()
}

// With is the WITH statement: an ordered CTE chain and the final Select.
//
// CTE i may reference base tables and CTEs 0..i-1, never later ones.
type With struct {
	CTEs []CTE
	Body Select
}

func (With) queryNode() {}

// CTE is a named sub-query.
type CTE struct {
	Name  string
	Query Select
}

// Op is a comparison operator.
type Op string

const (
	OpEq   Op = "="
	OpNe   Op = "<>"
	OpLt   Op = "<"
	OpLe   Op = "<="
	OpGt   Op = ">"
	OpGe   Op = ">="
	OpLike Op = "like"
)

// ParseOp normalizes an operator spelling. "!=" is accepted for "<>" and
// "LIKE" in any case for "like".
func ParseOp(s string) (Op, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "=", "==":
		return OpEq, nil
	case "<>", "!=":
		return OpNe, nil
	case "<":
		return OpLt, nil
	case "<=":
		return OpLe, nil
	case ">":
		return OpGt, nil
	case ">=":
		return OpGe, nil
	case "like":
		return OpLike, nil
	default:
		return "", fmt.Errorf("unsupported operator %q", s)
	}
}

// Compare is a column-op-literal predicate.
//
// The literal is always parameterized by backends, never interpolated.
// Comparing with ir.Null is rejected by Check; use IsNull.
type Compare struct {
	Column Column
	Op     Op
	Value  ir.Value
}

func (Compare) predicateNode() {}

// IsNull is "<column> IS NULL", or "IS NOT NULL" when Negate is set.
type IsNull struct {
	Column Column
	Negate bool
}

func (IsNull) predicateNode() {}

// And is a conjunction. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or is a disjunction. An empty Or is always false.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}
