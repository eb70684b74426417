package compose

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/cteq/internal/ir"
	"github.com/roach88/cteq/internal/queryir"
	"github.com/roach88/cteq/internal/schema"
)

// Creator is a query-creator bound to one schema view.
type Creator struct {
	view schema.View
}

// NewCreator returns a Creator bound to view.
func NewCreator(view schema.View) Creator {
	return Creator{view: view}
}

// View returns the view the Creator is bound to.
func (c Creator) View() schema.View {
	return c.view
}

// Has reports whether name is visible to queries built by c.
func (c Creator) Has(name string) bool {
	return c.view.Has(name)
}

// SelectFrom starts a query over the named table or CTE.
//
// An unknown name is not reported here; it surfaces when the query is
// registered, along with every other problem the builder accumulated.
func (c Creator) SelectFrom(name string) *SelectBuilder {
	return &SelectBuilder{q: queryir.Select{From: name}}
}

// SelectBuilder builds a queryir.Select.
//
// Methods return the receiver for chaining. Malformed arguments are
// recorded and reported together by Query.
type SelectBuilder struct {
	q     queryir.Select
	preds []queryir.Predicate
	errs  []error
}

// Where adds "col op value". value may be an ir.Value or any scalar
// accepted by ir.FromAny.
func (b *SelectBuilder) Where(col, op string, value any) *SelectBuilder {
	ref, err := ParseColumn(col)
	if err != nil {
		return b.Fail(err)
	}
	parsed, err := queryir.ParseOp(op)
	if err != nil {
		return b.Fail(schema.NewMismatchError(col, "%v", err))
	}
	lit, err := ir.FromAny(value)
	if err != nil {
		return b.Fail(schema.NewMismatchError(col, "%v", err))
	}
	b.preds = append(b.preds, queryir.Compare{Column: ref, Op: parsed, Value: lit})
	return b
}

// WhereNull adds "col IS NULL".
func (b *SelectBuilder) WhereNull(col string) *SelectBuilder {
	return b.whereNull(col, false)
}

// WhereNotNull adds "col IS NOT NULL".
func (b *SelectBuilder) WhereNotNull(col string) *SelectBuilder {
	return b.whereNull(col, true)
}

func (b *SelectBuilder) whereNull(col string, negate bool) *SelectBuilder {
	ref, err := ParseColumn(col)
	if err != nil {
		return b.Fail(err)
	}
	b.preds = append(b.preds, queryir.IsNull{Column: ref, Negate: negate})
	return b
}

// WherePredicate adds an arbitrary predicate, typically an Or.
func (b *SelectBuilder) WherePredicate(p queryir.Predicate) *SelectBuilder {
	if p == nil {
		return b.Fail(schema.NewMismatchError(b.q.From, "nil predicate"))
	}
	b.preds = append(b.preds, p)
	return b
}

// InnerJoin joins table on left = right. left resolves against the sources
// already in the query; right against table.
func (b *SelectBuilder) InnerJoin(table, left, right string) *SelectBuilder {
	l, err := ParseColumn(left)
	if err != nil {
		return b.Fail(err)
	}
	r, err := ParseColumn(right)
	if err != nil {
		return b.Fail(err)
	}
	b.q.Joins = append(b.q.Joins, queryir.Join{Table: table, Left: l, Right: r})
	return b
}

// Select sets the projection. Each column is "col", "src.col" or
// "src.col as alias". Calling Select with no columns is a mismatch.
func (b *SelectBuilder) Select(cols ...string) *SelectBuilder {
	if len(cols) == 0 {
		return b.Fail(schema.NewMismatchError(b.q.From, "select needs at least one column"))
	}
	refs := make([]queryir.Column, 0, len(cols))
	for _, col := range cols {
		ref, err := ParseColumn(col)
		if err != nil {
			return b.Fail(err)
		}
		refs = append(refs, ref)
	}
	b.q.Columns = refs
	return b
}

// SelectAll resets the projection to every column of every source.
func (b *SelectBuilder) SelectAll() *SelectBuilder {
	b.q.Columns = nil
	return b
}

// Query returns the built Select, or every error recorded while building.
func (b *SelectBuilder) Query() (queryir.Select, error) {
	if len(b.errs) > 0 {
		return queryir.Select{}, errors.Join(b.errs...)
	}

	q := b.q
	q.Joins = append([]queryir.Join(nil), b.q.Joins...)
	if b.q.Columns != nil {
		q.Columns = append([]queryir.Column{}, b.q.Columns...)
	}
	switch len(b.preds) {
	case 0:
	case 1:
		q.Filter = b.preds[0]
	default:
		q.Filter = queryir.And{Predicates: append([]queryir.Predicate(nil), b.preds...)}
	}
	return q, nil
}

// Fail records err as a building error. Query reports it with the others.
func (b *SelectBuilder) Fail(err error) *SelectBuilder {
	if err == nil {
		return b
	}
	b.errs = append(b.errs, err)
	return b
}

// ParseColumn parses "col", "src.col" and "src.col as alias" (AS in any case).
func ParseColumn(s string) (queryir.Column, error) {
	fields := strings.Fields(s)

	var ref queryir.Column
	switch {
	case len(fields) == 1:
	case len(fields) == 3 && strings.EqualFold(fields[1], "as"):
		ref.Alias = fields[2]
	default:
		return queryir.Column{}, schema.NewMismatchError(s, "column must be \"col\", \"src.col\" or \"src.col as alias\"")
	}

	source, name, qualified := strings.Cut(fields[0], ".")
	if qualified {
		ref.Source = source
		ref.Name = name
	} else {
		ref.Name = source
	}
	if ref.Name == "" || (qualified && ref.Source == "") || strings.Contains(ref.Name, ".") {
		return queryir.Column{}, schema.NewMismatchError(s, "malformed column reference")
	}
	return ref, nil
}

// MustParseColumn is like ParseColumn but panics on error.
func MustParseColumn(s string) queryir.Column {
	ref, err := ParseColumn(s)
	if err != nil {
		panic(fmt.Sprintf("compose: %v", err))
	}
	return ref
}
