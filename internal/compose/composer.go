package compose

import (
	"fmt"

	"github.com/roach88/cteq/internal/queryir"
	"github.com/roach88/cteq/internal/schema"
)

// Definition builds a query against the Creator it is given.
// Definitions must be pure: the composer may evaluate one more than once.
type Definition func(Creator) *SelectBuilder

// Deferred produces a Definition when the composer invokes it at
// registration time.
type Deferred func() Definition

// Entry is one registered CTE.
type Entry struct {
	Name  string
	Query queryir.Select
	Shape schema.RowShape
}

// Composer is the composer state: the current view and the CTEs registered
// so far, in order. The zero value is an empty composer with no tables.
type Composer struct {
	view    schema.View
	entries []Entry
}

// New returns a Composer whose view equals s.
func New(s schema.Schema) Composer {
	return Composer{view: schema.NewView(s)}
}

// With registers def under name.
//
// The name is checked first: EMPTY_NAME, INVALID_NAME or SCHEMA_CONFLICT are
// returned without evaluating def. def is then evaluated against a Creator
// bound to the current view and its query checked; any unresolved reference
// is a SCHEMA_MISMATCH. The receiver is never modified.
func (c Composer) With(name string, def Definition) (Composer, error) {
	if err := c.view.CanRegister(name); err != nil {
		return Composer{}, err
	}
	return c.register(name, def)
}

// WithDeferred registers the Definition that d produces under name.
//
// d is invoked only after the name has been accepted, and the Definition it
// returns is evaluated against the current view. A nil d or a d returning
// nil is a SCHEMA_MISMATCH.
func (c Composer) WithDeferred(name string, d Deferred) (Composer, error) {
	if err := c.view.CanRegister(name); err != nil {
		return Composer{}, err
	}
	if d == nil {
		return Composer{}, schema.NewMismatchError(name, "deferred definition is nil")
	}
	return c.register(name, d())
}

func (c Composer) register(name string, def Definition) (Composer, error) {
	q, shape, err := c.evaluate(name, def)
	if err != nil {
		return Composer{}, err
	}

	view, err := c.view.Extend(name, shape)
	if err != nil {
		return Composer{}, err
	}

	entries := make([]Entry, len(c.entries), len(c.entries)+1)
	copy(entries, c.entries)
	entries = append(entries, Entry{Name: name, Query: q, Shape: shape})

	return Composer{view: view, entries: entries}, nil
}

// evaluate runs def against the current view and checks the result.
func (c Composer) evaluate(name string, def Definition) (queryir.Select, schema.RowShape, error) {
	if def == nil {
		return queryir.Select{}, nil, schema.NewMismatchError(name, "definition is nil")
	}
	b := def(NewCreator(c.view))
	if b == nil {
		return queryir.Select{}, nil, schema.NewMismatchError(name, "definition returned no query")
	}

	q, err := b.Query()
	if err != nil {
		return queryir.Select{}, nil, fmt.Errorf("%s: %w", name, err)
	}
	shape, err := queryir.Check(q, c.view)
	if err != nil {
		return queryir.Select{}, nil, fmt.Errorf("%s: %w", name, err)
	}
	return q, shape, nil
}

// Build finalizes the chain with final, checked against the full view.
func (c Composer) Build(final Definition) (Statement, error) {
	body, shape, err := c.evaluate("select", final)
	if err != nil {
		return Statement{}, err
	}

	ctes := make([]queryir.CTE, 0, len(c.entries))
	for _, e := range c.entries {
		ctes = append(ctes, queryir.CTE{Name: e.Name, Query: e.Query})
	}

	return Statement{
		Query: queryir.With{CTEs: ctes, Body: body},
		Shape: shape,
		View:  c.view,
	}, nil
}

// View returns the current Extended Schema.
func (c Composer) View() schema.View {
	return c.view
}

// CTEs returns a copy of the registered entries in registration order.
func (c Composer) CTEs() []Entry {
	out := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		out[i] = Entry{Name: e.Name, Query: e.Query, Shape: e.Shape.Clone()}
	}
	return out
}

// Len returns the number of registered CTEs.
func (c Composer) Len() int {
	return len(c.entries)
}
