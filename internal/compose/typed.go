package compose

import (
	"reflect"

	"github.com/roach88/cteq/internal/schema"
)

// Tabler is a named table handle with a row shape. Every Table[R] is one.
type Tabler interface {
	Name() string
	Shape() (schema.RowShape, error)
}

// Table is a typed handle for a base table or CTE whose rows are R.
type Table[R any] struct {
	name string
}

// T returns the handle for the table or CTE called name.
func T[R any](name string) Table[R] {
	return Table[R]{name: name}
}

// Name returns the table or CTE name.
func (t Table[R]) Name() string {
	return t.name
}

// Shape returns the row shape derived from R.
func (t Table[R]) Shape() (schema.RowShape, error) {
	return ShapeOf[R]()
}

// Col returns the qualified reference "table.col".
func (t Table[R]) Col(col string) string {
	return t.name + "." + col
}

// TypedCreator is a Creator together with the typed handles of its view.
type TypedCreator[V any] struct {
	Creator
	Tables V
}

// Query is a definition authored against view type V producing rows R.
type Query[V, R any] func(TypedCreator[V]) Select[R]

// Select is a query under construction whose rows are R.
type Select[R any] struct {
	b *SelectBuilder
}

// SelectFrom starts a query over t.
func SelectFrom[V, R any](c TypedCreator[V], t Table[R]) Select[R] {
	return Select[R]{b: c.SelectFrom(t.Name())}
}

// Where adds "col op value".
func (s Select[R]) Where(col, op string, value any) Select[R] {
	s.b.Where(col, op, value)
	return s
}

// WhereNull adds "col IS NULL".
func (s Select[R]) WhereNull(col string) Select[R] {
	s.b.WhereNull(col)
	return s
}

// WhereNotNull adds "col IS NOT NULL".
func (s Select[R]) WhereNotNull(col string) Select[R] {
	s.b.WhereNotNull(col)
	return s
}

// InnerJoin joins t on left = right. The row type is unchanged: R must still
// be covered by the joined output.
func (s Select[R]) InnerJoin(t Tabler, left, right string) Select[R] {
	s.b.InnerJoin(t.Name(), left, right)
	return s
}

// Builder exposes the untyped builder.
func (s Select[R]) Builder() *SelectBuilder {
	return s.b
}

// Project sets the projection and re-types the rows as Out.
func Project[Out, R any](s Select[R], cols ...string) Select[Out] {
	s.b.Select(cols...)
	return Select[Out]{b: s.b}
}

// Chain is a Composer whose view is also a Go type V.
//
// V is a struct of Table fields. A wider view is declared by embedding the
// narrower one and adding the new handle:
//
//	type DB struct {
//	    People compose.Table[Person]
//	    Dogs   compose.Table[Dog]
//	}
//
//	type WithCharles struct {
//	    DB
//	    Charles compose.Table[Person]
//	}
type Chain[V any] struct {
	comp   Composer
	tables V
}

// Start derives the base schema from the handles in tables.
func Start[V any](tables V) (Chain[V], error) {
	handles, err := tablesOf(tables)
	if err != nil {
		return Chain[V]{}, err
	}

	base := make([]schema.Table, 0, len(handles))
	for _, h := range handles {
		shape, err := h.Shape()
		if err != nil {
			return Chain[V]{}, err
		}
		base = append(base, schema.Table{Name: h.Name(), Shape: shape})
	}

	s, err := schema.New(base...)
	if err != nil {
		return Chain[V]{}, err
	}
	return Chain[V]{comp: New(s), tables: tables}, nil
}

// Composer returns the runtime composer state.
func (c Chain[V]) Composer() Composer {
	return c.comp
}

// Tables returns the typed view.
func (c Chain[V]) Tables() V {
	return c.tables
}

// View returns the current Extended Schema.
func (c Chain[V]) View() schema.View {
	return c.comp.View()
}

// With registers q under name and grows the view type with grow.
//
// q must be authored against exactly V. A query written against a narrower
// view type is rejected by the compiler; re-declare it against V or adapt it
// with Widen.
func With[V, W, R any](c Chain[V], name string, q Query[V, R], grow func(V, Table[R]) W) (Chain[W], error) {
	return extend(c, name, grow, func(comp Composer) (Composer, error) {
		return comp.With(name, bind(c.tables, q))
	})
}

// WithDeferred registers the Definition d produces under name. References
// are checked when the composer invokes d, against the current view.
func WithDeferred[V, W, R any](c Chain[V], name string, d Deferred, grow func(V, Table[R]) W) (Chain[W], error) {
	return extend(c, name, grow, func(comp Composer) (Composer, error) {
		return comp.WithDeferred(name, d)
	})
}

// Defer wraps q, authored against the handles in tables, as a Deferred.
// The handles are only resolved by name when the composer invokes it.
func Defer[N, R any](tables N, q Query[N, R]) Deferred {
	return func() Definition {
		return bind(tables, q)
	}
}

// Widen adapts a query authored against a narrower view N to any view W
// that can be narrowed back to N.
func Widen[N, W, R any](q Query[N, R], narrow func(W) N) Query[W, R] {
	if q == nil || narrow == nil {
		return nil
	}
	return func(c TypedCreator[W]) Select[R] {
		return q(TypedCreator[N]{Creator: c.Creator, Tables: narrow(c.Tables)})
	}
}

// Build finalizes c with q, checked against the full view.
func Build[V, R any](c Chain[V], q Query[V, R]) (Statement, error) {
	stmt, err := c.comp.Build(bind(c.tables, q))
	if err != nil {
		return Statement{}, err
	}
	if err := covers("select", stmt.Shape, ShapeOf[R]); err != nil {
		return Statement{}, err
	}
	return stmt, nil
}

func bind[V, R any](tables V, q Query[V, R]) Definition {
	if q == nil {
		return nil
	}
	return func(cr Creator) *SelectBuilder {
		return q(TypedCreator[V]{Creator: cr, Tables: tables}).b
	}
}

func extend[V, W, R any](c Chain[V], name string, grow func(V, Table[R]) W, register func(Composer) (Composer, error)) (Chain[W], error) {
	comp, err := register(c.comp)
	if err != nil {
		return Chain[W]{}, err
	}

	got, _ := comp.View().Lookup(name)
	if err := covers(name, got, ShapeOf[R]); err != nil {
		return Chain[W]{}, err
	}

	if grow == nil {
		return Chain[W]{}, schema.NewMismatchError(name, "no view constructor")
	}
	tables := grow(c.tables, T[R](name))
	if err := checkViewType(tables, comp.View()); err != nil {
		return Chain[W]{}, err
	}
	return Chain[W]{comp: comp, tables: tables}, nil
}

// covers checks that a produced shape has every column of the row type.
func covers(name string, got schema.RowShape, want func() (schema.RowShape, error)) error {
	shape, err := want()
	if err != nil {
		return err
	}
	if !got.Covers(shape) {
		return schema.NewMismatchError(name, "query produces columns %v, row type needs %v",
			got.Columns(), shape.Columns())
	}
	return nil
}

// checkViewType verifies the handles in tables name exactly the entries of
// view, once each, and that every entry's shape covers the handle's row type.
func checkViewType(tables any, view schema.View) error {
	handles, err := tablesOf(tables)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(handles))
	for _, h := range handles {
		if seen[h.Name()] {
			return schema.NewMismatchError(h.Name(), "view type has two handles for one name")
		}
		seen[h.Name()] = true

		got, ok := view.Lookup(h.Name())
		if !ok {
			return schema.NewMismatchError(h.Name(), "view type has a handle the schema view lacks")
		}
		if err := covers(h.Name(), got, h.Shape); err != nil {
			return err
		}
	}
	for _, name := range view.Names() {
		if !seen[name] {
			return schema.NewMismatchError(name, "view type has no handle for this view entry")
		}
	}
	return nil
}

var tablerType = reflect.TypeFor[Tabler]()

// tablesOf collects the handles of a view struct, descending into embedded
// view structs. Unexported fields are ignored.
func tablesOf(tables any) ([]Tabler, error) {
	v := reflect.ValueOf(tables)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil, schema.NewMismatchError("", "view type is nil")
	}
	if v.Kind() != reflect.Struct {
		return nil, schema.NewMismatchError(v.Type().String(), "view type must be a struct of table handles")
	}

	var handles []Tabler
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		switch {
		case f.Type.Implements(tablerType):
			handles = append(handles, v.Field(i).Interface().(Tabler))
		case f.Anonymous && f.Type.Kind() == reflect.Struct:
			nested, err := tablesOf(v.Field(i).Interface())
			if err != nil {
				return nil, err
			}
			handles = append(handles, nested...)
		default:
			return nil, schema.NewMismatchError(t.String()+"."+f.Name, "field is not a table handle")
		}
	}
	return handles, nil
}
