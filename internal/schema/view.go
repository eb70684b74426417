package schema

import "slices"

// View is an Extended Schema: the base Schema plus registered CTE entries.
//
// A View only grows. Extend copies rather than appends in place, so views
// that share a parent never observe each other's entries.
type View struct {
	base    Schema
	entries []Table        // CTEs in registration order
	index   map[string]int // CTE name -> position in entries
}

// NewView returns a View whose Extended Schema equals s.
func NewView(s Schema) View {
	return View{base: s}
}

// Extend returns a new View with name registered as a CTE of the given shape.
//
// Rejects empty names (EMPTY_NAME), non-identifiers (INVALID_NAME) and names
// already present as a base table or CTE (SCHEMA_CONFLICT). The receiver is
// never modified.
func (v View) Extend(name string, shape RowShape) (View, error) {
	if err := v.CanRegister(name); err != nil {
		return View{}, err
	}
	if len(shape) == 0 {
		return View{}, NewMismatchError(name, "sub-query produces no columns")
	}

	entries := make([]Table, len(v.entries), len(v.entries)+1)
	copy(entries, v.entries)
	entries = append(entries, Table{Name: name, Shape: shape.Clone()})

	index := make(map[string]int, len(entries))
	for k, pos := range v.index {
		index[k] = pos
	}
	index[name] = len(entries) - 1

	return View{base: v.base, entries: entries, index: index}, nil
}

// CanRegister reports, as an error, whether name may be registered next.
func (v View) CanRegister(name string) error {
	if err := ValidateName("sub-query", name); err != nil {
		return err
	}
	if v.Has(name) {
		return NewConflictError(name)
	}
	return nil
}

// Lookup returns a copy of the shape registered under name.
func (v View) Lookup(name string) (RowShape, bool) {
	if pos, ok := v.index[name]; ok {
		return v.entries[pos].Shape.Clone(), true
	}
	return v.base.Lookup(name)
}

// Has reports whether name is a base table or registered CTE.
func (v View) Has(name string) bool {
	if _, ok := v.index[name]; ok {
		return true
	}
	return v.base.Has(name)
}

// IsCTE reports whether name was registered through Extend.
func (v View) IsCTE(name string) bool {
	_, ok := v.index[name]
	return ok
}

// Names returns base table names (sorted) followed by CTE names in
// registration order.
func (v View) Names() []string {
	return append(v.base.Names(), v.CTENames()...)
}

// CTENames returns the registered CTE names in registration order.
func (v View) CTENames() []string {
	names := make([]string, len(v.entries))
	for i, e := range v.entries {
		names[i] = e.Name
	}
	return names
}

// Base returns the base Schema the view was built from.
func (v View) Base() Schema {
	return v.base
}

// Depth returns the number of registered CTEs.
func (v View) Depth() int {
	return len(v.entries)
}

// Shapes returns every entry of the Extended Schema as an independent map.
func (v View) Shapes() map[string]RowShape {
	out := make(map[string]RowShape, v.base.Len()+len(v.entries))
	for _, t := range v.base.Tables() {
		out[t.Name] = t.Shape
	}
	for _, e := range v.entries {
		out[e.Name] = e.Shape.Clone()
	}
	return out
}

// Contains reports whether every name of other is present in v with an
// equal shape. It is the structural superset check used to widen
// definitions written against a narrower view.
func (v View) Contains(other View) bool {
	for name, shape := range other.Shapes() {
		got, ok := v.Lookup(name)
		if !ok || !got.Equal(shape) {
			return false
		}
	}
	return true
}

// Equal reports whether both views hold the same entries in the same
// registration order.
func (v View) Equal(other View) bool {
	if !slices.Equal(v.Names(), other.Names()) {
		return false
	}
	return v.Contains(other)
}
