package schema

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/cteq/internal/ir"
)

// ColumnType is the primitive type of a column.
type ColumnType string

const (
	TypeString ColumnType = "string"
	TypeInt    ColumnType = "int"
	TypeBool   ColumnType = "bool"
)

// ParseColumnType validates a column type name.
// Floats are forbidden, matching the literal types in package ir.
func ParseColumnType(s string) (ColumnType, error) {
	switch ColumnType(s) {
	case TypeString, TypeInt, TypeBool:
		return ColumnType(s), nil
	case "float", "float32", "float64", "number":
		return "", fmt.Errorf("float column types are forbidden - use int instead")
	default:
		return "", fmt.Errorf("unknown column type %q: must be string, int or bool", s)
	}
}

// Accepts reports whether a literal may be compared with a column of this
// type. NULL is never accepted here; use an IS NULL predicate instead.
func (t ColumnType) Accepts(v ir.Value) bool {
	return ir.Kind(v) == string(t)
}

// RowShape maps column names to column types.
type RowShape map[string]ColumnType

// Columns returns the column names in sorted order.
func (r RowShape) Columns() []string {
	return slices.Sorted(maps.Keys(r))
}

// Clone returns an independent copy.
func (r RowShape) Clone() RowShape {
	return maps.Clone(r)
}

// Equal reports whether both shapes have the same columns and types.
func (r RowShape) Equal(other RowShape) bool {
	return maps.Equal(r, other)
}

// Covers reports whether every column of other exists in r with the same type.
func (r RowShape) Covers(other RowShape) bool {
	for col, typ := range other {
		if got, ok := r[col]; !ok || got != typ {
			return false
		}
	}
	return true
}

// describe returns the shape as a canonical-JSON friendly map.
func (r RowShape) describe() map[string]any {
	desc := make(map[string]any, len(r))
	for col, typ := range r {
		desc[col] = string(typ)
	}
	return desc
}

// Table is a named base table.
type Table struct {
	Name  string
	Shape RowShape
}

// Schema maps unique table names to row shapes. Immutable once constructed.
type Schema struct {
	tables map[string]RowShape
}

// New builds a Schema from tables.
// Rejects empty names (EMPTY_NAME), non-identifiers (INVALID_NAME),
// duplicates (SCHEMA_CONFLICT) and tables without columns (SCHEMA_MISMATCH).
func New(tables ...Table) (Schema, error) {
	s := Schema{tables: make(map[string]RowShape, len(tables))}
	for _, t := range tables {
		if err := ValidateName("table", t.Name); err != nil {
			return Schema{}, err
		}
		if _, exists := s.tables[t.Name]; exists {
			return Schema{}, NewConflictError(t.Name)
		}
		if len(t.Shape) == 0 {
			return Schema{}, NewMismatchError(t.Name, "table has no columns")
		}
		for col, typ := range t.Shape {
			if err := ValidateName("column", col); err != nil {
				return Schema{}, err
			}
			if _, err := ParseColumnType(string(typ)); err != nil {
				return Schema{}, NewMismatchError(t.Name+"."+col, "%v", err)
			}
		}
		s.tables[t.Name] = t.Shape.Clone()
	}
	return s, nil
}

// MustNew is like New but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustNew(tables ...Table) Schema {
	s, err := New(tables...)
	if err != nil {
		panic(err)
	}
	return s
}

// Lookup returns a copy of the named table's shape.
func (s Schema) Lookup(name string) (RowShape, bool) {
	shape, ok := s.tables[name]
	if !ok {
		return nil, false
	}
	return shape.Clone(), true
}

// Has reports whether the schema contains the named table.
func (s Schema) Has(name string) bool {
	_, ok := s.tables[name]
	return ok
}

// Names returns the table names in sorted order.
func (s Schema) Names() []string {
	return slices.Sorted(maps.Keys(s.tables))
}

// Len returns the number of tables.
func (s Schema) Len() int {
	return len(s.tables)
}

// Tables returns the tables ordered by name.
func (s Schema) Tables() []Table {
	out := make([]Table, 0, len(s.tables))
	for _, name := range s.Names() {
		out = append(out, Table{Name: name, Shape: s.tables[name].Clone()})
	}
	return out
}

// Hash returns the content hash of the schema.
func (s Schema) Hash() (string, error) {
	desc := make(map[string]any, len(s.tables))
	for name, shape := range s.tables {
		desc[name] = shape.describe()
	}
	return ir.SchemaHash(desc)
}

// ValidateName checks that name is a non-empty plain SQL identifier.
// what names the kind of entity for the EMPTY_NAME message.
func ValidateName(what, name string) error {
	if name == "" {
		return NewEmptyNameError(what)
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return NewInvalidNameError(name)
		}
	}
	if IsKeyword(name) {
		return NewKeywordNameError(name)
	}
	return nil
}
