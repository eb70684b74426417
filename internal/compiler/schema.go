package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/cteq/internal/schema"
)

// CompileSchema parses the base tables of a CUE value into a schema.Schema.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// Tables live under the top-level "table" field; each column is a CUE type:
//
//	table: people: {
//	    id:     int
//	    name:   string
//	    dog_id: int
//	}
//	table: dogs: {
//	    id:   int
//	    good: bool
//	}
//
// At least one table is required, and every table needs a column.
func CompileSchema(v cue.Value) (schema.Schema, error) {
	if err := v.Err(); err != nil {
		return schema.Schema{}, formatCUEError(err)
	}

	tablesVal := v.LookupPath(cue.ParsePath("table"))
	if !tablesVal.Exists() {
		return schema.Schema{}, &CompileError{
			Field:   "table",
			Message: "at least one table is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := tablesVal.Fields()
	if err != nil {
		return schema.Schema{}, formatCUEError(err)
	}

	var tables []schema.Table
	for iter.Next() {
		table, err := compileTable(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return schema.Schema{}, err
		}
		tables = append(tables, table)
	}

	if len(tables) == 0 {
		return schema.Schema{}, &CompileError{
			Field:   "table",
			Message: "at least one table is required",
			Pos:     tablesVal.Pos(),
		}
	}

	s, err := schema.New(tables...)
	if err != nil {
		return schema.Schema{}, &CompileError{
			Field:   "table",
			Message: err.Error(),
			Pos:     tablesVal.Pos(),
		}
	}
	return s, nil
}

func compileTable(name string, v cue.Value) (schema.Table, error) {
	field := "table." + name
	if err := schema.ValidateName("table", name); err != nil {
		return schema.Table{}, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}

	iter, err := v.Fields()
	if err != nil {
		return schema.Table{}, &CompileError{
			Field:   field,
			Message: "table must be a struct of columns",
			Pos:     v.Pos(),
		}
	}

	shape := schema.RowShape{}
	for iter.Next() {
		col := iter.Selector().Unquoted()
		colField := field + "." + col
		if err := schema.ValidateName("column", col); err != nil {
			return schema.Table{}, &CompileError{Field: colField, Message: err.Error(), Pos: iter.Value().Pos()}
		}

		typ, err := extractColumnType(colField, iter.Value())
		if err != nil {
			return schema.Table{}, err
		}
		shape[col] = typ
	}

	if len(shape) == 0 {
		return schema.Table{}, &CompileError{
			Field:   field,
			Message: "table needs at least one column",
			Pos:     v.Pos(),
		}
	}
	return schema.Table{Name: name, Shape: shape}, nil
}

// extractColumnType converts a CUE type to a column type.
// Floats are forbidden.
func extractColumnType(field string, v cue.Value) (schema.ColumnType, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return schema.TypeString, nil
	case cue.IntKind:
		return schema.TypeInt, nil
	case cue.BoolKind:
		return schema.TypeBool, nil
	case cue.FloatKind, cue.NumberKind:
		return "", &CompileError{
			Field:   field,
			Message: "float types are forbidden - use int instead",
			Pos:     v.Pos(),
		}
	default:
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}
