package compose

import (
	"reflect"
	"strings"

	"github.com/roach88/cteq/internal/schema"
)

// ShapeOf derives the row shape of struct type R from its `db` tags.
//
// Exported fields tagged `db:"name"` become columns; untagged fields and
// `db:"-"` are skipped. string maps to string, every integer kind to int and
// bool to bool; pointers to those kinds are accepted as nullable columns.
func ShapeOf[R any]() (schema.RowShape, error) {
	return shapeOf(reflect.TypeFor[R]())
}

func shapeOf(t reflect.Type) (schema.RowShape, error) {
	if t.Kind() != reflect.Struct {
		return nil, schema.NewMismatchError(t.String(), "row type must be a struct")
	}

	shape := schema.RowShape{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, ok := f.Tag.Lookup("db")
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			continue
		}
		if name == "" {
			return nil, schema.NewEmptyNameError("column of " + t.String() + "." + f.Name)
		}

		typ, ok := columnType(f.Type)
		if !ok {
			return nil, schema.NewMismatchError(t.String()+"."+f.Name, "unsupported field type %s", f.Type)
		}
		if _, dup := shape[name]; dup {
			return nil, schema.NewMismatchError(name, "column tagged twice in %s", t)
		}
		shape[name] = typ
	}

	if len(shape) == 0 {
		return nil, schema.NewMismatchError(t.String(), "row type has no db-tagged fields")
	}
	return shape, nil
}

func columnType(t reflect.Type) (schema.ColumnType, bool) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return schema.TypeString, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return schema.TypeInt, true
	case reflect.Bool:
		return schema.TypeBool, true
	default:
		return "", false
	}
}
