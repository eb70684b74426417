package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cteq/internal/schema"
)

// PeopleShape is the row shape of the people fixture table.
var PeopleShape = schema.RowShape{
	"id":     schema.TypeInt,
	"name":   schema.TypeString,
	"dog_id": schema.TypeInt,
}

// DogsShape is the row shape of the dogs fixture table.
var DogsShape = schema.RowShape{
	"id":    schema.TypeInt,
	"name":  schema.TypeString,
	"breed": schema.TypeString,
	"good":  schema.TypeBool,
}

// PeopleAndDogs returns the base schema {people, dogs}.
func PeopleAndDogs(t testing.TB) schema.Schema {
	t.Helper()
	s, err := schema.New(
		schema.Table{Name: "people", Shape: PeopleShape.Clone()},
		schema.Table{Name: "dogs", Shape: DogsShape.Clone()},
	)
	require.NoError(t, err)
	return s
}
