package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cteq/internal/ir"
	"github.com/roach88/cteq/internal/queryir"
	"github.com/roach88/cteq/internal/schema"
	"github.com/roach88/cteq/internal/testutil"
)

func TestParseColumn(t *testing.T) {
	tests := []struct {
		in   string
		want queryir.Column
	}{
		{"name", queryir.Column{Name: "name"}},
		{"people.name", queryir.Column{Source: "people", Name: "name"}},
		{"people.name as n", queryir.Column{Source: "people", Name: "name", Alias: "n"}},
		{"name AS n", queryir.Column{Name: "name", Alias: "n"}},
		{"  name  ", queryir.Column{Name: "name"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColumn(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseColumnRejects(t *testing.T) {
	for _, in := range []string{"", "a b", "a as", "a to b", ".name", "people.", "a.b.c", "a as b c"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseColumn(in)
			require.Error(t, err)
			assert.True(t, schema.IsMismatch(err))
		})
	}
	assert.Panics(t, func() { MustParseColumn("a.b.c") })
}

func TestSelectBuilder(t *testing.T) {
	c := NewCreator(schema.NewView(testutil.PeopleAndDogs(t)))
	assert.True(t, c.Has("people"))

	q, err := c.SelectFrom("people").
		InnerJoin("dogs", "people.dog_id", "id").
		Where("dogs.breed", "=", "beagle").
		WhereNotNull("people.name").
		Select("people.name", "dogs.name as dog").
		Query()
	require.NoError(t, err)

	assert.Equal(t, "people", q.From)
	require.Len(t, q.Joins, 1)
	assert.Equal(t, queryir.Join{
		Table: "dogs",
		Left:  queryir.Column{Source: "people", Name: "dog_id"},
		Right: queryir.Column{Name: "id"},
	}, q.Joins[0])
	assert.Equal(t, queryir.And{Predicates: []queryir.Predicate{
		queryir.Compare{Column: queryir.Column{Source: "dogs", Name: "breed"}, Op: queryir.OpEq, Value: ir.String("beagle")},
		queryir.IsNull{Column: queryir.Column{Source: "people", Name: "name"}, Negate: true},
	}}, q.Filter)
	assert.Len(t, q.Columns, 2)
}

func TestSelectBuilder_SingleFilterIsNotWrapped(t *testing.T) {
	q, err := Creator{}.SelectFrom("people").Where("id", ">", 3).Query()
	require.NoError(t, err)
	assert.Equal(t, queryir.Compare{Column: queryir.Column{Name: "id"}, Op: queryir.OpGt, Value: ir.Int(3)}, q.Filter)
	assert.Nil(t, q.Columns)
}

func TestSelectBuilder_SelectAllResets(t *testing.T) {
	q, err := Creator{}.SelectFrom("people").Select("name").SelectAll().Query()
	require.NoError(t, err)
	assert.Nil(t, q.Columns)
}

func TestSelectBuilder_AccumulatesErrors(t *testing.T) {
	_, err := Creator{}.SelectFrom("people").
		Where("name", "~", "x").
		Where("id", "=", 1.5).
		Select().
		Query()
	require.Error(t, err)
	assert.True(t, schema.IsMismatch(err))
	assert.Contains(t, err.Error(), "unsupported operator")
	assert.Contains(t, err.Error(), "floats are forbidden")
	assert.Contains(t, err.Error(), "at least one column")
}

func TestSelectBuilder_QueryDoesNotAlias(t *testing.T) {
	b := Creator{}.SelectFrom("people").Select("name")
	q1, err := b.Query()
	require.NoError(t, err)

	b.Select("id")
	assert.Equal(t, "name", q1.Columns[0].Name)
}
