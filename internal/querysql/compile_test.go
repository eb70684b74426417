package querysql

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cteq/internal/ir"
	"github.com/roach88/cteq/internal/queryir"
)

func eq(col string, v ir.Value) queryir.Compare {
	return queryir.Compare{Column: queryir.Column{Name: col}, Op: queryir.OpEq, Value: v}
}

func TestCompile_SimpleSelect(t *testing.T) {
	compiler := NewSQLCompiler()

	sql, params, err := compiler.Compile(queryir.Select{
		From:   "people",
		Filter: eq("name", ir.String("Charles")),
	})
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM people WHERE name = ?", sql)
	assert.NotContains(t, sql, "Charles") // Value NOT in SQL
	assert.Equal(t, []any{"Charles"}, params)
}

func TestCompile_SimpleSelectPointer(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(&queryir.Select{
		From:   "people",
		Filter: &queryir.IsNull{Column: queryir.Column{Name: "dog_id"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM people WHERE dog_id IS NULL", sql)
	assert.Empty(t, params)
}

func TestCompile_NoFilter(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.Select{From: "people"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM people", sql)
	assert.NotNil(t, params)
	assert.Empty(t, params)
	assert.NotContains(t, sql, "ORDER BY")
}

func TestCompile_Columns(t *testing.T) {
	sql, _, err := NewSQLCompiler().Compile(queryir.Select{
		From: "people",
		Columns: []queryir.Column{
			{Name: "id"},
			{Source: "people", Name: "name", Alias: "person"},
			{Name: "dog_id", Alias: "dog_id"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, people.name AS person, dog_id FROM people", sql)
}

func TestCompile_JoinSelectAll(t *testing.T) {
	sql, _, err := NewSQLCompiler().Compile(queryir.Select{
		From: "people",
		Joins: []queryir.Join{{
			Table: "dogs",
			Left:  queryir.Column{Source: "people", Name: "dog_id"},
			Right: queryir.Column{Name: "id"},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT people.*, dogs.* FROM people INNER JOIN dogs ON people.dog_id = dogs.id", sql)
}

func TestCompile_Operators(t *testing.T) {
	tests := []struct {
		op   queryir.Op
		want string
	}{
		{queryir.OpEq, "id = ?"},
		{queryir.OpNe, "id <> ?"},
		{queryir.OpLt, "id < ?"},
		{queryir.OpLe, "id <= ?"},
		{queryir.OpGt, "id > ?"},
		{queryir.OpGe, "id >= ?"},
		{queryir.OpLike, "id LIKE ?"},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			sql, params, err := NewSQLCompiler().Compile(queryir.Select{
				From:   "people",
				Filter: queryir.Compare{Column: queryir.Column{Name: "id"}, Op: tt.op, Value: ir.Int(7)},
			})
			require.NoError(t, err)
			assert.Equal(t, "SELECT * FROM people WHERE "+tt.want, sql)
			assert.Equal(t, []any{int64(7)}, params)
		})
	}
}

func TestCompile_Predicates(t *testing.T) {
	name := queryir.Column{Name: "name"}
	tests := []struct {
		name   string
		filter queryir.Predicate
		sql    string
		params []any
	}{
		{
			name:   "top-level and is flattened",
			filter: queryir.And{Predicates: []queryir.Predicate{eq("name", ir.String("a")), eq("id", ir.Int(1))}},
			sql:    "name = ? AND id = ?",
			params: []any{"a", int64(1)},
		},
		{
			name: "or is parenthesized",
			filter: queryir.Or{Predicates: []queryir.Predicate{
				eq("name", ir.String("a")),
				queryir.IsNull{Column: name, Negate: true},
			}},
			sql:    "(name = ? OR name IS NOT NULL)",
			params: []any{"a"},
		},
		{
			name: "nested and inside or",
			filter: &queryir.Or{Predicates: []queryir.Predicate{
				&queryir.And{Predicates: []queryir.Predicate{eq("name", ir.String("a")), eq("id", ir.Int(2))}},
				eq("name", ir.String("b")),
			}},
			sql:    "((name = ? AND id = ?) OR name = ?)",
			params: []any{"a", int64(2), "b"},
		},
		{
			name:   "empty or is false",
			filter: queryir.Or{},
			sql:    "(1=0)",
			params: []any{},
		},
		{
			name:   "bool literal",
			filter: eq("good", ir.Bool(true)),
			sql:    "good = ?",
			params: []any{true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := NewSQLCompiler().Compile(queryir.Select{From: "people", Filter: tt.filter})
			require.NoError(t, err)
			assert.Equal(t, "SELECT * FROM people WHERE "+tt.sql, sql)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestCompile_EmptyTopLevelAnd(t *testing.T) {
	sql, _, err := NewSQLCompiler().Compile(queryir.Select{From: "people", Filter: queryir.And{}})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM people", sql)
}

func TestCompile_WithParameterOrder(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.With{
		CTEs: []queryir.CTE{
			{Name: "first", Query: queryir.Select{From: "people", Filter: eq("id", ir.Int(1))}},
			{Name: "second", Query: queryir.Select{From: "first", Filter: eq("id", ir.Int(2))}},
		},
		Body: queryir.Select{From: "second", Filter: eq("id", ir.Int(3))},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, params)
	assert.Contains(t, sql, "WITH first AS (\n    SELECT * FROM people WHERE id = ?\n),\nsecond AS (")
	assert.Contains(t, sql, ")\nSELECT * FROM second WHERE id = ?")
}

func TestCompile_WithCustomIndent(t *testing.T) {
	c := &SQLCompiler{Indent: "\t"}
	sql, params, err := c.Compile(&queryir.With{
		CTEs: []queryir.CTE{{Name: "all_people", Query: queryir.Select{From: "people"}}},
		Body: queryir.Select{From: "all_people"},
	})
	require.NoError(t, err)
	assert.Equal(t, "WITH all_people AS (\n\tSELECT * FROM people\n)\nSELECT * FROM all_people", sql)
	assert.NotNil(t, params)
	assert.Empty(t, params)
}

func TestCompile_WithNoCTEs(t *testing.T) {
	sql, _, err := NewSQLCompiler().Compile(queryir.With{Body: queryir.Select{From: "people"}})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM people", sql)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		query queryir.Query
		want  string
	}{
		{"nil query", nil, "nil query"},
		{"empty from", queryir.Select{}, "no source table"},
		{"empty join table", queryir.Select{From: "people", Joins: []queryir.Join{{}}}, "join has no table"},
		{"null literal", queryir.Select{From: "people", Filter: eq("name", ir.Null{})}, "comparison with NULL"},
		{"nil literal", queryir.Select{From: "people", Filter: eq("name", nil)}, "convert value"},
		{
			"bad operator",
			queryir.Select{From: "people", Filter: queryir.Compare{Column: queryir.Column{Name: "id"}, Op: "~", Value: ir.Int(1)}},
			"unsupported operator",
		},
		{"empty cte name", queryir.With{CTEs: []queryir.CTE{{Query: queryir.Select{From: "people"}}}, Body: queryir.Select{From: "people"}}, "empty name"},
		{"bad cte", queryir.With{CTEs: []queryir.CTE{{Name: "x"}}, Body: queryir.Select{From: "x"}}, "compile cte x"},
		{"bad body", queryir.With{}, "compile body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewSQLCompiler().Compile(tt.query)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func golden(sql string, params []any) []byte {
	return []byte(fmt.Sprintf("%s\n-- params: %v\n", sql, params))
}

func TestCompile_Golden(t *testing.T) {
	tests := map[string]queryir.With{
		"charles_and_pauls": {
			CTEs: []queryir.CTE{
				{Name: "charles", Query: queryir.Select{From: "people", Filter: eq("name", ir.String("Charles"))}},
				{Name: "pauls", Query: queryir.Select{From: "people", Filter: eq("name", ir.String("Paul"))}},
			},
			Body: queryir.Select{From: "charles", Columns: []queryir.Column{{Name: "name"}}},
		},
		"good_dog_owners": {
			CTEs: []queryir.CTE{{
				Name: "good_dogs",
				Query: queryir.Select{
					From: "dogs",
					Filter: queryir.And{Predicates: []queryir.Predicate{
						eq("good", ir.Bool(true)),
						queryir.Or{Predicates: []queryir.Predicate{
							queryir.Compare{Column: queryir.Column{Name: "breed"}, Op: queryir.OpLike, Value: ir.String("%terrier")},
							queryir.Compare{Column: queryir.Column{Name: "id"}, Op: queryir.OpGe, Value: ir.Int(10)},
						}},
					}},
				},
			}},
			Body: queryir.Select{
				From: "people",
				Joins: []queryir.Join{{
					Table: "good_dogs",
					Left:  queryir.Column{Source: "people", Name: "dog_id"},
					Right: queryir.Column{Name: "id"},
				}},
				Filter: queryir.IsNull{Column: queryir.Column{Source: "people", Name: "name"}, Negate: true},
				Columns: []queryir.Column{
					{Source: "people", Name: "name", Alias: "owner"},
					{Source: "good_dogs", Name: "name", Alias: "dog"},
				},
			},
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for name, q := range tests {
		t.Run(name, func(t *testing.T) {
			sql, params, err := NewSQLCompiler().Compile(q)
			require.NoError(t, err)
			g.Assert(t, name, golden(sql, params))
		})
	}
}
