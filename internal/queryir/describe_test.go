package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cteq/internal/ir"
)

func TestDescribeCanonical(t *testing.T) {
	q := With{
		CTEs: []CTE{{
			Name: "charles",
			Query: Select{
				From:   "people",
				Filter: Compare{Column: Column{Name: "name"}, Op: OpEq, Value: ir.String("Charles")},
			},
		}},
		Body: Select{From: "charles", Columns: []Column{{Name: "name", Alias: "n"}}},
	}

	got, err := ir.MarshalCanonical(Describe(q))
	require.NoError(t, err)

	want := `{"body":{"columns":[{"alias":"n","name":"name"}],"from":"charles","type":"select"},` +
		`"ctes":[{"name":"charles","query":{"filter":{"column":{"name":"name"},"op":"=","type":"compare","value":"Charles"},"from":"people","type":"select"}}],` +
		`"type":"with"}`
	assert.Equal(t, want, string(got))
}

func TestDescribePointerForms(t *testing.T) {
	s := Select{
		From: "people",
		Filter: &Or{Predicates: []Predicate{
			&IsNull{Column: Column{Name: "name"}},
			&Compare{Column: Column{Name: "id"}, Op: OpGt, Value: ir.Int(3)},
		}},
	}
	assert.Equal(t, Describe(s), Describe(&s))

	_, err := ir.MarshalCanonical(Describe(&s))
	require.NoError(t, err)
}

func TestDescribeDistinguishesFilters(t *testing.T) {
	a := Select{From: "people", Filter: Compare{Column: Column{Name: "name"}, Op: OpEq, Value: ir.String("Charles")}}
	b := Select{From: "people", Filter: Compare{Column: Column{Name: "name"}, Op: OpEq, Value: ir.String("Paul")}}

	ja, err := ir.MarshalCanonical(Describe(a))
	require.NoError(t, err)
	jb, err := ir.MarshalCanonical(Describe(b))
	require.NoError(t, err)
	assert.NotEqual(t, string(ja), string(jb))
}

func TestParseOp(t *testing.T) {
	tests := map[string]Op{
		"=": OpEq, "==": OpEq, "!=": OpNe, "<>": OpNe, "<": OpLt,
		"<=": OpLe, ">": OpGt, ">=": OpGe, "LIKE": OpLike, " like ": OpLike,
	}
	for in, want := range tests {
		got, err := ParseOp(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseOp("~")
	assert.Error(t, err)
}

func TestColumnString(t *testing.T) {
	assert.Equal(t, "name", Column{Name: "name"}.String())
	assert.Equal(t, "people.name AS n", Column{Source: "people", Name: "name", Alias: "n"}.String())
	assert.Equal(t, "n", Column{Name: "name", Alias: "n"}.OutputName())
}
