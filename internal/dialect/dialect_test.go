package dialect

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cteq/internal/compose"
	"github.com/roach88/cteq/internal/queryir"
	"github.com/roach88/cteq/internal/testutil"
)

func charlesStatement(t *testing.T) compose.Statement {
	t.Helper()
	c, err := compose.New(testutil.PeopleAndDogs(t)).With("charles", func(q compose.Creator) *compose.SelectBuilder {
		return q.SelectFrom("people").Where("name", "=", "Charles")
	})
	require.NoError(t, err)
	stmt, err := c.Build(func(q compose.Creator) *compose.SelectBuilder {
		return q.SelectFrom("charles").Select("name")
	})
	require.NoError(t, err)
	return stmt
}

func TestSQLite_Execute(t *testing.T) {
	d := SQLite()
	assert.Equal(t, "sqlite", d.Name)

	res, err := d.Execute(context.Background(), charlesStatement(t))
	require.NoError(t, err)
	assert.Empty(t, res.Rows)

	driver, ok := d.Driver.(*DummyDriver)
	require.True(t, ok)
	calls := driver.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "WITH charles AS (\n    SELECT * FROM people WHERE name = ?\n)\nSELECT name FROM charles", calls[0].SQL)
	assert.Equal(t, []any{"Charles"}, calls[0].Params)

	driver.Reset()
	assert.Empty(t, driver.Calls())
}

func TestDummyDriver_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDummyDriver()
	_, err := d.Execute(ctx, "SELECT 1", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, d.Calls())
}

func TestDummyDriver_CopiesParams(t *testing.T) {
	d := NewDummyDriver()
	params := []any{"a"}
	_, err := d.Execute(context.Background(), "SELECT ?", params)
	require.NoError(t, err)

	params[0] = "b"
	assert.Equal(t, []any{"a"}, d.Calls()[0].Params)
}

type failingDriver struct{}

func (failingDriver) Execute(context.Context, string, []any) (Result, error) {
	return Result{}, errors.New("disk on fire")
}

type failingCompiler struct{}

func (failingCompiler) Compile(queryir.Query) (string, []any, error) {
	return "", nil, errors.New("cannot render")
}

func TestDialect_Errors(t *testing.T) {
	stmt := charlesStatement(t)
	ctx := context.Background()

	_, err := Dialect{Name: "x", Compiler: SQLite().Compiler}.Execute(ctx, stmt)
	assert.ErrorContains(t, err, "no driver")

	_, err = Dialect{Name: "x", Driver: NewDummyDriver()}.Execute(ctx, stmt)
	assert.ErrorContains(t, err, "no compiler")

	_, err = Dialect{Name: "x", Compiler: failingCompiler{}, Driver: NewDummyDriver()}.Execute(ctx, stmt)
	assert.ErrorContains(t, err, "cannot render")

	_, err = Dialect{Name: "x", Compiler: SQLite().Compiler, Driver: failingDriver{}}.Execute(ctx, stmt)
	assert.ErrorContains(t, err, "execute: disk on fire")
}

func TestDialect_Compile(t *testing.T) {
	sql, params, err := SQLite().Compile(charlesStatement(t))
	require.NoError(t, err)
	assert.Contains(t, sql, "WITH charles AS")
	assert.Len(t, params, 1)
}
