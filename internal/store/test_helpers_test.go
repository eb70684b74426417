package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cteq/internal/compose"
	"github.com/roach88/cteq/internal/querysql"
	"github.com/roach88/cteq/internal/schema"
	"github.com/roach88/cteq/internal/testutil"
)

// createTestStore opens a catalog in a temp dir with predictable
// sequence and revision values.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := Open(path,
		WithSequencer(testutil.NewSequence()),
		WithRevisionGenerator(testutil.NewRevisionGenerator("rev")),
	)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// charlesEntry builds WITH charles AS (people named name) SELECT name.
func charlesEntry(t *testing.T, name string) Entry {
	t.Helper()
	return charlesEntryOver(t, testutil.PeopleAndDogs(t), name)
}

// charlesEntryOver is charlesEntry over the base schema s.
func charlesEntryOver(t *testing.T, s schema.Schema, name string) Entry {
	t.Helper()
	c, err := compose.New(s).With("charles", func(c compose.Creator) *compose.SelectBuilder {
		return c.SelectFrom("people").Where("name", "=", name)
	})
	require.NoError(t, err)

	stmt, err := c.Build(func(c compose.Creator) *compose.SelectBuilder {
		return c.SelectFrom("charles").Select("name")
	})
	require.NoError(t, err)

	sqlText, params, err := stmt.Compile(querysql.NewSQLCompiler())
	require.NoError(t, err)

	e, err := NewEntry("charles", stmt, sqlText, params)
	require.NoError(t, err)
	return e
}
