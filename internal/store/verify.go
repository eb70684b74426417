package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/cteq/internal/schema"
)

// Verify prepares sqlText against a fresh in-memory database holding empty
// copies of the tables in s. The statement is prepared, never stepped.
//
// Returns an error if SQLite rejects the SQL or if its placeholder count
// differs from len(params).
func Verify(ctx context.Context, s schema.Schema, sqlText string, params []any) error {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return fmt.Errorf("open scratch database: %w", err)
	}
	defer db.Close()

	// Every connection to :memory: is a separate database
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open scratch database: %w", err)
	}
	defer conn.Close()

	for _, t := range s.Tables() {
		if _, err := conn.ExecContext(ctx, createTableSQL(t)); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
	}

	return conn.Raw(func(driverConn any) error {
		sc, ok := driverConn.(*sqlite3.SQLiteConn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}
		stmt, err := sc.Prepare(sqlText)
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()
		if n := stmt.NumInput(); n != len(params) {
			return fmt.Errorf("statement has %d placeholders, %d params bound", n, len(params))
		}
		return nil
	})
}

// createTableSQL renders the DDL for an empty copy of t.
// Names are plain identifiers (schema.ValidateName) so quoting is enough.
func createTableSQL(t schema.Table) string {
	cols := make([]string, 0, len(t.Shape))
	for _, name := range t.Shape.Columns() {
		cols = append(cols, fmt.Sprintf("%q %s", name, sqliteType(t.Shape[name])))
	}
	return fmt.Sprintf("CREATE TABLE %q (%s)", t.Name, strings.Join(cols, ", "))
}

func sqliteType(t schema.ColumnType) string {
	switch t {
	case schema.TypeString:
		return "TEXT"
	default:
		return "INTEGER"
	}
}
