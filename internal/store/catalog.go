package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/cteq/internal/compose"
)

// Entry is one catalogued statement.
type Entry struct {
	ID         string   `json:"id"`
	Revision   string   `json:"revision"`
	Name       string   `json:"name"`
	SQL        string   `json:"sql"`
	Params     []any    `json:"params"`
	CTENames   []string `json:"cte_names"`
	SchemaHash string   `json:"schema_hash"`
	CreatedSeq int64    `json:"created_seq"`
}

// NewEntry describes a built statement and its compiled SQL. The ID is
// stmt.ID(), which covers the base schema, so one chain over two schemas
// makes two entries. Revision and CreatedSeq are left for Save to assign.
func NewEntry(name string, stmt compose.Statement, sqlText string, params []any) (Entry, error) {
	id, err := stmt.ID()
	if err != nil {
		return Entry{}, fmt.Errorf("new entry: %w", err)
	}
	hash, err := stmt.View.Base().Hash()
	if err != nil {
		return Entry{}, fmt.Errorf("new entry: %w", err)
	}
	if params == nil {
		params = []any{}
	}
	return Entry{
		ID:         id,
		Name:       name,
		SQL:        sqlText,
		Params:     params,
		CTENames:   stmt.CTENames(),
		SchemaHash: hash,
	}, nil
}

// Save records e and returns the stored row.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: saving an ID that is
// already catalogued returns the existing row unchanged.
//
// A zero Revision or CreatedSeq is filled from the store's generators.
func (s *Store) Save(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		return Entry{}, fmt.Errorf("save: entry has no id")
	}
	paramsJSON, err := marshalParams(e.Params)
	if err != nil {
		return Entry{}, fmt.Errorf("save: %w", err)
	}
	namesJSON, err := marshalNames(e.CTENames)
	if err != nil {
		return Entry{}, fmt.Errorf("save: %w", err)
	}
	if existing, err := s.Get(ctx, e.ID); err == nil {
		return existing, nil
	} else if err != sql.ErrNoRows {
		return Entry{}, fmt.Errorf("save: %w", err)
	}
	if e.Revision == "" {
		e.Revision = s.revisions.Generate()
	}
	if e.CreatedSeq == 0 {
		e.CreatedSeq = s.seq.Next()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO statements
		(id, revision, name, sql, params, cte_names, schema_hash, created_seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		e.Revision,
		e.Name,
		e.SQL,
		paramsJSON,
		namesJSON,
		e.SchemaHash,
		e.CreatedSeq,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("save: %w", err)
	}

	return s.Get(ctx, e.ID)
}

// Get returns the entry with the given ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, revision, name, sql, params, cte_names, schema_hash, created_seq
		FROM statements
		WHERE id = ?
	`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return Entry{}, err
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get %s: %w", id, err)
	}
	return e, nil
}

// List returns every entry ordered by created_seq ASC, id ASC COLLATE BINARY.
// Returns an empty slice (not nil) for an empty catalog.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, revision, name, sql, params, cte_names, schema_hash, created_seq
		FROM statements
		ORDER BY created_seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query statements: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate statements: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e          Entry
		paramsJSON string
		namesJSON  string
	)
	if err := row.Scan(&e.ID, &e.Revision, &e.Name, &e.SQL, &paramsJSON, &namesJSON, &e.SchemaHash, &e.CreatedSeq); err != nil {
		return Entry{}, err
	}
	params, err := unmarshalParams(paramsJSON)
	if err != nil {
		return Entry{}, err
	}
	names, err := unmarshalNames(namesJSON)
	if err != nil {
		return Entry{}, err
	}
	e.Params = params
	e.CTENames = names
	return e, nil
}
