package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on statements.name
const currentSchemaVersion = 1

// Sequencer hands out created_seq values. Values must increase.
type Sequencer interface {
	Next() int64
}

// RevisionGenerator produces the revision recorded on first save.
type RevisionGenerator interface {
	Generate() string
}

// Option configures a Store.
type Option func(*Store)

// WithSequencer replaces the default sequencer, which continues from the
// highest created_seq already in the catalog.
func WithSequencer(seq Sequencer) Option {
	return func(s *Store) {
		s.seq = seq
	}
}

// WithRevisionGenerator replaces the default UUIDv7 revisions.
func WithRevisionGenerator(gen RevisionGenerator) Option {
	return func(s *Store) {
		s.revisions = gen
	}
}

// Store is the statement catalog.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db        *sql.DB
	seq       Sequencer
	revisions RevisionGenerator
}

// Open creates or opens a SQLite catalog at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{db: db, revisions: uuidRevisions{}}
	for _, opt := range opts {
		opt(s)
	}
	if s.seq == nil {
		seq, err := resumeSequence(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		s.seq = seq
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 indexes statements by name for catalog lookups by chain name.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_statements_name ON statements(name)`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// counter is the default Sequencer.
type counter struct {
	mu   sync.Mutex
	last int64
}

func (c *counter) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last++
	return c.last
}

// resumeSequence starts a counter after the highest stored created_seq.
func resumeSequence(db *sql.DB) (*counter, error) {
	var last sql.NullInt64
	if err := db.QueryRowContext(context.Background(), `SELECT MAX(created_seq) FROM statements`).Scan(&last); err != nil {
		return nil, fmt.Errorf("read created_seq: %w", err)
	}
	return &counter{last: last.Int64}, nil
}

type uuidRevisions struct{}

func (uuidRevisions) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
