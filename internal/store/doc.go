// Package store provides the SQLite-backed statement catalog and the
// scratch database used to verify compiled SQL.
//
// The catalog keeps one row per composed statement:
//   - id: content-addressed statement ID (see internal/ir/hash.go)
//   - revision: UUIDv7 assigned on first save
//   - sql, params: the compiled output, params as canonical JSON
//   - cte_names: the WITH clause names in registration order
//   - schema_hash: hash of the base schema the chain was built on
//
// # Critical Patterns
//
// Idempotent saves
//   - INSERT ... ON CONFLICT(id) DO NOTHING
//   - Saving the same statement twice keeps the first revision
//
// Logical ordering
//   - created_seq INTEGER (logical clock), NEVER timestamps
//   - List orders by created_seq ASC, id ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Verify never touches the catalog file. It prepares SQL against a fresh
// in-memory database holding empty copies of the base tables.
package store
