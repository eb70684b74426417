package dialect

import (
	"context"
	"sync"
)

// Result is the outcome of executing a statement.
type Result struct {
	Rows []map[string]any
}

// Driver executes compiled SQL.
type Driver interface {
	Execute(ctx context.Context, sql string, params []any) (Result, error)
}

// Call is one statement a DummyDriver received.
type Call struct {
	SQL    string
	Params []any
}

// DummyDriver is a no-op Driver. Every Execute succeeds with zero rows.
//
// Thread-safety: safe for concurrent use.
type DummyDriver struct {
	mu    sync.Mutex
	calls []Call
}

// NewDummyDriver returns a DummyDriver with no recorded calls.
func NewDummyDriver() *DummyDriver {
	return &DummyDriver{}
}

// Execute records the statement and returns an empty Result.
// It fails only when ctx is already done.
func (d *DummyDriver) Execute(ctx context.Context, sql string, params []any) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, Call{SQL: sql, Params: append([]any(nil), params...)})
	return Result{Rows: []map[string]any{}}, nil
}

// Calls returns a copy of every recorded call, oldest first.
func (d *DummyDriver) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Call, len(d.calls))
	copy(out, d.calls)
	return out
}

// Reset forgets every recorded call.
func (d *DummyDriver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
}
