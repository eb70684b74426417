// Package dialect bundles the collaborators a finalized statement is handed
// to: a Compiler that renders queryir to SQL and a Driver that would run it.
//
// Only SQLite is provided, and only with DummyDriver. cteq never connects to
// a real data store; DummyDriver accepts every statement, returns no rows
// and records what it was given.
package dialect
