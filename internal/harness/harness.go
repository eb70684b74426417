package harness

import (
	"context"
	"fmt"

	"github.com/roach88/cteq/internal/compose"
	"github.com/roach88/cteq/internal/dialect"
	"github.com/roach88/cteq/internal/schema"
	"github.com/roach88/cteq/internal/store"
)

// Run executes a scenario against base and returns the result.
//
// Execution flow:
// 1. Register every step, honoring expect_error
// 2. Build the select, if present, against the final view
// 3. Compile it for SQLite and hand it to the dummy driver
// 4. Prepare the SQL against a scratch in-memory SQLite database
// 5. Evaluate assertions
//
// Composition failures are reported in the Result, never as an error.
// The error return is reserved for infrastructure failures.
func Run(ctx context.Context, scenario *Scenario, base schema.Schema) (*Result, error) {
	result := NewResult()
	chain := scenario.Chain()

	c, steps, err := Apply(compose.New(base), chain)
	result.Steps = steps
	result.View = c.View().Names()
	if err != nil {
		result.AddError(err.Error())
	}

	if err == nil && chain.Select != nil {
		if err := compileSelect(ctx, c, chain, base, result); err != nil {
			return nil, err
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// compileSelect builds, compiles, executes and verifies the final statement.
func compileSelect(ctx context.Context, c compose.Composer, chain *Chain, base schema.Schema, result *Result) error {
	stmt, err := Build(c, chain)
	if err != nil {
		result.AddError(fmt.Sprintf("select: %v", err))
		return nil
	}

	id, err := stmt.ID()
	if err != nil {
		return fmt.Errorf("statement id: %w", err)
	}
	result.StatementID = id

	driver := dialect.NewDummyDriver()
	d := dialect.SQLite()
	d.Driver = driver
	if _, err := d.Execute(ctx, stmt); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("execute: %w", ctxErr)
		}
		result.AddError(err.Error())
		return nil
	}
	call := driver.Calls()[0]
	sql, params := call.SQL, call.Params
	result.SQL = sql
	result.Params = params

	if err := store.Verify(ctx, base, sql, params); err != nil {
		result.AddError(fmt.Sprintf("compiled SQL does not prepare: %v", err))
	}
	return nil
}
