package dialect

import (
	"context"
	"fmt"

	"github.com/roach88/cteq/internal/compose"
	"github.com/roach88/cteq/internal/queryir"
	"github.com/roach88/cteq/internal/querysql"
)

// Compiler renders queryir to SQL. *querysql.SQLCompiler implements it.
type Compiler interface {
	Compile(q queryir.Query) (string, []any, error)
}

var _ Compiler = (*querysql.SQLCompiler)(nil)

// Dialect pairs a Compiler with the Driver its output is handed to.
type Dialect struct {
	Name     string
	Compiler Compiler
	Driver   Driver
}

// SQLite returns the SQLite dialect backed by a DummyDriver.
func SQLite() Dialect {
	return Dialect{
		Name:     "sqlite",
		Compiler: querysql.NewSQLCompiler(),
		Driver:   NewDummyDriver(),
	}
}

// Compile renders stmt with the dialect's compiler.
func (d Dialect) Compile(stmt compose.Statement) (string, []any, error) {
	if d.Compiler == nil {
		return "", nil, fmt.Errorf("dialect %s: no compiler", d.Name)
	}
	return stmt.Compile(d.Compiler)
}

// Execute compiles stmt and hands the SQL to the driver.
func (d Dialect) Execute(ctx context.Context, stmt compose.Statement) (Result, error) {
	if d.Driver == nil {
		return Result{}, fmt.Errorf("dialect %s: no driver", d.Name)
	}
	sql, params, err := d.Compile(stmt)
	if err != nil {
		return Result{}, err
	}
	res, err := d.Driver.Execute(ctx, sql, params)
	if err != nil {
		return Result{}, fmt.Errorf("dialect %s: execute: %w", d.Name, err)
	}
	return res, nil
}
