package compose

import (
	"fmt"

	"github.com/roach88/cteq/internal/ir"
	"github.com/roach88/cteq/internal/queryir"
	"github.com/roach88/cteq/internal/schema"
)

// Compiler renders a query for some SQL dialect.
// querysql.SQLCompiler is the implementation shipped with cteq.
type Compiler interface {
	Compile(q queryir.Query) (string, []any, error)
}

// Statement is a finalized chain: every registered CTE plus the final select.
type Statement struct {
	Query queryir.With
	Shape schema.RowShape // Output row shape of the final select
	View  schema.View     // View the final select was checked against
}

// ID returns the content-addressed ID of the statement's query together
// with the base schema it was checked against. Equal chains over equal
// schemas have equal IDs in every process.
func (s Statement) ID() (string, error) {
	schemaHash, err := s.View.Base().Hash()
	if err != nil {
		return "", fmt.Errorf("statement id: %w", err)
	}
	return ir.StatementID(map[string]any{
		"query":  queryir.Describe(s.Query),
		"schema": schemaHash,
	})
}

// CTENames returns the registered CTE names in order.
func (s Statement) CTENames() []string {
	names := make([]string, 0, len(s.Query.CTEs))
	for _, cte := range s.Query.CTEs {
		names = append(names, cte.Name)
	}
	return names
}

// Compile hands the whole chain to c.
func (s Statement) Compile(c Compiler) (string, []any, error) {
	if c == nil {
		return "", nil, fmt.Errorf("compile: no compiler")
	}
	sql, params, err := c.Compile(s.Query)
	if err != nil {
		return "", nil, fmt.Errorf("compile: %w", err)
	}
	return sql, params, nil
}
