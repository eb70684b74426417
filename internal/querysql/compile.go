package querysql

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/cteq/internal/ir"
	"github.com/roach88/cteq/internal/queryir"
)

// SQLCompiler compiles queryir to parameterized SQL for SQLite.
//
// CRITICAL: All values are parameterized with ? placeholders, never
// interpolated into the SQL text.
//
// No ORDER BY is emitted. CTE bodies must stay order-free, and callers that
// need an order add it to the final select themselves.
//
// The zero value is ready to use.
type SQLCompiler struct {
	// Indent prefixes each line of a CTE body. Empty means four spaces.
	Indent string
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a query to SQL and its positional parameters.
//
// A With renders as:
//
//	WITH a AS (
//	    <select a>
//	),
//	b AS (
//	    <select b>
//	)
//	<body>
//
// Parameters of every CTE come first, in registration order, followed by the
// body's.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	case queryir.With:
		return c.compileWith(query)
	case *queryir.With:
		return c.compileWith(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileWith(w queryir.With) (string, []any, error) {
	body, bodyParams, err := c.compileSelect(w.Body)
	if err != nil {
		return "", nil, fmt.Errorf("compile body: %w", err)
	}
	if len(w.CTEs) == 0 {
		return body, bodyParams, nil
	}

	indent := c.Indent
	if indent == "" {
		indent = "    "
	}

	parts := make([]string, 0, len(w.CTEs))
	var params []any
	for i, cte := range w.CTEs {
		if cte.Name == "" {
			return "", nil, fmt.Errorf("cte[%d]: empty name", i)
		}
		sql, args, err := c.compileSelect(cte.Query)
		if err != nil {
			return "", nil, fmt.Errorf("compile cte %s: %w", cte.Name, err)
		}
		parts = append(parts, cte.Name+" AS (\n"+indentLines(sql, indent)+"\n)")
		params = append(params, args...)
	}

	var sb strings.Builder
	sb.WriteString("WITH ")
	sb.WriteString(strings.Join(parts, ",\n"))
	sb.WriteString("\n")
	sb.WriteString(body)

	params = append(params, bodyParams...)
	if params == nil {
		params = []any{}
	}
	return sb.String(), params, nil
}

// compileSelect renders one Select through squirrel.
func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	if q.From == "" {
		return "", nil, fmt.Errorf("select has no source table")
	}

	builder := sq.Select(selectColumns(q)...).
		From(q.From).
		PlaceholderFormat(sq.Question)

	for _, j := range q.Joins {
		if j.Table == "" {
			return "", nil, fmt.Errorf("join has no table")
		}
		right := j.Right
		if right.Source == "" {
			right.Source = j.Table
		}
		builder = builder.InnerJoin(fmt.Sprintf("%s ON %s = %s", j.Table, columnRef(j.Left), columnRef(right)))
	}

	conds, err := whereParts(q.Filter)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	for _, cond := range conds {
		builder = builder.Where(cond)
	}

	sql, params, err := builder.ToSql()
	if err != nil {
		return "", nil, err
	}
	if params == nil {
		params = []any{}
	}
	return sql, params, nil
}

// selectColumns renders the projection. A nil column list is "*" for a
// single source and "<source>.*" per source once joins are present.
func selectColumns(q queryir.Select) []string {
	if q.Columns == nil {
		if len(q.Joins) == 0 {
			return []string{"*"}
		}
		cols := []string{q.From + ".*"}
		for _, j := range q.Joins {
			cols = append(cols, j.Table+".*")
		}
		return cols
	}

	cols := make([]string, 0, len(q.Columns))
	for _, col := range q.Columns {
		ref := columnRef(col)
		if col.Alias != "" && col.Alias != col.Name {
			ref += " AS " + col.Alias
		}
		cols = append(cols, ref)
	}
	return cols
}

func columnRef(col queryir.Column) string {
	if col.Source == "" {
		return col.Name
	}
	return col.Source + "." + col.Name
}

// whereParts flattens a top-level And so its members render as separate
// WHERE terms joined by AND without parentheses.
func whereParts(p queryir.Predicate) ([]sq.Sqlizer, error) {
	var members []queryir.Predicate
	switch pred := p.(type) {
	case nil:
		return nil, nil
	case queryir.And:
		members = pred.Predicates
	case *queryir.And:
		members = pred.Predicates
	default:
		members = []queryir.Predicate{p}
	}

	parts := make([]sq.Sqlizer, 0, len(members))
	for _, m := range members {
		if m == nil {
			continue
		}
		part, err := compilePredicate(m)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, nil
}

// compilePredicate converts a predicate to a squirrel expression.
// CRITICAL: Values are NEVER interpolated - always parameterized.
func compilePredicate(p queryir.Predicate) (sq.Sqlizer, error) {
	switch pred := p.(type) {
	case queryir.Compare:
		return compileCompare(pred)
	case *queryir.Compare:
		return compileCompare(*pred)
	case queryir.IsNull:
		return compileIsNull(pred), nil
	case *queryir.IsNull:
		return compileIsNull(*pred), nil
	case queryir.And:
		parts, err := compilePredicates(pred.Predicates)
		return sq.And(parts), err
	case *queryir.And:
		parts, err := compilePredicates(pred.Predicates)
		return sq.And(parts), err
	case queryir.Or:
		parts, err := compilePredicates(pred.Predicates)
		return sq.Or(parts), err
	case *queryir.Or:
		parts, err := compilePredicates(pred.Predicates)
		return sq.Or(parts), err
	default:
		return nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compilePredicates(preds []queryir.Predicate) ([]sq.Sqlizer, error) {
	parts := make([]sq.Sqlizer, 0, len(preds))
	for _, p := range preds {
		if p == nil {
			continue
		}
		part, err := compilePredicate(p)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, nil
}

func compileCompare(cmp queryir.Compare) (sq.Sqlizer, error) {
	if _, isNull := cmp.Value.(ir.Null); isNull {
		return nil, fmt.Errorf("%s: comparison with NULL", columnRef(cmp.Column))
	}
	param, err := ir.Native(cmp.Value)
	if err != nil {
		return nil, fmt.Errorf("convert value: %w", err)
	}

	ref := columnRef(cmp.Column)
	switch cmp.Op {
	case queryir.OpEq:
		return sq.Eq{ref: param}, nil
	case queryir.OpNe:
		return sq.NotEq{ref: param}, nil
	case queryir.OpLt:
		return sq.Lt{ref: param}, nil
	case queryir.OpLe:
		return sq.LtOrEq{ref: param}, nil
	case queryir.OpGt:
		return sq.Gt{ref: param}, nil
	case queryir.OpGe:
		return sq.GtOrEq{ref: param}, nil
	case queryir.OpLike:
		return sq.Like{ref: param}, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q", cmp.Op)
	}
}

func compileIsNull(p queryir.IsNull) sq.Sqlizer {
	ref := columnRef(p.Column)
	if p.Negate {
		return sq.NotEq{ref: nil}
	}
	return sq.Eq{ref: nil}
}

func indentLines(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
