package queryir

import (
	"github.com/roach88/cteq/internal/ir"
	"github.com/roach88/cteq/internal/schema"
)

// Check verifies that q only references names and columns present in view
// and returns the row shape q produces.
//
// Check is a pure function. Every failure is a *schema.Error with code
// SCHEMA_MISMATCH naming the offending reference.
func Check(q Select, view schema.View) (schema.RowShape, error) {
	c := &checker{view: view}
	return c.checkSelect(q)
}

// source is one FROM or JOIN entry of the Select being checked.
type source struct {
	name  string
	shape schema.RowShape
}

// checker accumulates the sources of one Select during traversal.
type checker struct {
	view    schema.View
	sources []source
}

func (c *checker) checkSelect(q Select) (schema.RowShape, error) {
	if q.From == "" {
		return nil, schema.NewMismatchError("", "select has no source table")
	}
	if err := c.addSource(q.From); err != nil {
		return nil, err
	}

	for _, j := range q.Joins {
		if err := c.checkJoin(j); err != nil {
			return nil, err
		}
	}

	if q.Filter != nil {
		if err := c.checkPredicate(q.Filter); err != nil {
			return nil, err
		}
	}

	return c.outputShape(q.Columns)
}

// addSource resolves name against the view and appends it to the sources.
func (c *checker) addSource(name string) error {
	shape, ok := c.view.Lookup(name)
	if !ok {
		return schema.NewMismatchError(name, "table or sub-query is not present in the schema view")
	}
	for _, s := range c.sources {
		if s.name == name {
			return schema.NewMismatchError(name, "source appears twice; self-joins are not supported")
		}
	}
	c.sources = append(c.sources, source{name: name, shape: shape})
	return nil
}

func (c *checker) checkJoin(j Join) error {
	if j.Table == "" {
		return schema.NewMismatchError("", "join has no table")
	}

	// Left resolves against everything joined so far, before Table is added.
	leftType, err := c.resolve(j.Left)
	if err != nil {
		return err
	}
	if err := c.addSource(j.Table); err != nil {
		return err
	}

	right := j.Right
	if right.Source == "" {
		right.Source = j.Table
	}
	if right.Source != j.Table {
		return schema.NewMismatchError(right.Source, "join right side must reference the joined table %q", j.Table)
	}
	rightType, err := c.resolve(right)
	if err != nil {
		return err
	}

	if leftType != rightType {
		return schema.NewMismatchError(j.Table, "join compares %s (%s) with %s (%s)",
			j.Left, leftType, right, rightType)
	}
	return nil
}

// resolve finds the type of col among the current sources.
func (c *checker) resolve(col Column) (schema.ColumnType, error) {
	if col.Name == "" {
		return "", schema.NewMismatchError("", "column reference has no name")
	}

	if col.Source != "" {
		for _, s := range c.sources {
			if s.name != col.Source {
				continue
			}
			typ, ok := s.shape[col.Name]
			if !ok {
				return "", schema.NewMismatchError(col.Source+"."+col.Name, "column is not present in %q", col.Source)
			}
			return typ, nil
		}
		return "", schema.NewMismatchError(col.Source, "not a source of this query")
	}

	var (
		found schema.ColumnType
		hits  int
	)
	for _, s := range c.sources {
		if typ, ok := s.shape[col.Name]; ok {
			found = typ
			hits++
		}
	}
	switch hits {
	case 0:
		return "", schema.NewMismatchError(col.Name, "column is not present in any source")
	case 1:
		return found, nil
	default:
		return "", schema.NewMismatchError(col.Name, "column is ambiguous; qualify it with a source")
	}
}

func (c *checker) checkPredicate(p Predicate) error {
	switch pred := p.(type) {
	case Compare:
		return c.checkCompare(pred)
	case *Compare:
		return c.checkCompare(*pred)
	case IsNull:
		_, err := c.resolve(pred.Column)
		return err
	case *IsNull:
		_, err := c.resolve(pred.Column)
		return err
	case And:
		return c.checkPredicates(pred.Predicates)
	case *And:
		return c.checkPredicates(pred.Predicates)
	case Or:
		return c.checkPredicates(pred.Predicates)
	case *Or:
		return c.checkPredicates(pred.Predicates)
	default:
		return schema.NewMismatchError("", "unsupported predicate type %T", p)
	}
}

func (c *checker) checkPredicates(preds []Predicate) error {
	for _, p := range preds {
		if p == nil {
			continue
		}
		if err := c.checkPredicate(p); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) checkCompare(cmp Compare) error {
	typ, err := c.resolve(cmp.Column)
	if err != nil {
		return err
	}

	if _, err := ParseOp(string(cmp.Op)); err != nil {
		return schema.NewMismatchError(cmp.Column.String(), "%v", err)
	}

	switch cmp.Value.(type) {
	case nil:
		return schema.NewMismatchError(cmp.Column.String(), "comparison has no value")
	case ir.Null:
		return schema.NewMismatchError(cmp.Column.String(), "comparison with NULL; use an IS NULL predicate")
	}

	if cmp.Op == OpLike && typ != schema.TypeString {
		return schema.NewMismatchError(cmp.Column.String(), "like requires a string column, got %s", typ)
	}
	if !typ.Accepts(cmp.Value) {
		return schema.NewMismatchError(cmp.Column.String(), "column of type %s compared with %s literal",
			typ, ir.Kind(cmp.Value))
	}
	return nil
}

// outputShape computes the projection's row shape.
func (c *checker) outputShape(cols []Column) (schema.RowShape, error) {
	out := schema.RowShape{}

	if cols == nil {
		for _, s := range c.sources {
			for name, typ := range s.shape {
				if _, dup := out[name]; dup {
					return nil, schema.NewMismatchError(name, "output column is ambiguous; select columns explicitly")
				}
				out[name] = typ
			}
		}
		return out, nil
	}

	if len(cols) == 0 {
		return nil, schema.NewMismatchError("", "select has an empty column list")
	}

	for _, col := range cols {
		typ, err := c.resolve(col)
		if err != nil {
			return nil, err
		}
		name := col.OutputName()
		if col.Alias != "" {
			if err := schema.ValidateName("alias", col.Alias); err != nil {
				return nil, err
			}
		}
		if _, dup := out[name]; dup {
			return nil, schema.NewMismatchError(name, "output column appears twice")
		}
		out[name] = typ
	}
	return out, nil
}

// References returns the tables and CTEs q reads, in first-use order.
func References(q Select) []string {
	seen := make(map[string]bool, len(q.Joins)+1)
	var refs []string
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		refs = append(refs, name)
	}

	add(q.From)
	for _, j := range q.Joins {
		add(j.Table)
	}
	return refs
}
