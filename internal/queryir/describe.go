package queryir

import (
	"fmt"

	"github.com/roach88/cteq/internal/ir"
	"github.com/roach88/cteq/internal/schema"
)

// CheckWith checks every CTE of w in order against a view that grows by one
// entry per CTE, then checks the body against the final view.
//
// It returns the body's row shape and the final view.
func CheckWith(w With, base schema.View) (schema.RowShape, schema.View, error) {
	view := base
	for i, cte := range w.CTEs {
		if err := view.CanRegister(cte.Name); err != nil {
			return nil, schema.View{}, err
		}
		shape, err := Check(cte.Query, view)
		if err != nil {
			return nil, schema.View{}, fmt.Errorf("cte[%d] %s: %w", i, cte.Name, err)
		}
		view, err = view.Extend(cte.Name, shape)
		if err != nil {
			return nil, schema.View{}, err
		}
	}

	shape, err := Check(w.Body, view)
	if err != nil {
		return nil, schema.View{}, fmt.Errorf("body: %w", err)
	}
	return shape, view, nil
}

// Describe returns q as a tree of maps, slices and scalars accepted by
// ir.MarshalCanonical. Absent optional parts are omitted rather than null.
func Describe(q Query) map[string]any {
	switch query := q.(type) {
	case Select:
		return describeSelect(query)
	case *Select:
		return describeSelect(*query)
	case With:
		return describeWith(query)
	case *With:
		return describeWith(*query)
	default:
		return map[string]any{"type": fmt.Sprintf("%T", q)}
	}
}

func describeWith(w With) map[string]any {
	ctes := make([]any, 0, len(w.CTEs))
	for _, cte := range w.CTEs {
		ctes = append(ctes, map[string]any{
			"name":  cte.Name,
			"query": describeSelect(cte.Query),
		})
	}
	return map[string]any{
		"type": "with",
		"ctes": ctes,
		"body": describeSelect(w.Body),
	}
}

func describeSelect(s Select) map[string]any {
	desc := map[string]any{
		"type": "select",
		"from": s.From,
	}
	if len(s.Joins) > 0 {
		joins := make([]any, 0, len(s.Joins))
		for _, j := range s.Joins {
			joins = append(joins, map[string]any{
				"table": j.Table,
				"left":  describeColumn(j.Left),
				"right": describeColumn(j.Right),
			})
		}
		desc["joins"] = joins
	}
	if s.Filter != nil {
		desc["filter"] = describePredicate(s.Filter)
	}
	if s.Columns != nil {
		cols := make([]any, 0, len(s.Columns))
		for _, c := range s.Columns {
			cols = append(cols, describeColumn(c))
		}
		desc["columns"] = cols
	}
	return desc
}

func describeColumn(c Column) map[string]any {
	desc := map[string]any{"name": c.Name}
	if c.Source != "" {
		desc["source"] = c.Source
	}
	if c.Alias != "" {
		desc["alias"] = c.Alias
	}
	return desc
}

func describePredicate(p Predicate) map[string]any {
	switch pred := p.(type) {
	case Compare:
		return describeCompare(pred)
	case *Compare:
		return describeCompare(*pred)
	case IsNull:
		return map[string]any{"type": "is_null", "column": describeColumn(pred.Column), "negate": pred.Negate}
	case *IsNull:
		return map[string]any{"type": "is_null", "column": describeColumn(pred.Column), "negate": pred.Negate}
	case And:
		return map[string]any{"type": "and", "predicates": describePredicates(pred.Predicates)}
	case *And:
		return map[string]any{"type": "and", "predicates": describePredicates(pred.Predicates)}
	case Or:
		return map[string]any{"type": "or", "predicates": describePredicates(pred.Predicates)}
	case *Or:
		return map[string]any{"type": "or", "predicates": describePredicates(pred.Predicates)}
	default:
		return map[string]any{"type": fmt.Sprintf("%T", p)}
	}
}

func describeCompare(c Compare) map[string]any {
	desc := map[string]any{
		"type":   "compare",
		"column": describeColumn(c.Column),
		"op":     string(c.Op),
	}
	// Null literals never pass Check; omit them so Describe stays total.
	switch c.Value.(type) {
	case nil, ir.Null:
	default:
		desc["value"] = c.Value
	}
	return desc
}

func describePredicates(preds []Predicate) []any {
	out := make([]any, 0, len(preds))
	for _, p := range preds {
		if p == nil {
			continue
		}
		out = append(out, describePredicate(p))
	}
	return out
}
