package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cteq/internal/compose"
	"github.com/roach88/cteq/internal/ir"
	"github.com/roach88/cteq/internal/queryir"
	"github.com/roach88/cteq/internal/schema"
)

// Chain is a declarative CTE chain: the sub-queries to register, in order,
// and the final select.
type Chain struct {
	// Name identifies the chain in the catalog and in output.
	Name string `yaml:"name"`

	// With lists the sub-queries to register, in registration order.
	With []Step `yaml:"with"`

	// Select is the final query, checked against the full view.
	Select *QuerySpec `yaml:"select"`
}

// Step registers one named sub-query.
type Step struct {
	// Name is the CTE name. Left empty to exercise EMPTY_NAME.
	Name string `yaml:"name"`

	// Query is the sub-query definition.
	Query QuerySpec `yaml:"query"`

	// ExpectError is the error code this step must fail with
	// (SCHEMA_CONFLICT, SCHEMA_MISMATCH, EMPTY_NAME or INVALID_NAME).
	// Only meaningful in scenarios.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// QuerySpec is a declarative select.
type QuerySpec struct {
	From    string      `yaml:"from"`
	Joins   []JoinSpec  `yaml:"joins,omitempty"`
	Where   []WhereSpec `yaml:"where,omitempty"`
	Columns []string    `yaml:"columns,omitempty"`
}

// JoinSpec is an inner equi-join.
type JoinSpec struct {
	Table string `yaml:"table"`
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
}

// WhereSpec is one filter term. Exactly one of Value, Null (is_null) or Any
// is used:
//
//	{column: name, op: "=", value: Charles}
//	{column: dog_id, is_null: true}
//	{any: [{column: name, value: Charles}, {column: name, value: Paul}]}
//
// Terms of a QuerySpec are combined with AND; Any is an OR group.
type WhereSpec struct {
	Column string      `yaml:"column,omitempty"`
	Op     string      `yaml:"op,omitempty"` // Defaults to "="
	Value  any         `yaml:"value,omitempty"`
	Null   *bool       `yaml:"is_null,omitempty"`
	Any    []WhereSpec `yaml:"any,omitempty"`
}

// Definition converts q to a compose.Definition.
//
// Nothing is resolved here. Table and column names are checked only when
// the composer evaluates the definition against its current view.
func (q QuerySpec) Definition() compose.Definition {
	return func(c compose.Creator) *compose.SelectBuilder {
		b := c.SelectFrom(q.From)
		for _, j := range q.Joins {
			b.InnerJoin(j.Table, j.Left, j.Right)
		}
		for _, w := range q.Where {
			switch {
			case len(w.Any) > 0:
				p, err := w.predicate()
				if err != nil {
					b.Fail(err)
					continue
				}
				b.WherePredicate(p)
			case w.Null != nil && *w.Null:
				b.WhereNull(w.Column)
			case w.Null != nil:
				b.WhereNotNull(w.Column)
			default:
				b.Where(w.Column, w.op(), w.Value)
			}
		}
		if len(q.Columns) > 0 {
			b.Select(q.Columns...)
		}
		return b
	}
}

func (w WhereSpec) op() string {
	if w.Op == "" {
		return "="
	}
	return w.Op
}

// predicate converts a term to a queryir predicate.
func (w WhereSpec) predicate() (queryir.Predicate, error) {
	if len(w.Any) > 0 {
		var or queryir.Or
		for _, term := range w.Any {
			p, err := term.predicate()
			if err != nil {
				return nil, err
			}
			or.Predicates = append(or.Predicates, p)
		}
		return or, nil
	}

	col, err := compose.ParseColumn(w.Column)
	if err != nil {
		return nil, err
	}
	if w.Null != nil {
		return queryir.IsNull{Column: col, Negate: !*w.Null}, nil
	}

	op, err := queryir.ParseOp(w.op())
	if err != nil {
		return nil, schema.NewMismatchError(w.Column, "%v", err)
	}
	value, err := ir.FromAny(w.Value)
	if err != nil {
		return nil, schema.NewMismatchError(w.Column, "%v", err)
	}
	return queryir.Compare{Column: col, Op: op, Value: value}, nil
}

// Deferred returns step i as a compose.Deferred. Chain definitions are
// always late-bound: the composer invokes them against the extended view.
func (c *Chain) Deferred(i int) compose.Deferred {
	q := c.With[i].Query
	return func() compose.Definition {
		return q.Definition()
	}
}

// StepResult is the outcome of registering one step.
type StepResult struct {
	Name     string `json:"name"`
	OK       bool   `json:"ok"`
	Code     string `json:"code,omitempty"`     // Error code when the step failed
	Error    string `json:"error,omitempty"`    // Error message when the step failed
	Expected string `json:"expected,omitempty"` // Expected error code, if any
}

// Apply registers every step of chain onto c.
//
// A step that fails with its expected error code is recorded and skipped:
// the composer stays as it was, so nothing is overwritten. Any other outcome
// that differs from the expectation stops the chain and returns an error
// together with the composer and results up to that point.
func Apply(c compose.Composer, chain *Chain) (compose.Composer, []StepResult, error) {
	results := make([]StepResult, 0, len(chain.With))
	for i, step := range chain.With {
		res := StepResult{Name: step.Name, Expected: step.ExpectError}

		next, err := c.WithDeferred(step.Name, chain.Deferred(i))
		if err != nil {
			code, _ := schema.CodeOf(err)
			res.Code = string(code)
			res.Error = err.Error()
			results = append(results, res)

			if step.ExpectError != "" && string(code) == step.ExpectError {
				continue
			}
			return c, results, fmt.Errorf("with[%d] %q: %w", i, step.Name, err)
		}

		res.OK = true
		results = append(results, res)
		if step.ExpectError != "" {
			return c, results, fmt.Errorf("with[%d] %q: expected %s, registration succeeded", i, step.Name, step.ExpectError)
		}
		c = next
	}
	return c, results, nil
}

// Build finalizes c with the chain's select.
func Build(c compose.Composer, chain *Chain) (compose.Statement, error) {
	if chain.Select == nil {
		return compose.Statement{}, fmt.Errorf("chain %q has no select", chain.Name)
	}
	return c.Build(chain.Select.Definition())
}

// LoadChain reads and parses a chain YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadChain(path string) (*Chain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain file: %w", err)
	}
	return ParseChain(data)
}

// ParseChain parses chain YAML.
func ParseChain(data []byte) (*Chain, error) {
	var chain Chain
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&chain); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateChain(&chain); err != nil {
		return nil, fmt.Errorf("invalid chain: %w", err)
	}
	return &chain, nil
}

func validateChain(c *Chain) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Select == nil {
		return fmt.Errorf("select is required")
	}
	if err := validateSteps(c.With); err != nil {
		return err
	}
	if err := validateQuery("select", *c.Select); err != nil {
		return err
	}
	return nil
}

func validateSteps(steps []Step) error {
	for i, step := range steps {
		if err := validateQuery(fmt.Sprintf("with[%d]", i), step.Query); err != nil {
			return err
		}
		switch schema.ErrorCode(step.ExpectError) {
		case "", schema.ErrCodeConflict, schema.ErrCodeMismatch, schema.ErrCodeEmptyName, schema.ErrCodeInvalidName:
		default:
			return fmt.Errorf("with[%d]: unknown expect_error %q", i, step.ExpectError)
		}
	}
	return nil
}

// validateQuery checks structure only. Names are resolved by the composer.
func validateQuery(where string, q QuerySpec) error {
	if q.From == "" {
		return fmt.Errorf("%s: from is required", where)
	}
	for i, j := range q.Joins {
		if j.Table == "" || j.Left == "" || j.Right == "" {
			return fmt.Errorf("%s.joins[%d]: table, left and right are required", where, i)
		}
	}
	for i, w := range q.Where {
		if err := validateWhere(fmt.Sprintf("%s.where[%d]", where, i), w); err != nil {
			return err
		}
	}
	return nil
}

func validateWhere(where string, w WhereSpec) error {
	if len(w.Any) > 0 {
		if w.Column != "" || w.Value != nil || w.Null != nil {
			return fmt.Errorf("%s: any cannot be combined with column, value or is_null", where)
		}
		for i, term := range w.Any {
			if err := validateWhere(fmt.Sprintf("%s.any[%d]", where, i), term); err != nil {
				return err
			}
		}
		return nil
	}
	if w.Column == "" {
		return fmt.Errorf("%s: column is required", where)
	}
	if w.Null != nil && (w.Value != nil || w.Op != "") {
		return fmt.Errorf("%s: is_null cannot be combined with op or value", where)
	}
	if w.Null == nil && w.Value == nil {
		return fmt.Errorf("%s: value or is_null is required", where)
	}
	return nil
}
