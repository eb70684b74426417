package harness

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every step met its expectation, the
	// select (if any) compiled and prepared, and every assertion held.
	Pass bool `json:"pass"`

	// Steps holds one entry per registered step, in order.
	Steps []StepResult `json:"steps"`

	// View is the final Extended Schema, base tables first.
	View []string `json:"view"`

	// SQL and Params are the compiled statement. Empty without a select.
	SQL    string `json:"sql,omitempty"`
	Params []any  `json:"params,omitempty"`

	// StatementID is the content hash of the finalized statement.
	StatementID string `json:"statement_id,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		View:   []string{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// ExpectedErrors counts the steps that failed with their expected code.
func (r *Result) ExpectedErrors() int {
	n := 0
	for _, s := range r.Steps {
		if !s.OK && s.Expected != "" && s.Code == s.Expected {
			n++
		}
	}
	return n
}
