package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the compiled SQL to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	SQL      string // Compiled SQL for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.SQL != "" {
		fmt.Fprintf(&buf, "\nCompiled SQL:\n%s\n", e.SQL)
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns the
// failure messages, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertViewNames:
		return assertViewNames(result, a)
	case AssertSQLContains:
		return assertSQLContains(result, a)
	case AssertParamCount:
		return assertCount(a.Type, len(result.Params), a, result.SQL)
	case AssertErrorCount:
		return assertCount(a.Type, result.ExpectedErrors(), a, result.SQL)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertViewNames(result *Result, a Assertion) error {
	if slices.Equal(result.View, a.Names) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%v", a.Names),
		Actual:   fmt.Sprintf("%v", result.View),
	}
}

func assertSQLContains(result *Result, a Assertion) error {
	if result.SQL != "" && strings.Contains(result.SQL, a.Text) {
		return nil
	}
	actual := "not found in compiled SQL"
	if result.SQL == "" {
		actual = "no SQL was compiled"
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("SQL containing %q", a.Text),
		Actual:   actual,
		SQL:      result.SQL,
	}
}

func assertCount(typ string, got int, a Assertion, sql string) error {
	if a.Count == nil {
		return fmt.Errorf("%s: count is required", typ)
	}
	if got == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("count %d", *a.Count),
		Actual:   fmt.Sprintf("count %d", got),
		SQL:      sql,
	}
}
