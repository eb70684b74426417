package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a composition test: a base schema, a chain of steps (some of
// which may be expected to fail) and assertions over the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the directory of CUE files holding the base tables.
	// Relative paths are resolved against the scenario file's directory.
	Schema string `yaml:"schema"`

	// Steps are registered in order. See Apply for expect_error handling.
	Steps []Step `yaml:"steps"`

	// Select is the optional final query. Without it nothing is compiled.
	Select *QuerySpec `yaml:"select,omitempty"`

	// Assertions validate the outcome.
	// Supported types: view_names, sql_contains, param_count, error_count
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the outcome of a scenario.
type Assertion struct {
	// Type specifies the assertion type:
	// - "view_names": the final view lists exactly Names, in order
	// - "sql_contains": the compiled SQL contains Text
	// - "param_count": the compiled SQL binds Count parameters
	// - "error_count": Count steps failed with their expected error
	Type string `yaml:"type"`

	// Names is the expected view (used by view_names).
	Names []string `yaml:"names,omitempty"`

	// Text is the expected SQL fragment (used by sql_contains).
	Text string `yaml:"text,omitempty"`

	// Count is the expected number (used by param_count and error_count).
	Count *int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertViewNames   = "view_names"
	AssertSQLContains = "sql_contains"
	AssertParamCount  = "param_count"
	AssertErrorCount  = "error_count"
)

// Chain returns the scenario's steps and select as a Chain.
func (s *Scenario) Chain() *Chain {
	return &Chain{Name: s.Name, With: s.Steps, Select: s.Select}
}

// LoadScenario reads and parses a scenario YAML file, resolving the schema
// directory against the file's own directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if info, err := os.Stat(s.Schema); err != nil || !info.IsDir() {
		return fmt.Errorf("schema directory not found: %s", s.Schema)
	}
	if len(s.Steps) == 0 && s.Select == nil {
		return fmt.Errorf("steps or select is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if err := validateSteps(s.Steps); err != nil {
		return err
	}
	if s.Select != nil {
		if err := validateQuery("select", *s.Select); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, s.Select != nil); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, hasSelect bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertViewNames:
		if len(a.Names) == 0 {
			return fmt.Errorf("assertions[%d]: names list is required for view_names", index)
		}
	case AssertSQLContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for sql_contains", index)
		}
		if !hasSelect {
			return fmt.Errorf("assertions[%d]: sql_contains needs a select", index)
		}
	case AssertParamCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for param_count", index)
		}
		if !hasSelect {
			return fmt.Errorf("assertions[%d]: param_count needs a select", index)
		}
	case AssertErrorCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for error_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
