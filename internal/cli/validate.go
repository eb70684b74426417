package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cteq/internal/dialect"
	"github.com/roach88/cteq/internal/harness"
	"github.com/roach88/cteq/internal/schema"
	"github.com/roach88/cteq/internal/store"
)

// ValidationResult holds the outcome of checking a chain.
type ValidationResult struct {
	Valid   bool                 `json:"valid"`
	Steps   []harness.StepResult `json:"steps"`
	View    []string             `json:"view"`
	Columns []string             `json:"columns,omitempty"`
	Errors  []CLIError           `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema-dir> <chain.yaml>",
		Short: "Check a chain against a schema without printing SQL",
		Long: `Register every sub-query of a chain and check the final select.

Reports each step, the resulting Extended Schema and the output columns.
Faster feedback than compile while editing a chain.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runValidate(ctx context.Context, opts *RootOptions, schemaDir, chainPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	base, chain, err := loadInputs(formatter, schemaDir, chainPath)
	if err != nil {
		return err
	}

	result := validateChain(ctx, formatter, base, chain)
	return outputValidation(formatter, result)
}

// validateChain applies, builds and compiles the chain, recording every
// failure instead of stopping at the first command error.
func validateChain(ctx context.Context, formatter *OutputFormatter, base schema.Schema, chain *harness.Chain) *ValidationResult {
	result := &ValidationResult{Valid: true}

	c, steps, err := applyChain(formatter, base, chain)
	result.Steps = steps
	result.View = c.View().Names()
	if err != nil {
		result.addError(compositionCode(err), err.Error())
		return result
	}

	stmt, err := harness.Build(c, chain)
	if err != nil {
		result.addError(compositionCode(err), fmt.Sprintf("select: %v", err))
		return result
	}
	result.Columns = stmt.Shape.Columns()

	sqlText, params, err := dialect.SQLite().Compile(stmt)
	if err != nil {
		result.addError(ErrCodeCompileSQL, err.Error())
		return result
	}
	if err := store.Verify(ctx, base, sqlText, params); err != nil {
		result.addError(ErrCodeVerifySQL, fmt.Sprintf("compiled SQL does not prepare: %v", err))
	}
	return result
}

func (r *ValidationResult) addError(code, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, CLIError{Code: code, Message: message})
}

// outputValidation prints the result. An invalid chain exits with code 1.
func outputValidation(formatter *OutputFormatter, result *ValidationResult) error {
	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			resp.Status = "error"
			resp.Error = &result.Errors[0]
		}
		if err := formatter.encode(resp); err != nil {
			return err
		}
	} else {
		outputValidationText(formatter, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return nil
}

func outputValidationText(formatter *OutputFormatter, result *ValidationResult) {
	w := formatter.Writer
	for _, s := range result.Steps {
		switch {
		case s.OK:
			fmt.Fprintf(w, "✓ %s\n", s.Name)
		case s.Expected != "" && s.Code == s.Expected:
			fmt.Fprintf(w, "✓ %s (expected %s)\n", s.Name, s.Code)
		default:
			fmt.Fprintf(w, "✗ %s\n", s.Name)
		}
	}
	fmt.Fprintf(w, "\nView: %s\n", strings.Join(result.View, ", "))
	if len(result.Columns) > 0 {
		fmt.Fprintf(w, "Columns: %s\n", strings.Join(result.Columns, ", "))
	}

	if result.Valid {
		fmt.Fprintln(w, "\n✓ Chain is valid")
		return
	}
	fmt.Fprintln(w, "\n✗ Validation failed")
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s: %s\n", e.Code, e.Message)
	}
}
