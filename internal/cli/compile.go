package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cteq/internal/compose"
	"github.com/roach88/cteq/internal/dialect"
	"github.com/roach88/cteq/internal/harness"
	"github.com/roach88/cteq/internal/schema"
	"github.com/roach88/cteq/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // write the SQL to this file
	Save   bool   // record the statement in the catalog
}

// CompileResult is the compiled statement of a chain.
type CompileResult struct {
	Name        string   `json:"name"`
	StatementID string   `json:"statement_id"`
	CTENames    []string `json:"cte_names"`
	Columns     []string `json:"columns"`
	SQL         string   `json:"sql"`
	Params      []any    `json:"params"`
	Revision    string   `json:"revision,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <schema-dir> <chain.yaml>",
		Short: "Compose a chain and compile it to SQL",
		Long: `Register every sub-query of a chain against the CUE base schema,
build the final select and compile the statement to SQLite SQL.

The compiled SQL is prepared against an empty in-memory copy of the base
tables before it is printed. With --save the statement is recorded in the
catalog, keyed by its content hash.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the compiled SQL to a file")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "record the statement in the catalog")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, schemaDir, chainPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	base, chain, err := loadInputs(formatter, schemaDir, chainPath)
	if err != nil {
		return err
	}

	c, _, err := applyChain(formatter, base, chain)
	if err != nil {
		return fail(formatter, ExitFailure, compositionCode(err), err.Error())
	}

	stmt, err := harness.Build(c, chain)
	if err != nil {
		return fail(formatter, ExitFailure, compositionCode(err), fmt.Sprintf("select: %v", err))
	}

	sqlText, params, err := dialect.SQLite().Compile(stmt)
	if err != nil {
		return fail(formatter, ExitFailure, ErrCodeCompileSQL, err.Error())
	}
	if err := store.Verify(ctx, base, sqlText, params); err != nil {
		return fail(formatter, ExitFailure, ErrCodeVerifySQL, fmt.Sprintf("compiled SQL does not prepare: %v", err))
	}

	id, err := stmt.ID()
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeGeneric, err.Error())
	}
	result := &CompileResult{
		Name:        chain.Name,
		StatementID: id,
		CTENames:    stmt.CTENames(),
		Columns:     stmt.Shape.Columns(),
		SQL:         sqlText,
		Params:      params,
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(sqlText+"\n"), 0644); err != nil {
			return fail(formatter, ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
		formatter.VerboseLog("Wrote SQL to %s", opts.Output)
	}

	if opts.Save {
		rev, err := saveStatement(ctx, opts.Catalog, chain.Name, stmt, sqlText, params)
		if err != nil {
			return fail(formatter, ExitCommandError, ErrCodeCatalog, err.Error())
		}
		result.Revision = rev
		formatter.VerboseLog("Saved %s to %s", id, opts.Catalog)
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// loadInputs reads the base schema and the chain file.
func loadInputs(formatter *OutputFormatter, schemaDir, chainPath string) (schema.Schema, *harness.Chain, error) {
	loaded, err := LoadSchema(schemaDir)
	if err != nil {
		return schema.Schema{}, nil, outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s, %d table(s)", loaded.FileCount, schemaDir, loaded.Schema.Len())

	chain, err := harness.LoadChain(chainPath)
	if err != nil {
		return schema.Schema{}, nil, fail(formatter, ExitCommandError, ErrCodeChainFile, err.Error())
	}
	return loaded.Schema, chain, nil
}

// applyChain registers the chain's steps, logging each outcome.
func applyChain(formatter *OutputFormatter, base schema.Schema, chain *harness.Chain) (compose.Composer, []harness.StepResult, error) {
	c, steps, err := harness.Apply(compose.New(base), chain)
	for _, s := range steps {
		if s.OK {
			formatter.VerboseLog("Registered %s", s.Name)
		} else {
			formatter.Logger().Debug().Str("cte", s.Name).Str("code", s.Code).Msg(s.Error)
		}
	}
	return c, steps, err
}

// saveStatement records the statement in the catalog and returns its revision.
func saveStatement(ctx context.Context, path, name string, stmt compose.Statement, sqlText string, params []any) (string, error) {
	s, err := store.Open(path)
	if err != nil {
		return "", fmt.Errorf("open catalog: %w", err)
	}
	defer s.Close()

	entry, err := store.NewEntry(name, stmt, sqlText, params)
	if err != nil {
		return "", err
	}
	saved, err := s.Save(ctx, entry)
	if err != nil {
		return "", err
	}
	return saved.Revision, nil
}

// outputCompileSuccess outputs the compiled statement.
func outputCompileSuccess(formatter *OutputFormatter, result *CompileResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %s (%d sub-query(s))\n\n", result.Name, len(result.CTENames))
	fmt.Fprintf(w, "Statement: %s\n", result.StatementID)
	if len(result.CTENames) > 0 {
		fmt.Fprintf(w, "With:      %s\n", strings.Join(result.CTENames, ", "))
	}
	fmt.Fprintf(w, "Columns:   %s\n", strings.Join(result.Columns, ", "))
	fmt.Fprintf(w, "Params:    %v\n", result.Params)
	if result.Revision != "" {
		fmt.Fprintf(w, "Revision:  %s\n", result.Revision)
	}
	fmt.Fprintf(w, "\n%s\n", result.SQL)
	if outputFile != "" {
		fmt.Fprintf(w, "\nWrote SQL to %s\n", outputFile)
	}
	return nil
}

// outputLoadError reports a schema loading failure (exit code 2).
func outputLoadError(formatter *OutputFormatter, err error) error {
	if loadErr, ok := err.(*LoadError); ok {
		if loadErr.Pos.IsValid() && formatter.Format != "json" {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
		}
		return fail(formatter, ExitCommandError, loadErr.Code, loadErr.Message)
	}
	return fail(formatter, ExitCommandError, ErrCodeGeneric, err.Error())
}

// fail outputs an error and returns it with the given exit code.
func fail(formatter *OutputFormatter, exit int, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(exit, fmt.Sprintf("%s: %s", code, message))
}
