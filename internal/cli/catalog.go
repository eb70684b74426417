package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cteq/internal/store"
)

// NewCatalogCommand creates the catalog command and its subcommands.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect saved statements",
		Long: `Inspect the statement catalog written by "cteq compile --save".

The catalog path comes from --catalog, CTEQ_CATALOG or the config file.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List saved statements in save order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogList(rootOpts, cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "show <id>",
		Short:         "Show one saved statement",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogShow(rootOpts, args[0], cmd)
		},
	})

	return cmd
}

// openCatalog opens an existing catalog. A missing file is a command error
// rather than a fresh empty catalog.
func openCatalog(formatter *OutputFormatter, path string) (*store.Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fail(formatter, ExitCommandError, ErrCodeNotFound, fmt.Sprintf("catalog not found: %s", path))
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, fail(formatter, ExitCommandError, ErrCodeCatalog, err.Error())
	}
	return s, nil
}

func runCatalogList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	s, err := openCatalog(formatter, opts.Catalog)
	if err != nil {
		return err
	}
	defer s.Close()

	entries, err := s.List(cmd.Context())
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeCatalog, err.Error())
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "Catalog is empty.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(formatter.Writer, "%4d  %s  %s  [%s]\n", e.CreatedSeq, e.ID[:12], e.Name, strings.Join(e.CTENames, ", "))
	}
	return nil
}

func runCatalogShow(opts *RootOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	s, err := openCatalog(formatter, opts.Catalog)
	if err != nil {
		return err
	}
	defer s.Close()

	e, err := s.Get(cmd.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(formatter, ExitFailure, ErrCodeNotFound, fmt.Sprintf("statement not found: %s", id))
	}
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeCatalog, err.Error())
	}

	if formatter.Format == "json" {
		return formatter.Success(e)
	}
	w := formatter.Writer
	fmt.Fprintf(w, "Statement: %s\n", e.ID)
	fmt.Fprintf(w, "Name:      %s\n", e.Name)
	fmt.Fprintf(w, "Revision:  %s\n", e.Revision)
	fmt.Fprintf(w, "Schema:    %s\n", e.SchemaHash)
	fmt.Fprintf(w, "With:      %s\n", strings.Join(e.CTENames, ", "))
	fmt.Fprintf(w, "Params:    %v\n", e.Params)
	fmt.Fprintf(w, "\n%s\n", e.SQL)
	return nil
}
