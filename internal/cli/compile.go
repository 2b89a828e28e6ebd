package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/solrq/internal/domain/search/expr"
	searchuc "github.com/kailas-cloud/solrq/internal/usecase/search"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Filters []string
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [terms...] [field=value] [field__relation=a,b]",
		Short: "Print the query string for an expression",
		Long: `Compile an expression into Solr query syntax, checking every field
and value against the schema.

Bare words query the default field. field=value queries a field;
field__gte=3, field__range=1,10 and field__any add range clauses.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Filters, "filter", "f", nil,
		"filter expression as space-separated arguments (repeatable)")

	return cmd
}

func runCompile(opts *CompileOptions, args []string, cmd *cobra.Command) error {
	s, err := opts.loadSchema()
	if err != nil {
		return err
	}
	main, filters, err := parseExpressions(args, opts.Filters)
	if err != nil {
		return err
	}

	out, err := searchuc.New(s, nil, nil, nil).Compile(cmd.Context(), main, filters)
	if err != nil {
		return WrapExitError(ExitFailure, "compile", err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), out)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out.Q)
	for _, fq := range out.FQ {
		fmt.Fprintf(cmd.OutOrStdout(), "fq: %s\n", fq)
	}
	return nil
}

func parseExpressions(args, filterArgs []string) (expr.Expr, []expr.Expr, error) {
	main, err := expr.ParseArgs(args)
	if err != nil {
		return expr.Expr{}, nil, WrapExitError(ExitCommandError, "parse query", err)
	}
	filters := make([]expr.Expr, 0, len(filterArgs))
	for _, f := range filterArgs {
		e, err := expr.ParseArgs(strings.Fields(f))
		if err != nil {
			return expr.Expr{}, nil, WrapExitError(ExitCommandError, "parse filter", err)
		}
		filters = append(filters, e)
	}
	return main, filters, nil
}
