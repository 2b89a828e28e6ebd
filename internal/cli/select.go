package cli

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/solrq/internal/metrics"
	"github.com/kailas-cloud/solrq/internal/transport/solr"
	searchuc "github.com/kailas-cloud/solrq/internal/usecase/search"
)

// SelectOptions holds flags for the select command.
type SelectOptions struct {
	*RootOptions
	Filters []string
	Start   int
	Rows    int
	Sort    []string
	Fields  []string
	Facets  []string
}

// NewSelectCommand creates the select command.
func NewSelectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SelectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "select [terms...] [field=value] [field__relation=a,b]",
		Short: "Run a search and print the decoded response as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(opts, args, cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Filters, "filter", "f", nil,
		"filter expression as space-separated arguments (repeatable)")
	cmd.Flags().IntVar(&opts.Start, "start", -1, "offset of the first hit")
	cmd.Flags().IntVar(&opts.Rows, "rows", -1, "number of hits")
	cmd.Flags().StringSliceVar(&opts.Sort, "sort", nil, "sort keys, -field for descending")
	cmd.Flags().StringSliceVar(&opts.Fields, "fl", nil, "fields to return")
	cmd.Flags().StringSliceVar(&opts.Facets, "facet", nil, "fields to facet on")

	return cmd
}

func runSelect(opts *SelectOptions, args []string, cmd *cobra.Command) error {
	s, err := opts.loadSchema()
	if err != nil {
		return err
	}
	target, err := opts.solrTarget()
	if err != nil {
		return err
	}
	main, filters, err := parseExpressions(args, opts.Filters)
	if err != nil {
		return err
	}

	metrics.RegisterSolrMetrics()
	client, err := solr.NewClient(&solr.Config{
		BaseURL:         target.BaseURL,
		Core:            target.Core,
		Timeout:         target.Timeout(),
		MaxGetURLLength: target.MaxGetURLLength,
		Logger:          opts.cliLogger(),
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "solr client", err)
	}

	in := searchuc.SelectInput{
		Query:   main,
		Filters: filters,
		Sort:    opts.Sort,
		Fields:  opts.Fields,
	}
	if cmd.Flags().Changed("start") {
		in.Start = &opts.Start
	}
	if cmd.Flags().Changed("rows") {
		in.Rows = &opts.Rows
	}
	for _, f := range opts.Facets {
		in.Facets = append(in.Facets, searchuc.FacetInput{Field: f})
	}

	res, err := searchuc.New(s, client, nil, nil).Select(cmd.Context(), &in)
	if err != nil {
		return WrapExitError(ExitFailure, "select", err)
	}
	return printJSON(cmd.OutOrStdout(), res)
}
