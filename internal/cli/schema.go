package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/solrq/internal/domain/schema"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the loaded schema",
		Long: `Load the schema (schema.xml or YAML) and print it as a YAML
description, or as JSON with --format json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := rootOpts.loadSchema()
			if err != nil {
				return err
			}
			doc := schema.Describe(s)
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), doc)
			}
			out, err := yaml.Marshal(doc)
			if err != nil {
				return fmt.Errorf("marshal schema: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
