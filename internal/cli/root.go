package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/solrq/internal/config"
	"github.com/kailas-cloud/solrq/internal/domain/schema"
	"github.com/kailas-cloud/solrq/internal/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	SchemaPath string
	Env        string
	SolrURL    string
	Core       string
	Format     string // "json" | "text"
	Verbose    bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the solrq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "solrq",
		Short: "solrq - schema-checked Solr queries",
		Long: `Build Solr queries that are checked against the index schema,
run them against a Solr core, or serve the same operations over HTTP.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true, // main prints the error once
	}

	cmd.PersistentFlags().StringVar(&opts.SchemaPath, "schema", "", "schema.xml or YAML schema description")
	cmd.PersistentFlags().StringVar(&opts.Env, "env", config.GetEnv(), "config environment (local, dev, prod)")
	cmd.PersistentFlags().StringVar(&opts.SolrURL, "solr-url", "", "Solr base URL (default from config)")
	cmd.PersistentFlags().StringVar(&opts.Core, "core", "", "Solr core (default from config)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewSelectCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// loadSchema reads the schema named by --schema, falling back to the config file.
func (o *RootOptions) loadSchema() (*schema.Schema, error) {
	path := o.SchemaPath
	if path == "" {
		cfg, err := config.Load(o.Env)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "--schema is required without a config file", err)
		}
		path = cfg.Schema.Path
	}
	s, err := schema.LoadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load schema", err)
	}
	return s, nil
}

// solrTarget resolves the Solr URL and core from flags, then the config file.
func (o *RootOptions) solrTarget() (config.SolrConfig, error) {
	if o.SolrURL != "" {
		return config.SolrConfig{BaseURL: o.SolrURL, Core: o.Core}, nil
	}
	cfg, err := config.Load(o.Env)
	if err != nil {
		return config.SolrConfig{}, WrapExitError(ExitCommandError, "--solr-url is required without a config file", err)
	}
	if o.Core != "" {
		cfg.Solr.Core = o.Core
	}
	return cfg.Solr, nil
}

// cliLogger writes warnings (or everything with --verbose) to stderr.
func (o *RootOptions) cliLogger() *zap.Logger {
	level := ""
	if o.Verbose {
		level = "debug"
	}
	l, err := logger.NewLogger("cli", level)
	if err != nil {
		return zap.NewNop()
	}
	return l
}
