package cli

import (
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/querytext/internal/dialect"
	"github.com/roach88/querytext/internal/dialects"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	Dialect    string

	// Resolved by the root PersistentPreRunE.
	config   *Config
	registry *dialect.Registry
	traceID  string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the querytext CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "querytext",
		Short: "querytext - render query documents to dialect SQL",
		Long: `Render YAML, JSON or CUE query documents to SQL for a target dialect.

Paging, casts, operators and joins are expressed through per-dialect
pattern tables, so one document renders to Oracle, PostgreSQL, MySQL
or SQLite without change.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default ./"+DefaultConfigFile+")")
	cmd.PersistentFlags().StringVarP(&opts.Dialect, "dialect", "d", dialects.Default, "target dialect")

	// Add subcommands
	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewDialectsCommand(opts))
	cmd.AddCommand(NewExecCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve loads configuration and the dialect registry for the running
// command.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := LoadConfig(o.ConfigFile, cmd.Flags())
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig, err)
	}
	reg, err := dialects.Builtin()
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeGeneric, err)
	}

	o.config = cfg
	o.registry = reg
	o.traceID = NewTraceID()
	return nil
}

// formatter builds the output formatter for a command from the resolved
// configuration.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.config.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.config.Verbose,
		TraceID:   o.traceID,
	}
}

// logger returns the command logger, tagged with the invocation trace id.
func (o *RootOptions) logger(f *OutputFormatter) *slog.Logger {
	return f.Logger().With("trace_id", o.traceID)
}

// dialectOverride reports whether --dialect was given. The flag takes
// precedence over a document's own dialect; config and env do not.
func (o *RootOptions) dialectOverride(cmd *cobra.Command) bool {
	f := cmd.Flags().Lookup("dialect")
	return f != nil && f.Changed
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
