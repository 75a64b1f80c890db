package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/querytext/internal/dialect"
)

// DialectSummary describes one registered dialect.
type DialectSummary struct {
	Name        string `json:"name"`
	Paging      string `json:"paging"`
	Placeholder string `json:"placeholder"`
	Operators   int    `json:"operators"`
	Types       int    `json:"types"`
	DummyTable  string `json:"dummy_table,omitempty"`
	Alias       bool   `json:"alias"`
}

// DialectDetail lists the templates and type names of one dialect.
type DialectDetail struct {
	DialectSummary
	Templates map[string]string `json:"templates"`
	TypeNames map[string]string `json:"type_names"`
}

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dialects",
		Short: "List registered dialects",
		Long: `List the built-in dialects with their paging strategy,
placeholder style and table sizes.

Examples:
  querytext dialects
  querytext dialects show oracle`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDialects(rootOpts, cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "show <name>",
		Short:         "Show the operator templates and type names of a dialect",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDialectShow(rootOpts, args[0], cmd)
		},
	})

	return cmd
}

func runDialects(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	names := opts.registry.Names()
	summaries := make([]DialectSummary, 0, len(names))
	for _, name := range names {
		p, _ := opts.registry.Get(name)
		summaries = append(summaries, summarize(p))
	}

	if formatter.Format == "json" {
		return formatter.Success(summaries)
	}

	t := newTable(formatter.Writer)
	t.AppendHeader(table.Row{"Dialect", "Paging", "Placeholder", "Operators", "Types", "Dummy table", "Alias"})
	for _, s := range summaries {
		t.AppendRow(table.Row{s.Name, s.Paging, s.Placeholder, s.Operators, s.Types, s.DummyTable, s.Alias})
	}
	t.Render()
	return nil
}

func runDialectShow(opts *RootOptions, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	p, err := opts.registry.Lookup(name)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeNotFound, err)
	}

	detail := DialectDetail{
		DialectSummary: summarize(p),
		Templates:      make(map[string]string),
		TypeNames:      make(map[string]string),
	}
	for _, op := range p.Operators() {
		tmpl, _ := p.Template(op)
		detail.Templates[string(op)] = tmpl.String()
	}
	for _, tag := range p.TypeTags() {
		typeName, _ := p.TypeName(tag)
		detail.TypeNames[string(tag)] = typeName
	}

	if formatter.Format == "json" {
		return formatter.Success(detail)
	}

	fmt.Fprintf(formatter.Writer, "%s: %s paging, %s placeholders\n\n",
		detail.Name, detail.Paging, detail.Placeholder)

	ops := newTable(formatter.Writer)
	ops.AppendHeader(table.Row{"Operator", "Template", "Precedence"})
	for _, op := range p.Operators() {
		tmpl, _ := p.Template(op)
		ops.AppendRow(table.Row{op, tmpl.String(), tmpl.Precedence()})
	}
	ops.Render()
	fmt.Fprintln(formatter.Writer)

	types := newTable(formatter.Writer)
	types.AppendHeader(table.Row{"Type", "Name"})
	for _, tag := range p.TypeTags() {
		types.AppendRow(table.Row{tag, detail.TypeNames[string(tag)]})
	}
	types.Render()
	return nil
}

func summarize(p *dialect.Patterns) DialectSummary {
	return DialectSummary{
		Name:        p.Name(),
		Paging:      p.Paging().Strategy.String(),
		Placeholder: p.PlaceholderStyle().String(),
		Operators:   len(p.Operators()),
		Types:       len(p.TypeTags()),
		DummyTable:  p.Tokens().DummyTable,
		Alias:       p.SupportsAlias(),
	}
}

// newTable returns a table writer in the CLI's style.
func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}
