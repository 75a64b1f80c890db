package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/querytext/internal/compiler"
	"github.com/roach88/querytext/internal/querysql"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Count bool // render the count-row variant
	Watch bool // re-render on change
	Jobs  int  // concurrent renders
}

// RenderOutput is the outcome of rendering one document.
type RenderOutput struct {
	File        string    `json:"file"`
	Name        string    `json:"name,omitempty"`
	Dialect     string    `json:"dialect,omitempty"`
	SQL         string    `json:"sql,omitempty"`
	Constants   []any     `json:"constants,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Error       *CLIError `json:"error,omitempty"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <file>...",
		Short: "Render query documents to SQL",
		Long: `Compile query documents (.yaml, .yml, .json, .cue) and render them to SQL.

The dialect is taken from --dialect, then the document's own dialect
field, then configuration. Several files render concurrently; output
keeps input order.

Exit codes:
  0 - All documents rendered
  1 - One or more documents failed to compile or render
  2 - Command error (bad config, unknown dialect, etc.)

Examples:
  querytext render weekly.yaml
  querytext render --dialect postgres queries/*.yaml
  querytext render --count weekly.cue --format json
  querytext render --watch queries/*.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Count, "count", false, "render the count-row variant")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "re-render when documents change")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 4, "documents rendered concurrently")
	cmd.Flags().String("placeholder", "", "placeholder style override (question|dollar)")
	cmd.Flags().Duration("debounce", 200*time.Millisecond, "watch debounce interval")

	return cmd
}

func runRender(cmd *cobra.Command, opts *RenderOptions, paths []string) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(formatter)
	override := opts.dialectOverride(cmd)

	// Fail on an unknown configured dialect before touching any file.
	if _, err := opts.config.ResolveDialect(opts.registry, ""); err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeConfig, err)
	}

	outputs := renderFiles(cmd.Context(), opts, paths, override, logger)
	failed := writeRenderOutputs(formatter, outputs)

	if opts.Watch {
		return watchDocuments(cmd.Context(), opts.config.Watch.Debounce, paths, logger, func(path string) {
			out := renderFile(opts, path, override, logger)
			writeRenderOutputs(formatter, []RenderOutput{out})
		})
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d document(s) failed", failed, len(paths)))
	}
	return nil
}

// renderFiles renders paths concurrently, returning outputs in input order.
func renderFiles(ctx context.Context, opts *RenderOptions, paths []string, override bool, logger *slog.Logger) []RenderOutput {
	if ctx == nil {
		ctx = context.Background()
	}
	outputs := make([]RenderOutput, len(paths))

	jobs := opts.Jobs
	if jobs < 1 {
		jobs = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outputs[i] = RenderOutput{File: path, Error: &CLIError{Code: ErrCodeGeneric, Message: err.Error()}}
				return nil
			}
			outputs[i] = renderFile(opts, path, override, logger)
			return nil
		})
	}
	_ = g.Wait() // workers record failures in their outputs

	return outputs
}

// renderFile compiles and renders one document.
func renderFile(opts *RenderOptions, path string, override bool, logger *slog.Logger) RenderOutput {
	out := RenderOutput{File: path}

	doc, err := compiler.Load(path)
	if err != nil {
		out.Error = compileCLIError(err)
		return out
	}
	out.Name = doc.Name

	name := ""
	if !override && doc.Dialect != "" {
		name = doc.Dialect
	}
	p, err := opts.config.ResolveDialect(opts.registry, name)
	if err != nil {
		out.Error = &CLIError{Code: ErrCodeConfig, Message: err.Error()}
		return out
	}
	out.Dialect = p.Name()

	s := querysql.NewSerializer(p, querysql.WithLogger(logger.With("file", filepath.Base(path))))
	stmt, err := doc.Render(s, opts.Count)
	if err != nil {
		out.Error = renderCLIError(err)
		return out
	}

	out.SQL = stmt.SQL
	out.Constants = stmt.Constants
	if fp, err := stmt.Fingerprint(); err == nil {
		out.Fingerprint = fp
	}
	return out
}

// writeRenderOutputs prints outputs and returns the number of failures.
func writeRenderOutputs(f *OutputFormatter, outputs []RenderOutput) int {
	failed := 0
	for _, out := range outputs {
		if out.Error != nil {
			failed++
		}
	}

	if f.Format == "json" {
		status := "ok"
		var cliErr *CLIError
		if failed > 0 {
			status = "error"
			cliErr = &CLIError{
				Code:    ErrCodeGeneric,
				Message: fmt.Sprintf("%d of %d document(s) failed", failed, len(outputs)),
			}
		}
		_ = f.Respond(CLIResponse{Status: status, Data: outputs, Error: cliErr})
		return failed
	}

	for _, out := range outputs {
		if out.Error != nil {
			fmt.Fprintf(f.Writer, "✗ %s\n", out.File)
			fmt.Fprintf(f.Writer, "  %s: %s\n", out.Error.Code, out.Error.Message)
			continue
		}
		fmt.Fprintf(f.Writer, "-- %s (%s)\n", out.File, out.Dialect)
		fmt.Fprintf(f.Writer, "%s;\n", out.SQL)
		if len(out.Constants) > 0 {
			fmt.Fprintf(f.Writer, "-- constants: %v\n", out.Constants)
		}
		f.VerboseLog("%s: fingerprint %s", out.File, out.Fingerprint)
	}
	return failed
}

// compileCLIError converts a document load error.
func compileCLIError(err error) *CLIError {
	cliErr := &CLIError{Code: ErrCodeCompileFailed, Message: err.Error()}
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		cliErr.Details = map[string]any{"field": ce.Field}
	}
	return cliErr
}

// renderCLIError converts a serializer error, keeping its code.
func renderCLIError(err error) *CLIError {
	var re *querysql.RenderError
	if !errors.As(err, &re) {
		return &CLIError{Code: ErrCodeGeneric, Message: err.Error()}
	}

	details := map[string]any{"dialect": re.Dialect}
	if re.Operator != "" {
		details["operator"] = string(re.Operator)
	}
	if re.Type != "" {
		details["type"] = string(re.Type)
	}
	if re.Clause != "" {
		details["clause"] = re.Clause
	}
	return &CLIError{Code: string(re.Code), Message: re.Message, Details: details}
}
