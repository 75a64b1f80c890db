package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/querytext/internal/compiler"
	"github.com/roach88/querytext/internal/querysql"
	"github.com/roach88/querytext/internal/store"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	Count bool
	Setup []string // statements run before the query
}

// ExecResult is the JSON payload of exec.
type ExecResult struct {
	File    string   `json:"file"`
	Dialect string   `json:"dialect"`
	Driver  string   `json:"driver"`
	SQL     string   `json:"sql"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <file>",
		Short: "Render a query document and run it against a database",
		Long: `Render a query document and execute the statement through database/sql.

The connection comes from database.driver and database.dsn (config file,
QUERYTEXT_DATABASE_DRIVER / QUERYTEXT_DATABASE_DSN, or --driver / --dsn).
Supported drivers: sqlite3, pgx, mysql. The dialect must use placeholders
the driver can bind.

Examples:
  querytext exec --dialect sqlite --dsn ./surveys.db weekly.yaml
  querytext exec --dialect postgres --driver pgx --dsn "$PG_URL" weekly.yaml
  querytext exec --dialect sqlite --setup "create table t (id int)" q.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Count, "count", false, "run the count-row variant")
	cmd.Flags().StringArrayVar(&opts.Setup, "setup", nil, "statement to run before the query (repeatable)")
	cmd.Flags().String("driver", store.DriverSQLite, "database/sql driver (sqlite3|pgx|mysql)")
	cmd.Flags().String("dsn", ":memory:", "data source name")
	cmd.Flags().String("placeholder", "", "placeholder style override (question|dollar)")

	return cmd
}

func runExec(cmd *cobra.Command, opts *ExecOptions, path string) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(formatter)
	ctx := cmd.Context()

	doc, err := compiler.Load(path)
	if err != nil {
		cliErr := compileCLIError(err)
		_ = formatter.Error(cliErr.Code, cliErr.Message, cliErr.Details)
		return WrapExitError(ExitFailure, cliErr.Code, err)
	}

	name := ""
	if !opts.dialectOverride(cmd) && doc.Dialect != "" {
		name = doc.Dialect
	}
	p, err := opts.config.ResolveDialect(opts.registry, name)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeConfig, err)
	}

	stmt, err := doc.Render(querysql.NewSerializer(p, querysql.WithLogger(logger)), opts.Count)
	if err != nil {
		cliErr := renderCLIError(err)
		_ = formatter.Error(cliErr.Code, cliErr.Message, cliErr.Details)
		return WrapExitError(ExitFailure, cliErr.Code, err)
	}

	db := opts.config.Database
	st, err := store.Open(db.Driver, db.DSN, store.WithLogger(logger))
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeDatabase, err)
	}
	defer st.Close()

	if err := st.Exec(ctx, opts.Setup...); err != nil {
		_ = formatter.Error(ErrCodeDatabase, fmt.Sprintf("setup: %v", err), nil)
		return WrapExitError(ExitCommandError, ErrCodeDatabase, err)
	}

	formatter.VerboseLog("%s", stmt.SQL)
	res, err := st.Query(ctx, stmt)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), map[string]any{"sql": stmt.SQL})
		return WrapExitError(ExitFailure, ErrCodeDatabase, err)
	}

	if formatter.Format == "json" {
		rows := res.Rows
		if rows == nil {
			rows = [][]any{}
		}
		return formatter.Success(ExecResult{
			File:    path,
			Dialect: p.Name(),
			Driver:  st.Driver(),
			SQL:     stmt.SQL,
			Columns: res.Columns,
			Rows:    rows,
		})
	}

	if len(res.Rows) == 0 {
		fmt.Fprintln(formatter.Writer, "(0 rows)")
		return nil
	}

	t := newTable(formatter.Writer)
	header := make(table.Row, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = c
	}
	t.AppendHeader(header)
	for _, row := range res.Rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = formatValue(v)
		}
		t.AppendRow(r)
	}
	t.Render()
	fmt.Fprintf(formatter.Writer, "(%d rows)\n", len(res.Rows))
	return nil
}

// formatValue renders a scanned value for the text table.
func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}
