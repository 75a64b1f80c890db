package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/querytext/internal/dialect"
	"github.com/roach88/querytext/internal/dialects"
	"github.com/roach88/querytext/internal/querysql"
	"github.com/roach88/querytext/internal/store"
)

// Harness is the test execution engine.
// It renders scenario documents with every expected dialect and runs the
// execute step on a fresh in-memory database.
type Harness struct {
	registry *dialect.Registry
	logger   *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger for run records. The default discards them.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// New creates a harness that looks dialects up in registry.
func New(registry *dialect.Registry, opts ...Option) *Harness {
	h := &Harness{
		registry: registry,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario against the built-in dialects.
func Run(scenario *Scenario) (*Result, error) {
	reg, err := dialects.Builtin()
	if err != nil {
		return nil, err
	}
	return New(reg).Run(context.Background(), scenario)
}

// Run executes a test scenario and returns the result.
//
// Expectation mismatches are reported in the result; the returned error is
// for scenarios that cannot run at all (unknown dialect, document that does
// not compile, failing setup SQL).
//
// Execution flow:
//  1. Compile the query document
//  2. Render it with each expected dialect, in name order
//  3. Compare SQL, constants and error codes
//  4. If the scenario has an execute step, run the sqlite rendering on a
//     fresh in-memory database and compare rows
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	doc, err := scenario.Compile()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := h.logger.With("run_id", runID, "scenario", scenario.Name)
	result := NewResult(runID)

	statements := make(map[string]*querysql.Statement)
	for _, name := range scenario.Dialects() {
		p, err := h.registry.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("expect.%s: %w", name, err)
		}

		s := querysql.NewSerializer(p, querysql.WithLogger(logger))
		render := Render{Dialect: p.Name()}
		stmt, err := doc.Render(s, scenario.Count)
		if err != nil {
			render.ErrorCode = string(querysql.CodeOf(err))
			render.Err = err.Error()
			if render.ErrorCode == "" {
				return nil, fmt.Errorf("render %s: %w", name, err)
			}
		} else {
			render.SQL = stmt.SQL
			render.Constants = stmt.Constants
			statements[name] = stmt
		}
		result.AddRender(render)

		for _, e := range checkRender(scenario.Expect[name], render) {
			result.AddError(e.Error())
		}

		logger.Info("dialect rendered",
			"dialect", render.Dialect,
			"error", render.ErrorCode,
		)
	}

	if scenario.Execute != nil {
		if err := h.execute(ctx, scenario, doc, statements[ExecutionDialect], result); err != nil {
			return nil, err
		}
	}

	logger.Info("scenario completed",
		"pass", result.Pass,
		"errors", len(result.Errors),
	)
	return result, nil
}

// execute runs the sqlite statement on a fresh in-memory database.
// The statement is rendered here when sqlite is not among the expected
// dialects.
func (h *Harness) execute(ctx context.Context, scenario *Scenario, doc renderer, stmt *querysql.Statement, result *Result) error {
	if stmt == nil {
		p, err := h.registry.Lookup(ExecutionDialect)
		if err != nil {
			return fmt.Errorf("execute: %w", err)
		}
		stmt, err = doc.Render(querysql.NewSerializer(p, querysql.WithLogger(h.logger)), scenario.Count)
		if err != nil {
			return fmt.Errorf("execute: render %s: %w", ExecutionDialect, err)
		}
	}

	// Each run gets its own database.
	st, err := store.Open(store.DriverSQLite, ":memory:", store.WithLogger(h.logger))
	if err != nil {
		return fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := st.Exec(ctx, scenario.Execute.Setup...); err != nil {
		return fmt.Errorf("execute setup: %w", err)
	}

	rows, err := st.Query(ctx, stmt)
	if err != nil {
		result.AddError(fmt.Sprintf("execute: %v", err))
		return nil
	}
	result.Rows = rows.Rows
	if result.Rows == nil {
		result.Rows = [][]any{}
	}

	for _, e := range checkRows(scenario.Execute, result.Rows, stmt.SQL) {
		result.AddError(e.Error())
	}
	return nil
}

// renderer is the part of compiler.Document the harness needs.
type renderer interface {
	Render(s *querysql.Serializer, forCountRow bool) (*querysql.Statement, error)
}
