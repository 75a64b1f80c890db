package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/querytext/internal/dialect"
	"github.com/roach88/querytext/internal/querysql"
)

// Registered database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
	DriverMySQL    = "mysql"
)

// Drivers returns the supported driver names, sorted.
func Drivers() []string {
	return []string{DriverMySQL, DriverPostgres, DriverSQLite}
}

// Store executes rendered statements over a database/sql pool.
type Store struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for statement debug records.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

func newStore(db *sql.DB, driver string, opts []Option) *Store {
	s := &Store{db: db, driver: driver, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result holds the rows of one query, fully read.
type Result struct {
	Columns []string
	Rows    [][]any
}

// Open connects to a database with one of the supported drivers.
//
// SQLite connections are configured with:
//   - one open connection, so in-memory databases are shared by every call
//   - 5-second busy timeout for lock contention
//   - foreign key enforcement
func Open(driver, dsn string, opts ...Option) (*Store, error) {
	if !slices.Contains(Drivers(), driver) {
		return nil, fmt.Errorf("unknown driver %q (available: %s)", driver, strings.Join(Drivers(), ", "))
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite only supports one writer at a time, and each connection to
		// ":memory:" is its own database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	return newStore(db, driver, opts), nil
}

// New wraps an existing pool. The driver name selects the placeholder check.
func New(db *sql.DB, driver string, opts ...Option) *Store {
	return newStore(db, driver, opts)
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns the driver name.
func (s *Store) Driver() string {
	return s.driver
}

// CheckPlaceholders reports whether the driver can bind the given style.
// pgx needs $n markers, mysql needs ?, sqlite3 accepts both.
func (s *Store) CheckPlaceholders(style dialect.PlaceholderStyle) error {
	switch {
	case s.driver == DriverPostgres && style != dialect.PlaceholderDollar,
		s.driver == DriverMySQL && style != dialect.PlaceholderQuestion:
		return fmt.Errorf("driver %s cannot bind %s placeholders", s.driver, style)
	}
	return nil
}

// Exec runs setup statements in order, stopping at the first failure.
func (s *Store) Exec(ctx context.Context, statements ...string) error {
	for i, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	return nil
}

// Query executes a rendered statement and reads every row.
// Byte slices are returned as strings.
func (s *Store) Query(ctx context.Context, stmt *querysql.Statement) (*Result, error) {
	if err := s.CheckPlaceholders(stmt.Placeholder); err != nil {
		return nil, fmt.Errorf("dialect %s: %w", stmt.Dialect, err)
	}

	s.logger.Debug("executing statement",
		"driver", s.driver,
		"dialect", stmt.Dialect,
		"constants", len(stmt.Constants),
	)

	rows, err := s.db.QueryContext(ctx, stmt.SQL, stmt.Args()...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	res := &Result{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(res.Rows)+1, err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return res, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}
