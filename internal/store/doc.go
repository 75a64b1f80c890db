// Package store runs rendered statements against a database.
//
// Three database/sql drivers are registered:
//   - sqlite3 (mattn/go-sqlite3), used in-memory by the scenario harness
//   - pgx (jackc/pgx/v5/stdlib), for the postgres dialect
//   - mysql (go-sql-driver/mysql), for the mysql dialect
//
// Statements are bound positionally from querysql.Statement.Constants. A
// driver only accepts the placeholder style it understands, so Query checks
// the statement's dialect against the driver before executing.
//
// # SQLite Configuration
//
//   - A single connection, so ":memory:" databases persist for the store's life
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
