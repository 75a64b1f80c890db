package querysql

import (
	"github.com/roach88/querytext/internal/dialect"
	"github.com/roach88/querytext/internal/ir"
)

// Statement is a rendered query: SQL text plus the constants to bind, in
// placeholder order.
type Statement struct {
	SQL         string
	Constants   []any
	Dialect     string
	Placeholder dialect.PlaceholderStyle
}

// Args returns the constants as a fresh slice for database/sql.
func (s *Statement) Args() []any {
	return append([]any(nil), s.Constants...)
}

// Fingerprint returns a stable content hash of the statement.
func (s *Statement) Fingerprint() (string, error) {
	return ir.StatementFingerprint(s.Dialect, s.SQL, s.Constants)
}
