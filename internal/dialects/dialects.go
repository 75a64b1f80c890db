// Package dialects assembles the built-in pattern tables into a registry.
package dialects

import (
	"fmt"

	"github.com/roach88/querytext/internal/dialect"
	"github.com/roach88/querytext/internal/dialects/mysql"
	"github.com/roach88/querytext/internal/dialects/oracle"
	"github.com/roach88/querytext/internal/dialects/postgres"
	"github.com/roach88/querytext/internal/dialects/sqlite"
)

// Default is the dialect used when none is configured.
const Default = oracle.Name

// constructors lists the built-in dialects in registration order.
var constructors = []func() (*dialect.Patterns, error){
	func() (*dialect.Patterns, error) { return dialect.Base(), nil },
	oracle.New,
	postgres.New,
	mysql.New,
	sqlite.New,
}

// Builtin builds every built-in dialect and returns them in a registry.
func Builtin() (*dialect.Registry, error) {
	tables := make([]*dialect.Patterns, 0, len(constructors))
	for _, build := range constructors {
		p, err := build()
		if err != nil {
			return nil, fmt.Errorf("build dialect: %w", err)
		}
		tables = append(tables, p)
	}
	return dialect.NewRegistry(tables...)
}
