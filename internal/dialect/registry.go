package dialect

import (
	"fmt"
	"sort"
	"strings"
)

// Registry maps dialect names to pattern tables.
//
// A Registry is built once, explicitly, and passed to whoever needs to pick a
// dialect by name. It is read-only after construction.
type Registry struct {
	byName map[string]*Patterns
	names  []string
}

// NewRegistry builds a registry from tables. Names are matched
// case-insensitively; two tables with the same name are an error.
func NewRegistry(tables ...*Patterns) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Patterns, len(tables))}
	for _, p := range tables {
		if p == nil {
			return nil, fmt.Errorf("dialect registry: nil pattern table")
		}
		key := strings.ToLower(p.Name())
		if _, dup := r.byName[key]; dup {
			return nil, fmt.Errorf("dialect registry: duplicate dialect %q", p.Name())
		}
		r.byName[key] = p
		r.names = append(r.names, key)
	}
	sort.Strings(r.names)
	return r, nil
}

// Get returns the table registered under name.
func (r *Registry) Get(name string) (*Patterns, bool) {
	p, ok := r.byName[strings.ToLower(name)]
	return p, ok
}

// Lookup is like Get but returns a descriptive error for unknown names.
func (r *Registry) Lookup(name string) (*Patterns, error) {
	if p, ok := r.Get(name); ok {
		return p, nil
	}
	return nil, fmt.Errorf("unknown dialect %q (available: %s)", name, strings.Join(r.names, ", "))
}

// Names returns the registered dialect names, sorted.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}
