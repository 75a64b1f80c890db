// Package compiler turns query documents into query metadata.
//
// A query document is a YAML, JSON or CUE file describing one query or one
// union of queries:
//
//	name: weekly-surveys
//	dialect: oracle
//	query:
//	  select: [s.id, s.name]
//	  from: [{entity: survey, as: s}]
//	  where: {op: eq, args: [s.kind, {const: weekly}]}
//	  order_by: [{by: s.name, dir: desc}]
//	  limit: 10
//
// Expression nodes are written as:
//
//	s.id                                  reference (bare string)
//	42, 1.5, true, null                   constant (bare scalar)
//	{const: "x", type: date}              typed constant; lists expand for IN
//	{op: eq, args: [...]}                 operation
//	{cast: <node>, to: integer}           cast (to: string uses string_cast)
//	{alias: <node>, as: total}            column alias
//	{subquery: <query>}                   nested query
//	{window: sum, target: <node>, partition_by: <node>, order_by: [...]}
//	{columns: [...]}                      constructor, select list only
//
// Strings are always references; string constants use the {const: ...} form.
package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/querytext/internal/ir"
	"github.com/roach88/querytext/internal/queryir"
	"github.com/roach88/querytext/internal/querysql"
)

// Document is a compiled query document.
type Document struct {
	Name    string
	Dialect string // "" = use the configured dialect
	Count   bool

	// Exactly one of Query and Union is set.
	Query   *queryir.Metadata
	Union   []*queryir.Metadata
	OrderBy []queryir.OrderSpec // shared order of a union

	// Hash identifies the source bytes (ir.DocumentHash).
	Hash string
}

// IsUnion reports whether the document describes a union.
func (d *Document) IsUnion() bool {
	return d.Query == nil
}

// Validate runs the structural checks on the compiled query.
func (d *Document) Validate() queryir.ValidationResult {
	if d.IsUnion() {
		return queryir.ValidateUnion(d.Union, d.OrderBy)
	}
	return queryir.Validate(d.Query)
}

// Render serializes the document. forCountRow applies to single queries
// only; a union document with Count set is an error.
func (d *Document) Render(s *querysql.Serializer, forCountRow bool) (*querysql.Statement, error) {
	count := forCountRow || d.Count
	if d.IsUnion() {
		if count {
			return nil, fmt.Errorf("document %s: count render is not supported for unions", d.Name)
		}
		return s.SerializeUnion(d.Union, d.OrderBy)
	}
	return s.Serialize(d.Query, count)
}

// Load reads and compiles a document, choosing the parser by extension:
// .yaml/.yml, .json or .cue.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	var doc *Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		doc, err = ParseYAML(data)
	case ".json":
		doc, err = ParseJSON(data)
	case ".cue":
		doc, err = ParseCUE(data, path)
	default:
		return nil, fmt.Errorf("%s: unsupported document extension (want .yaml, .yml, .json or .cue)", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return doc, nil
}

// ParseYAML compiles a YAML query document.
func ParseYAML(data []byte) (*Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ParseYAML: %w", err)
	}
	return compileDocument(raw, data)
}

// ParseJSON compiles a JSON query document.
func ParseJSON(data []byte) (*Document, error) {
	raw, err := decodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("ParseJSON: %w", err)
	}
	return compileDocument(raw, data)
}

func compileDocument(raw map[string]any, source []byte) (*Document, error) {
	if raw == nil {
		return nil, errorf("document", "empty document")
	}
	if err := checkKeys("document", raw, "name", "dialect", "count", "query", "union", "order_by"); err != nil {
		return nil, err
	}

	doc := &Document{Hash: ir.DocumentHash(source)}
	var err error
	if doc.Name, err = optString("name", raw["name"]); err != nil {
		return nil, err
	}
	if doc.Dialect, err = optString("dialect", raw["dialect"]); err != nil {
		return nil, err
	}
	if v, ok := raw["count"]; ok {
		if doc.Count, err = asBool("count", v); err != nil {
			return nil, err
		}
	}

	q, hasQuery := raw["query"]
	u, hasUnion := raw["union"]
	switch {
	case hasQuery && hasUnion:
		return nil, errorf("document", "query and union are mutually exclusive")
	case hasQuery:
		if _, ok := raw["order_by"]; ok {
			return nil, errorf("order_by", "top-level order_by applies to unions; put it inside query")
		}
		doc.Query, err = compileQuery("query", q, nil)
		if err != nil {
			return nil, err
		}
	case hasUnion:
		branches, err := asList("union", u)
		if err != nil {
			return nil, err
		}
		if len(branches) == 0 {
			return nil, errorf("union", "at least one branch is required")
		}
		for i, b := range branches {
			md, err := compileQuery(fmt.Sprintf("union[%d]", i), b, nil)
			if err != nil {
				return nil, err
			}
			doc.Union = append(doc.Union, md)
		}
		if v, ok := raw["order_by"]; ok {
			// Union order targets name result columns, so they resolve
			// without a scope.
			doc.OrderBy, err = compileOrder("order_by", v, nil)
			if err != nil {
				return nil, err
			}
		}
	default:
		return nil, errorf("document", "query or union is required")
	}

	return doc, nil
}
