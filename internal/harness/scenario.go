package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/querytext/internal/compiler"
	"github.com/roach88/querytext/internal/querysql"
)

// Scenario defines a conformance test scenario: one query document, the SQL
// it must render to per dialect, and optionally the rows it must return.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Document is the path of the query document.
	// Relative paths resolve against the scenario file's directory.
	Document string `yaml:"document,omitempty"`

	// Inline is a query document written directly in the scenario.
	// Exactly one of Document and Inline is set.
	Inline yaml.Node `yaml:"inline,omitempty"`

	// Count renders the count-row variant.
	Count bool `yaml:"count,omitempty"`

	// Expect maps dialect names to the expected render.
	Expect map[string]Expectation `yaml:"expect"`

	// Execute runs the sqlite rendering against a fresh in-memory database.
	Execute *Execution `yaml:"execute,omitempty"`

	// Path is the file the scenario was loaded from, empty for scenarios
	// built in code.
	Path string `yaml:"-"`

	doc *compiler.Document
}

// Expectation is the expected render for one dialect.
type Expectation struct {
	// SQL is the exact expected statement text.
	SQL string `yaml:"sql,omitempty"`

	// Constants are the expected bind values in placeholder order.
	// Values are compared after literal normalization, so 1.5 matches a
	// decimal constant and 3 matches an int64.
	Constants []any `yaml:"constants,omitempty"`

	// Error is the expected render error code (e.g. UNMAPPED_CLAUSE).
	// When set, SQL and Constants must be empty.
	Error string `yaml:"error,omitempty"`
}

// Execution describes the database step of a scenario.
type Execution struct {
	// Setup statements run in order before the query.
	Setup []string `yaml:"setup"`

	// Rows are the expected result rows, compared in order.
	Rows [][]any `yaml:"rows,omitempty"`

	// RowCount is the expected number of rows, checked when Rows is empty.
	RowCount *int `yaml:"row_count,omitempty"`
}

// ExecutionDialect is the dialect whose rendering is executed.
const ExecutionDialect = "sqlite"

// errorCodes lists the accepted values of Expectation.Error.
var errorCodes = []string{
	string(querysql.ErrCodeInvalidStructure),
	string(querysql.ErrCodeEmptyProjection),
	string(querysql.ErrCodeUnmappedOperator),
	string(querysql.ErrCodeUnmappedType),
	string(querysql.ErrCodeUnmappedClause),
	string(querysql.ErrCodeArityMismatch),
}

// LoadScenario reads and parses a scenario YAML file, then compiles its
// query document.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "expects:" vs "expect:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	scenario.Path = path

	if scenario.Document != "" && !filepath.IsAbs(scenario.Document) {
		scenario.Document = filepath.Join(filepath.Dir(path), scenario.Document)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if _, err := scenario.Compile(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every .yaml/.yml scenario under dir, sorted by path.
// A non-empty filter is a glob matched against the file name without its
// extension.
func LoadScenarios(dir, filter string) ([]*Scenario, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Snapshots live under golden/.
			if d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		if !isScenarioFile(p) {
			continue
		}
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// isScenarioFile reports whether a YAML file has a top-level expect key.
// Query documents sharing the directory are skipped.
func isScenarioFile(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		// Surface the read error from LoadScenario.
		return true
	}
	var head map[string]any
	if err := yaml.Unmarshal(data, &head); err != nil {
		return true
	}
	_, ok := head["expect"]
	return ok
}

// Compile returns the scenario's compiled query document, compiling it on
// first use.
func (s *Scenario) Compile() (*compiler.Document, error) {
	if s.doc != nil {
		return s.doc, nil
	}

	var (
		doc *compiler.Document
		err error
	)
	switch {
	case s.Document != "":
		doc, err = compiler.Load(s.Document)
	case s.Inline.Kind != 0:
		var data []byte
		data, err = yaml.Marshal(&s.Inline)
		if err != nil {
			return nil, fmt.Errorf("inline: %w", err)
		}
		doc, err = compiler.ParseYAML(data)
	default:
		return nil, fmt.Errorf("document or inline is required")
	}
	if err != nil {
		return nil, fmt.Errorf("compile document: %w", err)
	}

	s.doc = doc
	return doc, nil
}

// Dialects returns the expected dialect names, sorted.
func (s *Scenario) Dialects() []string {
	names := make([]string, 0, len(s.Expect))
	for name := range s.Expect {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	hasInline := s.Inline.Kind != 0
	switch {
	case s.Document == "" && !hasInline:
		return fmt.Errorf("document or inline is required")
	case s.Document != "" && hasInline:
		return fmt.Errorf("document and inline are mutually exclusive")
	}

	if s.Document != "" {
		if _, err := os.Stat(s.Document); os.IsNotExist(err) {
			return fmt.Errorf("document not found: %s", s.Document)
		}
	}

	if len(s.Expect) == 0 {
		return fmt.Errorf("expect is required and must be non-empty")
	}
	for _, name := range s.Dialects() {
		exp := s.Expect[name]
		if exp.Error != "" {
			if !slices.Contains(errorCodes, exp.Error) {
				return fmt.Errorf("expect.%s: unknown error code %q", name, exp.Error)
			}
			if exp.SQL != "" || len(exp.Constants) > 0 {
				return fmt.Errorf("expect.%s: error excludes sql and constants", name)
			}
			continue
		}
		if exp.SQL == "" {
			return fmt.Errorf("expect.%s: sql or error is required", name)
		}
	}

	if s.Execute != nil {
		if len(s.Execute.Rows) == 0 && s.Execute.RowCount == nil {
			return fmt.Errorf("execute: rows or row_count is required")
		}
		if s.Execute.RowCount != nil && *s.Execute.RowCount < 0 {
			return fmt.Errorf("execute: row_count must be non-negative")
		}
	}

	return nil
}
