// Package dialect provides the SQL pattern tables that drive rendering.
//
// A Patterns value holds, for one database product, every token and template
// the serializer needs: operator templates, cast type names, clause tokens,
// the paging strategy and the placeholder style. Tables are built once with a
// Builder and are immutable afterwards, so one *Patterns can be shared by any
// number of concurrent renders.
//
// Product dialects live in internal/dialects/* and extend Base().
package dialect

import (
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/querytext/internal/queryir"
)

// PagingStrategy selects how LIMIT/OFFSET are expressed.
type PagingStrategy int

const (
	// PagingNative appends LIMIT and OFFSET clauses.
	PagingNative PagingStrategy = iota
	// PagingPredicate expresses paging as a WHERE predicate over a row
	// pseudocolumn, for products without LIMIT/OFFSET syntax.
	PagingPredicate
)

// String returns the strategy name.
func (s PagingStrategy) String() string {
	switch s {
	case PagingNative:
		return "native"
	case PagingPredicate:
		return "predicate"
	default:
		return "unknown"
	}
}

// Paging holds the paging configuration of a dialect.
//
// For PagingPredicate the templates receive:
//   - Limit:       {0} = limit
//   - Offset:      {0} = offset
//   - LimitOffset: {0} = offset+1, {1} = offset, {2} = offset+limit
type Paging struct {
	Strategy    PagingStrategy
	Limit       Template
	Offset      Template
	LimitOffset Template

	// UnboundedLimit is emitted as the limit when only an offset is set, for
	// products that reject OFFSET without LIMIT. Empty means LIMIT and OFFSET
	// are independent.
	UnboundedLimit string
}

// PlaceholderStyle selects the bound-parameter marker.
type PlaceholderStyle int

const (
	// PlaceholderQuestion renders every parameter as "?".
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar renders parameters as "$1", "$2", ...
	PlaceholderDollar
)

// String returns the style name.
func (s PlaceholderStyle) String() string {
	switch s {
	case PlaceholderDollar:
		return "dollar"
	default:
		return "question"
	}
}

// ParsePlaceholderStyle resolves a style by name.
func ParsePlaceholderStyle(s string) (PlaceholderStyle, bool) {
	switch strings.ToLower(s) {
	case "question", "?":
		return PlaceholderQuestion, true
	case "dollar", "$":
		return PlaceholderDollar, true
	default:
		return PlaceholderQuestion, false
	}
}

// Tokens holds clause keywords. Tokens include their own surrounding
// whitespace so the serializer concatenates them verbatim.
type Tokens struct {
	Select         string
	SelectDistinct string
	From           string
	DummyTable     string

	Join      string // separator for plain joins after the first target
	InnerJoin string
	LeftJoin  string
	FullJoin  string
	On        string

	Where   string
	And     string // joins WHERE and a simulated paging predicate
	GroupBy string
	Having  string
	OrderBy string
	Asc     string
	Desc    string

	Union      string
	TableAlias string
	CountStar  string

	Over        string
	PartitionBy string

	Limit  string
	Offset string
}

// JoinToken returns the separator token for a join kind, or "" for a kind
// the dialect does not know.
func (t Tokens) JoinToken(kind queryir.JoinKind) string {
	switch kind {
	case "", queryir.JoinPlain:
		return t.Join
	case queryir.JoinInner:
		return t.InnerJoin
	case queryir.JoinLeft:
		return t.LeftJoin
	case queryir.JoinFull:
		return t.FullJoin
	default:
		return ""
	}
}

// OrderToken returns the direction token for an order.
func (t Tokens) OrderToken(o queryir.Order) string {
	if o == queryir.Desc {
		return t.Desc
	}
	return t.Asc
}

// ClauseHook lets a dialect emit extra text right before ORDER BY.
// The returned text is appended verbatim; "" emits nothing.
type ClauseHook func(md *queryir.Metadata, forCountRow bool) string

// Patterns is the immutable pattern table of one dialect.
type Patterns struct {
	name          string
	templates     map[queryir.Operator]Template
	typeNames     map[queryir.TypeTag]string
	aggregates    map[queryir.Operator]string
	tokens        Tokens
	paging        Paging
	placeholder   PlaceholderStyle
	supportsAlias bool
	beforeOrderBy ClauseHook
}

// Name returns the dialect name.
func (p *Patterns) Name() string {
	return p.name
}

// Template returns the template registered for op.
func (p *Patterns) Template(op queryir.Operator) (Template, bool) {
	t, ok := p.templates[op]
	return t, ok
}

// Operators returns the operators with a registered template, sorted.
func (p *Patterns) Operators() []queryir.Operator {
	ops := make([]queryir.Operator, 0, len(p.templates))
	for op := range p.templates {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// TypeName returns the CAST target name for a type tag.
func (p *Patterns) TypeName(tag queryir.TypeTag) (string, bool) {
	n, ok := p.typeNames[tag]
	return n, ok
}

// TypeTags returns the type tags with a registered name, sorted.
func (p *Patterns) TypeTags() []queryir.TypeTag {
	tags := make([]queryir.TypeTag, 0, len(p.typeNames))
	for t := range p.typeNames {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Aggregate returns the window aggregate token for op.
func (p *Patterns) Aggregate(op queryir.Operator) (string, bool) {
	a, ok := p.aggregates[op]
	return a, ok
}

// Tokens returns a copy of the clause tokens.
func (p *Patterns) Tokens() Tokens {
	return p.tokens
}

// Paging returns the paging configuration.
func (p *Patterns) Paging() Paging {
	return p.paging
}

// PlaceholderStyle returns the parameter marker style.
func (p *Patterns) PlaceholderStyle() PlaceholderStyle {
	return p.placeholder
}

// Placeholder returns the marker for the given parameter index (1-based).
func (p *Patterns) Placeholder(index int) string {
	switch p.placeholder {
	case PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	default:
		return "?"
	}
}

// SupportsAlias reports whether root join targets render as "entity alias".
func (p *Patterns) SupportsAlias() bool {
	return p.supportsAlias
}

// BeforeOrderBy returns the dialect's pre-ORDER BY hook, or nil.
func (p *Patterns) BeforeOrderBy() ClauseHook {
	return p.beforeOrderBy
}
