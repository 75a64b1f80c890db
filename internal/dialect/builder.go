package dialect

import (
	"errors"
	"fmt"
	"maps"

	"github.com/roach88/querytext/internal/queryir"
)

// Builder constructs a Patterns table with a fluent API.
//
// Registration errors (malformed templates, a key set twice on the same
// builder) are collected and reported together by Build. Overriding an entry
// inherited through Extend is not a conflict.
//
// Example:
//
//	p, err := dialect.Extend(dialect.Base(), "oracle").
//	    TypeName(queryir.TypeInteger, "number(10,0)").
//	    Operator(queryir.OpCeil, "ceil({0})").
//	    PredicatePaging("rownum < {0}", "rownum > {0}", "rownum between {0} and {2}").
//	    Build()
type Builder struct {
	p    *Patterns
	set  map[string]bool
	errs []error
}

// NewDialect starts an empty pattern table.
func NewDialect(name string) *Builder {
	return &Builder{
		p: &Patterns{
			name:          name,
			templates:     make(map[queryir.Operator]Template),
			typeNames:     make(map[queryir.TypeTag]string),
			aggregates:    make(map[queryir.Operator]string),
			supportsAlias: true,
		},
		set: make(map[string]bool),
	}
}

// Extend starts a pattern table that inherits every entry of base.
func Extend(base *Patterns, name string) *Builder {
	b := NewDialect(name)
	maps.Copy(b.p.templates, base.templates)
	maps.Copy(b.p.typeNames, base.typeNames)
	maps.Copy(b.p.aggregates, base.aggregates)
	b.p.tokens = base.tokens
	b.p.paging = base.paging
	b.p.placeholder = base.placeholder
	b.p.supportsAlias = base.supportsAlias
	b.p.beforeOrderBy = base.beforeOrderBy
	return b
}

// claim records that key was set on this builder; a second claim is an error.
func (b *Builder) claim(key string) bool {
	if b.set[key] {
		b.errs = append(b.errs, fmt.Errorf("dialect %s: %s registered twice", b.p.name, key))
		return false
	}
	b.set[key] = true
	return true
}

// Operator registers the template for op.
//
// The precedence is inferred: templates with a slot at either edge ("{0} = {1}",
// "not {0}") take the operator's default level, delimited templates
// ("ceil({0})") take PrecedenceNone.
func (b *Builder) Operator(op queryir.Operator, tmpl string) *Builder {
	t, err := ParseTemplate(tmpl)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("dialect %s: operator %s: %w", b.p.name, op, err))
		return b
	}
	prec := PrecedenceNone
	if t.Exposed() {
		prec = defaultPrecedence[op]
	}
	return b.operator(op, t.withPrecedence(prec))
}

// OperatorPrecedence registers the template for op with an explicit precedence.
func (b *Builder) OperatorPrecedence(op queryir.Operator, tmpl string, precedence int) *Builder {
	t, err := ParseTemplate(tmpl)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("dialect %s: operator %s: %w", b.p.name, op, err))
		return b
	}
	return b.operator(op, t.withPrecedence(precedence))
}

func (b *Builder) operator(op queryir.Operator, t Template) *Builder {
	if op.IsCast() {
		b.errs = append(b.errs, fmt.Errorf("dialect %s: operator %s renders through type names and takes no template", b.p.name, op))
		return b
	}
	if n, ok := op.Arity(); ok && t.Arity() > n {
		b.errs = append(b.errs, fmt.Errorf("dialect %s: operator %s takes %d arguments but template %q uses %d",
			b.p.name, op, n, t.String(), t.Arity()))
		return b
	}
	if b.claim("operator " + string(op)) {
		b.p.templates[op] = t
	}
	return b
}

// TypeName registers the CAST target name for tag.
func (b *Builder) TypeName(tag queryir.TypeTag, name string) *Builder {
	if name == "" {
		b.errs = append(b.errs, fmt.Errorf("dialect %s: empty type name for %s", b.p.name, tag))
		return b
	}
	if b.claim("type " + string(tag)) {
		b.p.typeNames[tag] = name
	}
	return b
}

// Aggregate registers the window aggregate token for op, e.g. "sum".
func (b *Builder) Aggregate(op queryir.Operator, token string) *Builder {
	if b.claim("aggregate " + string(op)) {
		b.p.aggregates[op] = token
	}
	return b
}

// Tokens edits the clause tokens in place.
func (b *Builder) Tokens(fn func(t *Tokens)) *Builder {
	fn(&b.p.tokens)
	return b
}

// NativePaging selects LIMIT/OFFSET clauses. unbounded is the limit literal
// emitted when only an offset is set ("" for independent clauses).
func (b *Builder) NativePaging(unbounded string) *Builder {
	if !b.claim("paging") {
		return b
	}
	b.p.paging = Paging{Strategy: PagingNative, UnboundedLimit: unbounded}
	return b
}

// PredicatePaging selects predicate-simulated paging with the given templates.
func (b *Builder) PredicatePaging(limit, offset, limitOffset string) *Builder {
	if !b.claim("paging") {
		return b
	}
	paging := Paging{Strategy: PagingPredicate}
	for _, tt := range []struct {
		name  string
		src   string
		dst   *Template
		arity int
	}{
		{"limit", limit, &paging.Limit, 1},
		{"offset", offset, &paging.Offset, 1},
		{"limit/offset", limitOffset, &paging.LimitOffset, 3},
	} {
		if tt.src == "" {
			b.errs = append(b.errs, fmt.Errorf("dialect %s: %s paging template is required", b.p.name, tt.name))
			continue
		}
		t, err := ParseTemplate(tt.src)
		if err != nil {
			b.errs = append(b.errs, fmt.Errorf("dialect %s: %s paging: %w", b.p.name, tt.name, err))
			continue
		}
		if t.Arity() > tt.arity {
			b.errs = append(b.errs, fmt.Errorf("dialect %s: %s paging template %q uses %d slots, at most %d available",
				b.p.name, tt.name, tt.src, t.Arity(), tt.arity))
			continue
		}
		*tt.dst = t
	}
	b.p.paging = paging
	return b
}

// Placeholder sets the bound-parameter marker style.
func (b *Builder) Placeholder(style PlaceholderStyle) *Builder {
	b.p.placeholder = style
	return b
}

// Alias sets whether root join targets render as "entity alias".
func (b *Builder) Alias(supported bool) *Builder {
	b.p.supportsAlias = supported
	return b
}

// BeforeOrderBy installs the pre-ORDER BY hook.
func (b *Builder) BeforeOrderBy(hook ClauseHook) *Builder {
	b.p.beforeOrderBy = hook
	return b
}

// Build validates and returns the finished table. The builder must not be
// used afterwards.
func (b *Builder) Build() (*Patterns, error) {
	errs := b.errs
	p := b.p

	if p.name == "" {
		errs = append(errs, errors.New("dialect: name is required"))
	}
	if p.tokens.Select == "" || p.tokens.From == "" {
		errs = append(errs, fmt.Errorf("dialect %s: select and from tokens are required", p.name))
	}
	if _, ok := p.aggregates[queryir.OpSum]; !ok {
		errs = append(errs, fmt.Errorf("dialect %s: sum aggregate token is required", p.name))
	}
	if p.paging.Strategy == PagingPredicate &&
		(p.paging.Limit.IsZero() || p.paging.Offset.IsZero() || p.paging.LimitOffset.IsZero()) {
		errs = append(errs, fmt.Errorf("dialect %s: predicate paging requires limit, offset and limit/offset templates", p.name))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	b.p = nil
	return p, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Patterns {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}
