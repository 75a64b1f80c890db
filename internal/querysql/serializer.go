package querysql

import (
	"log/slog"
	"strings"

	"github.com/roach88/querytext/internal/dialect"
	"github.com/roach88/querytext/internal/queryir"
)

// Serializer renders query metadata to SQL for one dialect.
//
// A Serializer holds no per-render state: every Serialize or SerializeUnion
// call allocates its own buffer and constants list, which the whole call
// tree (nested subqueries included) writes into. One Serializer can be used
// from many goroutines at once.
type Serializer struct {
	patterns *dialect.Patterns
	logger   *slog.Logger
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithLogger sets the logger used for per-statement debug records.
func WithLogger(l *slog.Logger) Option {
	return func(s *Serializer) {
		s.logger = l
	}
}

// NewSerializer creates a serializer for the given pattern table.
func NewSerializer(p *dialect.Patterns, opts ...Option) *Serializer {
	s := &Serializer{patterns: p, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dialect returns the pattern table this serializer renders with.
func (s *Serializer) Dialect() *dialect.Patterns {
	return s.patterns
}

// Serialize renders one query.
//
// With forCountRow set the statement counts rows instead: the projection is
// replaced by count(*), and ORDER BY and paging are left out.
//
// On failure no partial statement is returned.
func (s *Serializer) Serialize(md *queryir.Metadata, forCountRow bool) (*Statement, error) {
	rc := s.newContext()
	if err := rc.query(md, forCountRow); err != nil {
		s.logger.Debug("render failed",
			"dialect", s.patterns.Name(),
			"error", err,
		)
		return nil, err
	}
	return s.finish(rc, "query", forCountRow), nil
}

// SerializeUnion renders the union of branches, each parenthesized, followed
// by one ORDER BY over the combined result.
func (s *Serializer) SerializeUnion(branches []*queryir.Metadata, orderBy []queryir.OrderSpec) (*Statement, error) {
	rc := s.newContext()
	if err := rc.union(branches, orderBy); err != nil {
		s.logger.Debug("render failed",
			"dialect", s.patterns.Name(),
			"union", true,
			"error", err,
		)
		return nil, err
	}
	return s.finish(rc, "union", false), nil
}

func (s *Serializer) newContext() *renderContext {
	return &renderContext{
		p:   s.patterns,
		tok: s.patterns.Tokens(),
	}
}

func (s *Serializer) finish(rc *renderContext, kind string, forCountRow bool) *Statement {
	stmt := &Statement{
		SQL:         rc.buf.String(),
		Constants:   rc.constants,
		Dialect:     s.patterns.Name(),
		Placeholder: s.patterns.PlaceholderStyle(),
	}
	if stmt.Constants == nil {
		stmt.Constants = []any{}
	}
	s.logger.Debug("statement rendered",
		"dialect", stmt.Dialect,
		"kind", kind,
		"count_row", forCountRow,
		"constants", len(stmt.Constants),
		"subqueries", rc.subqueries,
		"bytes", len(stmt.SQL),
	)
	return stmt
}

// renderContext is the private state of one top-level render call.
type renderContext struct {
	p          *dialect.Patterns
	tok        dialect.Tokens
	buf        strings.Builder
	constants  []any
	subqueries int
}

func (rc *renderContext) write(s string) {
	rc.buf.WriteString(s)
}

func (rc *renderContext) fail(code RenderErrorCode, clause, msg string) *RenderError {
	return &RenderError{
		Code:    code,
		Message: msg,
		Dialect: rc.p.Name(),
		Clause:  clause,
	}
}

// query renders one SELECT statement into the buffer.
func (rc *renderContext) query(md *queryir.Metadata, forCountRow bool) error {
	if md == nil {
		return rc.fail(ErrCodeInvalidStructure, "", "nil query")
	}
	if md.Limit != nil && *md.Limit < 0 {
		return rc.fail(ErrCodeInvalidStructure, "limit", "limit must be non-negative")
	}
	if md.Offset != nil && *md.Offset < 0 {
		return rc.fail(ErrCodeInvalidStructure, "offset", "offset must be non-negative")
	}

	if err := rc.projection(md, forCountRow); err != nil {
		return err
	}
	if err := rc.from(md.Joins); err != nil {
		return err
	}

	paging := rc.p.Paging()
	simulated := paging.Strategy == dialect.PagingPredicate && md.IsRestricting() && !forCountRow

	if md.Where != nil {
		rc.write(rc.tok.Where)
		var err error
		if simulated {
			// The paging predicate is and-ed onto the filter.
			err = rc.operand(md.Where, dialect.PrecedenceAnd, queryir.OpAnd)
		} else {
			err = rc.expr(md.Where)
		}
		if err != nil {
			return err
		}
	}
	// A paging predicate after HAVING would filter groups, so grouped
	// queries take it inside the WHERE clause.
	if simulated && len(md.GroupBy) > 0 {
		if err := rc.pagingPredicate(paging, md); err != nil {
			return err
		}
		simulated = false
	}

	if len(md.GroupBy) > 0 {
		rc.write(rc.tok.GroupBy)
		if err := rc.list(md.GroupBy, ", "); err != nil {
			return err
		}
	}
	if md.Having != nil {
		if len(md.GroupBy) == 0 {
			return rc.fail(ErrCodeInvalidStructure, "having", "having, but not group by was given")
		}
		rc.write(rc.tok.Having)
		if err := rc.expr(md.Having); err != nil {
			return err
		}
	}

	if hook := rc.p.BeforeOrderBy(); hook != nil {
		rc.write(hook(md, forCountRow))
	}

	if simulated {
		if err := rc.pagingPredicate(paging, md); err != nil {
			return err
		}
	}

	if len(md.OrderBy) > 0 && !forCountRow {
		if err := rc.orderBy(md.OrderBy); err != nil {
			return err
		}
	}

	if paging.Strategy == dialect.PagingNative && md.IsRestricting() && !forCountRow {
		if err := rc.nativePaging(paging, md.Limit, md.Offset); err != nil {
			return err
		}
	}
	return nil
}

func (rc *renderContext) projection(md *queryir.Metadata, forCountRow bool) error {
	if forCountRow {
		rc.write(rc.tok.Select)
		rc.write(rc.tok.CountStar)
		return nil
	}

	items := spliceConstructors(md.Projection)
	if len(items) == 0 {
		return rc.fail(ErrCodeEmptyProjection, "select", "query has no projection and is not a count")
	}
	if md.Distinct {
		rc.write(rc.tok.SelectDistinct)
	} else {
		rc.write(rc.tok.Select)
	}
	return rc.list(items, ", ")
}

// spliceConstructors flattens Constructor nodes into the surrounding list.
func spliceConstructors(exprs []queryir.Expr) []queryir.Expr {
	out := make([]queryir.Expr, 0, len(exprs))
	for _, e := range exprs {
		if c, ok := queryir.Deref(e).(queryir.Constructor); ok {
			out = append(out, spliceConstructors(c.Args)...)
			continue
		}
		out = append(out, e)
	}
	return out
}

func (rc *renderContext) from(joins []queryir.Join) error {
	rc.write(rc.tok.From)
	if len(joins) == 0 {
		if rc.tok.DummyTable == "" {
			return rc.fail(ErrCodeUnmappedClause, "from", "query has no join targets and the dialect has no dummy table")
		}
		rc.write(rc.tok.DummyTable)
		return nil
	}

	for i, j := range joins {
		if i > 0 {
			sep := rc.tok.JoinToken(j.Kind)
			if sep == "" {
				kind := string(j.Kind)
				if kind == "" {
					kind = string(queryir.JoinPlain)
				}
				return rc.fail(ErrCodeUnmappedClause, kind+" join", "dialect has no token for "+kind+" join")
			}
			rc.write(sep)
		}
		if err := rc.joinTarget(j.Target); err != nil {
			return err
		}
		if j.Condition != nil {
			rc.write(rc.tok.On)
			if err := rc.expr(j.Condition); err != nil {
				return err
			}
		}
	}
	return nil
}

// joinTarget renders a FROM/JOIN target. Root entity references render as
// "entity alias", and aliased subqueries as "(subquery) alias", when the
// dialect supports aliasing.
func (rc *renderContext) joinTarget(target queryir.Expr) error {
	if sub, alias, ok := aliasedSubquery(target); ok && rc.p.SupportsAlias() {
		if err := rc.expr(sub); err != nil {
			return err
		}
		rc.write(rc.tok.TableAlias)
		return rc.expr(alias)
	}

	ref, ok := queryir.Deref(target).(queryir.EntityRef)
	if !ok || !ref.IsRoot() || ref.Entity == "" || !rc.p.SupportsAlias() {
		return rc.expr(target)
	}
	if ref.Name == "" || ref.Name == ref.Entity {
		rc.write(ref.Entity)
		return nil
	}
	rc.write(ref.Entity)
	rc.write(rc.tok.TableAlias)
	return rc.expr(ref)
}

// aliasedSubquery matches alias(subquery, name).
func aliasedSubquery(target queryir.Expr) (sub, alias queryir.Expr, ok bool) {
	op, isOp := queryir.Deref(target).(queryir.Operation)
	if !isOp || op.Op != queryir.OpAlias || len(op.Args) != 2 {
		return nil, nil, false
	}
	if _, isSub := queryir.Deref(op.Args[0]).(queryir.SubQuery); !isSub {
		return nil, nil, false
	}
	return op.Args[0], op.Args[1], true
}

func (rc *renderContext) orderBy(specs []queryir.OrderSpec) error {
	rc.write(rc.tok.OrderBy)
	for i, o := range specs {
		if i > 0 {
			rc.write(", ")
		}
		if err := rc.expr(o.Target); err != nil {
			return err
		}
		switch o.Order {
		case queryir.Asc, queryir.Desc:
			rc.write(rc.tok.OrderToken(o.Order))
		default:
			return rc.fail(ErrCodeInvalidStructure, "order by", "unknown order direction "+string(o.Order))
		}
	}
	return nil
}

func (rc *renderContext) nativePaging(paging dialect.Paging, limit, offset *int64) error {
	switch {
	case limit != nil:
		if rc.tok.Limit == "" {
			return rc.fail(ErrCodeUnmappedClause, "limit", "dialect has no limit token")
		}
		rc.write(rc.tok.Limit)
		rc.write(formatInt(*limit))
	case offset != nil && paging.UnboundedLimit != "":
		if rc.tok.Limit == "" {
			return rc.fail(ErrCodeUnmappedClause, "limit", "dialect has no limit token")
		}
		rc.write(rc.tok.Limit)
		rc.write(paging.UnboundedLimit)
	}
	if offset != nil {
		if rc.tok.Offset == "" {
			return rc.fail(ErrCodeUnmappedClause, "offset", "dialect has no offset token")
		}
		rc.write(rc.tok.Offset)
		rc.write(formatInt(*offset))
	}
	return nil
}

// pagingPredicate writes the simulated paging condition, opening the WHERE
// clause if the query has no filter. Bounds are inlined as numbers, not bound
// as parameters. The combined bounds offset+1 and offset+limit must fit in
// an int64.
func (rc *renderContext) pagingPredicate(paging dialect.Paging, md *queryir.Metadata) error {
	limit, offset := md.Limit, md.Offset
	if limit != nil && offset != nil && !queryir.PagingInRange(*limit, *offset) {
		return rc.fail(ErrCodeInvalidStructure, "limit", "offset+limit overflows the row number range")
	}

	if md.Where == nil {
		rc.write(rc.tok.Where)
	} else {
		rc.write(rc.tok.And)
	}

	switch {
	case limit != nil && offset != nil:
		rc.write(paging.LimitOffset.Format(
			formatInt(*offset+1),
			formatInt(*offset),
			formatInt(*offset+*limit),
		))
	case limit != nil:
		rc.write(paging.Limit.Format(formatInt(*limit)))
	default:
		rc.write(paging.Offset.Format(formatInt(*offset)))
	}
	return nil
}

func (rc *renderContext) union(branches []*queryir.Metadata, orderBy []queryir.OrderSpec) error {
	if len(branches) == 0 {
		return rc.fail(ErrCodeInvalidStructure, "union", "union has no branches")
	}
	for i, b := range branches {
		if i > 0 {
			rc.write(rc.tok.Union)
		}
		rc.write("(")
		if err := rc.query(b, false); err != nil {
			return err
		}
		rc.write(")")
	}
	if len(orderBy) > 0 {
		return rc.orderBy(orderBy)
	}
	return nil
}
