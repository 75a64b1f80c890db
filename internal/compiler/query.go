package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/querytext/internal/ir"
	"github.com/roach88/querytext/internal/queryir"
)

// scope maps table variables to their root references. Subqueries see the
// variables of every enclosing query, so correlated references resolve.
type scope struct {
	outer *scope
	vars  map[string]*queryir.EntityRef
}

func newScope(outer *scope) *scope {
	return &scope{outer: outer, vars: make(map[string]*queryir.EntityRef)}
}

func (s *scope) lookup(name string) *queryir.EntityRef {
	for sc := s; sc != nil; sc = sc.outer {
		if ref, ok := sc.vars[name]; ok {
			return ref
		}
	}
	return nil
}

// compileQuery compiles one query object.
func compileQuery(path string, v any, outer *scope) (*queryir.Metadata, error) {
	m, err := asMap(path, v)
	if err != nil {
		return nil, err
	}
	if err := checkKeys(path, m,
		"distinct", "select", "from", "join", "where", "group_by", "having", "order_by", "limit", "offset",
	); err != nil {
		return nil, err
	}

	md := &queryir.Metadata{}
	sc := newScope(outer)

	if d, ok := m["distinct"]; ok {
		if md.Distinct, err = asBool(path+".distinct", d); err != nil {
			return nil, err
		}
	}

	// Targets first, so every clause can reference every variable.
	if err := compileTargets(path, m, md, sc); err != nil {
		return nil, err
	}

	if md.Projection, err = compileNodes(path+".select", m["select"], sc); err != nil {
		return nil, err
	}
	if w, ok := m["where"]; ok {
		if md.Where, err = compileNode(path+".where", w, sc); err != nil {
			return nil, err
		}
	}
	if md.GroupBy, err = compileNodes(path+".group_by", m["group_by"], sc); err != nil {
		return nil, err
	}
	if h, ok := m["having"]; ok {
		if md.Having, err = compileNode(path+".having", h, sc); err != nil {
			return nil, err
		}
	}
	if o, ok := m["order_by"]; ok {
		if md.OrderBy, err = compileOrder(path+".order_by", o, sc); err != nil {
			return nil, err
		}
	}
	if l, ok := m["limit"]; ok {
		n, err := asInt(path+".limit", l)
		if err != nil {
			return nil, err
		}
		md.Limit = queryir.Int64(n)
	}
	if o, ok := m["offset"]; ok {
		n, err := asInt(path+".offset", o)
		if err != nil {
			return nil, err
		}
		md.Offset = queryir.Int64(n)
	}
	return md, nil
}

// compileTargets compiles from and join entries in order. Join conditions
// are compiled after all targets are declared.
func compileTargets(path string, m map[string]any, md *queryir.Metadata, sc *scope) error {
	from, err := listOrEmpty(path+".from", m["from"])
	if err != nil {
		return err
	}
	joins, err := listOrEmpty(path+".join", m["join"])
	if err != nil {
		return err
	}
	if len(joins) > 0 && len(from) == 0 {
		return errorf(path+".join", "join requires a from target")
	}

	var conditions []any
	var condPaths []string

	for i, f := range from {
		p := fmt.Sprintf("%s.from[%d]", path, i)
		target, err := compileTarget(p, f, sc, "entity", "as", "subquery")
		if err != nil {
			return err
		}
		md.Joins = append(md.Joins, queryir.Join{Target: target, Kind: queryir.JoinPlain})
		conditions = append(conditions, nil)
		condPaths = append(condPaths, "")
	}

	for i, j := range joins {
		p := fmt.Sprintf("%s.join[%d]", path, i)
		jm, err := asMap(p, j)
		if err != nil {
			return err
		}
		target, err := compileTarget(p, jm, sc, "entity", "as", "subquery", "kind", "on")
		if err != nil {
			return err
		}
		kind := queryir.JoinInner
		if k, ok := jm["kind"]; ok {
			s, err := asString(p+".kind", k)
			if err != nil {
				return err
			}
			switch queryir.JoinKind(s) {
			case queryir.JoinPlain, queryir.JoinInner, queryir.JoinLeft, queryir.JoinFull:
				kind = queryir.JoinKind(s)
			default:
				return errorf(p+".kind", "unknown join kind %q (want plain, inner, left or full)", s)
			}
		}
		md.Joins = append(md.Joins, queryir.Join{Target: target, Kind: kind})
		conditions = append(conditions, jm["on"])
		condPaths = append(condPaths, p+".on")
	}

	for i, c := range conditions {
		if c == nil {
			continue
		}
		cond, err := compileNode(condPaths[i], c, sc)
		if err != nil {
			return err
		}
		md.Joins[i].Condition = cond
	}
	return nil
}

// compileTarget compiles a from/join target and declares its variable.
// A bare string names a table used under its own name.
func compileTarget(path string, v any, sc *scope, allowed ...string) (queryir.Expr, error) {
	if name, ok := v.(string); ok {
		return declare(path, sc, name, name)
	}
	m, err := asMap(path, v)
	if err != nil {
		return nil, err
	}
	if err := checkKeys(path, m, allowed...); err != nil {
		return nil, err
	}
	alias, err := optString(path+".as", m["as"])
	if err != nil {
		return nil, err
	}

	if sq, ok := m["subquery"]; ok {
		if _, both := m["entity"]; both {
			return nil, errorf(path, "entity and subquery are mutually exclusive")
		}
		inner, err := compileQuery(path+".subquery", sq, sc)
		if err != nil {
			return nil, err
		}
		var target queryir.Expr = queryir.SubQuery{Metadata: inner}
		if alias != "" {
			if _, err := declare(path, sc, "", alias); err != nil {
				return nil, err
			}
			target = queryir.Op(queryir.OpAlias, target, queryir.Ref(alias))
		}
		return target, nil
	}

	entity, err := asString(path+".entity", m["entity"])
	if err != nil {
		return nil, err
	}
	if alias == "" {
		alias = entity
	}
	return declare(path, sc, entity, alias)
}

func declare(path string, sc *scope, entity, name string) (*queryir.EntityRef, error) {
	if name == "" {
		return nil, errorf(path, "table variable name is empty")
	}
	if _, dup := sc.vars[name]; dup {
		return nil, errorf(path, "table variable %q declared twice", name)
	}
	ref := queryir.Entity(entity, name)
	sc.vars[name] = ref
	return ref, nil
}

func compileNodes(path string, v any, sc *scope) ([]queryir.Expr, error) {
	items, err := listOrEmpty(path, v)
	if err != nil {
		return nil, err
	}
	var out []queryir.Expr
	for i, item := range items {
		e, err := compileNode(fmt.Sprintf("%s[%d]", path, i), item, sc)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// compileOrder compiles order specifiers: a bare node sorts ascending,
// {by: <node>, dir: asc|desc} picks the direction.
func compileOrder(path string, v any, sc *scope) ([]queryir.OrderSpec, error) {
	items, err := asList(path, v)
	if err != nil {
		return nil, err
	}
	var out []queryir.OrderSpec
	for i, item := range items {
		p := fmt.Sprintf("%s[%d]", path, i)
		spec := queryir.OrderSpec{Order: queryir.Asc}

		m, isMap := item.(map[string]any)
		if _, hasBy := m["by"]; !isMap || !hasBy {
			if spec.Target, err = compileNode(p, item, sc); err != nil {
				return nil, err
			}
			out = append(out, spec)
			continue
		}

		if err := checkKeys(p, m, "by", "dir"); err != nil {
			return nil, err
		}
		if spec.Target, err = compileNode(p+".by", m["by"], sc); err != nil {
			return nil, err
		}
		if d, ok := m["dir"]; ok {
			dir, err := asString(p+".dir", d)
			if err != nil {
				return nil, err
			}
			switch queryir.Order(strings.ToLower(dir)) {
			case queryir.Asc:
			case queryir.Desc:
				spec.Order = queryir.Desc
			default:
				return nil, errorf(p+".dir", "unknown direction %q (want asc or desc)", dir)
			}
		}
		out = append(out, spec)
	}
	return out, nil
}

// nodeForms are the discriminating keys of object nodes.
var nodeForms = []string{"ref", "const", "op", "cast", "alias", "subquery", "window", "columns"}

// compileNode compiles one expression node.
func compileNode(path string, v any, sc *scope) (queryir.Expr, error) {
	switch x := v.(type) {
	case string:
		return compileRef(path, x, sc)
	case map[string]any:
		return compileObject(path, x, sc)
	case []any:
		return nil, errorf(path, "bare lists are not expressions; use {const: [...]}")
	default:
		val, err := ir.Literal(x, ir.KindAuto)
		if err != nil {
			return nil, errorf(path, "%v", err)
		}
		return queryir.Const(val), nil
	}
}

func compileObject(path string, m map[string]any, sc *scope) (queryir.Expr, error) {
	var form string
	for _, f := range nodeForms {
		if _, ok := m[f]; !ok {
			continue
		}
		if form != "" {
			return nil, errorf(path, "node has both %q and %q", form, f)
		}
		form = f
	}

	switch form {
	case "ref":
		if err := checkKeys(path, m, "ref"); err != nil {
			return nil, err
		}
		name, err := asString(path+".ref", m["ref"])
		if err != nil {
			return nil, err
		}
		return compileRef(path+".ref", name, sc)

	case "const":
		if err := checkKeys(path, m, "const", "type"); err != nil {
			return nil, err
		}
		kind, err := optString(path+".type", m["type"])
		if err != nil {
			return nil, err
		}
		val, err := ir.Literal(m["const"], ir.Kind(kind))
		if err != nil {
			return nil, errorf(path+".const", "%v", err)
		}
		return queryir.Const(val), nil

	case "op":
		if err := checkKeys(path, m, "op", "args"); err != nil {
			return nil, err
		}
		name, err := asString(path+".op", m["op"])
		if err != nil {
			return nil, err
		}
		op := queryir.Operator(name)
		if !op.Known() {
			return nil, errorf(path+".op", "unknown operator %q", name)
		}
		if op.IsCast() {
			return nil, errorf(path+".op", "write casts as {cast: <node>, to: <type>}")
		}
		args, err := compileNodes(path+".args", m["args"], sc)
		if err != nil {
			return nil, err
		}
		return queryir.Op(op, args...), nil

	case "cast":
		if err := checkKeys(path, m, "cast", "to"); err != nil {
			return nil, err
		}
		src, err := compileNode(path+".cast", m["cast"], sc)
		if err != nil {
			return nil, err
		}
		to, err := asString(path+".to", m["to"])
		if err != nil {
			return nil, err
		}
		tag, ok := queryir.ParseTypeTag(to)
		if !ok {
			return nil, errorf(path+".to", "unknown type %q", to)
		}
		if tag == queryir.TypeString {
			return queryir.Op(queryir.OpStringCast, src), nil
		}
		return queryir.Cast(src, tag), nil

	case "alias":
		if err := checkKeys(path, m, "alias", "as"); err != nil {
			return nil, err
		}
		src, err := compileNode(path+".alias", m["alias"], sc)
		if err != nil {
			return nil, err
		}
		name, err := asString(path+".as", m["as"])
		if err != nil {
			return nil, err
		}
		return queryir.Op(queryir.OpAlias, src, queryir.Ref(name)), nil

	case "subquery":
		if err := checkKeys(path, m, "subquery"); err != nil {
			return nil, err
		}
		inner, err := compileQuery(path+".subquery", m["subquery"], sc)
		if err != nil {
			return nil, err
		}
		return queryir.SubQuery{Metadata: inner}, nil

	case "window":
		return compileWindow(path, m, sc)

	case "columns":
		if err := checkKeys(path, m, "columns"); err != nil {
			return nil, err
		}
		args, err := compileNodes(path+".columns", m["columns"], sc)
		if err != nil {
			return nil, err
		}
		return queryir.Constructor{Args: args}, nil

	default:
		return nil, errorf(path, "unrecognized node; want one of %s", strings.Join(nodeForms, ", "))
	}
}

func compileWindow(path string, m map[string]any, sc *scope) (queryir.Expr, error) {
	if err := checkKeys(path, m, "window", "target", "partition_by", "order_by"); err != nil {
		return nil, err
	}
	agg, err := asString(path+".window", m["window"])
	if err != nil {
		return nil, err
	}
	w := queryir.WindowAggregate{Aggregate: queryir.Operator(agg)}

	t, ok := m["target"]
	if !ok {
		return nil, errorf(path+".target", "window target is required")
	}
	if w.Target, err = compileNode(path+".target", t, sc); err != nil {
		return nil, err
	}
	if p, ok := m["partition_by"]; ok {
		if w.PartitionBy, err = compileNode(path+".partition_by", p, sc); err != nil {
			return nil, err
		}
	}
	if o, ok := m["order_by"]; ok {
		if w.OrderBy, err = compileOrder(path+".order_by", o, sc); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// compileRef resolves a dotted reference. The first segment binds to a table
// variable when one is in scope; otherwise the path is left unbound, as for
// select aliases and union result columns.
func compileRef(path, name string, sc *scope) (queryir.Expr, error) {
	segments := strings.Split(name, ".")
	for _, s := range segments {
		if s == "" {
			return nil, errorf(path, "malformed reference %q", name)
		}
	}

	var parent *queryir.EntityRef
	if sc != nil {
		parent = sc.lookup(segments[0])
	}
	if parent == nil {
		parent = &queryir.EntityRef{Name: segments[0]}
	}
	if len(segments) == 1 {
		return *parent, nil
	}

	ref := queryir.EntityRef{Name: segments[1], Parent: parent}
	for _, s := range segments[2:] {
		p := ref
		ref = queryir.EntityRef{Name: s, Parent: &p}
	}
	return ref, nil
}
