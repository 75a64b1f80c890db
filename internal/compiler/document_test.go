package compiler

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querytext/internal/dialects/oracle"
	"github.com/roach88/querytext/internal/dialects/postgres"
	"github.com/roach88/querytext/internal/queryir"
	"github.com/roach88/querytext/internal/querysql"
)

func oracleSerializer(t *testing.T) *querysql.Serializer {
	t.Helper()
	p, err := oracle.New()
	require.NoError(t, err)
	return querysql.NewSerializer(p, querysql.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

const weeklyDoc = `
name: weekly
dialect: oracle
query:
  select:
    - s.id
    - {alias: {op: count, args: [q.id]}, as: questions}
  from:
    - {entity: survey, as: s}
  join:
    - {kind: left, entity: question, as: q, on: {op: eq, args: [q.survey_id, s.id]}}
  where: {op: eq, args: [s.kind, {const: weekly}]}
  group_by: [s.id]
  order_by:
    - {by: s.id, dir: desc}
  limit: 5
  offset: 10
`

func TestParseYAML(t *testing.T) {
	doc, err := ParseYAML([]byte(weeklyDoc))
	require.NoError(t, err)

	assert.Equal(t, "weekly", doc.Name)
	assert.Equal(t, "oracle", doc.Dialect)
	assert.False(t, doc.IsUnion())
	assert.Len(t, doc.Hash, 64)

	md := doc.Query
	require.Len(t, md.Joins, 2)
	assert.Equal(t, queryir.JoinPlain, md.Joins[0].Kind)
	assert.Equal(t, queryir.JoinLeft, md.Joins[1].Kind)
	assert.NotNil(t, md.Joins[1].Condition)
	assert.Equal(t, int64(5), *md.Limit)
	assert.Equal(t, int64(10), *md.Offset)

	stmt, err := doc.Render(oracleSerializer(t), false)
	require.NoError(t, err)
	assert.Equal(t,
		"select s.id, count(q.id) as questions from survey s"+
			" left join question q on q.survey_id = s.id"+
			" where s.kind = ? and rownum between 11 and 15"+
			" group by s.id order by s.id desc",
		stmt.SQL)
	assert.Equal(t, []any{"weekly"}, stmt.Constants)
}

func TestParseYAML_ReferencesBindToTables(t *testing.T) {
	doc, err := ParseYAML([]byte(weeklyDoc))
	require.NoError(t, err)

	id, ok := doc.Query.Projection[0].(queryir.EntityRef)
	require.True(t, ok)
	require.NotNil(t, id.Parent)
	assert.Equal(t, "survey", id.Parent.Entity)
	assert.Equal(t, "s", id.Parent.Name)
	assert.Same(t, doc.Query.Joins[0].Target, id.Parent)
}

func TestParseYAML_CorrelatedSubquery(t *testing.T) {
	doc, err := ParseYAML([]byte(`
query:
  select:
    - s.id
    - subquery:
        select: [{op: count, args: [q.id]}]
        from: [{entity: question, as: q}]
        where: {op: eq, args: [q.survey_id, s.id]}
  from: [{entity: survey, as: s}]
`))
	require.NoError(t, err)

	stmt, err := doc.Render(oracleSerializer(t), false)
	require.NoError(t, err)
	assert.Equal(t, "select s.id, (select count(q.id) from question q where q.survey_id = s.id) from survey s", stmt.SQL)

	inner := doc.Query.Projection[1].(queryir.SubQuery).Metadata
	where := inner.Where.(queryir.Operation)
	outerRef := where.Args[1].(queryir.EntityRef)
	assert.Equal(t, "survey", outerRef.Parent.Entity, "s resolves to the enclosing query")
}

func TestParseYAML_Nodes(t *testing.T) {
	doc, err := ParseYAML([]byte(`
count: false
query:
  select:
    - {cast: s.score, to: integer}
    - {cast: s.id, to: string}
    - {window: sum, target: s.score, partition_by: s.kind, order_by: [s.id]}
    - {columns: [s.a, s.b]}
    - 12.5
    - {const: "2024-03-01", type: date}
  from: [{entity: survey, as: s}]
  where: {op: in, args: [s.id, {const: [1, 2, 3]}]}
`))
	require.NoError(t, err)

	proj := doc.Query.Projection
	require.Len(t, proj, 6)
	assert.Equal(t, queryir.OpNumCast, proj[0].(queryir.Operation).Op)
	assert.Equal(t, queryir.OpStringCast, proj[1].(queryir.Operation).Op)
	assert.IsType(t, queryir.WindowAggregate{}, proj[2])
	assert.IsType(t, queryir.Constructor{}, proj[3])

	d, ok := proj[4].(queryir.Constant).Value.(decimal.Decimal)
	require.True(t, ok, "fractional numbers compile to exact decimals")
	assert.True(t, d.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), proj[5].(queryir.Constant).Value)

	stmt, err := doc.Render(oracleSerializer(t), false)
	require.NoError(t, err)
	assert.Equal(t,
		"select cast(s.score as number(10,0)), cast(s.id as varchar(4000 char)),"+
			" sum(s.score) over (partition by s.kind order by s.id), s.a, s.b, ?, ?"+
			" from survey s where s.id in (?, ?, ?)",
		stmt.SQL)
	assert.Len(t, stmt.Constants, 5)
}

func TestParseYAML_BareTableTarget(t *testing.T) {
	doc, err := ParseYAML([]byte(`
query:
  select: [survey.id]
  from: [survey]
`))
	require.NoError(t, err)

	stmt, err := doc.Render(oracleSerializer(t), false)
	require.NoError(t, err)
	assert.Equal(t, "select survey.id from survey", stmt.SQL)
}

func TestParseYAML_Union(t *testing.T) {
	doc, err := ParseYAML([]byte(`
union:
  - select: [s.id]
    from: [{entity: survey, as: s}]
  - select: [t.id]
    from: [{entity: survey, as: t}]
order_by: [{by: id, dir: desc}]
`))
	require.NoError(t, err)
	require.True(t, doc.IsUnion())
	assert.True(t, doc.Validate().Valid)

	s := oracleSerializer(t)
	stmt, err := doc.Render(s, false)
	require.NoError(t, err)
	assert.Equal(t, "(select s.id from survey s) union (select t.id from survey t) order by id desc", stmt.SQL)

	_, err = doc.Render(s, true)
	assert.Error(t, err, "unions have no count variant")
}

func TestParseYAML_CountDocument(t *testing.T) {
	doc, err := ParseYAML([]byte(`
count: true
query:
  select: [s.id]
  from: [{entity: survey, as: s}]
  limit: 3
`))
	require.NoError(t, err)

	stmt, err := doc.Render(oracleSerializer(t), false)
	require.NoError(t, err)
	assert.Equal(t, "select count(*) from survey s", stmt.SQL)
}

func TestParseYAML_SubqueryTarget(t *testing.T) {
	doc, err := ParseYAML([]byte(`
query:
  select: [recent.id]
  from:
    - as: recent
      subquery:
        select: [s.id]
        from: [{entity: survey, as: s}]
        limit: 10
`))
	require.NoError(t, err)

	p, err := postgres.New()
	require.NoError(t, err)
	stmt, err := doc.Render(querysql.NewSerializer(p), false)
	require.NoError(t, err)
	assert.Equal(t, "select recent.id from (select s.id from survey s limit 10) recent", stmt.SQL)
}

func TestDocument_Validate(t *testing.T) {
	doc, err := ParseYAML([]byte(`
query:
  select: [s.kind]
  from: [{entity: survey, as: s}]
  having: {op: gt, args: [{op: count, args: [s.id]}, 1]}
`))
	require.NoError(t, err)

	result := doc.Validate()
	assert.False(t, result.Valid)
	assert.Contains(t, result.Problems, "query.having: having, but not group by was given")
}

func TestParseYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", ``, "empty document"},
		{"neither", `name: x`, "query or union is required"},
		{"both", "query: {select: [a]}\nunion: []", "mutually exclusive"},
		{"unknown document field", "query: {select: [a]}\nfoo: 1", "unknown field(s) foo"},
		{"unknown query field", `query: {select: [a], frm: []}`, "unknown field(s) frm"},
		{"unknown operator", `query: {select: [{op: frobnicate, args: [a]}]}`, `unknown operator "frobnicate"`},
		{"cast through op", `query: {select: [{op: numcast, args: [a, b]}]}`, "write casts as"},
		{"bare list", `query: {select: [[1, 2]]}`, "bare lists are not expressions"},
		{"join without from", `query: {select: [a], join: [{entity: t}]}`, "join requires a from target"},
		{"duplicate variable", `query: {select: [a], from: [{entity: t, as: x}, {entity: u, as: x}]}`, `table variable "x" declared twice`},
		{"unknown join kind", `query: {select: [a], from: [t], join: [{kind: cross, entity: u}]}`, `unknown join kind "cross"`},
		{"unknown cast type", `query: {select: [{cast: a, to: uuid}]}`, `unknown type "uuid"`},
		{"bad typed constant", `query: {select: [{const: abc, type: decimal}]}`, "query.select[0].const"},
		{"two forms", `query: {select: [{op: eq, const: 1}]}`, "node has both"},
		{"unrecognized node", `query: {select: [{foo: 1}]}`, "unrecognized node"},
		{"limit type", `query: {select: [a], limit: ten}`, "query.limit: expected an integer"},
		{"order direction", `query: {select: [a], order_by: [{by: a, dir: sideways}]}`, `unknown direction "sideways"`},
		{"malformed ref", `query: {select: [s..id]}`, `malformed reference "s..id"`},
		{"empty union", `union: []`, "at least one branch is required"},
		{"order_by beside query", "query: {select: [a]}\norder_by: [a]", "applies to unions"},
		{"window without target", `query: {select: [{window: sum}]}`, "window target is required"},
		{"entity and subquery", `query: {select: [a], from: [{entity: t, subquery: {select: [b]}}]}`, "mutually exclusive"},
		{"syntax", "query: [", "ParseYAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseJSON(t *testing.T) {
	doc, err := ParseJSON([]byte(`{
		"query": {
			"select": [{"const": 0.25}, "s.id"],
			"from": [{"entity": "survey", "as": "s"}],
			"limit": 5
		}
	}`))
	require.NoError(t, err)

	c := doc.Query.Projection[0].(queryir.Constant)
	assert.IsType(t, decimal.Decimal{}, c.Value)
	assert.Equal(t, int64(5), *doc.Query.Limit)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "surveys.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(weeklyDoc), 0o644))
	doc, err := Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "weekly", doc.Name)

	unnamed := filepath.Join(dir, "by-kind.yml")
	require.NoError(t, os.WriteFile(unnamed, []byte("query: {select: [a]}"), 0o644))
	doc, err = Load(unnamed)
	require.NoError(t, err)
	assert.Equal(t, "by-kind", doc.Name, "name defaults to the file name")

	other := filepath.Join(dir, "query.sql")
	require.NoError(t, os.WriteFile(other, []byte("select 1"), 0o644))
	_, err = Load(other)
	assert.ErrorContains(t, err, "unsupported document extension")

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("query: {select: [{op: nope}]}"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, bad)
}
