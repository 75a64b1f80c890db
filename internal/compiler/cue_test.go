package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCUE(t *testing.T) {
	doc, err := ParseCUE([]byte(`
#paged: {
	limit:  *20 | int
	offset: *0 | int
	...
}

name:    "paged-surveys"
dialect: "oracle"
query: #paged & {
	select: ["s.id", {const: 1.5}]
	from: [{entity: "survey", as: "s"}]
	where: {op: "eq", args: ["s.kind", {const: "weekly"}]}
}
`), "paged.cue")
	require.NoError(t, err)

	assert.Equal(t, "paged-surveys", doc.Name)
	require.NotNil(t, doc.Query.Limit)
	assert.Equal(t, int64(20), *doc.Query.Limit)
	assert.Equal(t, int64(0), *doc.Query.Offset)

	stmt, err := doc.Render(oracleSerializer(t), false)
	require.NoError(t, err)
	assert.Equal(t, "select s.id, ? from survey s where s.kind = ? and rownum between 1 and 20", stmt.SQL)
	assert.Len(t, stmt.Constants, 2)
}

func TestParseCUE_ConflictHasPosition(t *testing.T) {
	_, err := ParseCUE([]byte(`
query: {
	select: ["a"]
	limit: int & "ten"
}
`), "bad.cue")
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "cue", ce.Field)
	assert.True(t, ce.Pos.IsValid())
	assert.Contains(t, err.Error(), "bad.cue")
}

func TestParseCUE_Incomplete(t *testing.T) {
	_, err := ParseCUE([]byte(`
query: {
	select: ["a"]
	limit: int
}
`), "incomplete.cue")
	assert.Error(t, err)
}

func TestParseCUE_CompileErrorsAreShared(t *testing.T) {
	_, err := ParseCUE([]byte(`query: {select: [{op: "frobnicate"}]}`), "op.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown operator "frobnicate"`)
}

func TestCompileError_Format(t *testing.T) {
	err := &CompileError{Field: "query.limit", Message: "expected an integer"}
	assert.Equal(t, "query.limit: expected an integer", err.Error())
}
