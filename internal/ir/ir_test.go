package ir

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteral_Auto(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want any
	}{
		{"string", "weekly", "weekly"},
		{"int", 42, int64(42)},
		{"int64", int64(-7), int64(-7)},
		{"bool", true, true},
		{"nil", nil, nil},
		{"float becomes decimal", 12.5, decimal.RequireFromString("12.5")},
		{"json integer", json.Number("15"), int64(15)},
		{"json fraction", json.Number("0.25"), decimal.RequireFromString("0.25")},
		{"list", []any{1, "a"}, []any{int64(1), "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Literal(tt.raw, KindAuto)
			require.NoError(t, err)
			if d, ok := tt.want.(decimal.Decimal); ok {
				require.IsType(t, decimal.Decimal{}, got)
				assert.True(t, d.Equal(got.(decimal.Decimal)), "got %v", got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLiteral_Kinds(t *testing.T) {
	d, err := Literal("12.50", KindDecimal)
	require.NoError(t, err)
	assert.Equal(t, "12.5", d.(decimal.Decimal).String())

	day, err := Literal("2024-03-01", KindDate)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), day)

	ts, err := Literal("2024-03-01T10:30:00+02:00", KindTimestamp)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC), ts)

	n, err := Literal("17", KindInt)
	require.NoError(t, err)
	assert.Equal(t, int64(17), n)

	b, err := Literal("true", KindBool)
	require.NoError(t, err)
	assert.Equal(t, true, b)

	s, err := Literal("x", KindString)
	require.NoError(t, err)
	assert.Equal(t, "x", s)

	null, err := Literal(nil, KindNull)
	require.NoError(t, err)
	assert.Nil(t, null)

	list, err := Literal([]any{"1.5", "2"}, KindDecimal)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestLiteral_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		kind Kind
	}{
		{"bad decimal", "abc", KindDecimal},
		{"bad date", "01/03/2024", KindDate},
		{"fractional int", 1.5, KindInt},
		{"string kind", 3, KindString},
		{"null with value", "x", KindNull},
		{"unknown kind", "x", Kind("uuid")},
		{"unsupported auto", struct{}{}, KindAuto},
		{"list element", []any{"1", "x"}, KindInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Literal(tt.raw, tt.kind)
			assert.Error(t, err)
		})
	}
}

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want string
	}{
		{"null", nil, `null`},
		{"string no html escape", "a<b&c", `"a<b&c"`},
		{"int", int64(5), `5`},
		{"bool", false, `false`},
		{"decimal", decimal.RequireFromString("12.50"), `{"decimal":"12.5"}`},
		{"time", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), `{"time":"2024-03-01T00:00:00Z"}`},
		{"array", []any{"a", int64(1), nil}, `["a",1,null]`},
		{"sorted keys", map[string]any{"sql": "x", "constants": []any{}, "dialect": "oracle"}, `{"constants":[],"dialect":"oracle","sql":"x"}`},
		{"nfc", "é", "\"é\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonical_RejectsFloats(t *testing.T) {
	_, err := MarshalCanonical([]any{1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats are forbidden")
}

func TestSortedKeys_UTF16Order(t *testing.T) {
	// U+FF61 sorts after U+1F600 in UTF-8 byte order but before it in UTF-16.
	obj := map[string]any{"\U0001F600": 1, "｡": 2, "a": 3}
	assert.Equal(t, []string{"a", "\U0001F600", "｡"}, SortedKeys(obj))
}

func TestStatementFingerprint(t *testing.T) {
	a, err := StatementFingerprint("oracle", "select ? from dual", []any{int64(1)})
	require.NoError(t, err)
	b, err := StatementFingerprint("oracle", "select ? from dual", []any{int64(1)})
	require.NoError(t, err)
	assert.Equal(t, a, b, "fingerprints are deterministic")
	assert.Len(t, a, 64)

	c, err := StatementFingerprint("oracle", "select ? from dual", []any{int64(2)})
	require.NoError(t, err)
	assert.NotEqual(t, a, c, "constants are part of the identity")

	d, err := StatementFingerprint("sqlite", "select ? from dual", []any{int64(1)})
	require.NoError(t, err)
	assert.NotEqual(t, a, d, "dialect is part of the identity")

	empty, err := StatementFingerprint("oracle", "select 1 from dual", nil)
	require.NoError(t, err)
	emptySlice, err := StatementFingerprint("oracle", "select 1 from dual", []any{})
	require.NoError(t, err)
	assert.Equal(t, empty, emptySlice)
}

func TestDocumentHash(t *testing.T) {
	assert.Equal(t, DocumentHash([]byte("a")), DocumentHash([]byte("a")))
	assert.NotEqual(t, DocumentHash([]byte("a")), DocumentHash([]byte("b")))
	assert.NotEqual(t, hashWithDomain(DomainStatement, []byte("a")), DocumentHash([]byte("a")))
}
