package jsontok

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize_NestedObject(t *testing.T) {
	src := []byte(`{"a": {"b": 1}}`)
	toks, err := Tokenize(src, 0)
	require.NoError(t, err)

	want := []Token{
		{Kind: Object, Start: 0, End: 15, Parent: -1},
		{Kind: String, Start: 2, End: 3, Parent: 0},
		{Kind: Object, Start: 6, End: 14, Parent: 1},
		{Kind: String, Start: 8, End: 9, Parent: 2},
		{Kind: Primitive, Start: 12, End: 13, Parent: 3},
	}
	if diff := cmp.Diff(want, toks); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestFind_NestedProperty(t *testing.T) {
	src := []byte(`{"a": {"b": 1}}`)
	toks, err := Tokenize(src, 0)
	require.NoError(t, err)

	a, ok := Find(src, toks, 0, "a")
	require.True(t, ok)
	assert.Equal(t, Object, toks[a].Kind)

	b, ok := Find(src, toks, a, "b")
	require.True(t, ok)
	assert.Equal(t, "1", Text(src, toks, b))
}

func TestFind_NotFound(t *testing.T) {
	src := []byte(`{"ab": 1, "A": 2, "nested": {"a": 3}}`)
	toks, err := Tokenize(src, 0)
	require.NoError(t, err)

	for _, name := range []string{"a", "b", "abc", ""} {
		_, ok := Find(src, toks, 0, name)
		assert.False(t, ok, "name %q", name)
	}
}

func TestFind_FirstMatchWins(t *testing.T) {
	src := []byte(`{"x": "first", "x": "second"}`)
	toks, err := Tokenize(src, 0)
	require.NoError(t, err)

	i, ok := Find(src, toks, 0, "x")
	require.True(t, ok)
	assert.Equal(t, "first", Text(src, toks, i))
}

func TestFind_ValueStringNotTreatedAsKeyOfParent(t *testing.T) {
	// "gridX" appears as a value under "name", whose parent is the key token.
	src := []byte(`{"name": "gridX", "gridX": 62}`)
	toks, err := Tokenize(src, 0)
	require.NoError(t, err)

	i, ok := Find(src, toks, 0, "gridX")
	require.True(t, ok)
	assert.Equal(t, "62", Text(src, toks, i))
}

func TestElements_Array(t *testing.T) {
	src := []byte(`{"list": [ {"v": 1}, "two", 3.5, [4] ]}`)
	toks, err := Tokenize(src, 0)
	require.NoError(t, err)

	list, ok := Find(src, toks, 0, "list")
	require.True(t, ok)
	els := Elements(toks, list)
	require.Len(t, els, 4)
	assert.Equal(t, Object, toks[els[0]].Kind)
	assert.Equal(t, "two", Text(src, toks, els[1]))
	assert.Equal(t, "3.5", Text(src, toks, els[2]))
	assert.Equal(t, Array, toks[els[3]].Kind)
}

func TestPath(t *testing.T) {
	src := []byte(`{"properties": {"gridX": 62, "gridY": 64}}`)
	toks, err := Tokenize(src, 0)
	require.NoError(t, err)

	i, _, ok := Path(src, toks, 0, "properties", "gridY")
	require.True(t, ok)
	assert.Equal(t, "64", Text(src, toks, i))

	_, missing, ok := Path(src, toks, 0, "properties", "gridZ")
	assert.False(t, ok)
	assert.Equal(t, "gridZ", missing)
}

func TestTokenize_EscapedStringSpan(t *testing.T) {
	src := []byte(`{"k": "a\"b"}`)
	toks, err := Tokenize(src, 0)
	require.NoError(t, err)
	v, ok := Find(src, toks, 0, "k")
	require.True(t, ok)
	assert.Equal(t, `a\"b`, Text(src, toks, v))
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"truncated", `{"a": [1, 2`, ErrMalformed},
		{"garbage", `{"a" 1}`, ErrMalformed},
		{"empty", ``, ErrMalformed},
		{"second document", `{"a":1} {{{ garbage`, ErrMalformed},
		{"extra close", `{"a":1}}`, ErrMalformed},
		{"two scalars", `1 2`, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize([]byte(tt.src), 0)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTokenize_TrailingWhitespace(t *testing.T) {
	tokens, err := Tokenize([]byte("{\"a\":1}\r\n\t "), 0)
	require.NoError(t, err)
	assert.Len(t, tokens, 3)

	tokens, err = Tokenize([]byte("true\n"), 0)
	require.NoError(t, err)
	assert.Len(t, tokens, 1)
}

func TestTokenize_Limit(t *testing.T) {
	_, err := Tokenize([]byte(`[1,2,3,4,5]`), 3)
	require.ErrorIs(t, err, ErrTooManyTokens)
}
