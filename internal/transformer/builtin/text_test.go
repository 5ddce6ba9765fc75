package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"tags and whitespace", "<b>Hello</b>   world", "Hello world"},
		{"case preserved", "  Sony BRAVIA  ", "Sony BRAVIA"},
		{"newlines and tabs", "a\n\tb\r\nc", "a b c"},
		{"nfkc full width", "ＡＢＣ１２３", "ABC123"},
		{"nfkc ligature", "ﬁne", "fine"},
		{"attribute tag", `<a href="x">link</a>text`, "link text"},
		{"only markup", "<br/>", ""},
		{"empty", "", ""},
		{"number input", 42, "42"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := NormalizeText(tt.in)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestNormalizeText_Absent(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NormalizeText(nil))

	var p *string
	assert.Nil(t, NormalizeText(p))
}

func TestNormalizeText_StringPointer(t *testing.T) {
	t.Parallel()

	s := " <i>x</i> "
	got := NormalizeText(&s)
	require.NotNil(t, got)
	assert.Equal(t, "x", *got)
}

func TestHasEdgeSpace(t *testing.T) {
	t.Parallel()

	assert.False(t, HasEdgeSpace(""))
	assert.False(t, HasEdgeSpace("a b"))
	assert.True(t, HasEdgeSpace(" a"))
	assert.True(t, HasEdgeSpace("a\n"))
}

func TestParseIntLoose(t *testing.T) {
	t.Parallel()

	n := ParseIntLoose("12")
	require.NotNil(t, n)
	assert.Equal(t, int64(12), *n)

	n = ParseIntLoose("7.0")
	require.NotNil(t, n)
	assert.Equal(t, int64(7), *n)

	assert.Nil(t, ParseIntLoose(nil))
	assert.Nil(t, ParseIntLoose(""))
	assert.Nil(t, ParseIntLoose("7.5"))
	assert.Nil(t, ParseIntLoose("n/a"))
}

func TestParseBoolLoose(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"1", "true", "T", " yes "} {
		v, ok := ParseBoolLoose(s)
		assert.True(t, ok, s)
		assert.True(t, v, s)
	}
	for _, s := range []string{"0", "False", "n"} {
		v, ok := ParseBoolLoose(s)
		assert.True(t, ok, s)
		assert.False(t, v, s)
	}
	_, ok := ParseBoolLoose("maybe")
	assert.False(t, ok)
}
