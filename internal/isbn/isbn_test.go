package isbn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"9780439785969", "9780439785969"},
		{"9780439785969.0", "9780439785969"},
		{"  9780439785969.0  ", "9780439785969"},
		{" 9780439785969\t", "9780439785969"},
		{"", ""},
		{"   ", ""},
		{"not-an-isbn", "not-an-isbn"},
		{"12.50", "12.50"}, // only a trailing ".0" is an artifact
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Normalize(c.in), "Normalize(%q)", c.in)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"9780439785969.0", " 978.0 ", "abc", "123", ""}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "Normalize not idempotent for %q", in)
	}
}

func TestIsNumeric(t *testing.T) {
	assert.True(t, IsNumeric("9780439785969"))
	assert.False(t, IsNumeric("9780439785969.0"))
	assert.False(t, IsNumeric(""))
	assert.False(t, IsNumeric("97x"))
	assert.False(t, IsNumeric("nan"))
}
