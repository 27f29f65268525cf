package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Missing(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t", "-", "--", "n/a", "NA", "nan", "NaN", "null", "NULL", "None"} {
		_, ok := Normalize(raw)
		assert.False(t, ok, "raw %q should be missing", raw)
	}
}

func TestNormalize_TrimAndUppercase(t *testing.T) {
	v, ok := Normalize("  a1234567 ")
	assert.True(t, ok)
	assert.Equal(t, "A1234567", v)
}

func TestNormalize_FloatArtifact(t *testing.T) {
	v, ok := Normalize("22345678901.0")
	assert.True(t, ok)
	assert.Equal(t, "22345678901", v)

	// Only a single trailing ".0" on an otherwise pure digit string is an
	// artifact; anything else passes through untouched.
	v, ok = Normalize("123.0.0")
	assert.True(t, ok)
	assert.Equal(t, "123.0.0", v)
}

func TestNormalize_DigitWhitespaceRejected(t *testing.T) {
	_, ok := Normalize("223 45678901")
	assert.False(t, ok)
}

func TestNormalize_AlphanumericWhitespaceCollapsed(t *testing.T) {
	v, ok := Normalize("abc   def\t12")
	assert.True(t, ok)
	assert.Equal(t, "ABC DEF 12", v)
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"  22345678901 ",
		"a1234567",
		"ABC   def",
		"rc/1234567",
		"12345678901.0",
		"AbC/123/45/67890",
	}
	for _, raw := range inputs {
		once, ok := Normalize(raw)
		if !ok {
			continue
		}
		twice, ok2 := Normalize(once)
		assert.True(t, ok2, "normalized %q should not become missing", raw)
		assert.Equal(t, once, twice, "Normalize is not idempotent for %q", raw)
	}
}

func TestIsDigits(t *testing.T) {
	assert.True(t, isDigits("0123456789"))
	assert.False(t, isDigits(""))
	assert.False(t, isDigits("12a"))
	assert.False(t, isDigits("12.0"))
}
