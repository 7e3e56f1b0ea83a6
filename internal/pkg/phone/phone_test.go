package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	cases := map[string]string{
		"081234567890":      "+6281234567890",
		"0812-3456-7890":    "+6281234567890",
		"81234567890":       "+6281234567890",
		"6281234567890":     "+6281234567890",
		"+62 812 3456 7890": "+6281234567890",
		"622112345678":      "+622112345678",
		"(021) 555-0101":    "0215550101",
		"":                  "",
		"call me maybe":     "",
		"+6281234567890":    "+6281234567890",
	}
	for in, want := range cases {
		assert.Equal(t, want, Format(in), "input %q", in)
	}
}

func TestFormatIsIdempotent(t *testing.T) {
	inputs := []string{"0811111111", "8122223333", "6285777888999", "62 21 7654 321", "+6281200001111"}
	for _, in := range inputs {
		once := Format(in)
		assert.Equal(t, once, Format(once), "input %q", in)
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("+6281234567890"))
	assert.True(t, Valid(Format("(021) 555-0101")))
	assert.True(t, Valid("441632960961"))
	assert.False(t, Valid("+62812"))
	assert.False(t, Valid("12345678"))
	assert.False(t, Valid("1234567890123456"))
	assert.False(t, Valid("+62 812"))
	assert.False(t, Valid(""))
}
