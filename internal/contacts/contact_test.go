package contacts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain digits", "5215551234567", "5215551234567"},
		{"international format", "+52 1 555 123 4567", "5215551234567"},
		{"dashes and parens", "(555) 123-4567", "5551234567"},
		{"letters stripped", "tel:555abc1234", "5551234"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"+52 1 555 123 4567", "5551234", "(123) 456-78901", "99999999999999"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestIsValidNumber(t *testing.T) {
	assert.False(t, IsValidNumber("123456"), "6 digits is too short")
	assert.True(t, IsValidNumber("1234567"), "7 digits is the lower bound")
	assert.True(t, IsValidNumber("123456789012345"), "15 digits is the upper bound")
	assert.False(t, IsValidNumber("1234567890123456"), "16 digits is too long")
	assert.True(t, IsValidNumber("+52 (555) 123-4567"), "formatting is stripped before the check")
	assert.False(t, IsValidNumber(""), "empty is invalid")
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ana", New("Ana", "5551234567").DisplayName())
	assert.Equal(t, DefaultName, FromNumber("5551234567").DisplayName())
	assert.Equal(t, DefaultName, New("   ", "5551234567").DisplayName())
}

func TestFromNumbers(t *testing.T) {
	list := FromNumbers([]string{" 5551234567 ", "5559876543"})
	assert.Len(t, list, 2)
	assert.Equal(t, "5551234567", list[0].PhoneNumber)
	assert.Equal(t, DefaultName, list[0].DisplayName())
}
