package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"whatsapp-bulksender/internal/contacts"
)

func TestHasPlaceholders(t *testing.T) {
	assert.True(t, HasPlaceholders("Hola [nombre]!"))
	assert.True(t, HasPlaceholders("[numero]"))
	assert.True(t, HasPlaceholders("token [desconocido] aquí"))
	assert.False(t, HasPlaceholders("Hola!"))
	assert.False(t, HasPlaceholders("brackets [] empty"))
}

func TestPersonalize(t *testing.T) {
	ana := contacts.New("Ana", "+52 555 123 4567")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"name token", "Hola [nombre]!", "Hola Ana!"},
		{"case insensitive", "Hola [NOMBRE]!", "Hola Ana!"},
		{"mixed case", "Hola [Nombre]!", "Hola Ana!"},
		{"number token", "Tu número es [numero]", "Tu número es 525551234567"},
		{"no placeholder unchanged", "Hola!", "Hola!"},
		{"unknown token untouched", "Hola [apellido]", "Hola [apellido]"},
		{"both tokens", "[nombre]: [numero]", "Ana: 525551234567"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Personalize(tt.in, ana))
		})
	}
}

func TestPersonalizeDefaultName(t *testing.T) {
	anon := contacts.FromNumber("5551234567")
	assert.Equal(t, "Hola Usuario!", Personalize("Hola [nombre]!", anon))
}

func TestPersonalizeNameWithDollarSign(t *testing.T) {
	// Replacement must be literal, not a regexp expansion.
	c := contacts.New("Ana $100", "5551234567")
	assert.Equal(t, "Hola Ana $100!", Personalize("Hola [nombre]!", c))
}
