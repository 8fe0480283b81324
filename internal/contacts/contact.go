// Package contacts holds the canonical contact record, phone-number
// normalization and the conversation-opening logic.
package contacts

import "strings"

const (
	minNumberDigits = 7
	maxNumberDigits = 15

	// DefaultName is used when a contact record carries no display name.
	DefaultName = "Usuario"
)

// Contact is the single canonical shape the core works with. Inputs arrive
// either as full records or as legacy bare number strings; both are resolved
// into this at the boundary and never mutated afterwards.
type Contact struct {
	Name        string
	PhoneNumber string
}

// New builds a contact from a name and phone number.
func New(name, phoneNumber string) Contact {
	return Contact{Name: strings.TrimSpace(name), PhoneNumber: strings.TrimSpace(phoneNumber)}
}

// FromNumber builds a contact from a legacy bare number.
func FromNumber(phoneNumber string) Contact {
	return Contact{PhoneNumber: strings.TrimSpace(phoneNumber)}
}

// FromNumbers converts a legacy plain-number list into canonical contacts.
func FromNumbers(numbers []string) []Contact {
	out := make([]Contact, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, FromNumber(n))
	}
	return out
}

// DisplayName returns the contact's name or the default placeholder.
func (c Contact) DisplayName() string {
	if strings.TrimSpace(c.Name) == "" {
		return DefaultName
	}
	return c.Name
}

// Normalized returns the digits-only phone number.
func (c Contact) Normalized() string {
	return Normalize(c.PhoneNumber)
}

// Normalize strips every non-digit character from a phone number. It is
// idempotent: normalizing a normalized number is a no-op.
func Normalize(phoneNumber string) string {
	var b strings.Builder
	for _, r := range phoneNumber {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidNumber reports whether the number has 7 to 15 digits after
// normalization.
func IsValidNumber(phoneNumber string) bool {
	n := len(Normalize(phoneNumber))
	return n >= minNumberDigits && n <= maxNumberDigits
}
