package messaging

import (
	"regexp"

	"whatsapp-bulksender/internal/contacts"
)

var (
	placeholderRe = regexp.MustCompile(`\[\w+\]`)
	nameTokenRe   = regexp.MustCompile(`(?i)\[nombre\]`)
	numberTokenRe = regexp.MustCompile(`(?i)\[numero\]`)
)

// HasPlaceholders reports whether the text contains any bracket token.
func HasPlaceholders(text string) bool {
	return placeholderRe.MatchString(text)
}

// Personalize substitutes [nombre] and [numero] tokens, case-insensitively,
// with the contact's display name and normalized number. Unknown bracket
// tokens are left untouched; a contact is never required to resolve them.
func Personalize(text string, contact contacts.Contact) string {
	if !HasPlaceholders(text) {
		return text
	}
	out := nameTokenRe.ReplaceAllLiteralString(text, contact.DisplayName())
	out = numberTokenRe.ReplaceAllLiteralString(out, contact.Normalized())
	return out
}
