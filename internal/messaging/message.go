// Package messaging covers the message model, the round-robin scheduler,
// placeholder personalization and the delivery engine.
package messaging

import "strings"

// Message is one configured logical message. ImageRef is an opaque handle
// resolved to an absolute file path by the injected resolver; empty means
// text-only. JointSendMode attaches the text as the image caption instead of
// sending two separate messages.
type Message struct {
	Text          string
	ImageRef      string
	JointSendMode bool
}

// Deliverable reports whether the message carries any content at all. An
// empty message is a configuration error, not a silent no-op.
func (m Message) Deliverable() bool {
	return strings.TrimSpace(m.Text) != "" || strings.TrimSpace(m.ImageRef) != ""
}

// HasImage reports whether an image is attached.
func (m Message) HasImage() bool {
	return strings.TrimSpace(m.ImageRef) != ""
}

// HasText reports whether the message carries text.
func (m Message) HasText() bool {
	return strings.TrimSpace(m.Text) != ""
}
