package chat

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips all markup from message bodies. Chat messages are
// plain text; anything that survives sanitization is safe to echo into
// other clients' DOMs.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize returns the trimmed plain-text content. An empty result
// means the message was nothing but markup and should be dropped.
func (s *Sanitizer) Sanitize(text string) string {
	clean := s.policy.Sanitize(text)
	// bluemonday entity-escapes surviving text; undo that so stored
	// bodies read naturally ("a < b", not "a &lt; b"). Clients render
	// bodies as text, never as HTML.
	return strings.TrimSpace(html.UnescapeString(clean))
}
