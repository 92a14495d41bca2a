package diligence

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// textSanitizer reduces pasted request text (often copied out of an HTML
// email client) to plain text before it reaches the Text Classifier.
// Thread-safe for concurrent use.
type textSanitizer struct {
	policy *bluemonday.Policy
}

func newTextSanitizer() *textSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// Clean strips all markup, decodes entities, and trims surrounding whitespace.
// Line structure is kept because classifiers rely on it to split asks.
func (s *textSanitizer) Clean(raw string) string {
	text := strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n", "</p>", "\n", "</li>", "\n").Replace(raw)
	text = s.policy.Sanitize(text)
	text = html.UnescapeString(text)
	return strings.TrimSpace(text)
}
