package handler

import (
	"bytes"

	"github.com/yuin/goldmark"
)

// renderMarkdown converts generated advice to HTML for clients that render
// it directly. On conversion failure the raw text is returned unchanged —
// a formatting problem must not cost the user the advice itself.
func renderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(text), &buf); err != nil {
		return text
	}
	return buf.String()
}
