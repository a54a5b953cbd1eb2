// Package markdown implements the markup conversion contract on top of
// Goldmark, plus the code-region shielding that keeps template delimiters
// inside code spans out of template expansion.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Converter converts Markdown text to HTML. Raw HTML blocks pass through
// unchanged, so layout bodies written as HTML survive conversion.
type Converter struct {
	md goldmark.Markdown
}

// NewConverter creates a converter with GFM extensions and raw HTML enabled.
func NewConverter() *Converter {
	return &Converter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Convert renders Markdown to HTML.
func (c *Converter) Convert(text string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}
