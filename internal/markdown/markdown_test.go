package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConvert_BasicMarkdown(t *testing.T) {
	c := NewConverter()
	out, err := c.Convert("# Heading\n\nSome *emphasis*.\n")
	require.NoError(t, err)
	require.Contains(t, out, "<h1>Heading</h1>")
	require.Contains(t, out, "<em>emphasis</em>")
}

func TestConvert_RawHTMLPassesThrough(t *testing.T) {
	c := NewConverter()
	out, err := c.Convert("<div class=\"wrap\">\n{{ .page.rendered }}\n</div>\n")
	require.NoError(t, err)
	require.Contains(t, out, `<div class="wrap">`)
	require.Contains(t, out, "{{ .page.rendered }}")
}

func TestConvert_GFMTable(t *testing.T) {
	c := NewConverter()
	out, err := c.Convert("| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	require.Contains(t, out, "<table>")
}

func TestMaskCodeRegions_ShieldsInlineCode(t *testing.T) {
	html := "<p>Use <code>{{ .page.title }}</code> to print the title.</p>"
	masked := MaskCodeRegions(html)
	require.NotContains(t, masked, "{{")
	require.NotContains(t, masked, "}}")
	require.Equal(t, html, UnmaskCodeRegions(masked))
}

func TestMaskCodeRegions_ShieldsFencedBlocks(t *testing.T) {
	c := NewConverter()
	out, err := c.Convert("```\n{{ .secret }}\n```\n\nOutside {{ .visible }}\n")
	require.NoError(t, err)

	masked := MaskCodeRegions(out)
	require.Contains(t, masked, "{{ .visible }}")
	require.NotContains(t, strings.Split(masked, "</code>")[0], "{{")
	require.Equal(t, out, UnmaskCodeRegions(masked))
}

func TestMaskCodeRegions_NoCode_Unchanged(t *testing.T) {
	html := "<p>{{ .page.title }}</p>"
	require.Equal(t, html, MaskCodeRegions(html))
}
