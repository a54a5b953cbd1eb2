package markdown

import "strings"

// Template delimiters inside converted code regions must survive expansion
// untouched: expansion of the enclosing structure happens around, never
// inside, such regions. MaskCodeRegions swaps the delimiters for private-use
// sentinels within <code> elements; UnmaskCodeRegions restores them after
// the surrounding document has been expanded.
const (
	openSentinel  = "\uE000"
	closeSentinel = "\uE001"
)

// MaskCodeRegions hides template delimiters inside <code>...</code> regions
// of converted HTML. Fenced blocks are covered too: Goldmark renders them as
// <pre><code>.
func MaskCodeRegions(html string) string {
	var b strings.Builder
	b.Grow(len(html))

	rest := html
	for {
		start := strings.Index(rest, "<code")
		if start < 0 {
			b.WriteString(rest)
			return b.String()
		}
		end := strings.Index(rest[start:], "</code>")
		if end < 0 {
			b.WriteString(rest)
			return b.String()
		}
		end += start

		b.WriteString(rest[:start])
		region := rest[start:end]
		region = strings.ReplaceAll(region, "{{", openSentinel)
		region = strings.ReplaceAll(region, "}}", closeSentinel)
		b.WriteString(region)
		rest = rest[end:]
	}
}

// UnmaskCodeRegions restores template delimiters hidden by MaskCodeRegions.
func UnmaskCodeRegions(s string) string {
	s = strings.ReplaceAll(s, openSentinel, "{{")
	return strings.ReplaceAll(s, closeSentinel, "}}")
}
