package render

// Permalink shorthands expand to fixed templates over the page context. Any
// other permalink value is already a literal template string.
var permalinkShorthands = map[string]string{
	"date":     "{{ last .page.collections }}/{{ .page.date.year }}/{{ .page.date.month }}/{{ .page.date.day }}/{{ .page.data.title }}.html",
	"pretty":   "{{ last .page.collections }}/{{ .page.date.year }}/{{ .page.date.month }}/{{ .page.date.day }}/{{ .page.data.title }}/index.html",
	"ordinal":  "{{ last .page.collections }}/{{ .page.date.year }}/{{ .page.date.y_day }}/{{ .page.data.title }}.html",
	"weekdate": "{{ last .page.collections }}/{{ .page.date.year }}/W{{ .page.date.week }}/{{ .page.date.short_day }}/{{ .page.data.title }}.html",
	"none":     "{{ last .page.collections }}/{{ .page.data.title }}.html",
}

// ExpandPermalink resolves a shorthand form into its template; literal
// permalink templates pass through unchanged.
func ExpandPermalink(permalink string) string {
	if tpl, ok := permalinkShorthands[permalink]; ok {
		return tpl
	}
	return permalink
}
