package linkcheck

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractLinks(t *testing.T) {
	doc := `<html><body>
		<a href="/posts/one.html">One</a>
		<a href="https://example.com/x">Ext</a>
		<img src="logo.png">
		<a href="#section">Anchor</a>
		<a href="mailto:hi@example.com">Mail</a>
	</body></html>`

	links, err := ExtractLinks(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, links, 5)

	internal := 0
	for _, l := range links {
		if l.IsInternal {
			internal++
		}
	}
	// Only the relative href and the img src count as internal.
	require.Equal(t, 2, internal)
}

func TestCheckResolvesRelativeAndIndexForms(t *testing.T) {
	outputs := map[string]string{
		"posts/one.html":   `<a href="two.html">Two</a> <a href="/index.html">Home</a>`,
		"posts/two.html":   `<a href="/posts/">Listing</a>`,
		"posts/index.html": `ok`,
		"index.html":       `ok`,
	}

	broken, err := Check(outputs)
	require.NoError(t, err)
	require.Empty(t, broken)
}

func TestCheckReportsMissingTargets(t *testing.T) {
	outputs := map[string]string{
		"index.html": `<a href="/gone.html">Gone</a> <a href="https://example.com">Ext</a>`,
	}

	broken, err := Check(outputs)
	require.NoError(t, err)
	require.Len(t, broken, 1)
	require.Equal(t, "index.html", broken[0].SourceURL)
	require.Equal(t, "/gone.html", broken[0].Link.URL)
}
