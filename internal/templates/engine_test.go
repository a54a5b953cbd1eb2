package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender_SimpleSubstitution(t *testing.T) {
	e := NewEngine("")
	out, err := e.Render("Hello, {{ .page.title }}!", map[string]any{
		"page": map[string]any{"title": "World"},
	})
	require.NoError(t, err)
	require.Equal(t, "Hello, World!", out)
}

func TestRender_ParseError(t *testing.T) {
	e := NewEngine("")
	_, err := e.Render("{{ .page.title", map[string]any{})
	require.Error(t, err)
}

func TestRender_WithElseFallback(t *testing.T) {
	e := NewEngine("")
	tpl := `{{ with .page.data.title }}{{ . }}{{ else }}{{ $.global.title }}{{ end }}`

	out, err := e.Render(tpl, map[string]any{
		"global": map[string]any{"title": "Site"},
		"page":   map[string]any{"data": map[string]any{"title": "Page B"}},
	})
	require.NoError(t, err)
	require.Equal(t, "Page B", out)

	out, err = e.Render(tpl, map[string]any{
		"global": map[string]any{"title": "Site"},
		"page":   map[string]any{"data": map[string]any{}},
	})
	require.NoError(t, err)
	require.Equal(t, "Site", out)
}

func TestRender_LastFunc(t *testing.T) {
	e := NewEngine("")
	out, err := e.Render(`{{ last .page.collections }}`, map[string]any{
		"page": map[string]any{"collections": []string{"books", "fantasy"}},
	})
	require.NoError(t, err)
	require.Equal(t, "fantasy", out)
}

func TestRender_IncludeSnippetWithParameters(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "badge.html"),
		[]byte(`<span class="{{ .include.kind }}">{{ .include.text }} on {{ .page.title }}</span>`),
		0o644,
	))

	e := NewEngine(dir)
	out, err := e.Render(`{{ include "badge.html" "kind=warn" "text=Draft" }}`, map[string]any{
		"page": map[string]any{"title": "Home"},
	})
	require.NoError(t, err)
	require.Equal(t, `<span class="warn">Draft on Home</span>`, out)
}

func TestRender_IncludeMissingSnippet(t *testing.T) {
	e := NewEngine(t.TempDir())
	_, err := e.Render(`{{ include "missing.html" }}`, map[string]any{})
	require.Error(t, err)
}

func TestRender_IncludeMalformedParameter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s.html"), []byte("x"), 0o644))
	e := NewEngine(dir)
	_, err := e.Render(`{{ include "s.html" "notapair" }}`, map[string]any{})
	require.Error(t, err)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello, World!":    "hello-world",
		"Crème Brûlée":     "creme-brulee",
		"  spaced  out  ":  "spaced-out",
		"already-slugged":  "already-slugged",
		"Ends With Symbol": "ends-with-symbol",
		"123 Numbers":      "123-numbers",
	}
	for in, want := range cases {
		require.Equal(t, want, Slugify(in), "input %q", in)
	}
}
