package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoaderSplitsPagesAndLayouts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.md", "---\n---\nHello")
	writeFile(t, root, "posts/one.md", "---\ntitle: One\n---\nBody")
	writeFile(t, root, "layouts/default.md", "---\n---\n{{ .page.rendered }}")
	writeFile(t, root, "notes.txt", "ignored")

	content, err := (&Loader{Root: root}).Load()
	require.NoError(t, err)
	require.Len(t, content.Pages, 2)
	require.Len(t, content.Layouts, 1)
	require.Contains(t, content.Pages, "posts/one.md")
	require.Contains(t, content.Layouts, "layouts/default.md")
	require.Equal(t, "One", content.Pages["posts/one.md"].Title)
}

func TestLoaderSkipsExcludedAndHiddenDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.md", "---\n---\nHello")
	writeFile(t, root, "output/stale.md", "should not load")
	writeFile(t, root, ".git/objects/x.md", "should not load")
	writeFile(t, root, "_drafts/wip.md", "should not load")

	content, err := (&Loader{
		Root:    root,
		Exclude: []string{filepath.Join(root, "output")},
	}).Load()
	require.NoError(t, err)
	require.Len(t, content.Pages, 1)
	require.Contains(t, content.Pages, "index.md")
}

func TestLoaderReportsUnparsablePages(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "good.md", "---\n---\nfine")
	writeFile(t, root, "bad.md", "---\ntitle: [unclosed\n---\nbody")

	content, err := (&Loader{Root: root}).Load()
	require.NoError(t, err)
	require.Len(t, content.Pages, 1)
	require.Equal(t, []string{"bad.md"}, content.Skipped)
}
