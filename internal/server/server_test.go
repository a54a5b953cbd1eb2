package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts Options) (*Server, string) {
	t.Helper()
	if opts.Dir == "" {
		opts.Dir = t.TempDir()
	}
	opts.Port = 0
	return New(opts), opts.Dir
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, req)
	return rec
}

func TestServeStaticFileAndDirectoryIndex(t *testing.T) {
	s, dir := newTestServer(t, Options{})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "posts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "posts", "index.html"), []byte("<h1>Posts</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.html"), []byte("<h1>A</h1>"), 0o644))

	rec := get(t, s, "/a.html")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "<h1>A</h1>")

	rec = get(t, s, "/posts/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "<h1>Posts</h1>")
}

func TestServeCustom404Page(t *testing.T) {
	s, dir := newTestServer(t, Options{})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "404.html"), []byte("custom not found"), 0o644))

	rec := get(t, s, "/missing.html")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "custom not found")
}

func TestServeRejectsTraversal(t *testing.T) {
	s, _ := newTestServer(t, Options{})

	// The mux redirects dotted paths to their cleaned form before the static
	// handler runs.
	rec := get(t, s, "/../../etc/passwd")
	require.Equal(t, http.StatusMovedPermanently, rec.Code)
	require.Equal(t, "/etc/passwd", rec.Header().Get("Location"))

	// A traversal path reaching the handler itself must not escape the
	// output directory.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.URL.Path = "/../../etc/passwd"
	rec = httptest.NewRecorder()
	s.handleStatic(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolvePathNeverEscapesDir(t *testing.T) {
	dir := filepath.Join("/srv", "site")
	for _, p := range []string{"/../secret", "/../../etc/passwd", "/..", "../x", "/a/../../b"} {
		target, err := resolvePath(dir, p)
		if err != nil {
			continue // rejected outright
		}
		require.True(t, target == dir || strings.HasPrefix(target, dir+string(filepath.Separator)), p)
	}

	target, err := resolvePath(dir, "/posts/index.html")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "posts", "index.html"), target)
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t, Options{Phase: func() string { return "idle" }})

	rec := get(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)
	require.Equal(t, "idle", resp.Phase)
}

func TestMetricsEndpointOnlyWhenConfigured(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusNotFound, rec.Code)

	s, _ = newTestServer(t, Options{Registry: prom.NewRegistry()})
	rec = get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
}
