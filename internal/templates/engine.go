// Package templates implements the template expansion contract used for page
// bodies and permalinks, including snippet inclusion with parameters.
package templates

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// Engine expands template text against an assembled render context. It is
// stateless apart from the snippet directory; parsing happens per call since
// page bodies change between generations.
type Engine struct {
	snippetDir string
}

// NewEngine creates an engine reading snippet partials from snippetDir.
// An empty snippetDir disables the include function.
func NewEngine(snippetDir string) *Engine {
	return &Engine{snippetDir: snippetDir}
}

// Render expands text against context. Any parse or execution failure is
// returned as-is for the caller to classify. Frontmatter data is open-schema
// and templates probe optional keys with `with` fallbacks, so absent keys
// must read as zero values rather than errors (missingkey=zero).
func (e *Engine) Render(text string, context map[string]any) (string, error) {
	tpl, err := template.New("page").Funcs(e.funcs(context)).Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, context); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

func (e *Engine) funcs(context map[string]any) template.FuncMap {
	return template.FuncMap{
		"include": func(name string, pairs ...string) (string, error) {
			return e.include(context, name, pairs)
		},
		"slugify": Slugify,
		"last": func(list []string) string {
			if len(list) == 0 {
				return ""
			}
			return list[len(list)-1]
		},
	}
}

// include renders a snippet file with key=value parameters exposed under
// include.* in the snippet's context. The surrounding context stays visible.
func (e *Engine) include(context map[string]any, name string, pairs []string) (string, error) {
	if e.snippetDir == "" {
		return "", fmt.Errorf("snippet %q requested but no snippet directory is configured", name)
	}

	raw, err := os.ReadFile(filepath.Join(e.snippetDir, filepath.FromSlash(name)))
	if err != nil {
		return "", fmt.Errorf("read snippet %q: %w", name, err)
	}

	params := map[string]any{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return "", fmt.Errorf("snippet %q: parameter %q is not key=value", name, pair)
		}
		params[key] = value
	}

	snippetCtx := make(map[string]any, len(context)+1)
	for k, v := range context {
		snippetCtx[k] = v
	}
	snippetCtx["include"] = params

	out, err := e.Render(string(raw), snippetCtx)
	if err != nil {
		return "", fmt.Errorf("render snippet %q: %w", name, err)
	}
	return out, nil
}
