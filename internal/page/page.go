// Package page holds the content data model: a parsed page, its path-derived
// collection memberships, and its template context representation.
package page

import (
	"path"
	"reflect"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/frontmatter"
)

// LayoutDir is the content-relative directory holding layout pages.
const LayoutDir = "layouts"

// Page is the in-memory representation of one content file.
//
// Identity is the canonical content-relative path (slash-separated). URL and
// Rendered are render artifacts, written back after rendering; they are
// excluded from content-equality comparisons.
type Page struct {
	// RelPath is the canonical content-relative path, e.g. "posts/a.md".
	RelPath string

	Title      string
	Date       *time.Time
	Layout     string
	Permalink  string
	Depends    []string
	Pagination *frontmatter.Pagination
	Data       map[string]any
	Body       string

	// Collections is derived from RelPath; recomputed on every parse,
	// never persisted independently.
	Collections []string
	IsLayout    bool

	// Render artifacts, mutable after rendering.
	URL      string
	Rendered string
}

// New parses raw file content into a Page.
func New(content []byte, relPath string) (*Page, error) {
	meta, body, err := frontmatter.Parse(content)
	if err != nil {
		return nil, err
	}
	return &Page{
		RelPath:     relPath,
		Title:       meta.Title,
		Date:        meta.Date,
		Layout:      meta.Layout,
		Permalink:   meta.Permalink,
		Depends:     meta.Depends,
		Pagination:  meta.Pagination,
		Data:        meta.Data,
		Body:        string(body),
		Collections: CollectionsFromPath(relPath),
		IsLayout:    IsLayoutPath(relPath),
	}, nil
}

// IsLayoutPath reports whether a content-relative path denotes a layout page.
func IsLayoutPath(relPath string) bool {
	return strings.HasPrefix(relPath, LayoutDir+"/")
}

// CollectionsFromPath derives collection names from a content-relative path:
// one collection per path component from the content root to the containing
// directory, plus one compound name per successive prefix joined by an
// underscore. Example: "books/fantasy/x.md" yields
// ["books", "fantasy", "books_fantasy"]. Layout pages and top-level files
// belong to no collection.
func CollectionsFromPath(relPath string) []string {
	if IsLayoutPath(relPath) {
		return nil
	}
	dir := path.Dir(relPath)
	if dir == "." || dir == "/" {
		return nil
	}

	components := strings.Split(dir, "/")
	var results []string
	var prefix []string
	for _, component := range components {
		results = append(results, component)
		prefix = append(prefix, component)
		if compound := strings.Join(prefix, "_"); compound != component {
			results = append(results, compound)
		}
	}
	return results
}

// LastCollection returns the innermost simple collection name, or "".
func (p *Page) LastCollection() string {
	if len(p.Collections) == 0 {
		return ""
	}
	// The final simple component, not the compound name.
	for i := len(p.Collections) - 1; i >= 0; i-- {
		if !strings.Contains(p.Collections[i], "_") {
			return p.Collections[i]
		}
	}
	return p.Collections[len(p.Collections)-1]
}

// InCollection reports whether the page's derived collections include name.
func (p *Page) InCollection(name string) bool {
	for _, c := range p.Collections {
		if c == name {
			return true
		}
	}
	return false
}

// Equivalent reports whether two pages are equal in authored content.
// URL and Rendered are render artifacts and do not participate.
func Equivalent(a, b *Page) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.RelPath != b.RelPath ||
		a.Title != b.Title ||
		a.Layout != b.Layout ||
		a.Permalink != b.Permalink ||
		a.Body != b.Body ||
		a.IsLayout != b.IsLayout {
		return false
	}
	if (a.Date == nil) != (b.Date == nil) {
		return false
	}
	if a.Date != nil && !a.Date.Equal(*b.Date) {
		return false
	}
	if !reflect.DeepEqual(a.Depends, b.Depends) ||
		!reflect.DeepEqual(a.Collections, b.Collections) ||
		!reflect.DeepEqual(a.Pagination, b.Pagination) ||
		!reflect.DeepEqual(a.Data, b.Data) {
		return false
	}
	return true
}

// Context returns the page's template context. The map reflects the page's
// current state, including render artifacts already written back.
func (p *Page) Context() map[string]any {
	ctx := map[string]any{
		"path":        p.RelPath,
		"title":       p.Title,
		"layout":      p.Layout,
		"permalink":   p.Permalink,
		"collections": p.Collections,
		"depends":     p.Depends,
		"data":        p.Data,
		"url":         p.URL,
		"rendered":    p.Rendered,
	}
	if p.Date != nil {
		ctx["date"] = DateParts(*p.Date)
	}
	return ctx
}
