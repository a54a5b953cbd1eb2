// Package build orchestrates one generation: load content, construct the
// dependency graph, diff against the previous generation, render what
// changed, and reconcile the output directory.
package build

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/graph"
	"git.home.luguber.info/inful/sitegen/internal/page"
)

// Content is everything loaded from the site root for one generation.
type Content struct {
	// Pages maps content-relative path to parsed page, layouts excluded.
	Pages map[string]*page.Page
	// Layouts maps content-relative path to parsed layout page.
	Layouts map[string]*page.Page
	// Skipped lists files that failed to parse; they do not join the graph.
	Skipped []string
}

// Loader reads a content tree into memory.
type Loader struct {
	// Root is the content directory.
	Root string
	// Exclude lists absolute directories never descended into, typically
	// the output and snippet directories.
	Exclude []string
	Logger  *slog.Logger
}

// Load walks the content tree and parses every markdown file. A page with
// malformed frontmatter is reported and skipped; the walk continues.
func (l *Loader) Load() (*Content, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	root, err := filepath.Abs(l.Root)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryIO, errors.SeverityFatal, "resolve content root")
	}

	excluded := make(map[string]struct{}, len(l.Exclude))
	for _, dir := range l.Exclude {
		if abs, err := filepath.Abs(dir); err == nil {
			excluded[abs] = struct{}{}
		}
	}

	content := &Content{
		Pages:   map[string]*page.Page{},
		Layouts: map[string]*page.Page{},
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := excluded[path]; skip {
				return filepath.SkipDir
			}
			if strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !strings.EqualFold(filepath.Ext(path), graph.PageExt) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath := filepath.ToSlash(rel)

		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(err, errors.CategoryIO, errors.SeverityFatal, "read page").WithContext("path", relPath)
		}

		p, err := page.New(data, relPath)
		if err != nil {
			logger.Warn("skipping unparsable page", "path", relPath, "error", err)
			content.Skipped = append(content.Skipped, relPath)
			return nil
		}

		if p.IsLayout {
			content.Layouts[relPath] = p
		} else {
			content.Pages[relPath] = p
		}
		return nil
	})
	if walkErr != nil {
		if _, ok := walkErr.(*errors.BuildError); ok {
			return nil, walkErr
		}
		return nil, errors.Wrap(walkErr, errors.CategoryIO, errors.SeverityFatal, "walk content tree")
	}

	return content, nil
}
