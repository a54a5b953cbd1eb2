// Package render implements the ordered, context-chaining render pass: one
// topological visitation over the whole graph, rendering only the
// render-needed subset while unaffected nodes contribute their merged
// artifacts to downstream contexts.
package render

import (
	"log/slog"
	"sort"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/graph"
	"git.home.luguber.info/inful/sitegen/internal/markdown"
	"git.home.luguber.info/inful/sitegen/internal/page"
	"git.home.luguber.info/inful/sitegen/internal/util/sets"
)

// TemplateEngine is the template expansion contract.
type TemplateEngine interface {
	Render(text string, context map[string]any) (string, error)
}

// MarkupConverter is the markup conversion contract.
type MarkupConverter interface {
	Convert(text string) (string, error)
}

// Meta is the build metadata exposed under meta.* in every render context.
type Meta struct {
	Date     time.Time
	Builder  string
	Version  string
	Revision string
}

// Output is one file the generation wants written.
type Output struct {
	// URL is the output-relative file path, the page's rendered permalink.
	URL string
	// Content is the final bytes: the deepest layout instance's rendering
	// when the owner has a layout chain.
	Content string
	// Owner is the non-layout page the file belongs to.
	Owner graph.Label
}

// Result reports what a render pass produced.
type Result struct {
	// Rendered lists the labels actually rendered, in visitation order.
	Rendered []graph.Label
	// Outputs lists the files to write, one per affected output owner.
	Outputs []Output
	// Skipped lists owners that produced no output for lack of a URL.
	Skipped []graph.Label
}

// Scheduler renders the render-needed subset of a merged graph.
type Scheduler struct {
	Templates TemplateEngine
	Converter MarkupConverter
	Global    map[string]any
	Meta      Meta
	Logger    *slog.Logger
}

// Render visits the entire graph in one topological order. Nodes outside the
// render-needed set are skipped for rendering but still contribute their
// merged rendered/url/data to downstream contexts. The first template or
// markup error aborts the pass; rendering is all-or-nothing per generation.
func (s *Scheduler) Render(g *graph.Graph, need sets.Set[graph.Label]) (*Result, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	order, err := graph.TopoSort(g)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, id := range order {
		node := g.Node(id)
		if !need.Has(node.Label) {
			continue
		}
		logger.Debug("rendering node", "path", node.Label.Path, "site", node.Label.Site)

		ctx := s.contextFor(g, node)

		if !node.Page.IsLayout {
			url, err := s.Templates.Render(ExpandPermalink(node.Page.Permalink), ctx)
			if err != nil {
				return nil, errors.TemplateError(node.Label.Path, err).WithContext("permalink", node.Page.Permalink)
			}
			node.Page.URL = url
			// The context map must observe the final URL.
			if pc, ok := ctx["page"].(map[string]any); ok {
				pc["url"] = url
			}
		}

		converted, err := s.Converter.Convert(node.Page.Body)
		if err != nil {
			return nil, errors.MarkupError(node.Label.Path, err)
		}
		expanded, err := s.Templates.Render(markdown.MaskCodeRegions(converted), ctx)
		if err != nil {
			return nil, errors.TemplateError(node.Label.Path, err)
		}
		node.Page.Rendered = markdown.UnmaskCodeRegions(expanded)

		res.Rendered = append(res.Rendered, node.Label)
	}

	s.collectOutputs(g, need, res, logger)
	return res, nil
}

// collectOutputs gathers the file per output owner whose layout chain was
// touched by this pass. The written bytes come from the deepest layout
// instance; a page without a layout is its own deepest node.
func (s *Scheduler) collectOutputs(g *graph.Graph, need sets.Set[graph.Label], res *Result, logger *slog.Logger) {
	for _, owner := range g.OutputOwners() {
		if !chainNeedsWrite(g, owner, need) {
			continue
		}
		if owner.Page.URL == "" {
			logger.Warn("page has no URL; skipping output", "path", owner.Label.Path)
			res.Skipped = append(res.Skipped, owner.Label)
			continue
		}
		res.Outputs = append(res.Outputs, Output{
			URL:     owner.Page.URL,
			Content: g.DeepestLayout(owner.ID).Page.Rendered,
			Owner:   owner.Label,
		})
	}
}

func chainNeedsWrite(g *graph.Graph, owner *graph.Node, need sets.Set[graph.Label]) bool {
	if need.Has(owner.Label) {
		return true
	}
	cur := owner.ID
	for {
		next := -1
		for _, e := range g.Out(cur) {
			if e.Kind == graph.EdgeLayout {
				next = e.To
				break
			}
		}
		if next < 0 {
			return false
		}
		if need.Has(g.Node(next).Label) {
			return true
		}
		cur = next
	}
}

// contextFor assembles the ephemeral render context for one node visit. It
// is built fresh per visit and never retained afterwards.
func (s *Scheduler) contextFor(g *graph.Graph, node *graph.Node) map[string]any {
	ctx := map[string]any{
		"global": s.Global,
		"meta": map[string]any{
			"date":     page.DateParts(s.Meta.Date),
			"builder":  s.Meta.Builder,
			"version":  s.Meta.Version,
			"revision": s.Meta.Revision,
		},
	}

	if node.Page.IsLayout {
		ctx["layout"] = node.Page.Context()
		layouts, owner := s.layoutAncestry(g, node)
		ctx["layouts"] = layouts
		if owner != nil {
			ctx["page"] = owner.Page.Context()
		}
	} else {
		ctx["page"] = node.Page.Context()
	}

	for name, members := range s.collectionMembers(g, node) {
		ctx[name] = members
	}

	return ctx
}

// layoutAncestry ascends uses-layout predecessors from a layout instance,
// collecting ancestor layout contexts nearest first, up to and including the
// first non-layout ancestor, which is returned separately.
func (s *Scheduler) layoutAncestry(g *graph.Graph, node *graph.Node) ([]map[string]any, *graph.Node) {
	var layouts []map[string]any
	cur := node
	for {
		var parent *graph.Node
		for _, e := range g.In(cur.ID) {
			if e.Kind == graph.EdgeLayout {
				parent = g.Node(e.From)
				break
			}
		}
		if parent == nil {
			return layouts, nil
		}
		if !parent.Page.IsLayout {
			return layouts, parent
		}
		layouts = append(layouts, parent.Page.Context())
		cur = parent
	}
}

// collectionMembers gathers, per depended-on collection, the contexts of
// every member node, ordered by member date descending; undated members
// follow, ordered by path for determinism.
func (s *Scheduler) collectionMembers(g *graph.Graph, node *graph.Node) map[string][]map[string]any {
	if len(node.Page.Depends) == 0 {
		return nil
	}

	out := map[string][]map[string]any{}
	for _, name := range node.Page.Depends {
		var members []*graph.Node
		for _, e := range g.In(node.ID) {
			if e.Kind != graph.EdgeMember {
				continue
			}
			member := g.Node(e.From)
			if member.Page.InCollection(name) {
				members = append(members, member)
			}
		}

		sort.SliceStable(members, func(i, j int) bool {
			a, b := members[i].Page, members[j].Page
			switch {
			case a.Date != nil && b.Date != nil:
				if !a.Date.Equal(*b.Date) {
					return a.Date.After(*b.Date)
				}
				return a.RelPath < b.RelPath
			case a.Date != nil:
				return true
			case b.Date != nil:
				return false
			default:
				return a.RelPath < b.RelPath
			}
		})

		contexts := make([]map[string]any, 0, len(members))
		for _, m := range members {
			contexts = append(contexts, m.Page.Context())
		}
		out[name] = contexts
	}
	return out
}
