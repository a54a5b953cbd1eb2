package graph

import (
	"fmt"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/page"
)

// PageExt is the content file extension; layout references resolve to
// layouts/<name>{PageExt}.
const PageExt = ".md"

// LayoutPath resolves a frontmatter layout reference to its content-relative
// path.
func LayoutPath(ref string) string {
	return page.LayoutDir + "/" + ref + PageExt
}

// Build turns the parsed page set of one filesystem snapshot into an acyclic
// dependency graph.
//
// pages holds every successfully parsed non-layout page keyed by
// content-relative path; layouts holds the parsed layout sources keyed the
// same way. Layout sources are instantiated fresh per using page, so a layout
// shared by N pages yields N nodes.
func Build(pages map[string]*page.Page, layouts map[string]*page.Page) (*Graph, error) {
	g := New()

	paths := make([]string, 0, len(pages))
	for p := range pages {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	// Insert page nodes and their layout chains.
	for _, relPath := range paths {
		p := pages[relPath]
		id := g.AddNode(Label{Path: relPath}, p)
		if err := expandLayoutChain(g, id, p, layouts); err != nil {
			return nil, err
		}
	}

	// Member-of edges: for each collection a node depends on, every page
	// belonging to that collection must render before the node.
	if err := addMemberEdges(g, pages, paths); err != nil {
		return nil, err
	}

	// Member edges between pages can close a loop that the layout-chain walk
	// cannot see.
	if _, err := TopoSort(g); err != nil {
		return nil, err
	}

	return g, nil
}

// expandLayoutChain instantiates the uses-layout chain of a page node. The
// chain head's path is the instantiation site for every instance in the
// chain, keeping context from leaking between unrelated branches.
func expandLayoutChain(g *Graph, headID int, head *page.Page, layouts map[string]*page.Page) error {
	site := head.RelPath
	parentID := headID
	ref := head.Layout
	chain := []string{head.RelPath}
	seen := map[string]bool{head.RelPath: true}

	for ref != "" {
		layoutPath := LayoutPath(ref)
		if seen[layoutPath] {
			chain = append(chain, layoutPath)
			return errors.ConfigurationError(
				fmt.Sprintf("layout cycle: %s", strings.Join(chain, " -> ")))
		}
		src, ok := layouts[layoutPath]
		if !ok {
			return errors.ConfigurationError(
				fmt.Sprintf("layout not found: %s (referenced by %s)", layoutPath, g.Node(parentID).Label.Path))
		}
		seen[layoutPath] = true
		chain = append(chain, layoutPath)

		instance := clonePage(src)
		id := g.AddNode(Label{Path: layoutPath, Site: site}, instance)
		g.AddEdge(parentID, id, EdgeLayout)

		parentID = id
		ref = src.Layout
	}
	return nil
}

func addMemberEdges(g *Graph, pages map[string]*page.Page, sortedPaths []string) error {
	// Collection membership is a pure function of path, recomputed here for
	// this generation.
	members := map[string][]int{}
	for _, relPath := range sortedPaths {
		n := g.ByLabel(Label{Path: relPath})
		for _, c := range pages[relPath].Collections {
			members[c] = append(members[c], n.ID)
		}
	}

	for _, n := range g.Nodes() {
		for _, collection := range n.Page.Depends {
			ids, ok := members[collection]
			if !ok {
				return errors.ConfigurationError(
					fmt.Sprintf("collection not found: %q (depended on by %s)", collection, n.Label.Path))
			}
			for _, memberID := range ids {
				if memberID == n.ID {
					continue
				}
				g.AddEdge(memberID, n.ID, EdgeMember)
			}
		}
	}
	return nil
}

func clonePage(src *page.Page) *page.Page {
	cp := *src
	return &cp
}
