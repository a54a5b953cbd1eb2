package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/page"
)

func mkPage(relPath, layout string, depends ...string) *page.Page {
	return &page.Page{
		RelPath:     relPath,
		Layout:      layout,
		Depends:     depends,
		Collections: page.CollectionsFromPath(relPath),
		IsLayout:    page.IsLayoutPath(relPath),
		Data:        map[string]any{},
	}
}

func mkLayout(name, parent string) *page.Page {
	return mkPage("layouts/"+name+".md", parent)
}

func pagesByPath(ps ...*page.Page) map[string]*page.Page {
	out := map[string]*page.Page{}
	for _, p := range ps {
		out[p.RelPath] = p
	}
	return out
}

func TestBuild_SharedLayoutYieldsDistinctInstances(t *testing.T) {
	pages := pagesByPath(mkPage("a.md", "default"), mkPage("b.md", "default"))
	layouts := pagesByPath(mkLayout("default", ""))

	g, err := Build(pages, layouts)
	require.NoError(t, err)

	instances := g.ByPath("layouts/default.md")
	require.Len(t, instances, 2)
	require.NotEqual(t, instances[0].Label, instances[1].Label)
	require.Equal(t, "a.md", instances[0].Label.Site)
	require.Equal(t, "b.md", instances[1].Label.Site)
	// Separate page copies so write-back cannot leak between branches.
	require.NotSame(t, instances[0].Page, instances[1].Page)
}

func TestBuild_LayoutChainCarriesSiteOfChainHead(t *testing.T) {
	pages := pagesByPath(mkPage("b.md", "post"))
	layouts := pagesByPath(mkLayout("post", "default"), mkLayout("default", ""))

	g, err := Build(pages, layouts)
	require.NoError(t, err)

	post := g.ByLabel(Label{Path: "layouts/post.md", Site: "b.md"})
	require.NotNil(t, post)
	deflt := g.ByLabel(Label{Path: "layouts/default.md", Site: "b.md"})
	require.NotNil(t, deflt)

	// b -> post -> default
	b := g.ByLabel(Label{Path: "b.md"})
	require.Equal(t, []Edge{{From: b.ID, To: post.ID, Kind: EdgeLayout}}, g.Out(b.ID))
	require.Equal(t, deflt, g.DeepestLayout(b.ID))
}

func TestBuild_MemberEdgesFromCollectionMembersToDependent(t *testing.T) {
	pages := pagesByPath(
		mkPage("posts/one.md", ""),
		mkPage("posts/two.md", ""),
		mkPage("index.md", "", "posts"),
	)
	g, err := Build(pages, map[string]*page.Page{})
	require.NoError(t, err)

	index := g.ByLabel(Label{Path: "index.md"})
	var froms []string
	for _, e := range g.In(index.ID) {
		require.Equal(t, EdgeMember, e.Kind)
		froms = append(froms, g.Node(e.From).Label.Path)
	}
	require.ElementsMatch(t, []string{"posts/one.md", "posts/two.md"}, froms)
}

func TestBuild_CompoundCollectionName(t *testing.T) {
	pages := pagesByPath(
		mkPage("books/fantasy/x.md", ""),
		mkPage("index.md", "", "books_fantasy"),
	)
	g, err := Build(pages, map[string]*page.Page{})
	require.NoError(t, err)
	index := g.ByLabel(Label{Path: "index.md"})
	require.Len(t, g.In(index.ID), 1)
}

func TestBuild_LayoutCycle_IsConfigurationError(t *testing.T) {
	pages := pagesByPath(mkPage("a.md", "one"))
	layouts := pagesByPath(mkLayout("one", "two"), mkLayout("two", "one"))

	_, err := Build(pages, layouts)
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryConfig))
	require.Contains(t, err.Error(), "layouts/one.md")
	require.Contains(t, err.Error(), "layouts/two.md")
}

func TestBuild_MemberCycle_IsConfigurationErrorWithChain(t *testing.T) {
	// a depends on the collection containing b, and vice versa.
	pages := pagesByPath(
		mkPage("one/a.md", "", "two"),
		mkPage("two/b.md", "", "one"),
	)
	_, err := Build(pages, map[string]*page.Page{})
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryConfig))
	require.Contains(t, err.Error(), "one/a.md")
	require.Contains(t, err.Error(), "two/b.md")
}

func TestBuild_UnknownLayout_IsConfigurationError(t *testing.T) {
	pages := pagesByPath(mkPage("a.md", "nope"))
	_, err := Build(pages, map[string]*page.Page{})
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryConfig))
	require.Contains(t, err.Error(), "layouts/nope.md")
}

func TestBuild_UnknownCollection_IsConfigurationError(t *testing.T) {
	pages := pagesByPath(mkPage("a.md", "", "ghosts"))
	_, err := Build(pages, map[string]*page.Page{})
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryConfig))
	require.Contains(t, err.Error(), "ghosts")
}

func TestTopoSort_EveryEdgeRespected(t *testing.T) {
	pages := pagesByPath(
		mkPage("posts/one.md", "post"),
		mkPage("posts/two.md", "post"),
		mkPage("index.md", "default", "posts"),
	)
	layouts := pagesByPath(mkLayout("post", "default"), mkLayout("default", ""))

	g, err := Build(pages, layouts)
	require.NoError(t, err)
	order, err := TopoSort(g)
	require.NoError(t, err)
	require.Len(t, order, g.Len())

	pos := map[int]int{}
	for i, id := range order {
		pos[id] = i
	}
	for _, n := range g.Nodes() {
		for _, e := range g.Out(n.ID) {
			require.Less(t, pos[e.From], pos[e.To],
				"edge %s -> %s out of order", g.Node(e.From).Label.Path, g.Node(e.To).Label.Path)
		}
	}
}

func TestTopoSort_Deterministic(t *testing.T) {
	pages := pagesByPath(mkPage("c.md", ""), mkPage("a.md", ""), mkPage("b.md", ""))
	g, err := Build(pages, map[string]*page.Page{})
	require.NoError(t, err)

	order, err := TopoSort(g)
	require.NoError(t, err)
	var paths []string
	for _, id := range order {
		paths = append(paths, g.Node(id).Label.Path)
	}
	require.Equal(t, []string{"a.md", "b.md", "c.md"}, paths)
}

func TestOutputOwners_AreExactlyNonLayoutPages(t *testing.T) {
	pages := pagesByPath(
		mkPage("a.md", "default"),
		mkPage("posts/b.md", "post"),
		mkPage("c.md", ""),
	)
	layouts := pagesByPath(mkLayout("post", "default"), mkLayout("default", ""))

	g, err := Build(pages, layouts)
	require.NoError(t, err)

	var owners []string
	for _, n := range g.OutputOwners() {
		owners = append(owners, n.Label.Path)
	}
	require.ElementsMatch(t, []string{"a.md", "posts/b.md", "c.md"}, owners)
}

func TestRoots_ExcludeDependentsAndLayouts(t *testing.T) {
	pages := pagesByPath(
		mkPage("posts/one.md", ""),
		mkPage("index.md", "", "posts"),
	)
	g, err := Build(pages, map[string]*page.Page{})
	require.NoError(t, err)

	var roots []string
	for _, n := range g.Roots() {
		roots = append(roots, n.Label.Path)
	}
	require.Equal(t, []string{"posts/one.md"}, roots)
}

func TestDescendantsAndAncestors(t *testing.T) {
	pages := pagesByPath(mkPage("b.md", "post"))
	layouts := pagesByPath(mkLayout("post", "default"), mkLayout("default", ""))
	g, err := Build(pages, layouts)
	require.NoError(t, err)

	b := g.ByLabel(Label{Path: "b.md"})
	desc := g.Descendants(b.ID)
	require.Len(t, desc, 2)

	deflt := g.ByLabel(Label{Path: "layouts/default.md", Site: "b.md"})
	anc := g.Ancestors(deflt.ID)
	require.Len(t, anc, 2)
}

func TestDOT_ContainsNodesAndEdgeKinds(t *testing.T) {
	pages := pagesByPath(mkPage("a.md", "default"))
	layouts := pagesByPath(mkLayout("default", ""))
	g, err := Build(pages, layouts)
	require.NoError(t, err)

	dot := DOT(g)
	require.True(t, strings.HasPrefix(dot, "digraph pages {"))
	require.Contains(t, dot, "a.md")
	require.Contains(t, dot, "layouts/default.md (a.md)")
	require.Contains(t, dot, `label="layout"`)
}
