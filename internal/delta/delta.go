// Package delta classifies pages across two build generations and derives
// the render-needed closure and the merge of prior render artifacts into the
// new generation.
package delta

import (
	"git.home.luguber.info/inful/sitegen/internal/graph"
	"git.home.luguber.info/inful/sitegen/internal/page"
	"git.home.luguber.info/inful/sitegen/internal/util/sets"
)

// Change classifies one path across two generations.
type Change string

const (
	Added     Change = "added"
	Removed   Change = "removed"
	Modified  Change = "modified"
	Unchanged Change = "unchanged"
)

// Diff is the strict partition of the union of old and new paths.
type Diff struct {
	Changes map[string]Change
}

// Paths returns the paths carrying a given classification, unordered.
func (d Diff) Paths(c Change) []string {
	var out []string
	for p, got := range d.Changes {
		if got == c {
			out = append(out, p)
		}
	}
	return out
}

// Count returns how many paths carry a given classification.
func (d Diff) Count(c Change) int {
	n := 0
	for _, got := range d.Changes {
		if got == c {
			n++
		}
	}
	return n
}

// Classify partitions every path present in either generation into exactly
// one of Added, Removed, Modified, Unchanged. URL and Rendered are render
// artifacts and never participate in the comparison.
func Classify(old, next *graph.Graph) Diff {
	d := Diff{Changes: map[string]Change{}}

	oldPaths := sets.New(old.Paths()...)
	newPaths := sets.New(next.Paths()...)

	for p := range newPaths {
		if !oldPaths.Has(p) {
			d.Changes[p] = Added
			continue
		}
		if page.Equivalent(firstPage(old, p), firstPage(next, p)) {
			d.Changes[p] = Unchanged
		} else {
			d.Changes[p] = Modified
		}
	}
	for p := range oldPaths {
		if !newPaths.Has(p) {
			d.Changes[p] = Removed
		}
	}
	return d
}

// firstPage returns the authored page content for a path. Layout paths carry
// multiple instances, all sharing the same source content, so the first
// instance is representative.
func firstPage(g *graph.Graph, path string) *page.Page {
	nodes := g.ByPath(path)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0].Page
}

// Closure computes the render-needed set over the new graph:
//
//   - every node of an Added or Modified path, plus its full descendant set
//     in the new graph (both edge kinds);
//   - the former parents of any path that was a layout and is now Modified
//     or Removed, found via the OLD graph's uses-layout edges, since a
//     changed or deleted layout invalidates the pages that used it;
//   - the dependents of a Removed collection member, found via the OLD
//     graph's member-of edges; the removed node has no edges in the new
//     graph to propagate through.
//
// The closure is monotone: growing the Added/Modified set never shrinks it.
func Closure(old, next *graph.Graph, d Diff) sets.Set[graph.Label] {
	need := sets.New[graph.Label]()

	seed := func(n *graph.Node) {
		if need.Has(n.Label) {
			return
		}
		need.Add(n.Label)
		for _, id := range next.Descendants(n.ID) {
			need.Add(next.Node(id).Label)
		}
	}

	for p, c := range d.Changes {
		switch c {
		case Added, Modified:
			for _, n := range next.ByPath(p) {
				seed(n)
			}
		}

		if c != Modified && c != Removed {
			continue
		}

		// Former parents of a was-layout path, via the old graph.
		if wasLayout(old, p) || wasLayout(next, p) {
			for _, inst := range old.ByPath(p) {
				for _, e := range old.In(inst.ID) {
					if e.Kind != graph.EdgeLayout {
						continue
					}
					parentPath := old.Node(e.From).Label.Path
					for _, n := range next.ByPath(parentPath) {
						seed(n)
					}
				}
			}
		}

		// Dependents of a removed collection member, via the old graph.
		if c == Removed {
			for _, inst := range old.ByPath(p) {
				for _, e := range old.Out(inst.ID) {
					if e.Kind != graph.EdgeMember {
						continue
					}
					dependentPath := old.Node(e.To).Label.Path
					for _, n := range next.ByPath(dependentPath) {
						seed(n)
					}
				}
			}
		}
	}

	return need
}

func wasLayout(g *graph.Graph, path string) bool {
	nodes := g.ByPath(path)
	return len(nodes) > 0 && nodes[0].Page.IsLayout
}

// Merge carries forward the prior generation's render artifacts: for every
// new-graph node not in the render-needed set, Rendered and URL are copied
// from the old node sharing its label. Render-needed nodes have Rendered
// cleared. This is the only place old-generation state crosses into the new
// generation.
func Merge(old, next *graph.Graph, need sets.Set[graph.Label]) {
	for _, n := range next.Nodes() {
		if need.Has(n.Label) {
			n.Page.Rendered = ""
			continue
		}
		if prev := old.ByLabel(n.Label); prev != nil {
			n.Page.Rendered = prev.Page.Rendered
			n.Page.URL = prev.Page.URL
		}
	}
}

// Deletions returns the last-known output path per removed output-owning
// page, keyed by content path. The caller sequences these deletions after
// the generation's writes.
func Deletions(old *graph.Graph, d Diff) map[string]string {
	out := map[string]string{}
	for p, c := range d.Changes {
		if c != Removed {
			continue
		}
		for _, n := range old.ByPath(p) {
			if n.Page.IsLayout {
				continue
			}
			if n.Page.URL != "" {
				out[p] = n.Page.URL
			}
		}
	}
	return out
}
