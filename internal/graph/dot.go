package graph

import (
	"fmt"
	"sort"
	"strings"
)

// DOT renders the graph in Graphviz DOT form for diagnostics. Layout
// instances, collection members, and plain pages carry distinct fill colors,
// matching the shape of the exported diagnostic graph users already know.
func DOT(g *Graph) string {
	var b strings.Builder
	b.WriteString("digraph pages {\n")
	b.WriteString("  node [shape=box, style=filled];\n")

	nodes := append([]*Node(nil), g.Nodes()...)
	sort.Slice(nodes, func(i, j int) bool {
		a, c := nodes[i].Label, nodes[j].Label
		if a.Path != c.Path {
			return a.Path < c.Path
		}
		return a.Site < c.Site
	})

	for _, n := range nodes {
		color := "#BADAFF" // plain page
		switch {
		case n.Page.IsLayout:
			color = "#FFDFBA"
		case len(n.Page.Collections) > 0:
			color = "#DAFFBA"
		}
		b.WriteString(fmt.Sprintf("  n%d [label=%q, fillcolor=%q];\n", n.ID, dotLabel(n.Label), color))
	}
	for _, n := range nodes {
		edges := append([]Edge(nil), g.Out(n.ID)...)
		sort.Slice(edges, func(i, j int) bool { return edges[i].To < edges[j].To })
		for _, e := range edges {
			b.WriteString(fmt.Sprintf("  n%d -> n%d [label=%q];\n", e.From, e.To, e.Kind.String()))
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func dotLabel(l Label) string {
	if l.Site == "" {
		return l.Path
	}
	return l.Path + " (" + l.Site + ")"
}
