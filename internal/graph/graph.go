// Package graph builds and queries the page dependency graph for one build
// generation: one node per rendering instance, uses-layout and member-of
// edges, acyclicity enforced at construction.
package graph

import (
	"sort"

	"git.home.luguber.info/inful/sitegen/internal/page"
)

// EdgeKind distinguishes the two dependency edge kinds.
type EdgeKind int

const (
	// EdgeLayout connects a node to the fresh layout instance it renders
	// through: node -> layout-node.
	EdgeLayout EdgeKind = iota
	// EdgeMember connects a collection member to a node depending on that
	// collection: member -> dependent. The member renders first.
	EdgeMember
)

func (k EdgeKind) String() string {
	if k == EdgeLayout {
		return "layout"
	}
	return "member"
}

// Label identifies a node across generations: the content-relative path plus
// the instantiation site. A layout used by N distinct pages yields N nodes
// with the same Path and differing Site; Site is empty for non-layout nodes.
type Label struct {
	Path string
	Site string
}

// Node is one rendering instance of a page.
type Node struct {
	ID    int
	Label Label
	Page  *page.Page
}

// Edge is a directed dependency between two nodes.
type Edge struct {
	From int
	To   int
	Kind EdgeKind
}

// Graph is the complete node/edge set for one generation. It is immutable
// once constructed except that rendering writes URL/Rendered back onto each
// node's page.
type Graph struct {
	nodes   []*Node
	out     map[int][]Edge
	in      map[int][]Edge
	byLabel map[Label]int
	byPath  map[string][]int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		out:     map[int][]Edge{},
		in:      map[int][]Edge{},
		byLabel: map[Label]int{},
		byPath:  map[string][]int{},
	}
}

// AddNode inserts a node for the given label and page, returning its ID.
func (g *Graph) AddNode(label Label, p *page.Page) int {
	id := len(g.nodes)
	n := &Node{ID: id, Label: label, Page: p}
	g.nodes = append(g.nodes, n)
	g.byLabel[label] = id
	g.byPath[label.Path] = append(g.byPath[label.Path], id)
	return id
}

// AddEdge inserts a directed edge.
func (g *Graph) AddEdge(from, to int, kind EdgeKind) {
	e := Edge{From: from, To: to, Kind: kind}
	g.out[from] = append(g.out[from], e)
	g.in[to] = append(g.in[to], e)
}

// Node returns the node with the given ID.
func (g *Graph) Node(id int) *Node { return g.nodes[id] }

// Len returns the node count.
func (g *Graph) Len() int { return len(g.nodes) }

// EdgeCount returns the total edge count.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, es := range g.out {
		n += len(es)
	}
	return n
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node { return g.nodes }

// ByLabel returns the node carrying the given label, or nil.
func (g *Graph) ByLabel(label Label) *Node {
	id, ok := g.byLabel[label]
	if !ok {
		return nil
	}
	return g.nodes[id]
}

// ByPath returns every node instance for a path, in insertion order.
func (g *Graph) ByPath(path string) []*Node {
	ids := g.byPath[path]
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.nodes[id])
	}
	return out
}

// Paths returns the sorted set of distinct paths present in the graph.
func (g *Graph) Paths() []string {
	out := make([]string, 0, len(g.byPath))
	for p := range g.byPath {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Out returns the outgoing edges of a node.
func (g *Graph) Out(id int) []Edge { return g.out[id] }

// In returns the incoming edges of a node.
func (g *Graph) In(id int) []Edge { return g.in[id] }

// Descendants returns every node reachable from id by outgoing edges of
// either kind, excluding id itself.
func (g *Graph) Descendants(id int) []int {
	seen := map[int]bool{}
	var walk func(int)
	var order []int
	walk = func(cur int) {
		for _, e := range g.out[cur] {
			if seen[e.To] {
				continue
			}
			seen[e.To] = true
			order = append(order, e.To)
			walk(e.To)
		}
	}
	walk(id)
	return order
}

// Ancestors returns every node that reaches id by outgoing edges of either
// kind, excluding id itself.
func (g *Graph) Ancestors(id int) []int {
	seen := map[int]bool{}
	var walk func(int)
	var order []int
	walk = func(cur int) {
		for _, e := range g.in[cur] {
			if seen[e.From] {
				continue
			}
			seen[e.From] = true
			order = append(order, e.From)
			walk(e.From)
		}
	}
	walk(id)
	return order
}

// Roots returns nodes with no incoming member-of edge that are not layout
// instances.
func (g *Graph) Roots() []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n.Page.IsLayout {
			continue
		}
		memberIn := false
		for _, e := range g.in[n.ID] {
			if e.Kind == EdgeMember {
				memberIn = true
				break
			}
		}
		if !memberIn {
			out = append(out, n)
		}
	}
	return out
}

// OutputOwners returns the nodes owning an output file: exactly the
// non-layout pages. The bytes written for an owner come from the deepest
// layout instance in its chain when one exists.
func (g *Graph) OutputOwners() []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if !n.Page.IsLayout {
			out = append(out, n)
		}
	}
	return out
}

// DeepestLayout returns the final layout instance of a node's uses-layout
// chain, or the node itself when it has none.
func (g *Graph) DeepestLayout(id int) *Node {
	cur := id
	for {
		next := -1
		for _, e := range g.out[cur] {
			if e.Kind == EdgeLayout {
				next = e.To
				break
			}
		}
		if next < 0 {
			return g.nodes[cur]
		}
		cur = next
	}
}
