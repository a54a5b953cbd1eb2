package graph

import (
	"container/heap"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/errors"
)

// TopoSort returns a topological order over every node in the graph. Ties are
// broken by label so the visitation order is deterministic across runs. A
// cycle is reported as a ConfigurationError carrying the offending chain of
// paths.
func TopoSort(g *Graph) ([]int, error) {
	indegree := make([]int, g.Len())
	for _, n := range g.Nodes() {
		indegree[n.ID] = len(g.In(n.ID))
	}

	ready := &labelHeap{g: g}
	for _, n := range g.Nodes() {
		if indegree[n.ID] == 0 {
			heap.Push(ready, n.ID)
		}
	}

	order := make([]int, 0, g.Len())
	for ready.Len() > 0 {
		id := heap.Pop(ready).(int)
		order = append(order, id)
		for _, e := range g.Out(id) {
			indegree[e.To]--
			if indegree[e.To] == 0 {
				heap.Push(ready, e.To)
			}
		}
	}

	if len(order) < g.Len() {
		return nil, errors.ConfigurationError(
			fmt.Sprintf("dependency cycle: %s", strings.Join(findCycle(g, indegree), " -> ")))
	}
	return order, nil
}

// findCycle walks the nodes still carrying indegree to recover one concrete
// cycle for the error message.
func findCycle(g *Graph, indegree []int) []string {
	remaining := map[int]bool{}
	for _, n := range g.Nodes() {
		if indegree[n.ID] > 0 {
			remaining[n.ID] = true
		}
	}

	// Every remaining node sits on or upstream of a cycle; follow edges
	// within the remaining set until a node repeats.
	for start := range remaining {
		seen := map[int]int{}
		var path []int
		cur := start
		for {
			if pos, ok := seen[cur]; ok {
				cycle := path[pos:]
				out := make([]string, 0, len(cycle)+1)
				for _, id := range cycle {
					out = append(out, g.Node(id).Label.Path)
				}
				out = append(out, g.Node(cur).Label.Path)
				return out
			}
			seen[cur] = len(path)
			path = append(path, cur)
			next := -1
			for _, e := range g.Out(cur) {
				if remaining[e.To] {
					next = e.To
					break
				}
			}
			if next < 0 {
				break
			}
			cur = next
		}
	}
	return nil
}

// labelHeap is a min-heap of node IDs ordered by label.
type labelHeap struct {
	g   *Graph
	ids []int
}

func (h *labelHeap) Len() int { return len(h.ids) }

func (h *labelHeap) Less(i, j int) bool {
	a, b := h.g.Node(h.ids[i]).Label, h.g.Node(h.ids[j]).Label
	if a.Path != b.Path {
		return a.Path < b.Path
	}
	return a.Site < b.Site
}

func (h *labelHeap) Swap(i, j int) { h.ids[i], h.ids[j] = h.ids[j], h.ids[i] }

func (h *labelHeap) Push(x any) { h.ids = append(h.ids, x.(int)) }

func (h *labelHeap) Pop() any {
	n := len(h.ids)
	v := h.ids[n-1]
	h.ids = h.ids[:n-1]
	return v
}
