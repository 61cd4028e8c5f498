// Package graph models the start-order relation between units.
//
// Nodes are indices into the loaded unit slice. An edge runs from a
// predecessor to each unit that names it in its after list, so following
// edges forward walks from a unit to the units that depend on it.
package graph

import (
	"container/heap"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/loykin/unitctl/internal/unit"
)

// ErrDependencyCycle is wrapped by CycleError.
var ErrDependencyCycle = errors.New("dependency cycle detected")

// CycleError lists the units that could not be ordered. Not every listed
// unit is on a cycle; some only depend on one.
type CycleError struct {
	Units []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrDependencyCycle, strings.Join(e.Units, ", "))
}

func (e *CycleError) Unwrap() error { return ErrDependencyCycle }

// Graph is the dependents graph of one unit load.
type Graph struct {
	units      []unit.Unit
	index      map[string]int
	dependents [][]int
	indegree   []int
}

// Build resolves every after entry to an edge. Entries naming an unknown
// unit are reported to unresolved (may be nil) and skipped.
func Build(units []unit.Unit, unresolved func(u unit.Unit, dep string)) *Graph {
	g := &Graph{
		units:      units,
		index:      make(map[string]int, len(units)),
		dependents: make([][]int, len(units)),
		indegree:   make([]int, len(units)),
	}
	for i, u := range units {
		if _, ok := g.index[u.Name]; !ok {
			g.index[u.Name] = i
		}
	}
	for i, u := range units {
		for _, d := range u.After {
			j, ok := g.index[d]
			if !ok {
				if unresolved != nil {
					unresolved(u, d)
				}
				continue
			}
			g.dependents[j] = append(g.dependents[j], i)
			g.indegree[i]++
		}
	}
	return g
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.units) }

// Unit returns the unit at node i.
func (g *Graph) Unit(i int) unit.Unit { return g.units[i] }

// Index resolves a unit name to its node.
func (g *Graph) Index(name string) (int, bool) {
	i, ok := g.index[name]
	return i, ok
}

// Dependents returns the direct dependents of node i in edge order.
func (g *Graph) Dependents(i int) []int {
	return append([]int(nil), g.dependents[i]...)
}

// SortedDependents returns the direct dependents of node i ordered by name.
func (g *Graph) SortedDependents(i int) []int {
	kids := g.Dependents(i)
	sort.SliceStable(kids, func(a, b int) bool {
		return g.units[kids[a]].Name < g.units[kids[b]].Name
	})
	return kids
}

// TopoOrder returns every node such that each predecessor precedes its
// dependents (Kahn's algorithm). Among nodes that are ready at the same
// time the lexicographically smallest name goes first.
func (g *Graph) TopoOrder() ([]int, error) {
	n := len(g.units)
	indeg := append([]int(nil), g.indegree...)
	ready := &nameHeap{units: g.units}
	for i := 0; i < n; i++ {
		if indeg[i] == 0 {
			ready.idx = append(ready.idx, i)
		}
	}
	heap.Init(ready)

	order := make([]int, 0, n)
	for ready.Len() > 0 {
		v := heap.Pop(ready).(int)
		order = append(order, v)
		for _, w := range g.dependents[v] {
			indeg[w]--
			if indeg[w] == 0 {
				heap.Push(ready, w)
			}
		}
	}
	if len(order) != n {
		stuck := make([]string, 0, n-len(order))
		for i := 0; i < n; i++ {
			if indeg[i] > 0 {
				stuck = append(stuck, g.units[i].Name)
			}
		}
		sort.Strings(stuck)
		return nil, &CycleError{Units: stuck}
	}
	return order, nil
}

// ReachableFrom marks root and every node that transitively depends on it.
// The walk uses an explicit stack and never revisits a node, so it ends on
// cyclic input too.
func (g *Graph) ReachableFrom(root int) []bool {
	seen := make([]bool, len(g.units))
	if root < 0 || root >= len(g.units) {
		return seen
	}
	stack := []int{root}
	seen[root] = true
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, w := range g.dependents[v] {
			if !seen[w] {
				seen[w] = true
				stack = append(stack, w)
			}
		}
	}
	return seen
}

// Filter keeps the nodes of order that are marked in set.
func Filter(order []int, set []bool) []int {
	out := make([]int, 0, len(order))
	for _, v := range order {
		if set[v] {
			out = append(out, v)
		}
	}
	return out
}

// nameHeap is a min-heap of node indices keyed by unit name.
type nameHeap struct {
	units []unit.Unit
	idx   []int
}

func (h *nameHeap) Len() int { return len(h.idx) }
func (h *nameHeap) Less(a, b int) bool {
	na, nb := h.units[h.idx[a]].Name, h.units[h.idx[b]].Name
	if na != nb {
		return na < nb
	}
	return h.idx[a] < h.idx[b]
}
func (h *nameHeap) Swap(a, b int) { h.idx[a], h.idx[b] = h.idx[b], h.idx[a] }
func (h *nameHeap) Push(x any)    { h.idx = append(h.idx, x.(int)) }
func (h *nameHeap) Pop() any {
	last := h.idx[len(h.idx)-1]
	h.idx = h.idx[:len(h.idx)-1]
	return last
}
