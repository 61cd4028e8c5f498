package graph

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Format selects a map rendering.
type Format string

const (
	FormatText    Format = "text"
	FormatDOT     Format = "dot"
	FormatMermaid Format = "mermaid"
)

// ParseFormat accepts text, dot or mermaid; empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatDOT, FormatMermaid:
		return f, nil
	default:
		return "", fmt.Errorf("unknown map format %q (want text, dot or mermaid)", s)
	}
}

const (
	white = iota // not yet visited
	grey         // on the current path
	black        // fully expanded
)

type frame struct {
	node  int
	depth int
	kids  []int
	next  int
}

// WriteTree prints the dependents tree under root, one node per line,
// indented two spaces per level. Children are sorted by name. A child that
// is still on the current path is printed with "(cycle)" and one that was
// already expanded elsewhere with "(seen)"; neither is expanded again.
func (g *Graph) WriteTree(w io.Writer, root int) error {
	color := make([]uint8, len(g.units))
	var stack []frame

	visit := func(v, depth int) error {
		marker := ""
		switch color[v] {
		case grey:
			marker = " (cycle)"
		case black:
			marker = " (seen)"
		}
		if _, err := fmt.Fprintf(w, "%s↳ %s%s\n", strings.Repeat("  ", depth), g.units[v].Name, marker); err != nil {
			return err
		}
		if marker == "" {
			color[v] = grey
			stack = append(stack, frame{node: v, depth: depth, kids: g.SortedDependents(v)})
		}
		return nil
	}

	if err := visit(root, 0); err != nil {
		return err
	}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.kids) {
			child := top.kids[top.next]
			top.next++
			if err := visit(child, top.depth+1); err != nil {
				return err
			}
			continue
		}
		color[top.node] = black
		stack = stack[:len(stack)-1]
	}
	return nil
}

type edge struct{ from, to int }

// subgraph returns the nodes reachable from root (sorted by name) and the
// edges among them.
func (g *Graph) subgraph(root int) ([]int, []edge) {
	set := g.ReachableFrom(root)
	var nodes []int
	for i, in := range set {
		if in {
			nodes = append(nodes, i)
		}
	}
	sort.Slice(nodes, func(a, b int) bool { return g.units[nodes[a]].Name < g.units[nodes[b]].Name })
	var edges []edge
	for _, v := range nodes {
		for _, w := range g.SortedDependents(v) {
			edges = append(edges, edge{from: v, to: w})
		}
	}
	return nodes, edges
}

// WriteDOT exports the subgraph reachable from root as Graphviz DOT text.
func (g *Graph) WriteDOT(w io.Writer, root int) error {
	nodes, edges := g.subgraph(root)
	var b strings.Builder
	b.WriteString("digraph units {\n")
	b.WriteString("  rankdir=LR;\n")
	alias := make(map[int]string, len(nodes))
	for i, v := range nodes {
		alias[v] = fmt.Sprintf("n%d", i)
		fmt.Fprintf(&b, "  %s [label=\"%s\"];\n", alias[v], escapeQuotes(g.units[v].Name))
	}
	for _, e := range edges {
		fmt.Fprintf(&b, "  %s -> %s;\n", alias[e.from], alias[e.to])
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteMermaid exports the subgraph reachable from root as a Mermaid flowchart.
func (g *Graph) WriteMermaid(w io.Writer, root int) error {
	nodes, edges := g.subgraph(root)
	var b strings.Builder
	b.WriteString("graph TD\n")
	alias := make(map[int]string, len(nodes))
	for i, v := range nodes {
		alias[v] = fmt.Sprintf("n%d", i)
		fmt.Fprintf(&b, "    %s[\"%s\"]\n", alias[v], escapeQuotes(g.units[v].Name))
	}
	for _, e := range edges {
		fmt.Fprintf(&b, "    %s --> %s\n", alias[e.from], alias[e.to])
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Render writes the map of root in the requested format.
func (g *Graph) Render(w io.Writer, root int, f Format) error {
	switch f {
	case FormatDOT:
		return g.WriteDOT(w, root)
	case FormatMermaid:
		return g.WriteMermaid(w, root)
	default:
		return g.WriteTree(w, root)
	}
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}
