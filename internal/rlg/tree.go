// internal/rlg/tree.go
package rlg

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xkilldash9x/rlfscan/internal/ranges"
)

const indentUnit = "  "

// Dump is the per-node and per-edge range content of a graph, as written by
// WriteTree and recovered by ReadTree.
type Dump struct {
	Nodes map[string]ranges.Ranges
	Edges map[EdgeKey]ranges.Ranges
}

// Dump copies the graph's ranges.
func (g *Graph) Dump() Dump {
	d := Dump{
		Nodes: make(map[string]ranges.Ranges, len(g.nodes)),
		Edges: make(map[EdgeKey]ranges.Ranges, len(g.edges)),
	}
	for p, n := range g.nodes {
		d.Nodes[p] = n.Ranges
	}
	for k, e := range g.edges {
		d.Edges[k] = e.Ranges
	}
	return d
}

// WriteTree writes the graph as an indented tree. Every node appears once,
// under the parent it had for the most widths; its outgoing edges are listed
// directly beneath it, followed by its children.
//
//	/HTML/BODY {320-1400}
//	  parent-of /HTML/BODY/DIV {320-1400}
//	  /HTML/BODY/DIV {320-1400}
func (g *Graph) WriteTree(w io.Writer) error {
	bw := bufio.NewWriter(w)
	children := make(map[string][]string)
	var roots []string
	for _, n := range g.Nodes() {
		if p, ok := g.primaryParent(n); ok {
			children[p] = append(children[p], n.XPath)
			continue
		}
		roots = append(roots, n.XPath)
	}

	written := make(map[string]bool, len(g.nodes))
	var walk func(path string, depth int)
	walk = func(path string, depth int) {
		if written[path] {
			return
		}
		written[path] = true
		n := g.nodes[path]
		indent := strings.Repeat(indentUnit, depth)
		fmt.Fprintf(bw, "%s%s {%s}\n", indent, path, n.Ranges)
		for _, kind := range EdgeKinds {
			for _, key := range n.Out(kind) {
				fmt.Fprintf(bw, "%s%s%s %s {%s}\n", indent, indentUnit, kind, key.To, g.edges[key].Ranges)
			}
		}
		for _, c := range children[path] {
			walk(c, depth+1)
		}
	}
	for _, r := range roots {
		walk(r, 0)
	}
	// Nodes whose parent chain loops never reach a root.
	for _, n := range g.Nodes() {
		walk(n.XPath, 0)
	}
	return bw.Flush()
}

// primaryParent is the parent held over the most widths, ties to the smaller
// path.
func (g *Graph) primaryParent(n *Node) (string, bool) {
	best, bestLen := "", 0
	for _, key := range n.In(ParentChild) {
		if key.From == n.XPath {
			continue
		}
		l := 0
		for _, r := range g.edges[key].Ranges.List() {
			l += r.Len()
		}
		if l > bestLen {
			best, bestLen = key.From, l
		}
	}
	return best, bestLen > 0
}

// ReadTree parses the output of WriteTree.
func ReadTree(r io.Reader) (Dump, error) {
	d := Dump{
		Nodes: make(map[string]ranges.Ranges),
		Edges: make(map[EdgeKey]ranges.Ranges),
	}
	type frame struct {
		depth int
		path  string
	}
	var stack []frame

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		trimmed := strings.TrimLeft(line, " ")
		depth := (len(line) - len(trimmed)) / len(indentUnit)

		head, rs, err := splitRanges(trimmed)
		if err != nil {
			return Dump{}, fmt.Errorf("line %d: %w", lineNo, err)
		}

		for len(stack) > 0 && stack[len(stack)-1].depth >= depth {
			stack = stack[:len(stack)-1]
		}

		if strings.HasPrefix(head, "/") {
			d.Nodes[head] = rs
			stack = append(stack, frame{depth: depth, path: head})
			continue
		}

		kindName, to, ok := strings.Cut(head, " ")
		if !ok {
			return Dump{}, fmt.Errorf("line %d: malformed edge %q", lineNo, head)
		}
		kind, err := ParseEdgeKind(kindName)
		if err != nil {
			return Dump{}, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if len(stack) == 0 || stack[len(stack)-1].depth != depth-1 {
			return Dump{}, fmt.Errorf("line %d: edge without a source node", lineNo)
		}
		from := stack[len(stack)-1].path
		d.Edges[NewEdgeKey(kind, from, to)] = rs
	}
	if err := sc.Err(); err != nil {
		return Dump{}, fmt.Errorf("reading tree: %w", err)
	}
	return d, nil
}

// splitRanges separates "<head> {<ranges>}".
func splitRanges(s string) (string, ranges.Ranges, error) {
	open := strings.LastIndex(s, " {")
	if open < 0 || !strings.HasSuffix(s, "}") {
		return "", ranges.Ranges{}, fmt.Errorf("missing ranges in %q", s)
	}
	rs, err := ranges.ParseRanges(s[open+2 : len(s)-1])
	if err != nil {
		return "", ranges.Ranges{}, err
	}
	return s[:open], rs, nil
}

// SortedPaths returns the node paths of a dump in order.
func (d Dump) SortedPaths() []string {
	out := make([]string, 0, len(d.Nodes))
	for p := range d.Nodes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
