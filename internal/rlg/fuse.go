// internal/rlg/fuse.go
package rlg

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/xkilldash9x/rlfscan/internal/dom"
	"github.com/xkilldash9x/rlfscan/internal/geometry"
)

// layout is what fusion reads from one width's capture. *dom.Snapshot
// implements it.
type layout interface {
	Indexed() []*dom.Node
	Query(r geometry.Rectangle, tol float64) []*dom.Node
}

// Fuse merges one width's snapshot into the graph. Snapshots may arrive in
// any width order but must not be fused concurrently. A failed fuse leaves
// the graph as it was.
func (g *Graph) Fuse(s *dom.Snapshot) error {
	if s == nil {
		return errors.New("cannot fuse a nil snapshot")
	}
	return g.fuse(s.Width, s)
}

func (g *Graph) fuse(width int, s layout) error {
	if g.widths.Contains(width) {
		return fmt.Errorf("%w: %d", ErrWidthAlreadyFused, width)
	}

	indexed := s.Indexed()
	containers := make(map[*dom.Node][]*dom.Node, len(indexed))
	for _, n := range indexed {
		cs, err := g.containersOf(s, n)
		if err != nil {
			return fmt.Errorf("fusing width %d: %w", width, err)
		}
		containers[n] = cs
	}

	for _, n := range indexed {
		g.ensureNode(n.XPath).Ranges.AddValue(width)
	}

	parents := g.assignParents(indexed, containers)
	for _, n := range indexed {
		if p, ok := parents[n]; ok {
			g.addViewport(ParentChild, p.XPath, n.XPath, width)
		}
	}

	g.fuseSiblings(width, indexed, parents)

	for _, n := range indexed {
		for _, c := range containers[n] {
			g.addViewport(Container, c.XPath, n.XPath, width)
		}
	}

	g.widths.AddValue(width)
	g.logger.Debug("Fused snapshot.",
		zap.Int("width", width),
		zap.Int("indexed", len(indexed)),
		zap.Int("parented", len(parents)))
	return nil
}

// containersOf returns every indexed rectangle that contains n, in
// breadth-first order. n must be found by its own query.
func (g *Graph) containersOf(s layout, n *dom.Node) ([]*dom.Node, error) {
	var (
		out  []*dom.Node
		self bool
	)
	for _, h := range s.Query(n.Rect, g.tol.Protrusion) {
		if h == n {
			self = true
			continue
		}
		if g.contains(h, n) {
			out = append(out, h)
		}
	}
	if !self {
		return nil, fmt.Errorf("%w: %s", ErrIndexInconsistent, n.XPath)
	}
	return out, nil
}

// contains applies the protrusion tolerance. When both rectangles contain
// each other the structural ancestor wins, then the smaller path.
func (g *Graph) contains(a, b *dom.Node) bool {
	if !a.Rect.Contains(b.Rect, g.tol.Protrusion) {
		return false
	}
	if !b.Rect.Contains(a.Rect, g.tol.Protrusion) {
		return true
	}
	switch {
	case dom.IsAncestorPath(a.XPath, b.XPath):
		return true
	case dom.IsAncestorPath(b.XPath, a.XPath):
		return false
	}
	return a.XPath < b.XPath
}

// assignParents picks at most one parent per node. Nodes are handled in
// breadth-first order and a candidate already below the node is rejected.
func (g *Graph) assignParents(indexed []*dom.Node, containers map[*dom.Node][]*dom.Node) map[*dom.Node]*dom.Node {
	parents := make(map[*dom.Node]*dom.Node, len(indexed))
	for _, n := range indexed {
		p := g.resolveParent(n, g.candidates(containers[n]))
		if p == nil {
			continue
		}
		if inSubtree(parents, p, n) {
			g.logger.Debug("Rejected cyclic parent.",
				zap.String("node", n.XPath), zap.String("parent", p.XPath))
			continue
		}
		parents[n] = p
	}
	return parents
}

// inSubtree reports whether walking up from p through assigned parents
// reaches n.
func inSubtree(parents map[*dom.Node]*dom.Node, p, n *dom.Node) bool {
	seen := make(map[*dom.Node]bool)
	for cur := p; cur != nil && !seen[cur]; cur = parents[cur] {
		if cur == n {
			return true
		}
		seen[cur] = true
	}
	return false
}

// candidates keeps the smallest container plus any container that is just
// as good once shrunk by the equivalent-parent tolerance.
func (g *Graph) candidates(cs []*dom.Node) []*dom.Node {
	if len(cs) == 0 {
		return nil
	}
	smallest := cs[0]
	for _, c := range cs[1:] {
		a, b := c.Rect.Area(), smallest.Rect.Area()
		if a < b || (a == b && c.XPath < smallest.XPath) {
			smallest = c
		}
	}
	minArea := smallest.Rect.Area()
	out := []*dom.Node{smallest}
	for _, c := range cs {
		if c == smallest {
			continue
		}
		if c.Rect.ShrunkArea(g.tol.EquivalentParent) <= minArea {
			out = append(out, c)
		}
	}
	return out
}

// resolveParent prefers the deepest structural ancestor, then the relative
// sharing the longest path prefix, then the shallowest descendant.
func (g *Graph) resolveParent(n *dom.Node, cands []*dom.Node) *dom.Node {
	if len(cands) == 0 {
		return nil
	}
	sorted := make([]*dom.Node, len(cands))
	copy(sorted, cands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].XPath < sorted[j].XPath })

	var ancestor, relative, descendant *dom.Node
	bestPrefix := -1
	for _, c := range sorted {
		switch {
		case dom.IsAncestorPath(c.XPath, n.XPath):
			if ancestor == nil || dom.Depth(c.XPath) > dom.Depth(ancestor.XPath) {
				ancestor = c
			}
		case dom.IsAncestorPath(n.XPath, c.XPath):
			if descendant == nil || dom.Depth(c.XPath) < dom.Depth(descendant.XPath) {
				descendant = c
			}
		default:
			if l := dom.CommonPrefixLen(c.XPath, n.XPath); l > bestPrefix {
				relative, bestPrefix = c, l
			}
		}
	}
	switch {
	case ancestor != nil:
		return ancestor
	case relative != nil:
		return relative
	default:
		return descendant
	}
}

// fuseSiblings records overlap and alignment relations between every pair
// of children sharing a parent at this width.
func (g *Graph) fuseSiblings(width int, indexed []*dom.Node, parents map[*dom.Node]*dom.Node) {
	var order []*dom.Node
	children := make(map[*dom.Node][]*dom.Node)
	for _, n := range indexed {
		p, ok := parents[n]
		if !ok {
			continue
		}
		if _, seen := children[p]; !seen {
			order = append(order, p)
		}
		children[p] = append(children[p], n)
	}

	for _, p := range order {
		kids := children[p]
		for i := 0; i < len(kids); i++ {
			for j := i + 1; j < len(kids); j++ {
				g.fusePair(width, p, kids[i], kids[j])
			}
		}
	}
}

func (g *Graph) fusePair(width int, parent, a, b *dom.Node) {
	tol := g.tol.SmallRange
	box := parent.Rect

	if a.Rect.Overlaps(b.Rect, g.tol.Collision) {
		g.addViewport(Overlap, a.XPath, b.XPath, width)
	}

	switch {
	case a.Rect.Above(b.Rect, box, tol):
		g.addViewport(Above, a.XPath, b.XPath, width)
	case b.Rect.Above(a.Rect, box, tol):
		g.addViewport(Above, b.XPath, a.XPath, width)
	}

	switch {
	case a.Rect.LeftOf(b.Rect, box, tol):
		g.addViewport(LeftOf, a.XPath, b.XPath, width)
	case b.Rect.LeftOf(a.Rect, box, tol):
		g.addViewport(LeftOf, b.XPath, a.XPath, width)
	}
}
