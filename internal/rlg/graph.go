// internal/rlg/graph.go
package rlg

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/xkilldash9x/rlfscan/internal/ranges"
)

var (
	// ErrIndexInconsistent means a rectangle was missing from its own
	// spatial query. It is an internal consistency failure and aborts the run.
	ErrIndexInconsistent = errors.New("spatial index does not return the queried rectangle")
	// ErrWidthAlreadyFused is returned when a width is fused twice.
	ErrWidthAlreadyFused = errors.New("width already fused into graph")
)

// Tolerances are the pixel slacks applied to geometric tests.
type Tolerances struct {
	// Collision shrinks both siblings before the overlap test.
	Collision float64 `mapstructure:"collision" yaml:"collision" json:"collision"`
	// Protrusion lets a child stick out of its container before it stops
	// counting as contained.
	Protrusion float64 `mapstructure:"protrusion" yaml:"protrusion" json:"protrusion"`
	// EquivalentParent is the slack used to treat containers of almost the
	// same area as equally good parents.
	EquivalentParent float64 `mapstructure:"equivalent_parent" yaml:"equivalent_parent" json:"equivalentParent"`
	// SmallRange is the slack for the above/below/left/right sibling tests.
	SmallRange float64 `mapstructure:"smallrange" yaml:"smallrange" json:"smallrange"`
}

// Graph is the Responsive Layout Graph of one webpage run. Fuse must be
// called sequentially; once every width is fused the graph is read-only and
// safe for concurrent readers.
type Graph struct {
	tol    Tolerances
	logger *zap.Logger

	nodes  map[string]*Node
	edges  map[EdgeKey]*Edge
	widths ranges.Ranges
}

// New creates an empty graph.
func New(tol Tolerances, logger *zap.Logger) *Graph {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Graph{
		tol:    tol,
		logger: logger.Named("rlg"),
		nodes:  make(map[string]*Node),
		edges:  make(map[EdgeKey]*Edge),
	}
}

// Tolerances returns the tolerances the graph was built with.
func (g *Graph) Tolerances() Tolerances { return g.tol }

// Widths returns every fused width.
func (g *Graph) Widths() ranges.Ranges { return g.widths }

// Node looks up a node by structural path.
func (g *Graph) Node(xpath string) (*Node, bool) {
	n, ok := g.nodes[xpath]
	return n, ok
}

// Nodes returns every node sorted by path.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].XPath < out[j].XPath })
	return out
}

// Edge looks up an edge. The key is normalised for symmetric kinds.
func (g *Graph) Edge(key EdgeKey) (*Edge, bool) {
	e, ok := g.edges[NewEdgeKey(key.Kind, key.From, key.To)]
	return e, ok
}

// Relation returns the kind edge between from and to, or nil.
func (g *Graph) Relation(kind EdgeKind, from, to string) *Edge {
	return g.edges[NewEdgeKey(kind, from, to)]
}

// Edges returns all edges of a kind sorted by endpoints.
func (g *Graph) Edges(kind EdgeKind) []*Edge {
	var out []*Edge
	for k, e := range g.edges {
		if k.Kind == kind {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.From != out[j].Key.From {
			return out[i].Key.From < out[j].Key.From
		}
		return out[i].Key.To < out[j].Key.To
	})
	return out
}

func (g *Graph) ensureNode(xpath string) *Node {
	n, ok := g.nodes[xpath]
	if !ok {
		n = newNode(xpath)
		g.nodes[xpath] = n
	}
	return n
}

// addViewport records the relationship at width, creating the edge on its
// first observation.
func (g *Graph) addViewport(kind EdgeKind, from, to string, width int) {
	key := NewEdgeKey(kind, from, to)
	e, ok := g.edges[key]
	if !ok {
		e = &Edge{Key: key}
		g.edges[key] = e
		g.ensureNode(key.From).link(key)
		g.ensureNode(key.To).link(key)
	}
	e.addViewport(width)
}

// NextWider returns the smallest fused width above w.
func (g *Graph) NextWider(w int) (int, bool) {
	for _, r := range g.widths.List() {
		if r.Max <= w {
			continue
		}
		if r.Min > w {
			return r.Min, true
		}
		return w + 1, true
	}
	return 0, false
}

// PrevWidth returns the largest fused width below w.
func (g *Graph) PrevWidth(w int) (int, bool) {
	list := g.widths.List()
	for i := len(list) - 1; i >= 0; i-- {
		r := list[i]
		if r.Min >= w {
			continue
		}
		if r.Max < w {
			return r.Max, true
		}
		return w - 1, true
	}
	return 0, false
}

// ParentAt returns the parent assigned to xpath at width.
func (g *Graph) ParentAt(xpath string, width int) (string, bool) {
	n, ok := g.nodes[xpath]
	if !ok {
		return "", false
	}
	for _, key := range n.in[ParentChild] {
		if g.edges[key].HoldsAt(width) {
			return key.From, true
		}
	}
	return "", false
}

// AncestorsAt lists the parent chain of xpath at width, nearest first.
func (g *Graph) AncestorsAt(xpath string, width int) []string {
	var out []string
	seen := map[string]bool{xpath: true}
	cur := xpath
	for {
		parent, ok := g.ParentAt(cur, width)
		if !ok || seen[parent] {
			return out
		}
		seen[parent] = true
		out = append(out, parent)
		cur = parent
	}
}

// TopAncestorAt returns the root of xpath's parent chain at width, or false
// when the node has no parent there.
func (g *Graph) TopAncestorAt(xpath string, width int) (string, bool) {
	anc := g.AncestorsAt(xpath, width)
	if len(anc) == 0 {
		return "", false
	}
	return anc[len(anc)-1], true
}

// ContainedRanges is the union of widths at which xpath had any parent.
func (g *Graph) ContainedRanges(xpath string) ranges.Ranges {
	var out ranges.Ranges
	n, ok := g.nodes[xpath]
	if !ok {
		return out
	}
	for _, key := range n.in[ParentChild] {
		out.Union(g.edges[key].Ranges)
	}
	return out
}

// Stats summarises the graph.
type Stats struct {
	Widths int
	Nodes  int
	Edges  map[EdgeKind]int
}

// Stats counts nodes and edges per kind.
func (g *Graph) Stats() Stats {
	s := Stats{Nodes: len(g.nodes), Edges: make(map[EdgeKind]int)}
	for _, r := range g.widths.List() {
		s.Widths += r.Len()
	}
	for k := range g.edges {
		s.Edges[k.Kind]++
	}
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("widths=%d nodes=%d parent=%d container=%d overlap=%d above=%d left=%d",
		s.Widths, s.Nodes, s.Edges[ParentChild], s.Edges[Container], s.Edges[Overlap], s.Edges[Above], s.Edges[LeftOf])
}
