// internal/dom/snapshot.go
package dom

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/tidwall/rtree"

	"github.com/xkilldash9x/rlfscan/internal/geometry"
)

// ErrNoBody is returned when a captured tree has no body element.
var ErrNoBody = errors.New("snapshot has no BODY element")

// Options controls which rendered elements enter the spatial index.
type Options struct {
	// ExcludedDisplay lists computed display values whose elements are never
	// indexed, e.g. "inline".
	ExcludedDisplay []string
}

// DefaultOptions excludes inline boxes, whose rectangles follow text runs.
func DefaultOptions() Options {
	return Options{ExcludedDisplay: []string{"inline"}}
}

// Node is one element of a snapshot taken at a single width.
type Node struct {
	XPath string
	Tag   string
	Rect  geometry.Rectangle
	Style Style

	// Visible is the element's own painted state.
	Visible bool
	// AddDescendants is false when this element or an ancestor hides its
	// whole subtree.
	AddDescendants bool
	// Indexed marks nodes that were inserted into the spatial index.
	Indexed bool

	Parent   *Node
	Children []*Node

	order int
}

// Snapshot is the per-width capture: the element tree plus a spatial index
// of every eligible rectangle. It is built once and then only read.
type Snapshot struct {
	Width int
	Root  *Node

	nodes   []*Node
	byPath  map[string]*Node
	indexed []*Node
	index   rtree.RTreeG[*Node]
}

// Build walks the element tree breadth first from the body and produces
// the snapshot for one viewport width.
func Build(width int, root *Element, opts Options) (*Snapshot, error) {
	body, err := findBody(root)
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]bool, len(opts.ExcludedDisplay))
	for _, d := range opts.ExcludedDisplay {
		excluded[strings.ToLower(strings.TrimSpace(d))] = true
	}

	s := &Snapshot{
		Width:  width,
		byPath: make(map[string]*Node),
	}

	type item struct {
		el    *Element
		node  *Node
		inSVG bool
	}

	rootNode := s.newNode(BodyXPath, "BODY", body, nil, true)
	// The body is a catch-all container at every width.
	rootNode.Rect = rootNode.Rect.WithUnboundedHeight()
	s.Root = rootNode

	queue := []item{{el: body, node: rootNode}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		s.maybeIndex(cur.node, excluded)

		parentIsSVG := isSVG(cur.el.Tag)
		childInSVG := cur.inSVG || parentIsSVG
		paths := childXPaths(cur.node.XPath, parentIsSVG, childInSVG, cur.el.Children)
		for i, childEl := range cur.el.Children {
			if childEl == nil {
				continue
			}
			tag := normalizeTag(childEl.Tag, childInSVG || isSVG(childEl.Tag))
			child := s.newNode(paths[i], tag, childEl, cur.node, cur.node.AddDescendants)
			queue = append(queue, item{el: childEl, node: child, inSVG: childInSVG})
		}
	}
	return s, nil
}

func findBody(root *Element) (*Element, error) {
	if root == nil {
		return nil, ErrNoBody
	}
	if strings.EqualFold(root.Tag, "BODY") {
		return root, nil
	}
	if strings.EqualFold(root.Tag, "HTML") {
		for _, c := range root.Children {
			if c != nil && strings.EqualFold(c.Tag, "BODY") {
				return c, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: root element is %q", ErrNoBody, root.Tag)
}

func (s *Snapshot) newNode(xpath, tag string, el *Element, parent *Node, allowed bool) *Node {
	n := &Node{
		XPath:  xpath,
		Tag:    tag,
		Rect:   geometry.NewRectangle(xpath, el.Rect),
		Style:  el.Style,
		Parent: parent,
		order:  len(s.nodes),
	}
	hidden := hidesSubtree(el.Style, el.Rect)
	n.Visible = !hidden && !hidesSelf(el.Style)
	n.AddDescendants = allowed && !hidden
	if parent != nil {
		parent.Children = append(parent.Children, n)
	}
	s.nodes = append(s.nodes, n)
	s.byPath[xpath] = n
	return n
}

func (s *Snapshot) maybeIndex(n *Node, excluded map[string]bool) {
	ancestorsAllow := n.Parent == nil || n.Parent.AddDescendants
	if !ancestorsAllow || !n.Visible {
		return
	}
	if !n.Rect.Visible || !n.Rect.ValidSize || !n.Rect.PositiveCoordinates {
		return
	}
	if excluded[strings.ToLower(strings.TrimSpace(n.Style.Display))] {
		return
	}
	n.Indexed = true
	s.indexed = append(s.indexed, n)
	min, max := bounds(n.Rect, 0)
	s.index.Insert(min, max, n)
}

// bounds converts a rectangle grown by tol into index coordinates. The
// tree works on finite values, so the unbounded body height is clamped.
func bounds(r geometry.Rectangle, tol float64) (min, max [2]float64) {
	min = [2]float64{finite(r.MinX - tol), finite(r.MinY - tol)}
	max = [2]float64{finite(r.MaxX + tol), finite(r.MaxY + tol)}
	return min, max
}

func finite(v float64) float64 {
	if math.IsInf(v, 1) || v > math.MaxFloat32 {
		return math.MaxFloat32
	}
	if math.IsInf(v, -1) || v < -math.MaxFloat32 {
		return -math.MaxFloat32
	}
	return v
}

// Query returns every indexed node whose rectangle touches r grown by tol,
// in breadth-first order.
func (s *Snapshot) Query(r geometry.Rectangle, tol float64) []*Node {
	min, max := bounds(r, tol)
	var out []*Node
	s.index.Search(min, max, func(_, _ [2]float64, n *Node) bool {
		out = append(out, n)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].order < out[j].order })
	return out
}

// Indexed returns the indexed nodes in breadth-first order.
func (s *Snapshot) Indexed() []*Node {
	out := make([]*Node, len(s.indexed))
	copy(out, s.indexed)
	return out
}

// Nodes returns every node of the tree in breadth-first order.
func (s *Snapshot) Nodes() []*Node {
	out := make([]*Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// Lookup finds a node by structural path.
func (s *Snapshot) Lookup(xpath string) (*Node, bool) {
	n, ok := s.byPath[xpath]
	return n, ok
}

// IndexSize is the number of rectangles in the spatial index.
func (s *Snapshot) IndexSize() int { return s.index.Len() }
