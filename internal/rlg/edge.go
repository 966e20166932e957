// internal/rlg/edge.go
package rlg

import (
	"fmt"

	"github.com/xkilldash9x/rlfscan/internal/ranges"
)

// EdgeKind identifies the relationship an edge records.
type EdgeKind int

const (
	// ParentChild links the resolved parent (From) to a child (To).
	ParentChild EdgeKind = iota
	// Container links any rectangle (From) geometrically containing another (To).
	Container
	// Overlap links two siblings whose rectangles intersect. Unordered.
	Overlap
	// Above records that From sits above its sibling To.
	Above
	// LeftOf records that From sits left of its sibling To.
	LeftOf
)

// EdgeKinds lists every kind in dump order.
var EdgeKinds = []EdgeKind{ParentChild, Container, Overlap, Above, LeftOf}

var edgeKindNames = map[EdgeKind]string{
	ParentChild: "parent-of",
	Container:   "contains",
	Overlap:     "overlaps",
	Above:       "above",
	LeftOf:      "left-of",
}

func (k EdgeKind) String() string {
	if name, ok := edgeKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EdgeKind(%d)", int(k))
}

// ParseEdgeKind is the inverse of EdgeKind.String.
func ParseEdgeKind(s string) (EdgeKind, error) {
	for k, name := range edgeKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown edge kind %q", s)
}

// Symmetric kinds are keyed on the unordered pair of paths.
func (k EdgeKind) Symmetric() bool { return k == Overlap }

// EdgeKey identifies an edge. For symmetric kinds From is always the
// lexicographically smaller path.
type EdgeKey struct {
	Kind EdgeKind
	From string
	To   string
}

// NewEdgeKey normalises the pair order for symmetric kinds.
func NewEdgeKey(kind EdgeKind, from, to string) EdgeKey {
	if kind.Symmetric() && to < from {
		from, to = to, from
	}
	return EdgeKey{Kind: kind, From: from, To: to}
}

// Other returns the endpoint that is not path.
func (k EdgeKey) Other(path string) string {
	if k.From == path {
		return k.To
	}
	return k.From
}

func (k EdgeKey) String() string {
	return fmt.Sprintf("%s %s %s", k.From, k.Kind, k.To)
}

// Edge is a relationship between two graph nodes together with every width
// at which it was observed.
type Edge struct {
	Key    EdgeKey
	Ranges ranges.Ranges
}

func (e *Edge) addViewport(width int) {
	e.Ranges.AddValue(width)
}

// HoldsAt reports whether the relationship was observed at width.
func (e *Edge) HoldsAt(width int) bool {
	return e != nil && e.Ranges.Contains(width)
}
