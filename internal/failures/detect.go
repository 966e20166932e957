// internal/failures/detect.go
package failures

import (
	"sort"

	"github.com/xkilldash9x/rlfscan/internal/dom"
	"github.com/xkilldash9x/rlfscan/internal/ranges"
	"github.com/xkilldash9x/rlfscan/internal/rlg"
)

// Options tunes the detectors.
type Options struct {
	// RowThreshold is the minimum number of elements a row needs before an
	// element dropping out of it counts as wrapping.
	RowThreshold int `mapstructure:"row_threshold" yaml:"row_threshold" json:"rowThreshold"`
	// SmallRangeThreshold is the longest range, in widths, treated as small.
	SmallRangeThreshold int `mapstructure:"smallrange_threshold" yaml:"smallrange_threshold" json:"smallrangeThreshold"`
}

// DefaultOptions returns the thresholds used when none are configured.
func DefaultOptions() Options {
	return Options{RowThreshold: 3, SmallRangeThreshold: 5}
}

// Detect runs every detector over a fully fused graph. The result is sorted
// by kind, range and paths, and IDs are taken from alloc in that order.
func Detect(g *rlg.Graph, opts Options, alloc *IDAllocator) []Failure {
	if alloc == nil {
		alloc = NewIDAllocator()
	}
	var out []Failure
	out = append(out, detectViewport(g)...)
	out = append(out, detectOverlapBased(g)...)
	out = append(out, detectSmallRange(g, opts.SmallRangeThreshold)...)
	out = append(out, detectWrapping(g, opts.RowThreshold)...)

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	for i := range out {
		out[i].ID = alloc.Next()
	}
	return out
}

func less(a, b Failure) bool {
	switch {
	case a.Kind != b.Kind:
		return a.Kind < b.Kind
	case a.Range.Min != b.Range.Min:
		return a.Range.Min < b.Range.Min
	case a.Range.Max != b.Range.Max:
		return a.Range.Max < b.Range.Max
	case a.XPath1 != b.XPath1:
		return a.XPath1 < b.XPath1
	}
	return a.XPath2 < b.XPath2
}

// detectViewport flags elements that lose every container over a range
// although the next wider width roots them at the body.
func detectViewport(g *rlg.Graph) []Failure {
	var out []Failure
	for _, n := range g.Nodes() {
		contained := g.ContainedRanges(n.XPath)
		for _, r := range n.Ranges.Difference(contained).List() {
			wider, ok := g.NextWider(r.Max)
			if !ok || !contained.Contains(wider) {
				continue
			}
			if top, ok := g.TopAncestorAt(n.XPath, wider); !ok || top != dom.BodyXPath {
				continue
			}
			out = append(out, newFailure(Viewport, r, n.XPath, dom.BodyXPath))
		}
	}
	return out
}

// detectOverlapBased walks every overlap range. A side whose parent changes
// at the next wider width to a chain holding the other side protrudes from
// it; when neither side changes parent the pair collides.
func detectOverlapBased(g *rlg.Graph) []Failure {
	overlaps := g.Edges(rlg.Overlap)

	var protrusions []Failure
	seen := make(map[string]bool)
	for _, e := range overlaps {
		for _, r := range e.Ranges.List() {
			wider, ok := g.NextWider(r.Max)
			if !ok {
				continue
			}
			for _, side := range [][2]string{{e.Key.From, e.Key.To}, {e.Key.To, e.Key.From}} {
				f, ok := protrusionAt(g, side[0], side[1], r, wider)
				if !ok {
					continue
				}
				key := f.XPath1 + "|" + f.XPath2 + "|" + r.String()
				if seen[key] {
					continue
				}
				seen[key] = true
				protrusions = append(protrusions, f)
			}
		}
	}

	var collisions []Failure
	for _, e := range overlaps {
		a, b := e.Key.From, e.Key.To
		for _, r := range e.Ranges.List() {
			wider, ok := g.NextWider(r.Max)
			if !ok {
				// The overlap runs to the widest capture; nothing wider can
				// show a parent change.
				wider = r.Max
			}
			if !sameParent(g, a, r.Max, wider) || !sameParent(g, b, r.Max, wider) {
				continue
			}
			if protrudedOver(protrusions, a, b, r) {
				continue
			}
			collisions = append(collisions, newFailure(Collision, r, a, b))
		}
	}
	return append(protrusions, collisions...)
}

func protrusionAt(g *rlg.Graph, self, other string, r ranges.Range, wider int) (Failure, bool) {
	if sameParent(g, self, r.Max, wider) {
		return Failure{}, false
	}
	if !containsPath(g.AncestorsAt(self, wider), other) {
		return Failure{}, false
	}
	// The wider parent may still geometrically contain the element within
	// tolerance, in which case only the tree assignment moved.
	if after, ok := g.ParentAt(self, wider); ok && g.Relation(rlg.Container, after, self).HoldsAt(r.Max) {
		return Failure{}, false
	}
	return newFailure(Protrusion, r, self, other), true
}

func sameParent(g *rlg.Graph, xpath string, w1, w2 int) bool {
	p1, ok1 := g.ParentAt(xpath, w1)
	p2, ok2 := g.ParentAt(xpath, w2)
	return ok1 && ok2 && p1 == p2
}

// protrudedOver reports whether a protrusion of either participant has a
// range covering r.
func protrudedOver(protrusions []Failure, a, b string, r ranges.Range) bool {
	for _, p := range protrusions {
		if (p.XPath1 == a || p.XPath1 == b) && p.Range.Covers(r) {
			return true
		}
	}
	return false
}

func containsPath(paths []string, p string) bool {
	for _, x := range paths {
		if x == p {
			return true
		}
	}
	return false
}
