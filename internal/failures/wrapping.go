// internal/failures/wrapping.go
package failures

import (
	"sort"

	"github.com/xkilldash9x/rlfscan/internal/ranges"
	"github.com/xkilldash9x/rlfscan/internal/rlg"
)

// detectWrapping flags elements that sit below a sibling over a range while
// at the next wider width they are part of that sibling's row.
func detectWrapping(g *rlg.Graph, threshold int) []Failure {
	var out []Failure
	seen := make(map[string]bool)
	for _, e := range g.Edges(rlg.Above) {
		x, el := e.Key.From, e.Key.To
		for _, r := range e.Ranges.List() {
			f, ok := wrappingAt(g, x, el, r, threshold)
			if !ok {
				continue
			}
			key := el + "|" + f.Range.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, f)
		}
	}
	return out
}

func wrappingAt(g *rlg.Graph, x, el string, r ranges.Range, threshold int) (Failure, bool) {
	wider, ok := g.NextWider(r.Max)
	if !ok {
		return Failure{}, false
	}
	full := rowAt(g, x, wider)
	if !full[el] || len(full) < threshold {
		return Failure{}, false
	}
	rest := make(map[string]bool, len(full)-1)
	for p := range full {
		if p != el {
			rest[p] = true
		}
	}
	if !sameSet(rowAt(g, x, r.Min), rest) || !sameSet(rowAt(g, x, r.Max), rest) {
		return Failure{}, false
	}
	if stillLinked(g, el, rest, wider, r.Max) {
		return Failure{}, false
	}

	start, intact := r.Max, false
	for w := r.Max; w >= r.Min; {
		if !rowIntact(g, rest, w) {
			break
		}
		start, intact = w, true
		prev, ok := g.PrevWidth(w)
		if !ok {
			break
		}
		w = prev
	}
	if !intact {
		return Failure{}, false
	}

	f := newFailure(Wrapping, ranges.New(start, r.Max), el, x)
	f.Wrapping = &WrappingDetail{Row: sortedSet(rest)}
	return f, true
}

// rowAt is the transitive left/right closure of anchor at width w, leaving
// out elements stacked above or below the anchor.
func rowAt(g *rlg.Graph, anchor string, w int) map[string]bool {
	stacked := make(map[string]bool)
	if n, ok := g.Node(anchor); ok {
		for _, key := range n.All(rlg.Above) {
			if holds(g, key, w) {
				stacked[key.Other(anchor)] = true
			}
		}
	}

	row := map[string]bool{anchor: true}
	queue := []string{anchor}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		n, ok := g.Node(cur)
		if !ok {
			continue
		}
		for _, key := range n.All(rlg.LeftOf) {
			other := key.Other(cur)
			if row[other] || stacked[other] || !holds(g, key, w) {
				continue
			}
			row[other] = true
			queue = append(queue, other)
		}
	}
	return row
}

// stillLinked reports whether any left/right edge joining el to the row at
// the wider width also holds at w.
func stillLinked(g *rlg.Graph, el string, rest map[string]bool, wider, w int) bool {
	n, ok := g.Node(el)
	if !ok {
		return false
	}
	for _, key := range n.All(rlg.LeftOf) {
		if rest[key.Other(el)] && holds(g, key, wider) && holds(g, key, w) {
			return true
		}
	}
	return false
}

// rowIntact reports whether every member is observed at w with a left/right
// edge to another member. A lone member only needs to be observed.
func rowIntact(g *rlg.Graph, members map[string]bool, w int) bool {
	for p := range members {
		n, ok := g.Node(p)
		if !ok || !n.ObservedAt(w) {
			return false
		}
		if len(members) == 1 {
			continue
		}
		linked := false
		for _, key := range n.All(rlg.LeftOf) {
			if members[key.Other(p)] && holds(g, key, w) {
				linked = true
				break
			}
		}
		if !linked {
			return false
		}
	}
	return true
}

func holds(g *rlg.Graph, key rlg.EdgeKey, w int) bool {
	e, ok := g.Edge(key)
	return ok && e.HoldsAt(w)
}

func sameSet(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for p := range a {
		if !b[p] {
			return false
		}
	}
	return true
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
