// internal/failures/smallrange.go
package failures

import (
	"sort"

	"github.com/xkilldash9x/rlfscan/internal/ranges"
	"github.com/xkilldash9x/rlfscan/internal/rlg"
)

// relation names a sibling relationship from the first path's side.
type relation string

const (
	relOverlap relation = "overlaps"
	relAbove   relation = "above"
	relBelow   relation = "below"
	relLeft    relation = "left-of"
	relRight   relation = "right-of"
)

var relationOrder = []relation{relOverlap, relAbove, relBelow, relLeft, relRight}

type pair struct{ a, b string }

// siblingRelations collects, per unordered sibling pair, the widths at which
// each relationship holds.
func siblingRelations(g *rlg.Graph) map[pair]map[relation]ranges.Ranges {
	out := make(map[pair]map[relation]ranges.Ranges)
	add := func(p pair, rel relation, rs ranges.Ranges) {
		m, ok := out[p]
		if !ok {
			m = make(map[relation]ranges.Ranges)
			out[p] = m
		}
		cur := m[rel]
		cur.Union(rs)
		m[rel] = cur
	}
	for _, e := range g.Edges(rlg.Overlap) {
		add(pair{e.Key.From, e.Key.To}, relOverlap, e.Ranges)
	}
	for _, kind := range []rlg.EdgeKind{rlg.Above, rlg.LeftOf} {
		forward, backward := relAbove, relBelow
		if kind == rlg.LeftOf {
			forward, backward = relLeft, relRight
		}
		for _, e := range g.Edges(kind) {
			if e.Key.From < e.Key.To {
				add(pair{e.Key.From, e.Key.To}, forward, e.Ranges)
			} else {
				add(pair{e.Key.To, e.Key.From}, backward, e.Ranges)
			}
		}
	}
	return out
}

// detectSmallRange flags short ranges of one relation in which the pair's
// other relations differ from both neighbouring widths by at least two.
// The reported sets list every relation, including the one that triggered.
func detectSmallRange(g *rlg.Graph, threshold int) []Failure {
	rels := siblingRelations(g)
	pairs := make([]pair, 0, len(rels))
	for p := range rels {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].a != pairs[j].a {
			return pairs[i].a < pairs[j].a
		}
		return pairs[i].b < pairs[j].b
	})

	var out []Failure
	seen := make(map[string]bool)
	for _, p := range pairs {
		m := rels[p]
		for _, rel := range relationOrder {
			for _, r := range m[rel].List() {
				if r.Len() > threshold {
					continue
				}
				narrower, ok := g.PrevWidth(r.Min)
				if !ok {
					continue
				}
				wider, ok := g.NextWider(r.Max)
				if !ok {
					continue
				}
				inRange := func(rs ranges.Ranges) bool { return rs.Intersects(r) }
				atNarrower := func(rs ranges.Ranges) bool { return rs.Contains(narrower) }
				atWider := func(rs ranges.Ranges) bool { return rs.Contains(wider) }
				// rel itself always changes at both ends of a maximal range,
				// so only the other relations are compared.
				if symmetricDifference(holding(m, rel, inRange), holding(m, rel, atNarrower)) < 2 ||
					symmetricDifference(holding(m, rel, inRange), holding(m, rel, atWider)) < 2 {
					continue
				}
				key := p.a + "|" + p.b + "|" + r.String()
				if seen[key] {
					continue
				}
				seen[key] = true
				f := newFailure(SmallRange, r, p.a, p.b)
				f.SmallRange = &SmallRangeDetail{
					Relations: names(holding(m, "", inRange)),
					Narrower:  names(holding(m, "", atNarrower)),
					Wider:     names(holding(m, "", atWider)),
				}
				out = append(out, f)
			}
		}
	}
	return out
}

// holding returns the relations other than skip whose ranges satisfy pred.
func holding(m map[relation]ranges.Ranges, skip relation, pred func(ranges.Ranges) bool) map[relation]bool {
	out := make(map[relation]bool)
	for rel, rs := range m {
		if rel != skip && pred(rs) {
			out[rel] = true
		}
	}
	return out
}

func symmetricDifference(a, b map[relation]bool) int {
	n := 0
	for rel := range a {
		if !b[rel] {
			n++
		}
	}
	for rel := range b {
		if !a[rel] {
			n++
		}
	}
	return n
}

func names(set map[relation]bool) []string {
	out := make([]string, 0, len(set))
	for _, rel := range relationOrder {
		if set[rel] {
			out = append(out, string(rel))
		}
	}
	return out
}
