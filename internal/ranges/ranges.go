// File: internal/ranges/ranges.go
package ranges

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Range is a closed interval of viewport widths. It is a value type; every
// operation returns a new Range.
type Range struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// New builds a Range. min > max is a programming error and panics.
func New(min, max int) Range {
	if min > max {
		panic(fmt.Sprintf("ranges: invalid range %d-%d", min, max))
	}
	return Range{Min: min, Max: max}
}

// Single is the one-width range [v, v].
func Single(v int) Range { return Range{Min: v, Max: v} }

// Contains reports whether v lies inside the range.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Covers reports whether o lies entirely inside r.
func (r Range) Covers(o Range) bool {
	return o.Min >= r.Min && o.Max <= r.Max
}

// Overlaps is true if either endpoint of either range lies within the other.
func (r Range) Overlaps(o Range) bool {
	return r.Contains(o.Min) || r.Contains(o.Max) || o.Contains(r.Min) || o.Contains(r.Max)
}

// Mergeable is true for overlapping ranges and for ranges whose endpoints
// touch exactly (a.Max+1 == b.Min).
func (r Range) Mergeable(o Range) bool {
	return r.Overlaps(o) || r.Max+1 == o.Min || o.Max+1 == r.Min
}

// Merge returns the span of both ranges. ok is false when they are not
// mergeable and the returned Range must not be used.
func (r Range) Merge(o Range) (merged Range, ok bool) {
	if !r.Mergeable(o) {
		return Range{}, false
	}
	return Range{Min: minInt(r.Min, o.Min), Max: maxInt(r.Max, o.Max)}, true
}

// Len is the number of widths in the range.
func (r Range) Len() int { return r.Max - r.Min + 1 }

// Mid is the middle width, rounded down.
func (r Range) Mid() int { return r.Min + (r.Max-r.Min)/2 }

func (r Range) String() string {
	return strconv.Itoa(r.Min) + "-" + strconv.Itoa(r.Max)
}

// ParseRange reads the "min-max" form produced by String. A bare number is
// accepted as a single-width range.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	// Skip a leading sign so negative minimums split correctly.
	idx := strings.Index(s[minInt(1, len(s)):], "-")
	if idx < 0 {
		v, err := strconv.Atoi(s)
		if err != nil {
			return Range{}, fmt.Errorf("invalid range %q: %w", s, err)
		}
		return Single(v), nil
	}
	idx += minInt(1, len(s))
	lo, err := strconv.Atoi(s[:idx])
	if err != nil {
		return Range{}, fmt.Errorf("invalid range minimum in %q: %w", s, err)
	}
	hi, err := strconv.Atoi(s[idx+1:])
	if err != nil {
		return Range{}, fmt.Errorf("invalid range maximum in %q: %w", s, err)
	}
	if lo > hi {
		return Range{}, fmt.Errorf("invalid range %q: min greater than max", s)
	}
	return Range{Min: lo, Max: hi}, nil
}

// Ranges is a sorted set of disjoint, non-adjacent ranges. The zero value is
// an empty set ready to use.
type Ranges struct {
	list []Range
}

// Of builds a Ranges from the given ranges, merging as it goes.
func Of(rs ...Range) Ranges {
	var out Ranges
	for _, r := range rs {
		out.AddRange(r)
	}
	return out
}

// AddRange inserts r, coalescing it with every element it can be merged with.
// This is the only mutation primitive.
func (rs *Ranges) AddRange(r Range) {
	acc := r
	kept := make([]Range, 0, len(rs.list)+1)
	for _, existing := range rs.list {
		if merged, ok := acc.Merge(existing); ok {
			acc = merged
			continue
		}
		kept = append(kept, existing)
	}
	kept = append(kept, acc)
	sort.Slice(kept, func(i, j int) bool { return kept[i].Min < kept[j].Min })
	rs.list = kept
}

// AddValue inserts a single width.
func (rs *Ranges) AddValue(v int) { rs.AddRange(Single(v)) }

// Union adds every range of o.
func (rs *Ranges) Union(o Ranges) {
	for _, r := range o.list {
		rs.AddRange(r)
	}
}

// Contains reports whether v is covered by any range.
func (rs Ranges) Contains(v int) bool {
	i := sort.Search(len(rs.list), func(i int) bool { return rs.list[i].Max >= v })
	return i < len(rs.list) && rs.list[i].Min <= v
}

// Intersects reports whether any range overlaps r.
func (rs Ranges) Intersects(r Range) bool {
	for _, e := range rs.list {
		if e.Overlaps(r) {
			return true
		}
	}
	return false
}

// Covering returns the element that fully contains r, if any.
func (rs Ranges) Covering(r Range) (Range, bool) {
	for _, e := range rs.list {
		if e.Covers(r) {
			return e, true
		}
	}
	return Range{}, false
}

// Difference returns every width of rs that is not in exclude. It walks the
// covered widths one by one; viewport ranges are a few thousand integers at most.
func (rs Ranges) Difference(exclude Ranges) Ranges {
	var out Ranges
	for _, r := range rs.list {
		for v := r.Min; v <= r.Max; v++ {
			if !exclude.Contains(v) {
				out.AddValue(v)
			}
		}
	}
	return out
}

// List returns a copy of the ranges in ascending order.
func (rs Ranges) List() []Range {
	out := make([]Range, len(rs.list))
	copy(out, rs.list)
	return out
}

// SortedDescending returns a copy ordered by Max, widest widths first.
func (rs Ranges) SortedDescending() []Range {
	out := rs.List()
	sort.Slice(out, func(i, j int) bool { return out[i].Max > out[j].Max })
	return out
}

// Values enumerates every covered width in ascending order.
func (rs Ranges) Values() []int {
	var out []int
	for _, r := range rs.list {
		for v := r.Min; v <= r.Max; v++ {
			out = append(out, v)
		}
	}
	return out
}

func (rs Ranges) Len() int      { return len(rs.list) }
func (rs Ranges) IsEmpty() bool { return len(rs.list) == 0 }

// Min is the smallest covered width. It panics on an empty set.
func (rs Ranges) Min() int { return rs.list[0].Min }

// Max is the largest covered width. It panics on an empty set.
func (rs Ranges) Max() int { return rs.list[len(rs.list)-1].Max }

// Equal reports whether both sets cover exactly the same widths.
func (rs Ranges) Equal(o Ranges) bool {
	if len(rs.list) != len(o.list) {
		return false
	}
	for i := range rs.list {
		if rs.list[i] != o.list[i] {
			return false
		}
	}
	return true
}

// String renders the set as "350-500 700-900".
func (rs Ranges) String() string {
	parts := make([]string, len(rs.list))
	for i, r := range rs.list {
		parts[i] = r.String()
	}
	return strings.Join(parts, " ")
}

// ParseRanges is the inverse of Ranges.String.
func ParseRanges(s string) (Ranges, error) {
	var out Ranges
	for _, field := range strings.Fields(s) {
		r, err := ParseRange(field)
		if err != nil {
			return Ranges{}, err
		}
		out.AddRange(r)
	}
	return out, nil
}

func (rs Ranges) MarshalText() ([]byte, error) { return []byte(rs.String()), nil }

func (rs *Ranges) UnmarshalText(b []byte) error {
	parsed, err := ParseRanges(string(b))
	if err != nil {
		return err
	}
	*rs = parsed
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
