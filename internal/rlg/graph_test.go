// internal/rlg/graph_test.go
package rlg_test

import (
	"bytes"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/rlfscan/internal/dom"
	"github.com/xkilldash9x/rlfscan/internal/layouttest"
	"github.com/xkilldash9x/rlfscan/internal/ranges"
	"github.com/xkilldash9x/rlfscan/internal/rlg"
)

func tolerances() rlg.Tolerances {
	return rlg.Tolerances{Collision: 1, Protrusion: 1, EquivalentParent: 2, SmallRange: 3}
}

func fuse(t *testing.T, pages map[int]*dom.Element) *rlg.Graph {
	t.Helper()
	g := rlg.New(tolerances(), zaptest.NewLogger(t))
	widths := make([]int, 0, len(pages))
	for w := range pages {
		widths = append(widths, w)
	}
	sort.Ints(widths)
	for _, w := range widths {
		snap, err := dom.Build(w, pages[w], dom.DefaultOptions())
		require.NoError(t, err)
		require.NoError(t, g.Fuse(snap))
	}
	return g
}

func rs(t *testing.T, s string) ranges.Ranges {
	t.Helper()
	out, err := ranges.ParseRanges(s)
	require.NoError(t, err)
	return out
}

func TestFuse_ParentsAndSiblings(t *testing.T) {
	g := fuse(t, layouttest.Stable(400, 401, 402))
	const p = "/HTML/BODY/DIV/P"

	for _, path := range []string{layouttest.Body, layouttest.Div, layouttest.Div2, p} {
		n, ok := g.Node(path)
		require.True(t, ok, path)
		assert.Equal(t, "400-402", n.Ranges.String(), path)
	}

	parent, ok := g.ParentAt(p, 401)
	require.True(t, ok)
	assert.Equal(t, layouttest.Div, parent)
	assert.Equal(t, []string{layouttest.Div, layouttest.Body}, g.AncestorsAt(p, 401))

	top, ok := g.TopAncestorAt(layouttest.Div2, 400)
	require.True(t, ok)
	assert.Equal(t, layouttest.Body, top)

	_, ok = g.ParentAt(layouttest.Body, 400)
	assert.False(t, ok, "the body is always a root")

	left := g.Relation(rlg.LeftOf, layouttest.Div, layouttest.Div2)
	require.NotNil(t, left)
	assert.Equal(t, "400-402", left.Ranges.String())
	assert.Nil(t, g.Relation(rlg.LeftOf, layouttest.Div2, layouttest.Div))
	assert.Empty(t, g.Edges(rlg.Overlap))
	assert.Empty(t, g.Edges(rlg.Above))

	// Containment is recorded independently of the parent tree.
	assert.True(t, g.Relation(rlg.Container, layouttest.Body, p).HoldsAt(400))
	assert.True(t, g.Relation(rlg.Container, layouttest.Div, p).HoldsAt(400))
	assert.Nil(t, g.Relation(rlg.ParentChild, layouttest.Body, p))

	stats := g.Stats()
	assert.Equal(t, 3, stats.Widths)
	assert.Equal(t, 4, stats.Nodes)
	assert.Equal(t, 3, stats.Edges[rlg.ParentChild])
	assert.Equal(t, 4, stats.Edges[rlg.Container])
}

func TestFuse_EquivalentParentPrefersDeepestAncestor(t *testing.T) {
	page := layouttest.Page(800, 600,
		layouttest.El("DIV", 10, 10, 300, 300,
			layouttest.El("SECTION", 10, 10, 300, 300,
				layouttest.El("P", 20, 20, 50, 50))))
	g := fuse(t, map[int]*dom.Element{800: page})

	parent, ok := g.ParentAt("/HTML/BODY/DIV/SECTION/P", 800)
	require.True(t, ok)
	assert.Equal(t, "/HTML/BODY/DIV/SECTION", parent)

	// Mutual containment goes to the structural ancestor.
	parent, ok = g.ParentAt("/HTML/BODY/DIV/SECTION", 800)
	require.True(t, ok)
	assert.Equal(t, layouttest.Div, parent)
	assert.Nil(t, g.Relation(rlg.Container, "/HTML/BODY/DIV/SECTION", layouttest.Div))
}

func TestFuse_ParentFallsBackToRelative(t *testing.T) {
	// The P belongs to the first DIV but is drawn inside the second.
	page := layouttest.Page(800, 600,
		layouttest.El("DIV", 0, 0, 100, 100,
			layouttest.El("P", 310, 10, 50, 50)),
		layouttest.El("DIV", 300, 0, 200, 200))
	g := fuse(t, map[int]*dom.Element{800: page})

	parent, ok := g.ParentAt("/HTML/BODY/DIV/P", 800)
	require.True(t, ok)
	assert.Equal(t, layouttest.Div2, parent)
}

func TestFuse_RejectsCyclicParent(t *testing.T) {
	g := fuse(t, layouttest.ContainmentCycle())

	parent, ok := g.ParentAt(layouttest.Div, 400)
	require.True(t, ok)
	assert.Equal(t, layouttest.Div3, parent)
	parent, ok = g.ParentAt(layouttest.Div2, 400)
	require.True(t, ok)
	assert.Equal(t, layouttest.Div, parent)

	// Div2 is Div3's only candidate but already sits below it.
	require.True(t, g.Relation(rlg.Container, layouttest.Div2, layouttest.Div3).HoldsAt(400))
	_, ok = g.ParentAt(layouttest.Div3, 400)
	assert.False(t, ok)
	assert.Nil(t, g.Relation(rlg.ParentChild, layouttest.Div2, layouttest.Div3))
	assert.True(t, g.ContainedRanges(layouttest.Div3).IsEmpty())
	assert.Equal(t, []string{layouttest.Div, layouttest.Div3}, g.AncestorsAt(layouttest.Div2, 400))
}

func TestFuse_RejectsDuplicateWidth(t *testing.T) {
	pages := layouttest.Stable(400)
	g := fuse(t, pages)
	snap, err := dom.Build(400, pages[400], dom.DefaultOptions())
	require.NoError(t, err)

	err = g.Fuse(snap)
	require.ErrorIs(t, err, rlg.ErrWidthAlreadyFused)
	require.Error(t, g.Fuse(nil))
}

func TestGraph_WidthStepping(t *testing.T) {
	g := fuse(t, layouttest.Stable(400, 401, 800))

	tests := []struct {
		name string
		fn   func(int) (int, bool)
		in   int
		want int
		ok   bool
	}{
		{"wider inside a run", g.NextWider, 400, 401, true},
		{"wider across a gap", g.NextWider, 401, 800, true},
		{"wider from an unfused width", g.NextWider, 500, 800, true},
		{"nothing wider", g.NextWider, 800, 0, false},
		{"narrower across a gap", g.PrevWidth, 800, 401, true},
		{"narrower inside a run", g.PrevWidth, 401, 400, true},
		{"nothing narrower", g.PrevWidth, 400, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.fn(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFuse_ProtrudingChildChangesParent(t *testing.T) {
	g := fuse(t, layouttest.Protrusion())

	parent, ok := g.ParentAt(layouttest.Nested, 400)
	require.True(t, ok)
	assert.Equal(t, layouttest.Body, parent)
	parent, ok = g.ParentAt(layouttest.Nested, 800)
	require.True(t, ok)
	assert.Equal(t, layouttest.Div, parent)

	overlap, ok := g.Edge(rlg.EdgeKey{Kind: rlg.Overlap, From: layouttest.Nested, To: layouttest.Div})
	require.True(t, ok, "overlap keys are unordered")
	assert.Equal(t, "400-400", overlap.Ranges.String())
	assert.Equal(t, "800-800", g.ContainedRanges(layouttest.Nested).Difference(rs(t, "400")).String())
}

func TestWriteTree_Format(t *testing.T) {
	page := layouttest.Page(800, 600,
		layouttest.El("DIV", 10, 10, 300, 300),
		layouttest.El("DIV", 400, 10, 300, 300))
	g := fuse(t, map[int]*dom.Element{400: page})

	var buf bytes.Buffer
	require.NoError(t, g.WriteTree(&buf))

	want := strings.Join([]string{
		"/HTML/BODY {400-400}",
		"  parent-of /HTML/BODY/DIV {400-400}",
		"  parent-of /HTML/BODY/DIV[2] {400-400}",
		"  contains /HTML/BODY/DIV {400-400}",
		"  contains /HTML/BODY/DIV[2] {400-400}",
		"  /HTML/BODY/DIV {400-400}",
		"    left-of /HTML/BODY/DIV[2] {400-400}",
		"  /HTML/BODY/DIV[2] {400-400}",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestTree_RoundTrip(t *testing.T) {
	scenarios := map[string]map[int]*dom.Element{
		"stable":     layouttest.Stable(400, 401, 402, 900),
		"protrusion": layouttest.Protrusion(),
		"collision":  layouttest.Collision(),
		"viewport":   layouttest.Viewport(),
		"wrapping":   layouttest.Wrapping(),
		"smallrange": layouttest.SmallRange(),
	}
	for name, pages := range scenarios {
		t.Run(name, func(t *testing.T) {
			g := fuse(t, pages)
			var buf bytes.Buffer
			require.NoError(t, g.WriteTree(&buf))

			parsed, err := rlg.ReadTree(&buf)
			require.NoError(t, err)
			if diff := cmp.Diff(g.Dump(), parsed); diff != "" {
				t.Errorf("tree round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadTree_Errors(t *testing.T) {
	tests := map[string]string{
		"missing ranges": "/HTML/BODY\n",
		"unknown kind":   "/HTML/BODY {1-2}\n  beside /HTML/BODY/DIV {1-2}\n",
		"orphan edge":    "parent-of /HTML/BODY/DIV {1-2}\n",
		"bad range":      "/HTML/BODY {2-1}\n",
		"malformed edge": "/HTML/BODY {1-2}\n  parent-of {1-2}\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := rlg.ReadTree(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestEdgeKind_Parse(t *testing.T) {
	for _, k := range rlg.EdgeKinds {
		got, err := rlg.ParseEdgeKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := rlg.ParseEdgeKind("beside")
	assert.Error(t, err)
	assert.True(t, rlg.Overlap.Symmetric())
	assert.False(t, rlg.Above.Symmetric())
}
