// internal/rlg/fuse_internal_test.go
package rlg

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/rlfscan/internal/dom"
	"github.com/xkilldash9x/rlfscan/internal/geometry"
	"github.com/xkilldash9x/rlfscan/internal/layouttest"
)

func TestInSubtree(t *testing.T) {
	a, b, c := &dom.Node{XPath: "a"}, &dom.Node{XPath: "b"}, &dom.Node{XPath: "c"}
	parents := map[*dom.Node]*dom.Node{b: a, c: b}

	assert.True(t, inSubtree(parents, c, a), "a is above c")
	assert.False(t, inSubtree(parents, a, c))

	// A loop in the assignments terminates.
	parents[a] = c
	assert.False(t, inSubtree(parents, a, &dom.Node{XPath: "d"}))
}

func TestResolveParent_Preference(t *testing.T) {
	g := New(Tolerances{}, nil)
	n := &dom.Node{XPath: "/HTML/BODY/DIV[2]/P"}
	ancestor := &dom.Node{XPath: "/HTML/BODY/DIV[2]"}
	body := &dom.Node{XPath: "/HTML/BODY"}
	cousin := &dom.Node{XPath: "/HTML/BODY/DIV[2]/SPAN"}
	far := &dom.Node{XPath: "/HTML/BODY/DIV[3]"}
	child := &dom.Node{XPath: "/HTML/BODY/DIV[2]/P/B"}
	grandchild := &dom.Node{XPath: "/HTML/BODY/DIV[2]/P/B/I"}

	assert.Equal(t, ancestor, g.resolveParent(n, []*dom.Node{body, cousin, ancestor, child}))
	assert.Equal(t, cousin, g.resolveParent(n, []*dom.Node{far, child, cousin}))
	assert.Equal(t, child, g.resolveParent(n, []*dom.Node{grandchild, child}))
	assert.Nil(t, g.resolveParent(n, nil))
}

// blindLayout drops one path from every spatial query.
type blindLayout struct {
	*dom.Snapshot
	miss string
}

func (b blindLayout) Query(r geometry.Rectangle, tol float64) []*dom.Node {
	var out []*dom.Node
	for _, n := range b.Snapshot.Query(r, tol) {
		if n.XPath != b.miss {
			out = append(out, n)
		}
	}
	return out
}

func TestFuse_IndexInconsistentLeavesGraphUnchanged(t *testing.T) {
	g := New(Tolerances{Collision: 1, Protrusion: 1, EquivalentParent: 2, SmallRange: 3}, zaptest.NewLogger(t))
	first, err := dom.Build(400, layouttest.Page(400, 800,
		layouttest.El("DIV", 0, 0, 100, 100),
		layouttest.El("DIV", 150, 0, 100, 100)), dom.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, g.Fuse(first))
	before := g.Dump()

	// The missing rectangle is the last one in breadth-first order, so every
	// other node has been looked at when the fuse fails.
	second, err := dom.Build(401, layouttest.Page(401, 800,
		layouttest.El("DIV", 0, 0, 100, 100),
		layouttest.El("DIV", 150, 0, 100, 100),
		layouttest.El("DIV", 300, 0, 100, 100)), dom.DefaultOptions())
	require.NoError(t, err)

	err = g.fuse(401, blindLayout{Snapshot: second, miss: layouttest.Div3})
	require.ErrorIs(t, err, ErrIndexInconsistent)
	assert.Contains(t, err.Error(), layouttest.Div3)

	if diff := cmp.Diff(before, g.Dump()); diff != "" {
		t.Errorf("graph changed by a failed fuse (-before +after):\n%s", diff)
	}
	assert.False(t, g.Widths().Contains(401))
	_, ok := g.Node(layouttest.Div3)
	assert.False(t, ok)

	// The same width can still be fused from a consistent snapshot.
	require.NoError(t, g.Fuse(second))
	n, ok := g.Node(layouttest.Div)
	require.True(t, ok)
	assert.Equal(t, "400-401", n.Ranges.String())
}
