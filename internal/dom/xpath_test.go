package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/rlfscan/internal/geometry"
)

func box(x, y, w, h float64) *geometry.Box {
	return &geometry.Box{X: x, Y: y, Width: w, Height: h}
}

func TestBuild_StructuralPaths(t *testing.T) {
	root := &Element{
		Tag:  "BODY",
		Rect: box(0, 0, 800, 600),
		Children: []*Element{
			{Tag: "DIV", Rect: box(0, 0, 800, 100)},
			{Tag: "DIV", Rect: box(0, 100, 800, 100)},
			{Tag: "SPAN", Rect: box(0, 200, 100, 20)},
			{Tag: "div", Rect: box(0, 300, 800, 100), Children: []*Element{
				{Tag: "P", Rect: box(0, 300, 800, 20)},
				{Tag: "P", Rect: box(0, 320, 800, 20)},
			}},
		},
	}

	snap, err := Build(800, root, DefaultOptions())
	require.NoError(t, err)

	var paths []string
	for _, n := range snap.Nodes() {
		paths = append(paths, n.XPath)
	}
	assert.Equal(t, []string{
		"/HTML/BODY",
		"/HTML/BODY/DIV",
		"/HTML/BODY/DIV[2]",
		"/HTML/BODY/SPAN",
		"/HTML/BODY/DIV[3]",
		"/HTML/BODY/DIV[3]/P",
		"/HTML/BODY/DIV[3]/P[2]",
	}, paths)
}

func TestBuild_SVGPaths(t *testing.T) {
	root := &Element{
		Tag:  "HTML",
		Rect: box(0, 0, 800, 600),
		Children: []*Element{{
			Tag:  "BODY",
			Rect: box(0, 0, 800, 600),
			Children: []*Element{
				{Tag: "svg", Rect: box(0, 0, 50, 50), Children: []*Element{
					{Tag: "path", Rect: box(0, 0, 10, 10)},
					{Tag: "path", Rect: box(10, 0, 10, 10)},
				}},
				{Tag: "svg", Rect: box(50, 0, 50, 50)},
			},
		}},
	}

	snap, err := Build(800, root, DefaultOptions())
	require.NoError(t, err)

	for _, want := range []string{
		"/HTML/BODY/*[name()='svg']",
		"/HTML/BODY/*[name()='svg']//path",
		"/HTML/BODY/*[name()='svg']//path[2]",
		"/HTML/BODY/*[name()='svg'][2]",
	} {
		_, ok := snap.Lookup(want)
		assert.True(t, ok, "expected path %s", want)
	}
}

func TestBuild_RejectsTreeWithoutBody(t *testing.T) {
	_, err := Build(800, &Element{Tag: "DIV"}, DefaultOptions())
	assert.ErrorIs(t, err, ErrNoBody)

	_, err = Build(800, nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrNoBody)
}

func TestPathHelpers(t *testing.T) {
	assert.True(t, IsAncestorPath("/HTML/BODY/DIV", "/HTML/BODY/DIV/SPAN"))
	assert.False(t, IsAncestorPath("/HTML/BODY/DIV", "/HTML/BODY/DIV[2]/SPAN"), "prefix must end on a segment boundary")
	assert.False(t, IsAncestorPath("/HTML/BODY/DIV", "/HTML/BODY/DIV"))
	assert.Equal(t, 4, Depth("/HTML/BODY/*[name()='svg']//path"))
	assert.Equal(t, 3, CommonPrefixLen("/HTML/BODY/DIV/P", "/HTML/BODY/DIV/SPAN"))
	assert.Equal(t, 2, CommonPrefixLen("/HTML/BODY/DIV", "/HTML/BODY/DIV[2]"))
}
