package dom

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_BodySentinel(t *testing.T) {
	snap, err := Build(400, &Element{Tag: "BODY", Rect: box(0, 0, 400, 300)}, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, math.IsInf(snap.Root.Rect.MaxY, 1))
	assert.True(t, snap.Root.Indexed)
	assert.Equal(t, 1, snap.IndexSize())
}

func TestBuild_Eligibility(t *testing.T) {
	root := &Element{
		Tag:  "BODY",
		Rect: box(0, 0, 800, 600),
		Children: []*Element{
			{Tag: "DIV", Rect: box(0, 0, 100, 100), Style: Style{Display: "none"}, Children: []*Element{
				{Tag: "P", Rect: box(0, 0, 10, 10)},
			}},
			{Tag: "DIV", Rect: box(0, 0, 100, 100), Style: Style{Visibility: "hidden"}, Children: []*Element{
				{Tag: "P", Rect: box(0, 0, 10, 10)},
			}},
			{Tag: "DIV", Rect: nil},
			{Tag: "DIV", Rect: box(-5, 0, 100, 100)},
			{Tag: "SPAN", Rect: box(0, 0, 30, 10), Style: Style{Display: "inline"}},
			{Tag: "DIV", Rect: box(0, 0, 0, 0), Style: Style{Overflow: "hidden"}, Children: []*Element{
				{Tag: "P", Rect: box(0, 0, 10, 10)},
			}},
			{Tag: "DIV", Rect: box(0, 0, 50, 50), Style: Style{
				Color:             "rgba(0, 0, 0, 0)",
				BackgroundColor:   "transparent",
				BorderLeftColor:   "rgba(0, 0, 0, 0)",
				BorderRightColor:  "rgba(0, 0, 0, 0)",
				BorderTopColor:    "rgba(0, 0, 0, 0)",
				BorderBottomColor: "rgba(0, 0, 0, 0)",
			}, Children: []*Element{
				{Tag: "P", Rect: box(0, 0, 10, 10)},
			}},
			{Tag: "DIV", Rect: box(0, 0, 50, 50), Style: Style{Opacity: "0"}},
		},
	}

	snap, err := Build(800, root, DefaultOptions())
	require.NoError(t, err)

	indexed := map[string]bool{}
	for _, n := range snap.Indexed() {
		indexed[n.XPath] = true
	}

	assert.True(t, indexed["/HTML/BODY"])
	assert.False(t, indexed["/HTML/BODY/DIV"], "display:none")
	assert.False(t, indexed["/HTML/BODY/DIV/P"], "descendant of display:none")
	assert.False(t, indexed["/HTML/BODY/DIV[2]"], "visibility:hidden")
	assert.True(t, indexed["/HTML/BODY/DIV[2]/P"], "visibility:hidden does not hide descendants")
	assert.False(t, indexed["/HTML/BODY/DIV[3]"], "no geometry")
	assert.False(t, indexed["/HTML/BODY/DIV[4]"], "negative coordinates")
	assert.False(t, indexed["/HTML/BODY/SPAN"], "excluded display value")
	assert.False(t, indexed["/HTML/BODY/DIV[5]/P"], "inside a collapsed overflow:hidden box")
	assert.False(t, indexed["/HTML/BODY/DIV[6]"], "fully transparent")
	assert.True(t, indexed["/HTML/BODY/DIV[6]/P"], "transparency only affects the element itself")
	assert.False(t, indexed["/HTML/BODY/DIV[7]"], "opacity 0")
}

func TestSnapshot_QueryIncludesSelf(t *testing.T) {
	root := &Element{
		Tag:  "BODY",
		Rect: box(0, 0, 800, 600),
		Children: []*Element{
			{Tag: "DIV", Rect: box(0, 0, 400, 100)},
			{Tag: "DIV", Rect: box(500, 0, 100, 100)},
		},
	}
	snap, err := Build(800, root, DefaultOptions())
	require.NoError(t, err)

	first, ok := snap.Lookup("/HTML/BODY/DIV")
	require.True(t, ok)

	var got []string
	for _, n := range snap.Query(first.Rect, 0) {
		got = append(got, n.XPath)
	}
	assert.Equal(t, []string{"/HTML/BODY", "/HTML/BODY/DIV"}, got)
}

func TestDecodeElement(t *testing.T) {
	doc := `
tag: BODY
rect: {x: 0, y: 0, width: 400, height: 300}
children:
  - tag: DIV
    rect: {x: 0, y: 0, width: 400, height: 50}
    style: {display: block, backgroundColor: "rgb(255, 0, 0)"}
  - tag: IMG
    rect: null
`
	el, err := DecodeElement(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 3, el.Count())
	require.Len(t, el.Children, 2)
	assert.Equal(t, "block", el.Children[0].Style.Display)
	assert.Nil(t, el.Children[1].Rect)

	var sb strings.Builder
	require.NoError(t, EncodeElement(&sb, el))
	back, err := DecodeElement(strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Equal(t, el, back)
}
