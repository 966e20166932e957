// internal/layouttest/fixtures.go
package layouttest

import (
	"github.com/xkilldash9x/rlfscan/internal/dom"
	"github.com/xkilldash9x/rlfscan/internal/geometry"
)

// Paths used by the canned layouts.
const (
	Body    = dom.BodyXPath
	Div     = "/HTML/BODY/DIV"
	Div2    = "/HTML/BODY/DIV[2]"
	Div3    = "/HTML/BODY/DIV[3]"
	Nested  = "/HTML/BODY/DIV/DIV"
	Nested2 = "/HTML/BODY/DIV/DIV[2]"
)

// El builds a block element with a bounding box.
func El(tag string, x, y, w, h float64, children ...*dom.Element) *dom.Element {
	return &dom.Element{
		Tag:      tag,
		Rect:     &geometry.Box{X: x, Y: y, Width: w, Height: h},
		Style:    dom.Style{Display: "block"},
		Children: children,
	}
}

// Page wraps children in HTML and BODY elements sized to the viewport.
func Page(width, height float64, children ...*dom.Element) *dom.Element {
	return &dom.Element{
		Tag:      "HTML",
		Rect:     &geometry.Box{Width: width, Height: height},
		Style:    dom.Style{Display: "block"},
		Children: []*dom.Element{El("BODY", 0, 0, width, height, children...)},
	}
}

// Protrusion is a child that fits its parent at 800 but sticks out of its
// right edge at 400, with nothing else taking it over.
func Protrusion() map[int]*dom.Element {
	return map[int]*dom.Element{
		400: Page(400, 1000,
			El("DIV", 0, 100, 300, 200,
				El("DIV", 10, 110, 350, 50))),
		800: Page(800, 1000,
			El("DIV", 100, 100, 400, 200,
				El("DIV", 110, 110, 200, 50))),
	}
}

// Collision is two siblings that overlap at 400 and sit edge to edge at 401.
func Collision() map[int]*dom.Element {
	return map[int]*dom.Element{
		400: Page(400, 1000,
			El("DIV", 0, 0, 200, 100),
			El("DIV", 190, 0, 200, 100)),
		401: Page(401, 1000,
			El("DIV", 0, 0, 200, 100),
			El("DIV", 201, 0, 200, 100)),
	}
}

// Viewport is an element that overflows the viewport from 1198 to 1200 and
// fits inside the body at 1201.
func Viewport() map[int]*dom.Element {
	out := make(map[int]*dom.Element)
	for w := 1198; w <= 1200; w++ {
		out[w] = Page(float64(w), 800, El("DIV", 1150, 10, 100, 50))
	}
	out[1201] = Page(1201, 800, El("DIV", 1000, 10, 100, 50))
	return out
}

// Wrapping is a three item row whose last item drops onto a second line at
// 598 and 599 and sits in the row at 600.
func Wrapping() map[int]*dom.Element {
	out := make(map[int]*dom.Element)
	for _, w := range []int{598, 599} {
		out[w] = Page(float64(w), 800,
			El("DIV", 0, 0, 200, 50),
			El("DIV", 200, 0, 200, 50),
			El("DIV", 0, 50, 200, 50))
	}
	out[600] = Page(600, 800,
		El("DIV", 0, 0, 200, 50),
		El("DIV", 200, 0, 200, 50),
		El("DIV", 400, 0, 200, 50))
	return out
}

// SmallRange is a pair that sits side by side at 500-504 and 507-510. At
// 505 and 506 the second box slides under the first and overlaps it, so two
// relations appear and one disappears inside the band.
func SmallRange() map[int]*dom.Element {
	return band(El("DIV", 0, 47, 100, 50))
}

// Swap is SmallRange with a plain swap inside the band: the pair stacks
// instead of sitting side by side and nothing else changes.
func Swap() map[int]*dom.Element {
	return band(El("DIV", 0, 60, 100, 50))
}

func band(inside *dom.Element) map[int]*dom.Element {
	out := make(map[int]*dom.Element)
	for w := 500; w <= 510; w++ {
		second := El("DIV", 150, 0, 100, 50)
		if w == 505 || w == 506 {
			second = inside
		}
		out[w] = Page(float64(w), 800, El("DIV", 0, 0, 100, 50), second)
	}
	return out
}

// PairWrapping is a two item row whose second item drops below the first at
// 398 and 399.
func PairWrapping() map[int]*dom.Element {
	out := make(map[int]*dom.Element)
	for _, w := range []int{398, 399} {
		out[w] = Page(float64(w), 800,
			El("DIV", 0, 0, 200, 50),
			El("DIV", 0, 50, 200, 50))
	}
	out[400] = Page(400, 800,
		El("DIV", 0, 0, 200, 50),
		El("DIV", 200, 0, 200, 50))
	return out
}

// ShiftedParent is a child that overlaps a sibling at 400 while its
// structural parent is still an equally good container. At 401 the sibling
// shrinks and becomes the only candidate parent. The sibling contains the
// child at both widths.
func ShiftedParent() map[int]*dom.Element {
	return map[int]*dom.Element{
		400: Page(400, 1000,
			El("DIV", 0, 0, 300, 300,
				El("DIV", 10, 10, 100, 100),
				El("DIV", 1, 1, 298, 298))),
		401: Page(401, 1000,
			El("DIV", 0, 0, 300, 300,
				El("DIV", 10, 10, 100, 100),
				El("DIV", 1, 1, 150, 150))),
	}
}

// Engulfed runs from 400 to 404. Div overlaps Div2 up to collideTo, after
// which Div2 moves clear. Div overlaps Div3 up to last; from last+1 Div3
// grows around both, so Div protrudes out of Div3 over 400 to last.
func Engulfed(last, collideTo int) map[int]*dom.Element {
	out := make(map[int]*dom.Element)
	for w := 400; w <= 404; w++ {
		second := El("DIV", 50, 0, 100, 100)
		if w > collideTo {
			second = El("DIV", 200, 0, 100, 100)
		}
		third := El("DIV", 0, 90, 40, 110)
		if w > last {
			third = El("DIV", 0, 0, float64(w), 200)
		}
		out[w] = Page(float64(w), 800, El("DIV", 0, 0, 100, 100), second, third)
	}
	return out
}

// ContainmentCycle is three siblings whose tolerant containment runs in a
// loop at 400: Div3 holds Div, Div holds Div2 and Div2 holds Div3.
func ContainmentCycle() map[int]*dom.Element {
	return map[int]*dom.Element{
		400: Page(400, 800,
			El("DIV", 2, 0, 8, 10),
			El("DIV", 1, 0, 8, 10),
			El("DIV", 0, 0, 10, 10)),
	}
}

// Stable is a two column layout that never changes.
func Stable(widths ...int) map[int]*dom.Element {
	out := make(map[int]*dom.Element, len(widths))
	for _, w := range widths {
		out[w] = Page(float64(w), 800,
			El("DIV", 10, 10, 100, 100,
				El("P", 20, 20, 50, 20)),
			El("DIV", 200, 10, 100, 100))
	}
	return out
}
