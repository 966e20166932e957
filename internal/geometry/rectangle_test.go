package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func rect(xpath string, x, y, w, h float64) Rectangle {
	return NewRectangle(xpath, &Box{X: x, Y: y, Width: w, Height: h})
}

func TestNewRectangle_Flags(t *testing.T) {
	t.Run("nil box is invisible and invalid", func(t *testing.T) {
		r := NewRectangle("/HTML/BODY/DIV", nil)
		assert.False(t, r.Visible)
		assert.False(t, r.ValidSize)
		assert.False(t, r.PositiveCoordinates)
		assert.False(t, r.Usable())
	})

	t.Run("zero width is not a valid size", func(t *testing.T) {
		r := rect("/HTML/BODY/DIV", 10, 10, 0, 20)
		assert.True(t, r.Visible)
		assert.False(t, r.ValidSize)
	})

	t.Run("negative x is not a positive coordinate", func(t *testing.T) {
		r := rect("/HTML/BODY/DIV", -1, 0, 20, 20)
		assert.False(t, r.PositiveCoordinates)
		assert.True(t, r.ValidSize)
	})

	t.Run("derived edges", func(t *testing.T) {
		r := rect("/HTML/BODY/DIV", 10, 20, 30, 40)
		assert.Equal(t, 40.0, r.MaxX)
		assert.Equal(t, 60.0, r.MaxY)
		assert.Equal(t, 1200.0, r.Area())
	})
}

func TestRectangle_Contains(t *testing.T) {
	parent := rect("p", 0, 0, 100, 100)
	inside := rect("c", 10, 10, 50, 50)
	sticking := rect("c", 10, 10, 92, 50)

	assert.True(t, parent.Contains(inside, 0))
	assert.False(t, parent.Contains(sticking, 0))
	assert.True(t, parent.Contains(sticking, 2), "two pixels of slack absorb the protrusion")
	assert.False(t, parent.Contains(NewRectangle("x", nil), 5), "invisible rectangles never match")
}

func TestRectangle_UnboundedHeight(t *testing.T) {
	body := rect("/HTML/BODY", 0, 0, 400, 300).WithUnboundedHeight()
	tall := rect("t", 0, 250, 100, 5000)

	assert.True(t, math.IsInf(body.MaxY, 1))
	assert.True(t, body.Contains(tall, 0))
	assert.True(t, math.IsInf(body.Area(), 1))
}

func TestRectangle_Overlaps(t *testing.T) {
	a := rect("a", 0, 0, 100, 50)
	b := rect("b", 98, 0, 100, 50)
	touching := rect("c", 100, 0, 100, 50)

	assert.True(t, a.Overlaps(b, 0))
	assert.False(t, a.Overlaps(b, 1), "a two pixel overlap is absorbed when both sides shrink by one")
	assert.False(t, a.Overlaps(touching, 0), "shared edges are not an overlap")
}

func TestRectangle_DirectionalAreas(t *testing.T) {
	parent := rect("p", 0, 0, 400, 400)
	top := rect("a", 0, 0, 400, 100)
	bottom := rect("b", 0, 100, 400, 100)
	left := rect("l", 0, 200, 100, 100)
	right := rect("r", 100, 200, 100, 100)

	assert.True(t, top.Above(bottom, parent, 0))
	assert.False(t, bottom.Above(top, parent, 0))
	assert.True(t, bottom.Below(top, parent, 0))
	assert.True(t, left.LeftOf(right, parent, 0))
	assert.True(t, right.RightOf(left, parent, 0))
	assert.False(t, right.LeftOf(left, parent, 0))
}

func TestRectangle_ShrinkCollapses(t *testing.T) {
	r := rect("a", 0, 0, 4, 4).Shrink(5)
	assert.Equal(t, 0.0, r.Width)
	assert.Equal(t, 2.0, r.MinX)
	assert.Equal(t, 0.0, rect("a", 0, 0, 4, 4).ShrunkArea(5))
}
