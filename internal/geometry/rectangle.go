// internal/geometry/rectangle.go
package geometry

import (
	"fmt"
	"math"
)

// Box is the raw bounding box reported by the rendering collaborator.
type Box struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Rectangle is an axis-aligned bounding box observed for one element at one
// viewport width. It is never mutated once built.
type Rectangle struct {
	XPath  string
	MinX   float64
	MaxX   float64
	MinY   float64
	MaxY   float64
	Width  float64
	Height float64

	// Visible is false when the collaborator reported no geometry at all.
	Visible             bool
	ValidSize           bool
	PositiveCoordinates bool
}

// NewRectangle converts a collaborator box. A nil box produces an invisible,
// invalid rectangle instead of an error.
func NewRectangle(xpath string, box *Box) Rectangle {
	if box == nil {
		return Rectangle{XPath: xpath}
	}
	r := Rectangle{
		XPath:   xpath,
		MinX:    box.X,
		MinY:    box.Y,
		MaxX:    box.X + box.Width,
		MaxY:    box.Y + box.Height,
		Width:   box.Width,
		Height:  box.Height,
		Visible: true,
	}
	r.ValidSize = r.Width > 0 && r.Height > 0
	r.PositiveCoordinates = r.MinX >= 0 && r.MinY >= 0
	return r
}

// WithUnboundedHeight returns a copy whose bottom edge extends to +Inf.
func (r Rectangle) WithUnboundedHeight() Rectangle {
	r.MaxY = math.Inf(1)
	r.Height = math.Inf(1)
	return r
}

// Usable reports whether the rectangle may take part in geometric tests.
func (r Rectangle) Usable() bool {
	return r.Visible && r.ValidSize
}

// Area is Width*Height; +Inf for an unbounded rectangle.
func (r Rectangle) Area() float64 {
	return r.Width * r.Height
}

// ShrunkArea is the area left after moving every edge inwards by tol.
func (r Rectangle) ShrunkArea(tol float64) float64 {
	w := math.Max(0, r.Width-2*tol)
	h := math.Max(0, r.Height-2*tol)
	return w * h
}

// Shrink moves every edge inwards by tol. A rectangle shrunk past zero
// collapses onto its centre line.
func (r Rectangle) Shrink(tol float64) Rectangle {
	out := r
	out.MinX, out.MaxX = shrinkAxis(r.MinX, r.MaxX, tol)
	out.MinY, out.MaxY = shrinkAxis(r.MinY, r.MaxY, tol)
	out.Width = out.MaxX - out.MinX
	out.Height = out.MaxY - out.MinY
	return out
}

func shrinkAxis(lo, hi, tol float64) (float64, float64) {
	if math.IsInf(hi, 1) {
		return lo + tol, hi
	}
	nlo, nhi := lo+tol, hi-tol
	if nlo > nhi {
		mid := lo + (hi-lo)/2
		return mid, mid
	}
	return nlo, nhi
}

// Contains reports whether o lies inside r, allowing o to stick out by tol.
func (r Rectangle) Contains(o Rectangle, tol float64) bool {
	if !r.Usable() || !o.Usable() {
		return false
	}
	return o.MinX >= r.MinX-tol && o.MaxX <= r.MaxX+tol &&
		o.MinY >= r.MinY-tol && o.MaxY <= r.MaxY+tol
}

// Intersects reports whether the interiors of r and o share any area.
func (r Rectangle) Intersects(o Rectangle) bool {
	if !r.Usable() || !o.Usable() {
		return false
	}
	return r.MinX < o.MaxX && o.MinX < r.MaxX && r.MinY < o.MaxY && o.MinY < r.MaxY
}

// Overlaps reports whether r and o intersect once both are shrunk by tol.
func (r Rectangle) Overlaps(o Rectangle, tol float64) bool {
	if !r.Usable() || !o.Usable() {
		return false
	}
	a, b := r.Shrink(tol), o.Shrink(tol)
	return a.MinX < b.MaxX && b.MinX < a.MaxX && a.MinY < b.MaxY && b.MinY < a.MaxY
}

// AboveArea is the region of the container above o: the container's box
// with its bottom edge replaced by o's top edge.
func (r Rectangle) AboveArea(o Rectangle) Rectangle {
	return region(r.MinX, r.MaxX, r.MinY, o.MinY)
}

// BelowArea is the container's box with its top edge replaced by o's bottom.
func (r Rectangle) BelowArea(o Rectangle) Rectangle {
	return region(r.MinX, r.MaxX, o.MaxY, r.MaxY)
}

// LeftArea is the container's box with its right edge replaced by o's left.
func (r Rectangle) LeftArea(o Rectangle) Rectangle {
	return region(r.MinX, o.MinX, r.MinY, r.MaxY)
}

// RightArea is the container's box with its left edge replaced by o's right.
func (r Rectangle) RightArea(o Rectangle) Rectangle {
	return region(o.MaxX, r.MaxX, r.MinY, r.MaxY)
}

func region(minX, maxX, minY, maxY float64) Rectangle {
	w, h := maxX-minX, maxY-minY
	return Rectangle{
		MinX: minX, MaxX: maxX, MinY: minY, MaxY: maxY,
		Width: w, Height: h,
		Visible: true,
		// A degenerate region is still a real area to test against.
		ValidSize:           w >= 0 && h >= 0,
		PositiveCoordinates: minX >= 0 && minY >= 0,
	}
}

// Above reports whether r sits in the part of container above o.
func (r Rectangle) Above(o, container Rectangle, tol float64) bool {
	return container.AboveArea(o).Contains(r, tol)
}

// Below reports whether r sits in the part of container below o.
func (r Rectangle) Below(o, container Rectangle, tol float64) bool {
	return container.BelowArea(o).Contains(r, tol)
}

// LeftOf reports whether r sits in the part of container left of o.
func (r Rectangle) LeftOf(o, container Rectangle, tol float64) bool {
	return container.LeftArea(o).Contains(r, tol)
}

// RightOf reports whether r sits in the part of container right of o.
func (r Rectangle) RightOf(o, container Rectangle, tol float64) bool {
	return container.RightArea(o).Contains(r, tol)
}

func (r Rectangle) String() string {
	if !r.Visible {
		return fmt.Sprintf("%s[invisible]", r.XPath)
	}
	return fmt.Sprintf("%s[%g,%g %gx%g]", r.XPath, r.MinX, r.MinY, r.Width, r.Height)
}
