// internal/dom/visibility.go
package dom

import (
	"regexp"
	"strings"

	"github.com/xkilldash9x/rlfscan/internal/geometry"
)

var transparentRGBA = regexp.MustCompile(`^rgba\(\s*[^)]*,\s*0(\.0+)?\s*\)$`)

// hidesSubtree reports the style states that remove an element and
// everything under it from the rendered page.
func hidesSubtree(s Style, box *geometry.Box) bool {
	switch {
	case strings.EqualFold(s.Display, "none"):
		return true
	case strings.TrimSpace(s.Opacity) == "0":
		return true
	case strings.TrimSpace(s.Filter) == "opacity(0)":
		return true
	case strings.TrimSpace(s.Transform) == "scale(0)":
		return true
	case strings.HasPrefix(strings.TrimSpace(s.ClipPath), "circle(0px"):
		return true
	case strings.EqualFold(s.Overflow, "hidden") && zeroSized(box):
		return true
	}
	return false
}

// hidesSelf covers the states that only affect the element itself:
// descendants may still paint.
func hidesSelf(s Style) bool {
	v := strings.ToLower(strings.TrimSpace(s.Visibility))
	if v == "hidden" || v == "collapse" {
		return true
	}
	return fullyTransparent(s)
}

func fullyTransparent(s Style) bool {
	for _, c := range []string{
		s.Color, s.BackgroundColor,
		s.BorderLeftColor, s.BorderRightColor, s.BorderTopColor, s.BorderBottomColor,
	} {
		if !isTransparent(c) {
			return false
		}
	}
	return true
}

func isTransparent(color string) bool {
	c := strings.ToLower(strings.TrimSpace(color))
	return c == "transparent" || transparentRGBA.MatchString(c)
}

func zeroSized(box *geometry.Box) bool {
	return box == nil || box.Width == 0 || box.Height == 0
}
