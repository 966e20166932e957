// internal/dom/xpath.go
package dom

import (
	"fmt"
	"strings"
)

// BodyXPath is the structural path of the body element in every snapshot.
const BodyXPath = "/HTML/BODY"

const svgSegment = "*[name()='svg']"

func isSVG(tag string) bool {
	return strings.EqualFold(tag, "svg")
}

// childXPaths computes the structural path of every child of an element.
// The index suffix counts same-tag preceding siblings and is only written
// for the second occurrence onwards, mirroring positional XPath. Children
// of an svg element are joined with "//".
func childXPaths(parentPath string, parentIsSVG, inSVG bool, children []*Element) []string {
	sep := "/"
	if parentIsSVG {
		sep = "//"
	}

	seen := make(map[string]int, len(children))
	paths := make([]string, len(children))
	for i, child := range children {
		if child == nil {
			continue
		}
		tag := normalizeTag(child.Tag, inSVG || isSVG(child.Tag))
		key := strings.ToUpper(tag)
		seen[key]++
		index := seen[key]

		segment := tag
		if isSVG(tag) {
			segment = svgSegment
		}
		if index > 1 {
			segment = fmt.Sprintf("%s[%d]", segment, index)
		}
		paths[i] = parentPath + sep + segment
	}
	return paths
}

// normalizeTag upper-cases HTML tag names. Elements of an svg subtree keep
// the case the collaborator reported, as the browser does.
func normalizeTag(tag string, inSVG bool) string {
	if inSVG {
		return tag
	}
	return strings.ToUpper(tag)
}

// IsAncestorPath reports whether ancestor is a strict structural prefix of
// path, respecting segment boundaries.
func IsAncestorPath(ancestor, path string) bool {
	if len(ancestor) >= len(path) || !strings.HasPrefix(path, ancestor) {
		return false
	}
	return path[len(ancestor)] == '/'
}

// Segments splits a structural path into its steps. The "//" separator used
// inside svg subtrees yields the same steps as "/".
func Segments(path string) []string {
	raw := strings.Split(path, "/")
	out := raw[:0]
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Depth is the number of steps in a structural path.
func Depth(path string) int {
	return len(Segments(path))
}

// CommonPrefixLen counts the leading steps shared by two paths.
func CommonPrefixLen(a, b string) int {
	as, bs := Segments(a), Segments(b)
	n := 0
	for n < len(as) && n < len(bs) && as[n] == bs[n] {
		n++
	}
	return n
}
