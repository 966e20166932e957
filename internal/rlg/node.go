// internal/rlg/node.go
package rlg

import (
	"sort"

	"github.com/xkilldash9x/rlfscan/internal/ranges"
)

// Node is the persistent, cross-width record of one structural path. Edges
// are held by key; the Graph owns the Edge values.
type Node struct {
	XPath string
	// Ranges holds every width at which the element was indexed.
	Ranges ranges.Ranges

	out map[EdgeKind][]EdgeKey
	in  map[EdgeKind][]EdgeKey
}

func newNode(xpath string) *Node {
	return &Node{
		XPath: xpath,
		out:   make(map[EdgeKind][]EdgeKey),
		in:    make(map[EdgeKind][]EdgeKey),
	}
}

// Out returns the keys of kind edges starting at this node, sorted.
func (n *Node) Out(kind EdgeKind) []EdgeKey {
	return sortedKeys(n.out[kind])
}

// In returns the keys of kind edges ending at this node, sorted.
func (n *Node) In(kind EdgeKind) []EdgeKey {
	return sortedKeys(n.in[kind])
}

// All returns every kind edge touching this node in either direction.
func (n *Node) All(kind EdgeKind) []EdgeKey {
	keys := make([]EdgeKey, 0, len(n.out[kind])+len(n.in[kind]))
	keys = append(keys, n.out[kind]...)
	keys = append(keys, n.in[kind]...)
	return sortedKeys(keys)
}

// ObservedAt reports whether the element was indexed at width.
func (n *Node) ObservedAt(width int) bool {
	return n.Ranges.Contains(width)
}

func (n *Node) link(key EdgeKey) {
	if key.From == n.XPath {
		n.out[key.Kind] = append(n.out[key.Kind], key)
	}
	if key.To == n.XPath {
		n.in[key.Kind] = append(n.in[key.Kind], key)
	}
}

func sortedKeys(keys []EdgeKey) []EdgeKey {
	out := make([]EdgeKey, len(keys))
	copy(out, keys)
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}
