// internal/dom/element.go
package dom

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/rlfscan/internal/geometry"
)

// Style carries the computed style values that decide whether an element is
// actually painted.
type Style struct {
	Display           string `json:"display,omitempty" yaml:"display,omitempty"`
	Visibility        string `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	Opacity           string `json:"opacity,omitempty" yaml:"opacity,omitempty"`
	Filter            string `json:"filter,omitempty" yaml:"filter,omitempty"`
	Transform         string `json:"transform,omitempty" yaml:"transform,omitempty"`
	Overflow          string `json:"overflow,omitempty" yaml:"overflow,omitempty"`
	Color             string `json:"color,omitempty" yaml:"color,omitempty"`
	BackgroundColor   string `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty"`
	BorderLeftColor   string `json:"borderLeftColor,omitempty" yaml:"borderLeftColor,omitempty"`
	BorderRightColor  string `json:"borderRightColor,omitempty" yaml:"borderRightColor,omitempty"`
	BorderTopColor    string `json:"borderTopColor,omitempty" yaml:"borderTopColor,omitempty"`
	BorderBottomColor string `json:"borderBottomColor,omitempty" yaml:"borderBottomColor,omitempty"`
	ClipPath          string `json:"clipPath,omitempty" yaml:"clipPath,omitempty"`
}

// Element is one node of the tree handed over by the rendering collaborator
// for a single viewport width. Rect is nil when the element is not rendered.
type Element struct {
	Tag      string        `json:"tag" yaml:"tag"`
	Rect     *geometry.Box `json:"rect" yaml:"rect"`
	Style    Style         `json:"style" yaml:"style"`
	Children []*Element    `json:"children,omitempty" yaml:"children,omitempty"`
}

// Count returns the number of elements in the subtree rooted at e.
func (e *Element) Count() int {
	if e == nil {
		return 0
	}
	n := 1
	for _, c := range e.Children {
		n += c.Count()
	}
	return n
}

// DecodeElement reads a YAML or JSON encoded element tree. JSON documents
// are valid YAML, so one decoder serves recorded fixtures in either format.
func DecodeElement(r io.Reader) (*Element, error) {
	var root Element
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to decode element tree: %w", err)
	}
	if root.Tag == "" {
		return nil, fmt.Errorf("element tree has no root tag")
	}
	return &root, nil
}

// LoadElement decodes an element tree from a file.
func LoadElement(path string) (*Element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	defer f.Close()

	root, err := DecodeElement(f)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return root, nil
}

// EncodeElement writes e as YAML.
func EncodeElement(w io.Writer, e *Element) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("failed to encode element tree: %w", err)
	}
	return enc.Close()
}
