// internal/failures/failure.go
package failures

import (
	"fmt"
	"sync/atomic"

	"github.com/xkilldash9x/rlfscan/internal/ranges"
)

// Kind discriminates the failure variants.
type Kind int

const (
	Collision Kind = iota
	Protrusion
	Viewport
	SmallRange
	Wrapping
)

// Kinds lists every variant in report order.
var Kinds = []Kind{Collision, Protrusion, Viewport, SmallRange, Wrapping}

var kindNames = map[Kind]string{
	Collision:  "Collision",
	Protrusion: "Protrusion",
	Viewport:   "Viewport",
	SmallRange: "Small-Range",
	Wrapping:   "Wrapping",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the names produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown failure type %q", s)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Unclassified is the label of a classification column nobody filled in.
const Unclassified = "-"

// Classification holds the labels an external reviewer assigns after
// checking the failure at the named widths.
type Classification struct {
	Narrower string `json:"narrower"`
	Min      string `json:"min"`
	Mid      string `json:"mid"`
	Max      string `json:"max"`
	Wider    string `json:"wider"`
}

// NewClassification returns a classification with every label unset.
func NewClassification() Classification {
	return Classification{
		Narrower: Unclassified,
		Min:      Unclassified,
		Mid:      Unclassified,
		Max:      Unclassified,
		Wider:    Unclassified,
	}
}

// Columns returns the labels in CSV column order.
func (c Classification) Columns() []string {
	return []string{c.Narrower, c.Min, c.Mid, c.Max, c.Wider}
}

// WrappingDetail is carried by Wrapping failures.
type WrappingDetail struct {
	// Row is the set of elements the wrapped element drops out of.
	Row []string `json:"row"`
}

// SmallRangeDetail is carried by Small-Range failures. Relation names are
// given from XPath1's point of view.
type SmallRangeDetail struct {
	Relations []string `json:"relations"`
	Narrower  []string `json:"narrower"`
	Wider     []string `json:"wider"`
}

// Failure is one detected responsive layout failure.
//
// XPath1 is the element the failure is attributed to. XPath2 is the other
// party: the colliding sibling, the element protruded from, the body for
// viewport overflow, the sibling of a small-range pair or the element the
// wrapped element fell below.
type Failure struct {
	ID     int          `json:"id"`
	Kind   Kind         `json:"type"`
	Range  ranges.Range `json:"range"`
	XPath1 string       `json:"xpath1"`
	XPath2 string       `json:"xpath2"`

	Wrapping   *WrappingDetail   `json:"wrapping,omitempty"`
	SmallRange *SmallRangeDetail `json:"smallRange,omitempty"`

	Classification Classification `json:"classification"`
}

func newFailure(kind Kind, r ranges.Range, xpath1, xpath2 string) Failure {
	return Failure{
		Kind:           kind,
		Range:          r,
		XPath1:         xpath1,
		XPath2:         xpath2,
		Classification: NewClassification(),
	}
}

func (f Failure) String() string {
	return fmt.Sprintf("#%d %s %s %s %s", f.ID, f.Kind, f.Range, f.XPath1, f.XPath2)
}

// IDAllocator hands out failure IDs for one run. IDs start at 1 and are
// never reused.
type IDAllocator struct {
	last atomic.Int64
}

// NewIDAllocator returns an allocator whose first ID is 1.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

// Next returns the next unused ID.
func (a *IDAllocator) Next() int {
	return int(a.last.Add(1))
}

// Issued is the number of IDs handed out so far.
func (a *IDAllocator) Issued() int {
	return int(a.last.Load())
}
