// internal/capture/capture.go
package capture

import (
	"context"
	"errors"

	"github.com/xkilldash9x/rlfscan/internal/dom"
)

// ErrNoFixture is returned by a fixture source that has no snapshot for the
// requested width.
var ErrNoFixture = errors.New("no snapshot fixture for width")

// Capturer renders the page at one viewport width and returns its element
// tree. Implementations must be safe for concurrent use when handed to a Pool.
type Capturer interface {
	Capture(ctx context.Context, width int) (*dom.Element, error)
}

// CapturerFunc adapts a function to the Capturer interface.
type CapturerFunc func(ctx context.Context, width int) (*dom.Element, error)

func (f CapturerFunc) Capture(ctx context.Context, width int) (*dom.Element, error) {
	return f(ctx, width)
}
