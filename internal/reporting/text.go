// internal/reporting/text.go
package reporting

import (
	"fmt"
	"io"

	"github.com/xkilldash9x/rlfscan/internal/engine"
)

// TextReporter writes the graph as an indented tree that rlg.ReadTree can
// load again.
type TextReporter struct {
	writer io.WriteCloser
}

func NewTextReporter(writer io.WriteCloser) *TextReporter {
	return &TextReporter{writer: writer}
}

func (r *TextReporter) Write(res *engine.Result) error {
	if res.Graph == nil {
		return fmt.Errorf("run %d of %s has no graph", res.Run, res.Webpage)
	}
	return res.Graph.WriteTree(r.writer)
}

func (r *TextReporter) Close() error { return r.writer.Close() }
