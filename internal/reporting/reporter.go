// internal/reporting/reporter.go
package reporting

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xkilldash9x/rlfscan/internal/engine"
)

// Reporter writes run results to an output.
type Reporter interface {
	// Write adds one run to the report.
	Write(res *engine.Result) error
	// Close finalizes the report and closes the underlying writer.
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a reporter for format writing to outputPath. An empty path or
// "stdout" writes to standard output.
func New(format, outputPath string) (Reporter, error) {
	format = strings.ToLower(format)
	if !supported(format) {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	var writer io.WriteCloser
	if outputPath == "" || outputPath == "stdout" {
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}
	return NewWithWriter(format, writer)
}

// NewWithWriter creates a reporter that takes ownership of writer.
func NewWithWriter(format string, writer io.WriteCloser) (Reporter, error) {
	switch strings.ToLower(format) {
	case "csv":
		return NewCSVReporter(writer), nil
	case "text":
		return NewTextReporter(writer), nil
	case "json":
		return NewJSONReporter(writer), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// FileName is the conventional report file name for format inside an
// output directory.
func FileName(format string) string {
	switch strings.ToLower(format) {
	case "csv":
		return "failures.csv"
	case "text":
		return "rlg.txt"
	case "json":
		return "report.json"
	}
	return "report." + format
}

// WriteAll writes res in every format into dir and returns the paths written.
func WriteAll(dir string, formats []string, res *engine.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	var written []string
	for _, format := range formats {
		path := filepath.Join(dir, FileName(format))
		r, err := New(format, path)
		if err != nil {
			return written, err
		}
		if err := r.Write(res); err != nil {
			r.Close()
			return written, fmt.Errorf("failed to write %s report: %w", format, err)
		}
		if err := r.Close(); err != nil {
			return written, fmt.Errorf("failed to close %s report: %w", format, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func supported(format string) bool {
	switch format {
	case "csv", "text", "json":
		return true
	}
	return false
}
