// internal/reporting/csv.go
package reporting

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/xkilldash9x/rlfscan/internal/engine"
)

// CSVHeader is the fixed header of the failure CSV.
var CSVHeader = []string{
	"Webpage", "Run", "FID", "Type", "RangeMin", "RangeMax",
	"XPath1", "XPath2", "Narrower", "Min", "Mid", "Max", "Wider",
}

// CSVReporter writes one row per failure. The header is written once, before
// the first row, so several runs can share a file.
type CSVReporter struct {
	closer io.Closer
	w      *csv.Writer
	header bool
}

func NewCSVReporter(writer io.WriteCloser) *CSVReporter {
	return &CSVReporter{closer: writer, w: csv.NewWriter(writer)}
}

func (r *CSVReporter) Write(res *engine.Result) error {
	if err := r.writeHeader(); err != nil {
		return err
	}
	run := strconv.Itoa(res.Run)
	for _, f := range res.Failures {
		row := []string{
			res.Webpage,
			run,
			strconv.Itoa(f.ID),
			f.Kind.String(),
			strconv.Itoa(f.Range.Min),
			strconv.Itoa(f.Range.Max),
			f.XPath1,
			f.XPath2,
		}
		row = append(row, f.Classification.Columns()...)
		if err := r.w.Write(row); err != nil {
			return err
		}
	}
	r.w.Flush()
	return r.w.Error()
}

func (r *CSVReporter) writeHeader() error {
	if r.header {
		return nil
	}
	r.header = true
	return r.w.Write(CSVHeader)
}

// Close writes the header if no run was written, then closes the writer.
func (r *CSVReporter) Close() error {
	if err := r.writeHeader(); err != nil {
		return err
	}
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		r.closer.Close()
		return err
	}
	return r.closer.Close()
}
