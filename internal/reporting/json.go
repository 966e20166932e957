// internal/reporting/json.go
package reporting

import (
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/rlfscan/internal/engine"
	"github.com/xkilldash9x/rlfscan/internal/failures"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RunReport is the JSON shape of one run.
type RunReport struct {
	ID        string             `json:"id"`
	Run       int                `json:"run"`
	Webpage   string             `json:"webpage"`
	StartedAt time.Time          `json:"startedAt"`
	Duration  string             `json:"duration"`
	Widths    string             `json:"widths"`
	Nodes     int                `json:"nodes"`
	Counts    map[string]int     `json:"counts"`
	Failures  []failures.Failure `json:"failures"`
}

// JSONReporter collects runs and writes them as one indented array on Close.
type JSONReporter struct {
	writer io.WriteCloser
	runs   []RunReport
}

func NewJSONReporter(writer io.WriteCloser) *JSONReporter {
	return &JSONReporter{writer: writer, runs: []RunReport{}}
}

func (r *JSONReporter) Write(res *engine.Result) error {
	rep := RunReport{
		ID:        res.ID.String(),
		Run:       res.Run,
		Webpage:   res.Webpage,
		StartedAt: res.StartedAt,
		Duration:  res.Duration.String(),
		Counts:    make(map[string]int),
		Failures:  res.Failures,
	}
	if rep.Failures == nil {
		rep.Failures = []failures.Failure{}
	}
	if res.Graph != nil {
		rep.Widths = res.Graph.Widths().String()
		rep.Nodes = len(res.Graph.Nodes())
	}
	for kind, n := range res.Counts() {
		rep.Counts[kind.String()] = n
	}
	r.runs = append(r.runs, rep)
	return nil
}

func (r *JSONReporter) Close() error {
	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.runs); err != nil {
		r.writer.Close()
		return err
	}
	return r.writer.Close()
}
