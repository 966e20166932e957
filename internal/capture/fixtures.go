// internal/capture/fixtures.go
package capture

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/rlfscan/internal/dom"
)

var fixtureExts = []string{".yaml", ".yml", ".json"}

// Fixtures serves snapshots recorded earlier, one file per width named
// "<width>.yaml" (or .yml, .json) inside Dir.
type Fixtures struct {
	Dir string
}

// Capture loads the snapshot recorded for width.
func (f Fixtures) Capture(ctx context.Context, width int) (*dom.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, ext := range fixtureExts {
		path := filepath.Join(f.Dir, strconv.Itoa(width)+ext)
		el, err := dom.LoadElement(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return el, nil
	}
	return nil, fmt.Errorf("%w %d in %s", ErrNoFixture, width, f.Dir)
}

// Widths lists the widths recorded in Dir in ascending order.
func (f Fixtures) Widths() ([]int, error) {
	entries, err := os.ReadDir(f.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list fixtures: %w", err)
	}
	seen := make(map[int]bool)
	var out []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if !isFixtureExt(ext) {
			continue
		}
		w, err := strconv.Atoi(strings.TrimSuffix(e.Name(), ext))
		if err != nil || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	sort.Ints(out)
	return out, nil
}

func isFixtureExt(ext string) bool {
	for _, e := range fixtureExts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// Recorder captures through Source and writes each snapshot to Dir as YAML
// so a later run can replay it with Fixtures.
type Recorder struct {
	Source Capturer
	Dir    string
	Logger *zap.Logger
}

// Capture forwards to Source and records the result.
func (r Recorder) Capture(ctx context.Context, width int) (*dom.Element, error) {
	el, err := r.Source.Capture(ctx, width)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create fixture directory: %w", err)
	}
	path := filepath.Join(r.Dir, strconv.Itoa(width)+".yaml")
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create fixture %s: %w", path, err)
	}
	defer file.Close()
	if err := dom.EncodeElement(file, el); err != nil {
		return nil, fmt.Errorf("failed to write fixture %s: %w", path, err)
	}
	if r.Logger != nil {
		r.Logger.Debug("Recorded snapshot.", zap.Int("width", width), zap.String("path", path))
	}
	return el, nil
}
