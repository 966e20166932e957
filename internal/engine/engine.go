package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rlfscan/internal/capture"
	"github.com/xkilldash9x/rlfscan/internal/config"
	"github.com/xkilldash9x/rlfscan/internal/dom"
	"github.com/xkilldash9x/rlfscan/internal/failures"
	"github.com/xkilldash9x/rlfscan/internal/rlg"
)

// -- Interfaces for Dependency Inversion --

// Store persists finished runs. The engine does not care which database
// sits behind it.
type Store interface {
	SaveRun(ctx context.Context, res *Result) error
}

// ErrNoSnapshots is returned when a run has nothing to fuse.
var ErrNoSnapshots = errors.New("no snapshots to fuse")

// Result is everything one webpage run produced.
type Result struct {
	ID        uuid.UUID
	Run       int
	Webpage   string
	StartedAt time.Time
	Duration  time.Duration
	Widths    []int
	Graph     *rlg.Graph
	Failures  []failures.Failure
}

// GraphOptions controls how snapshots are indexed and fused.
type GraphOptions struct {
	Tolerances rlg.Tolerances
	DOM        dom.Options
}

// BuildGraph fuses snapshots into a graph in ascending width order.
func BuildGraph(snapshots map[int]*dom.Element, opts GraphOptions, logger *zap.Logger) (*rlg.Graph, error) {
	if len(snapshots) == 0 {
		return nil, ErrNoSnapshots
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	widths := make([]int, 0, len(snapshots))
	for w := range snapshots {
		widths = append(widths, w)
	}
	sort.Ints(widths)

	g := rlg.New(opts.Tolerances, logger)
	for _, w := range widths {
		snap, err := dom.Build(w, snapshots[w], opts.DOM)
		if err != nil {
			return nil, fmt.Errorf("failed to index snapshot at width %d: %w", w, err)
		}
		if err := g.Fuse(snap); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Engine runs the capture, fuse and detect pipeline for one webpage at a time.
type Engine struct {
	cfg    *config.Config
	logger *zap.Logger
	store  Store
	runs   atomic.Int64
}

// New creates an Engine. store may be nil, in which case runs are not
// persisted.
func New(cfg *config.Config, logger *zap.Logger, store Store) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "engine")),
		store:  store,
	}
}

// Run captures webpage through c at every configured width, builds the
// graph and detects failures. Each run numbers its failures from 1.
func (e *Engine) Run(ctx context.Context, webpage string, c capture.Capturer) (*Result, error) {
	return e.RunWidths(ctx, webpage, c, e.cfg.Analysis().Widths())
}

// RunWidths is Run over an explicit set of widths, such as the widths a
// fixture directory holds.
func (e *Engine) RunWidths(ctx context.Context, webpage string, c capture.Capturer, widths []int) (*Result, error) {
	analysis := e.cfg.Analysis()
	browser := e.cfg.Browser()

	res := &Result{
		ID:        uuid.New(),
		Run:       int(e.runs.Add(1)),
		Webpage:   webpage,
		StartedAt: time.Now().UTC(),
		Widths:    widths,
	}
	logger := e.logger.With(zap.String("webpage", webpage), zap.Int("run", res.Run))
	logger.Info("Starting run.", zap.Int("widths", len(widths)))
	if len(widths) == 0 {
		return nil, fmt.Errorf("run of %s: %w", webpage, ErrNoSnapshots)
	}

	pool := capture.NewPool(c, capture.PoolOptions{
		Concurrency:   browser.Concurrency,
		RatePerSecond: browser.RatePerSecond,
	}, logger)
	snapshots, err := pool.CaptureAll(ctx, res.Widths)
	if err != nil {
		return nil, fmt.Errorf("capture failed for %s: %w", webpage, err)
	}

	g, err := BuildGraph(snapshots, GraphOptions{
		Tolerances: analysis.Tolerances,
		DOM:        analysis.DOMOptions(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("graph construction failed for %s: %w", webpage, err)
	}
	res.Graph = g
	logger.Debug("Graph built.", zap.Stringer("stats", g.Stats()))

	res.Failures = failures.Detect(g, analysis.DetectOptions(), failures.NewIDAllocator())
	res.Duration = time.Since(res.StartedAt)
	logger.Info("Run complete.",
		zap.Int("failures", len(res.Failures)),
		zap.Duration("duration", res.Duration))

	if e.store != nil {
		// Persist even if the caller's context was cancelled after detection.
		persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := e.store.SaveRun(persistCtx, res); err != nil {
			return res, fmt.Errorf("failed to persist run: %w", err)
		}
		logger.Info("Persisted run.", zap.String("run_id", res.ID.String()))
	}
	return res, nil
}

// Counts tallies failures by kind.
func (r *Result) Counts() map[failures.Kind]int {
	out := make(map[failures.Kind]int)
	for _, f := range r.Failures {
		out[f.Kind]++
	}
	return out
}
