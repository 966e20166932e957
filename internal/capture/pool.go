// internal/capture/pool.go
package capture

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/rlfscan/internal/dom"
)

// PoolOptions bounds how hard a Pool drives its Capturer.
type PoolOptions struct {
	// Concurrency is the number of captures in flight. Values below 1 mean 1.
	Concurrency int
	// RatePerSecond caps capture starts per second. Zero disables pacing.
	RatePerSecond float64
}

// Pool captures many widths in parallel and hands every snapshot to a
// single consumer.
type Pool struct {
	capturer Capturer
	opts     PoolOptions
	logger   *zap.Logger
}

// NewPool wraps a Capturer.
func NewPool(c Capturer, opts PoolOptions, logger *zap.Logger) *Pool {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{capturer: c, opts: opts, logger: logger.Named("capture_pool")}
}

type result struct {
	width int
	el    *dom.Element
}

// CaptureAll captures every width and returns the snapshots keyed by width.
// The first failing capture cancels the rest and its error is returned.
func (p *Pool) CaptureAll(ctx context.Context, widths []int) (map[int]*dom.Element, error) {
	out := make(map[int]*dom.Element, len(widths))
	err := p.Each(ctx, widths, func(width int, el *dom.Element) error {
		out[width] = el
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Each captures every width and calls consume for each snapshot as it
// arrives. consume always runs on the calling goroutine, never concurrently.
func (p *Pool) Each(ctx context.Context, widths []int, consume func(width int, el *dom.Element) error) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, groupCtx := errgroup.WithContext(runCtx)
	g.SetLimit(p.opts.Concurrency)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if p.opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(p.opts.RatePerSecond), 1)
	}

	results := make(chan result, p.opts.Concurrency)
	start := time.Now()
	p.logger.Info("Starting captures.",
		zap.Int("widths", len(widths)),
		zap.Int("concurrency", p.opts.Concurrency))

	// Producer: g.Go blocks once the limit is reached, so it runs apart from
	// the consumer below.
	go func() {
		defer close(results)
		for _, w := range widths {
			if groupCtx.Err() != nil {
				break
			}
			width := w
			g.Go(func() error {
				if err := limiter.Wait(groupCtx); err != nil {
					return err
				}
				el, err := p.capturer.Capture(groupCtx, width)
				if err != nil {
					return fmt.Errorf("capture at width %d failed: %w", width, err)
				}
				select {
				case results <- result{width: width, el: el}:
					return nil
				case <-groupCtx.Done():
					return groupCtx.Err()
				}
			})
		}
		// Wait here so results closes only after every worker returned.
		_ = g.Wait()
	}()

	var consumeErr error
	count := 0
	for res := range results {
		if consumeErr != nil {
			continue
		}
		if err := consume(res.width, res.el); err != nil {
			consumeErr = err
			cancel()
			continue
		}
		count++
	}

	waitErr := g.Wait()
	if consumeErr != nil {
		return consumeErr
	}
	if waitErr != nil {
		return waitErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.logger.Info("Captures complete.",
		zap.Int("captured", count),
		zap.Duration("duration", time.Since(start)))
	return nil
}
