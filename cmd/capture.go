// File: cmd/capture.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rlfscan/internal/capture"
	"github.com/xkilldash9x/rlfscan/internal/config"
	"github.com/xkilldash9x/rlfscan/internal/dom"
	"github.com/xkilldash9x/rlfscan/internal/observability"
)

func newCaptureCmd() *cobra.Command {
	var outDir string

	captureCmd := &cobra.Command{
		Use:   "capture <url>",
		Short: "Record the page layout at every width as snapshot fixtures",
		Long: `Renders the page at every configured width and writes one YAML snapshot per
width into --out. "rlfscan detect <dir>" replays them without a browser.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			logger := observability.GetLogger()

			chrome := newChrome(ctx, args[0], cfg.Browser(), logger)
			defer chrome.Close()

			n, err := runCapture(ctx, logger, cfg, chrome, expandPath(outDir))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d snapshots into %s\n", n, outDir)
			return nil
		},
	}

	captureCmd.Flags().StringVar(&outDir, "out", "", "directory the snapshots are written to (required)")
	_ = captureCmd.MarkFlagRequired("out")
	captureCmd.Flags().Int("min", 0, "narrowest viewport width (overrides analysis.min_width)")
	captureCmd.Flags().Int("max", 0, "widest viewport width (overrides analysis.max_width)")
	captureCmd.Flags().Int("step", 0, "width increment (overrides analysis.step)")
	captureCmd.Flags().IntP("concurrency", "j", 0, "captures in flight (overrides browser.concurrency)")
	captureCmd.Flags().Bool("headless", true, "run the browser headless")

	return captureCmd
}

// runCapture records every configured width of source into dir and returns
// how many snapshots were written.
func runCapture(ctx context.Context, logger *zap.Logger, cfg *config.Config, source capture.Capturer, dir string) (int, error) {
	rec := capture.Recorder{Source: source, Dir: dir, Logger: logger}
	pool := capture.NewPool(rec, capture.PoolOptions{
		Concurrency:   cfg.Browser().Concurrency,
		RatePerSecond: cfg.Browser().RatePerSecond,
	}, logger)

	count := 0
	err := pool.Each(ctx, cfg.Analysis().Widths(), func(width int, el *dom.Element) error {
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("capture failed: %w", err)
	}
	return count, nil
}
