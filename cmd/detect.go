// File: cmd/detect.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rlfscan/internal/capture"
	"github.com/xkilldash9x/rlfscan/internal/config"
	"github.com/xkilldash9x/rlfscan/internal/engine"
	"github.com/xkilldash9x/rlfscan/internal/observability"
	"github.com/xkilldash9x/rlfscan/internal/reporting"
	"github.com/xkilldash9x/rlfscan/internal/store"
)

// detectOptions holds the detect flags that are not configuration keys.
type detectOptions struct {
	fixtures string
	record   string
	persist  bool
}

func newDetectCmd() *cobra.Command {
	var opts detectOptions

	detectCmd := &cobra.Command{
		Use:   "detect <url|fixture-dir>",
		Short: "Capture a page across viewport widths and report layout failures",
		Long: `Renders the page at every width from --min to --max, fuses the layouts into a
responsive layout graph and reports collisions, protrusions, viewport overflow,
small-range and wrapping failures. A directory argument (or --fixtures) replays
recorded snapshots instead of starting a browser.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runDetect(ctx, cmd, logger, cfg, args[0], opts)
		},
	}

	detectCmd.Flags().Int("min", 0, "narrowest viewport width (overrides analysis.min_width)")
	detectCmd.Flags().Int("max", 0, "widest viewport width (overrides analysis.max_width)")
	detectCmd.Flags().Int("step", 0, "width increment (overrides analysis.step)")
	detectCmd.Flags().IntP("concurrency", "j", 0, "captures in flight (overrides browser.concurrency)")
	detectCmd.Flags().Bool("headless", true, "run the browser headless")
	detectCmd.Flags().StringP("output-dir", "o", "", "directory the reports are written to")
	detectCmd.Flags().StringSliceP("format", "f", nil, "report formats: csv, text, json")
	detectCmd.Flags().Bool("table", true, "print a failure table to stdout")
	detectCmd.Flags().StringVar(&opts.fixtures, "fixtures", "", "replay snapshots recorded in this directory")
	detectCmd.Flags().StringVar(&opts.record, "record", "", "also record every captured snapshot into this directory")
	detectCmd.Flags().BoolVar(&opts.persist, "persist", false, "store the run in PostgreSQL (database.url)")

	return detectCmd
}

// runDetect contains the testable core of the detect command.
func runDetect(ctx context.Context, cmd *cobra.Command, logger *zap.Logger, cfg *config.Config, target string, opts detectOptions) error {
	var (
		capturer capture.Capturer
		widths   []int
	)

	fixtureDir := opts.fixtures
	if fixtureDir == "" && isDir(target) {
		fixtureDir = target
	}
	if fixtureDir != "" {
		fx := capture.Fixtures{Dir: expandPath(fixtureDir)}
		capturer = fx
		// Explicit width flags win over whatever the directory holds.
		if !cmd.Flags().Changed("min") && !cmd.Flags().Changed("max") {
			recorded, err := fx.Widths()
			if err != nil {
				return err
			}
			if len(recorded) == 0 {
				return fmt.Errorf("no snapshot fixtures in %s", fixtureDir)
			}
			widths = recorded
		}
		logger.Info("Replaying fixtures.", zap.String("dir", fixtureDir))
	} else {
		chrome := newChrome(ctx, target, cfg.Browser(), logger)
		defer chrome.Close()
		capturer = chrome
	}

	if opts.record != "" {
		capturer = capture.Recorder{Source: capturer, Dir: expandPath(opts.record), Logger: logger}
	}

	var runStore engine.Store
	if opts.persist {
		st, cleanup, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()
		runStore = st
	}

	eng := engine.New(cfg, logger, runStore)
	var (
		res *engine.Result
		err error
	)
	if widths != nil {
		res, err = eng.RunWidths(ctx, target, capturer, widths)
	} else {
		res, err = eng.Run(ctx, target, capturer)
	}
	if err != nil && res == nil {
		return err
	}
	persistErr := err

	out := cfg.Output()
	if out.Dir != "" && len(out.Formats) > 0 {
		paths, err := reporting.WriteAll(expandPath(out.Dir), out.Formats, res)
		if err != nil {
			return err
		}
		for _, p := range paths {
			logger.Info("Report written.", zap.String("path", p))
		}
	}
	if out.Table {
		printSummary(cmd.OutOrStdout(), res)
	}
	if persistErr != nil {
		return persistErr
	}
	if opts.persist {
		fmt.Fprintf(cmd.OutOrStdout(), "Run ID: %s\n", res.ID)
	}
	return nil
}

func printSummary(w io.Writer, res *engine.Result) {
	if len(res.Failures) == 0 {
		fmt.Fprintf(w, "No layout failures found in %s (%d widths).\n", res.Webpage, len(res.Widths))
		return
	}
	reporting.RenderTable(w, res)
}

func newChrome(ctx context.Context, url string, b config.BrowserConfig, logger *zap.Logger) *capture.Chrome {
	return capture.NewChrome(ctx, url, capture.ChromeOptions{
		Headless: b.Headless,
		ExecPath: b.ExecPath,
		Args:     b.Args,
		Height:   b.ViewportHeight,
		Settle:   b.SettleTime,
		Timeout:  b.CaptureTimeout,
	}, logger)
}

// openStore connects to database.url and makes sure the schema exists.
func openStore(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*store.Store, func(), error) {
	if cfg.Database().URL == "" {
		return nil, nil, errors.New("database URL is not configured (RLFSCAN_DATABASE_URL)")
	}
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, cfg.Database().URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	st, err := store.New(connectCtx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to initialize store service: %w", err)
	}
	if err := st.EnsureSchema(connectCtx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	cleanup := func() {
		pool.Close()
		logger.Debug("Database connection pool closed.")
	}
	return st, cleanup, nil
}
