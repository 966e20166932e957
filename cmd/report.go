// File: cmd/report.go
package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rlfscan/internal/config"
	"github.com/xkilldash9x/rlfscan/internal/engine"
	"github.com/xkilldash9x/rlfscan/internal/observability"
	"github.com/xkilldash9x/rlfscan/internal/reporting"
)

// RunLoader loads a persisted run.
type RunLoader interface {
	GetRun(ctx context.Context, id uuid.UUID) (*engine.Result, error)
}

// storeProvider creates the run loader for the report command, so tests can
// inject a fake instead of a live database.
type storeProvider interface {
	Create(ctx context.Context, cfg config.Interface) (RunLoader, func(), error)
}

type defaultStoreProvider struct{}

// NewStoreProvider returns the PostgreSQL backed provider.
func NewStoreProvider() storeProvider {
	return &defaultStoreProvider{}
}

func (p *defaultStoreProvider) Create(ctx context.Context, cfg config.Interface) (RunLoader, func(), error) {
	st, cleanup, err := openStore(ctx, cfg, observability.GetLogger())
	if err != nil {
		return nil, nil, err
	}
	return st, cleanup, nil
}

func newReportCmd(provider storeProvider) *cobra.Command {
	var (
		runID      string
		outputPath string
		format     string
	)

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Write the report of a persisted run",
		Long:  `Loads the failures of a run stored with "detect --persist" and writes them as CSV or JSON.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if outputPath == "" {
				outputPath = "stdout"
			}
			return runReport(ctx, observability.GetLogger(), cfg, runID, outputPath, format, provider)
		},
	}

	reportCmd.Flags().StringVar(&runID, "run-id", "", "ID of the run to report (required)")
	_ = reportCmd.MarkFlagRequired("run-id")
	reportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file path (default stdout)")
	reportCmd.Flags().StringVarP(&format, "format", "f", "csv", "report format: csv or json")
	return reportCmd
}

// runReport contains the core, testable logic for generating a report.
func runReport(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.Interface,
	runID, outputPath, format string,
	provider storeProvider,
) error {
	id, err := uuid.Parse(runID)
	if err != nil {
		return fmt.Errorf("invalid run ID %q: %w", runID, err)
	}
	if format == "text" {
		return fmt.Errorf("the text format needs the graph, which is not persisted; use csv or json")
	}

	loader, cleanup, err := provider.Create(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	res, err := loader.GetRun(ctx, id)
	if err != nil {
		return err
	}

	reporter, err := reporting.New(format, outputPath)
	if err != nil {
		return fmt.Errorf("failed to initialize reporter: %w", err)
	}
	if err := reporter.Write(res); err != nil {
		reporter.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := reporter.Close(); err != nil {
		return fmt.Errorf("failed to finalize report: %w", err)
	}
	logger.Info("Report written.", zap.String("run_id", runID), zap.String("output", outputPath), zap.Int("failures", len(res.Failures)))
	return nil
}
