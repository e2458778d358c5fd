package cli

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/raaihank/bias-auditor/internal/audit"
	"github.com/raaihank/bias-auditor/internal/batch"
	"github.com/raaihank/bias-auditor/internal/bias"
	"github.com/raaihank/bias-auditor/internal/config"
	"github.com/raaihank/bias-auditor/internal/extract"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type batchOptions struct {
	output       string
	workers      int
	timeout      time.Duration
	fileTimeout  time.Duration
	progressStep int
}

func newBatchCommand(opts *options) *cobra.Command {
	bo := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch <file-or-dir>...",
		Short: "Scan many documents in parallel and export the results",
		Long: `Batch walks the given files and directories, scans every supported
document with a pool of workers and writes one row per document.

The output format follows the file extension: .parquet, .jsonl/.json or .csv.

Example:
  auditor batch ./papers --out results.parquet
  auditor batch a.pdf b.pdf ./notes --workers 8 --out results.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, bo, args)
		},
	}

	cmd.Flags().StringVarP(&bo.output, "out", "o", "bias-report.csv", "output file (.parquet, .jsonl or .csv)")
	cmd.Flags().IntVar(&bo.workers, "workers", runtime.NumCPU(), "number of concurrent workers")
	cmd.Flags().DurationVar(&bo.timeout, "timeout", 30*time.Minute, "total timeout for the batch")
	cmd.Flags().DurationVar(&bo.fileTimeout, "file-timeout", 2*time.Minute, "timeout for a single document")
	cmd.Flags().IntVar(&bo.progressStep, "progress-every", 100, "log progress after this many documents")
	return cmd
}

func runBatch(cmd *cobra.Command, opts *options, bo *batchOptions, paths []string) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	dict, err := cfg.Scanner.Dictionary()
	if err != nil {
		return err
	}
	scanner, err := bias.NewScanner(dict)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	registry := extract.NewRegistry()
	files, err := batch.Collect(paths, registry.Supports)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no supported documents found (formats: %v)", registry.Extensions())
	}

	service := audit.New(audit.Options{
		Scanner:   scanner,
		Extractor: registry,
	})
	pipeline := batch.NewPipeline(service, batch.Config{
		Workers:        bo.workers,
		FileTimeout:    bo.fileTimeout,
		ProgressReport: bo.progressStep,
	}, log.WithComponent("batch").Logger)

	ctx, cancel := context.WithTimeout(cmd.Context(), bo.timeout)
	defer cancel()

	records, result := pipeline.Run(ctx, files)

	if err := batch.WriteFile(bo.output, records); err != nil {
		return err
	}
	log.Info("Batch results written", zap.String("output", bo.output), zap.Int("rows", len(records)))

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "  Documents: %d\n", result.TotalFiles)
	fmt.Fprintf(out, "  Scanned:   %d\n", result.ScannedOK)
	fmt.Fprintf(out, "  Flagged:   %d\n", result.Flagged)
	fmt.Fprintf(out, "  Failed:    %d\n", result.Failed)
	fmt.Fprintf(out, "  Duration:  %s\n", result.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "  Output:    %s\n", bo.output)
	for _, e := range result.Errors {
		fmt.Fprintf(out, "  ✗ %s\n", e)
	}

	if result.Failed > 0 {
		return fmt.Errorf("%d of %d document(s) could not be scanned", result.Failed, result.TotalFiles)
	}
	return nil
}
