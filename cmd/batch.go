package main

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/xbrl-fetch/internal/edgar"
	"github.com/sells-group/xbrl-fetch/internal/model"
	"github.com/sells-group/xbrl-fetch/internal/monitoring"
	"github.com/sells-group/xbrl-fetch/internal/pipeline"
	"github.com/sells-group/xbrl-fetch/internal/resilience"
)

var (
	batchReport         string
	batchFormat         string
	batchRetryList      string
	batchRetryableOnly  bool
	batchMetricsAddr    string
	batchConcurrency    int
	batchPerCompanyDirs bool
	batchLimit          int
)

var batchCmd = &cobra.Command{
	Use:   "batch <companies-file>",
	Short: "Resolve, list, and download filings for every company in a list",
	Long:  "Reads a company list (text lines of CIK, ticker, or name:cik, or the JSON produced by the companies command) and downloads the XBRL attachments of each company's matching filings.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cmd.Flags().Changed("concurrency") {
			cfg.Batch.MaxConcurrentCompanies = batchConcurrency
		}
		if cmd.Flags().Changed("per-company-dirs") {
			cfg.Download.PerCompanyDirs = batchPerCompanyDirs
		}
		if batchMetricsAddr != "" {
			cfg.Metrics.Addr = batchMetricsAddr
		}
		if batchRetryList != "" {
			cfg.Batch.RetryList = batchRetryList
		}

		entries, err := edgar.LoadCompanies(args[0])
		if err != nil {
			return err
		}
		if batchLimit > 0 && len(entries) > batchLimit {
			entries = entries[:batchLimit]
		}

		env, err := initPipeline(ctx, cfg, "batch")
		if err != nil {
			return err
		}

		if cfg.Metrics.Addr != "" {
			go func() {
				if err := monitoring.Serve(ctx, cfg.Metrics.Addr, env.Registry); err != nil {
					zap.L().Error("metrics endpoint failed", zap.Error(err))
				}
			}()
		}

		report, letters, runErr := env.Pipeline.RunBatch(ctx, entries)

		if err := writeBatchReport(cmd.OutOrStdout(), report); err != nil {
			return err
		}
		if cfg.Batch.RetryList != "" {
			if err := writeRetryFile(cfg.Batch.RetryList, letters); err != nil {
				return err
			}
		}
		if runErr != nil {
			return runErr
		}
		if report.Failed > 0 {
			zap.L().Warn("batch finished with failures", zap.Int("failed", report.Failed))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchReport, "report", "", "write the batch report to this file instead of stdout")
	batchCmd.Flags().StringVar(&batchFormat, "format", pipeline.FormatText, "report format: text, json, or yaml")
	batchCmd.Flags().StringVar(&batchRetryList, "retry-list", "", "write failed companies to this file in list format (default batch.retry_list)")
	batchCmd.Flags().BoolVar(&batchRetryableOnly, "retryable-only", false, "leave permanent failures out of the retry list")
	batchCmd.Flags().StringVar(&batchMetricsAddr, "metrics-addr", "", "serve /metrics and /health on this address (default metrics.addr)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 4, "companies processed in parallel (default batch.max_concurrent_companies)")
	batchCmd.Flags().BoolVar(&batchPerCompanyDirs, "per-company-dirs", false, "download into <dir>/<cik>/<folder>")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "process at most this many companies (0 = all)")
	rootCmd.AddCommand(batchCmd)
}

// writeBatchReport renders report to --report, or to stdout when unset.
func writeBatchReport(stdout io.Writer, report *model.BatchReport) error {
	if batchReport == "" {
		return pipeline.WriteReport(stdout, report, batchFormat)
	}
	f, err := os.Create(batchReport)
	if err != nil {
		return eris.Wrapf(err, "create report %s", batchReport)
	}
	if err := pipeline.WriteReport(f, report, batchFormat); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "close report %s", batchReport)
	}
	zap.L().Info("wrote batch report", zap.String("path", batchReport), zap.String("format", batchFormat))
	return nil
}

// writeRetryFile writes the dead letters to path. An existing file is
// replaced even when there is nothing to retry so stale entries do not
// survive a clean run.
func writeRetryFile(path string, letters []resilience.DeadLetter) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create retry list %s", path)
	}
	n, err := pipeline.WriteRetryList(f, letters, batchRetryableOnly)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = eris.Wrapf(cerr, "close retry list %s", path)
	}
	if err != nil {
		return err
	}
	zap.L().Info("wrote retry list", zap.String("path", path), zap.Int("companies", n))
	return nil
}
