// Command report writes REPORT.md and runs.csv for the completed runs
// matching a filter.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/steveuk2021/thescammershort/internal/config"
	"github.com/steveuk2021/thescammershort/internal/logging"
	"github.com/steveuk2021/thescammershort/internal/metrics"
	"github.com/steveuk2021/thescammershort/internal/reporting"
	"github.com/steveuk2021/thescammershort/internal/storage/backend"
)

var (
	configPath string
	envFile    string
	outputDir  string
	useMemory  bool
	timeout    time.Duration
	params     metrics.FilterParams
)

var rootCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a Markdown and CSV report over completed runs",
	Long: `Selects completed runs by mode, strategy tag and start date, then
writes REPORT.md (aggregate and per-run table) and runs.csv to the output
directory.

Example usage:
  report --use-memory --output-dir out
  report --config config.yaml --mode live --strategy trail_5 --from 2025-01-01`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&configPath, "config", "", "Path to YAML or JSON config file")
	f.StringVar(&envFile, "env-file", ".env", "Load variables from this file when present")
	f.StringVar(&outputDir, "output-dir", "docs", "Output directory for generated files")
	f.BoolVar(&useMemory, "use-memory", false, "Report over in-memory demo runs instead of the database")
	f.DurationVar(&timeout, "timeout", 2*time.Minute, "Overall timeout")
	f.StringVar(&params.Mode, "mode", "", "Run mode: paper or live")
	f.StringVar(&params.StrategyTag, "strategy", "", "Strategy tag (case-insensitive)")
	f.StringVar(&params.DateFrom, "from", "", "Earliest start (RFC 3339 or YYYY-MM-DD, inclusive)")
	f.StringVar(&params.DateTo, "to", "", "Latest start (RFC 3339 or YYYY-MM-DD, inclusive)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	filter, err := metrics.ParseFilter(params)
	if err != nil {
		return err
	}

	config.LoadEnvFile(envFile)
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("use-memory") {
		cfg.Storage.UseMemory = useMemory
		cfg.Storage.LoadFixtures = useMemory
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	stores, cleanup, err := backend.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("create stores: %w", err)
	}
	defer cleanup()

	svc := reporting.NewService(stores.Runs, stores.Legs, stores.Snapshots).WithLogger(logger)
	report, err := svc.Generate(ctx, filter)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	if err := writeReport(outputDir, report); err != nil {
		return err
	}

	logger.Info("report written",
		zap.String("dir", outputDir),
		zap.Int("runs", len(report.Rows)))
	return nil
}

func writeReport(dir string, report *reporting.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := map[string]string{
		"REPORT.md": reporting.RenderMarkdown(report),
		"runs.csv":  reporting.RenderCSV(report.Rows),
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
