// Command server serves the reporting API, the live equity feed and
// Prometheus metrics over the record store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/steveuk2021/thescammershort/internal/api"
	"github.com/steveuk2021/thescammershort/internal/cache"
	"github.com/steveuk2021/thescammershort/internal/config"
	"github.com/steveuk2021/thescammershort/internal/feed"
	"github.com/steveuk2021/thescammershort/internal/logging"
	"github.com/steveuk2021/thescammershort/internal/reporting"
	"github.com/steveuk2021/thescammershort/internal/storage/backend"
)

var (
	configPath   string
	envFile      string
	httpAddr     string
	useMemory    bool
	loadFixtures bool
	migrate      bool
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Equity and drawdown analytics server",
	Long: `Serves run timeseries, summaries, report rows and aggregates over
HTTP, streams live equity frames over WebSocket and exposes /metrics.

Example usage:
  server --use-memory --fixtures          # demo data, no databases
  server --config config.yaml --migrate   # PostgreSQL (+ ClickHouse snapshots)`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&configPath, "config", "", "Path to YAML or JSON config file")
	f.StringVar(&envFile, "env-file", ".env", "Load variables from this file when present")
	f.StringVar(&httpAddr, "http-addr", "", "HTTP listen address (overrides config)")
	f.BoolVar(&useMemory, "use-memory", false, "Use in-memory storage instead of PostgreSQL")
	f.BoolVar(&loadFixtures, "fixtures", false, "Seed in-memory storage with demo runs")
	f.BoolVar(&migrate, "migrate", false, "Apply embedded migrations on startup")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	config.LoadEnvFile(envFile)

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	// Flags win over file and environment.
	flags := cmd.Flags()
	if flags.Changed("http-addr") {
		cfg.HTTP.Addr = httpAddr
	}
	if flags.Changed("use-memory") {
		cfg.Storage.UseMemory = useMemory
	}
	if flags.Changed("fixtures") {
		cfg.Storage.LoadFixtures = loadFixtures
	}
	if flags.Changed("migrate") {
		cfg.Storage.Migrate = migrate
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, cleanup, err := backend.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("create stores: %w", err)
	}
	defer cleanup()

	svc := reporting.NewService(stores.Runs, stores.Legs, stores.Snapshots).WithLogger(logger)

	if cfg.Redis.Addr != "" {
		summaries, client, err := cache.NewRedis(ctx, cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.SummaryTTL,
		})
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer client.Close()
		svc.WithCache(summaries)
		logger.Info("summary cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.SummaryTTL))
	}

	var hub *feed.Hub
	var feedHandler api.FeedHandler
	if cfg.Feed.Enabled {
		feedCfg := feed.DefaultConfig()
		feedCfg.PollInterval = cfg.Feed.PollInterval
		if cfg.Feed.WriteTimeout > 0 {
			feedCfg.WriteTimeout = cfg.Feed.WriteTimeout
		}
		hub = feed.NewHub(stores.Runs, stores.Legs, stores.Snapshots, feedCfg, logger)
		feedHandler = hub
	}

	server := api.NewServer(svc, feedHandler, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(cfg.HTTP.Addr); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	if hub != nil {
		hub.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}
