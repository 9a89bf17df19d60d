package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"stakingScope/internal/config"
	"stakingScope/internal/metrics"
	"stakingScope/internal/price"
	"stakingScope/internal/reconcile"
	"stakingScope/internal/storage"
	"stakingScope/internal/storage/postgres"
	"stakingScope/internal/subscan"
)

func main() {
	root := &cobra.Command{
		Use:          "reconciler",
		Short:        "Substrate staking operation reconciler",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the reconciliation pipeline",
		RunE:  runReconciler,
	}

	runCmd.Flags().String("network", "alephzero", "explorer network name")
	runCmd.Flags().String("api-key", "", "explorer API key")
	runCmd.Flags().Int("rows", 10, "rows per extrinsics query")
	runCmd.Flags().Int("concurrency", 8, "fan-out width (0 = unbounded)")
	runCmd.Flags().Duration("retry-delay", time.Second, "delay between busy retries")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN (empty = in-memory store)")
	runCmd.Flags().String("out", "", "optional JSONL export path")
	runCmd.Flags().String("base-token", "AZERO", "priced token symbol")
	runCmd.Flags().String("quote-token", "USDT", "quote currency symbol")
	runCmd.Flags().Duration("interval", 0, "rerun period (0 = single pass)")
	runCmd.Flags().String("metrics-addr", "", "Prometheus listen address")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runReconciler(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.APIKey == "" {
		return fmt.Errorf("api key is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.Init()
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	client := subscan.NewClient(subscan.Config{
		Network: cfg.Network,
		APIKey:  cfg.APIKey,
		Retry:   subscan.RetryPolicy{Delay: cfg.RetryDelay},
	}, nil, logger, m)

	var operations storage.OperationStore
	var validators storage.ValidatorStore
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.Init(ctx); err != nil {
			return err
		}
		operations, validators = store, store
	} else {
		logger.Warn("no pg-dsn configured, dedup state will not survive restarts")
		mem := storage.NewMemoryStore()
		operations, validators = mem, mem
	}

	pipeline := reconcile.NewPipeline(reconcile.Config{
		Rows:        cfg.Rows,
		Concurrency: cfg.Concurrency,
		BaseToken:   cfg.BaseToken,
		QuoteToken:  cfg.QuoteToken,
	}, client, operations, validators, price.NewClient(client), logger, m)

	logger.Info("reconciler start",
		zap.String("network", cfg.Network),
		zap.Int("rows", cfg.Rows),
		zap.Int("concurrency", cfg.Concurrency),
		zap.Duration("interval", cfg.Interval),
		zap.Bool("postgres", cfg.PGDSN != ""),
	)

	runOnce := func() error {
		ops, err := pipeline.Run(ctx)
		if err != nil {
			return err
		}
		if cfg.Out != "" {
			if err := storage.NewJSONLExporter(cfg.Out).Append(ops); err != nil {
				return fmt.Errorf("export operations: %w", err)
			}
		}
		return nil
	}

	if cfg.Interval <= 0 {
		return runOnce()
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		if err := runOnce(); err != nil {
			logger.Error("reconciliation run failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
