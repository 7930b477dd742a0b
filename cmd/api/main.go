package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"btc-metrics/internal/cache"
	"btc-metrics/internal/config"
	"btc-metrics/internal/fetcher"
	"btc-metrics/internal/refresher"
	"btc-metrics/internal/repository"
	"btc-metrics/internal/router"
	"btc-metrics/internal/util"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load config:", err)
		os.Exit(1)
	}

	logger, err := util.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "\n%s: btc-metrics started \n", time.Now().Format(time.RFC3339))

	err = run(ctx, cfg, logger)
	if err != nil {
		logger.Error("service stopped", zap.Error(err))
	}
	logger.DeInit()

	if err != nil {
		os.Exit(1)
	}
}

// run is the supervisor: the refresher and the HTTP server share one lifetime,
// and a storage failure the refresher propagates takes the whole process down.
func run(ctx context.Context, cfg *config.Config, logger *util.Logger) error {
	if cfg.Storage.Type == config.StorageSQLite {
		if err := util.CheckAndCreateLogFolder(filepath.Dir(cfg.Storage.SQLitePath)); err != nil {
			return err
		}
	}

	store, err := repository.New(cfg.Storage)
	if err != nil {
		return err
	}
	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to initialize observation store: %w", err)
	}
	defer store.Close()

	onFailure := refresher.ExitOnStorageFailure
	if cfg.Storage.FailurePolicy == config.FailurePolicyContinue {
		onFailure = refresher.ContinueOnStorageFailure(logger)
	}

	metricCache := cache.New()
	source := fetcher.NewBlockchainFetcher(cfg.Refresh.SourceBaseURL, cfg.Refresh.FetchTimeout)
	r := refresher.New(source, metricCache, store, logger, cfg.Refresh.Interval, onFailure)

	server := router.NewServer(cfg.Server.Addr(), router.NewRouter(metricCache, cfg.RateLimit, logger))

	logger.Info("service started",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("storage", cfg.Storage.Type),
		zap.String("storage_failure_policy", cfg.Storage.FailurePolicy))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.Run(gctx)
	})
	g.Go(func() error {
		return router.Run(gctx, server, logger)
	})
	return g.Wait()
}
