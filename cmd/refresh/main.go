package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"btc-metrics/internal/cache"
	"btc-metrics/internal/config"
	"btc-metrics/internal/domain"
	"btc-metrics/internal/fetcher"
	"btc-metrics/internal/refresher"
	"btc-metrics/internal/repository"
	"btc-metrics/internal/util"
)

// refresh runs a single tick against the configured store and prints the
// resulting observation as JSON.
func main() {
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
	defer logger.DeInit()

	if cfg.Storage.Type == config.StorageSQLite {
		if err := util.CheckAndCreateLogFolder(filepath.Dir(cfg.Storage.SQLitePath)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	store, err := repository.New(cfg.Storage)
	if err == nil {
		err = store.Init()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize observation store:", err)
		os.Exit(1)
	}

	record, err := refreshOnce(context.Background(), cfg, store, logger)
	store.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Refresh failed:", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(record, "", "  ")
	fmt.Println(string(out))
}

func refreshOnce(ctx context.Context, cfg *config.Config, store domain.ObservationStore, logger *util.Logger) (domain.ObservationRecord, error) {
	source := fetcher.NewBlockchainFetcher(cfg.Refresh.SourceBaseURL, cfg.Refresh.FetchTimeout)
	r := refresher.New(source, cache.New(), store, logger, cfg.Refresh.Interval, refresher.ExitOnStorageFailure)
	return r.Tick(ctx)
}
