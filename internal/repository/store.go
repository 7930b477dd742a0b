package repository

import (
	"fmt"

	"btc-metrics/internal/config"
	"btc-metrics/internal/domain"
)

// New returns an uninitialized store for the configured backend.
func New(cfg config.StorageConfig) (domain.ObservationStore, error) {
	switch cfg.Type {
	case config.StorageSQLite:
		return NewSQLiteStore(cfg.SQLitePath), nil
	case config.StoragePostgres:
		return NewPostgresStore(cfg.PostgresDSN), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
