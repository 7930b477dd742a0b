package refresher

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"btc-metrics/internal/domain"
	"btc-metrics/internal/util"
)

const DefaultInterval = 30 * time.Second

// SnapshotWriter is the write side of the metric cache.
type SnapshotWriter interface {
	Replace(s domain.Snapshot)
}

// FailureHandler decides what a storage failure means. A non-nil return stops Run.
type FailureHandler func(err error) error

// ExitOnStorageFailure stops the refresher and hands the error to the caller.
func ExitOnStorageFailure(err error) error {
	return err
}

// ContinueOnStorageFailure logs the failure and keeps ticking. The snapshot is
// still in the cache; only its history row is lost.
func ContinueOnStorageFailure(logger *util.Logger) FailureHandler {
	return func(err error) error {
		logger.Error("observation not persisted, continuing", zap.Error(err))
		return nil
	}
}

type Refresher struct {
	fetcher   domain.Fetcher
	cache     SnapshotWriter
	store     domain.ObservationStore
	logger    *util.Logger
	interval  time.Duration
	onFailure FailureHandler
}

func New(fetcher domain.Fetcher, cache SnapshotWriter, store domain.ObservationStore, logger *util.Logger, interval time.Duration, onFailure FailureHandler) *Refresher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if onFailure == nil {
		onFailure = ExitOnStorageFailure
	}
	return &Refresher{
		fetcher:   fetcher,
		cache:     cache,
		store:     store,
		logger:    logger,
		interval:  interval,
		onFailure: onFailure,
	}
}

// Run ticks once immediately and then interval after each tick completes, so
// ticks never overlap. It returns nil when ctx is cancelled, or the error the
// FailureHandler chose to propagate.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("refresher started", zap.Duration("interval", r.interval))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopped")
			return nil
		case <-timer.C:
			if _, err := r.Tick(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				if err := r.onFailure(err); err != nil {
					return err
				}
			}
			timer.Reset(r.interval)
		}
	}
}

// Tick fetches every metric, replaces the cache with the assembled snapshot and
// appends it to the store. A tick interrupted by ctx commits nothing.
func (r *Refresher) Tick(ctx context.Context) (domain.ObservationRecord, error) {
	start := time.Now()

	snapshot := r.collect(ctx)
	if err := ctx.Err(); err != nil {
		return domain.ObservationRecord{}, err
	}
	r.cache.Replace(snapshot)

	record, err := r.store.Append(ctx, snapshot)
	if err != nil {
		r.logger.Error("failed to persist observation", zap.Error(err))
		return domain.ObservationRecord{}, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}

	r.logger.Debug("tick committed",
		zap.Int64("id", record.ID),
		zap.Duration("took", time.Since(start)))
	return record, nil
}

func (r *Refresher) collect(ctx context.Context) domain.Snapshot {
	metrics := domain.AllMetrics()
	results := make([]domain.FetchResult, len(metrics))

	var g errgroup.Group
	for i, m := range metrics {
		g.Go(func() error {
			results[i] = r.fetcher.Fetch(ctx, m)
			return nil
		})
	}
	_ = g.Wait()

	var snapshot domain.Snapshot
	for i, m := range metrics {
		if results[i].Failed() {
			r.logger.Warn("fetch failed", zap.String("metric", string(m)), zap.Error(results[i].Err))
		}
		snapshot = snapshot.With(m, results[i].Text())
	}
	return snapshot
}
