package cache

import (
	"sync"

	"btc-metrics/internal/domain"
)

// MetricCache holds the latest snapshot. Replace swaps the whole value under the
// write lock, so a reader sees either the previous snapshot or the next one.
type MetricCache struct {
	mu       sync.RWMutex
	snapshot domain.Snapshot
}

func New() *MetricCache {
	return &MetricCache{}
}

func (c *MetricCache) Get(name domain.MetricName) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.Value(name)
}

func (c *MetricCache) Snapshot() domain.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Replace is called only by the refresher, after all fetches for a tick are done.
func (c *MetricCache) Replace(s domain.Snapshot) {
	c.mu.Lock()
	c.snapshot = s
	c.mu.Unlock()
}
