package domain

import (
	"context"
	"fmt"
	"time"
)

type MetricName string

const (
	MempoolSize             MetricName = "mempool_size"
	BlockHeight             MetricName = "block_height"
	TotalCirculatingBitcoin MetricName = "total_circulating_bitcoin"
	MarketPrice             MetricName = "market_price"
	AverageBlockSize        MetricName = "average_block_size"
)

// AllMetrics returns the closed set of metric names in snapshot column order.
func AllMetrics() []MetricName {
	return []MetricName{MempoolSize, BlockHeight, TotalCirculatingBitcoin, MarketPrice, AverageBlockSize}
}

func ParseMetricName(s string) (MetricName, error) {
	for _, m := range AllMetrics() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// Snapshot is one complete set of metric values captured at a single tick.
// It is passed by value and never mutated after it leaves the refresher.
type Snapshot struct {
	MempoolSize             string `json:"mempool_size"`
	BlockHeight             string `json:"block_height"`
	TotalCirculatingBitcoin string `json:"total_circulating_bitcoin"`
	MarketPrice             string `json:"market_price"`
	AverageBlockSize        string `json:"average_block_size"`
}

func (s Snapshot) Value(name MetricName) string {
	switch name {
	case MempoolSize:
		return s.MempoolSize
	case BlockHeight:
		return s.BlockHeight
	case TotalCirculatingBitcoin:
		return s.TotalCirculatingBitcoin
	case MarketPrice:
		return s.MarketPrice
	case AverageBlockSize:
		return s.AverageBlockSize
	}
	return ""
}

// With returns a copy of s with the named metric set to value.
func (s Snapshot) With(name MetricName, value string) Snapshot {
	switch name {
	case MempoolSize:
		s.MempoolSize = value
	case BlockHeight:
		s.BlockHeight = value
	case TotalCirculatingBitcoin:
		s.TotalCirculatingBitcoin = value
	case MarketPrice:
		s.MarketPrice = value
	case AverageBlockSize:
		s.AverageBlockSize = value
	}
	return s
}

type ObservationRecord struct {
	ID        int64     `json:"id"`
	Snapshot  Snapshot  `json:"snapshot"`
	Timestamp time.Time `json:"timestamp"`
}

type Fetcher interface {
	Fetch(ctx context.Context, name MetricName) FetchResult
}

type MetricReader interface {
	Get(name MetricName) string
}

type ObservationStore interface {
	Init() error
	Append(ctx context.Context, snapshot Snapshot) (ObservationRecord, error)
	GetObservations(ctx context.Context, limit, offset int) ([]ObservationRecord, error)
	Close() error
}
