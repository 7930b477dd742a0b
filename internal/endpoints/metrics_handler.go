package endpoints

import (
	"net/http"

	"go.uber.org/zap"

	"btc-metrics/internal/domain"
	"btc-metrics/internal/util"
)

// Metrics serves the latest cached value of each metric. It never fails: before
// the first tick every metric reads as an empty string.
type Metrics struct {
	logger *util.Logger
	cache  domain.MetricReader
}

func (m *Metrics) Init(cache domain.MetricReader, webSlogger *util.Logger) {
	m.cache = cache
	m.logger = webSlogger
}

func (m *Metrics) GetMempoolSizeHandler(w http.ResponseWriter, r *http.Request) {
	m.writeMetric(w, domain.MempoolSize)
}

func (m *Metrics) GetBlockHeightHandler(w http.ResponseWriter, r *http.Request) {
	m.writeMetric(w, domain.BlockHeight)
}

func (m *Metrics) GetTotalCirculatingBitcoinHandler(w http.ResponseWriter, r *http.Request) {
	m.writeMetric(w, domain.TotalCirculatingBitcoin)
}

func (m *Metrics) GetMarketPriceHandler(w http.ResponseWriter, r *http.Request) {
	m.writeMetric(w, domain.MarketPrice)
}

func (m *Metrics) GetAverageBlockSizeHandler(w http.ResponseWriter, r *http.Request) {
	m.writeMetric(w, domain.AverageBlockSize)
}

// Handlers maps each metric to its handler, for route registration.
func (m *Metrics) Handlers() map[domain.MetricName]http.HandlerFunc {
	return map[domain.MetricName]http.HandlerFunc{
		domain.MempoolSize:             m.GetMempoolSizeHandler,
		domain.BlockHeight:             m.GetBlockHeightHandler,
		domain.TotalCirculatingBitcoin: m.GetTotalCirculatingBitcoinHandler,
		domain.MarketPrice:             m.GetMarketPriceHandler,
		domain.AverageBlockSize:        m.GetAverageBlockSizeHandler,
	}
}

func (m *Metrics) writeMetric(w http.ResponseWriter, name domain.MetricName) {
	value := m.cache.Get(name)
	m.logger.Debug("metric served", zap.String("metric", string(name)), zap.Int("bytes", len(value)))
	WriteTextResponse(w, value)
}
