package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"btc-metrics/internal/domain"
)

const DefaultBaseURL = "https://blockchain.info"

type source struct {
	path  string
	label string
}

var sources = map[domain.MetricName]source{
	domain.MempoolSize:             {path: "/q/unconfirmedcount", label: "mempool size"},
	domain.BlockHeight:             {path: "/q/getblockcount", label: "block height"},
	domain.TotalCirculatingBitcoin: {path: "/q/totalbc", label: "total circulating bitcoin"},
	domain.MarketPrice:             {path: "/ticker", label: "market price"},
	domain.AverageBlockSize:        {path: "/q/24hravgblocksize", label: "average block size"},
}

// BlockchainFetcher reads metrics from the blockchain.info query API. Every
// failure is returned as data in the FetchResult; Fetch never panics.
type BlockchainFetcher struct {
	baseURL string
	client  *http.Client
}

func NewBlockchainFetcher(baseURL string, timeout time.Duration) *BlockchainFetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &BlockchainFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (f *BlockchainFetcher) Fetch(ctx context.Context, name domain.MetricName) domain.FetchResult {
	src, ok := sources[name]
	if !ok {
		return domain.Failure(fmt.Errorf("%w: unknown metric %q", domain.ErrDecode, name))
	}

	body, err := f.get(ctx, src)
	if err != nil {
		return domain.Failure(err)
	}

	if name == domain.MarketPrice {
		price, err := extractUSDLast(body)
		if err != nil {
			return domain.Failure(fmt.Errorf("%w fetching %s: %v", domain.ErrDecode, src.label, err))
		}
		return domain.Success(price)
	}

	return domain.Success(strings.TrimSpace(string(body)))
}

func (f *BlockchainFetcher) get(ctx context.Context, src source) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+src.path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w fetching %s: %v", domain.ErrTransport, src.label, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w fetching %s: %v", domain.ErrTransport, src.label, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w fetching %s: status %s", domain.ErrRemoteStatus, src.label, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w fetching %s: reading body: %v", domain.ErrDecode, src.label, err)
	}
	return body, nil
}

type tickerEntry struct {
	Last json.RawMessage `json:"last"`
}

// extractUSDLast pulls USD.last out of a /ticker payload. The field is kept as
// text: a JSON string yields its contents, a JSON number its literal digits.
func extractUSDLast(body []byte) (string, error) {
	var ticker map[string]tickerEntry
	if err := json.Unmarshal(body, &ticker); err != nil {
		return "", fmt.Errorf("invalid ticker payload: %v", err)
	}

	usd, ok := ticker["USD"]
	if !ok || len(usd.Last) == 0 || string(usd.Last) == "null" {
		return "", fmt.Errorf("missing USD.last")
	}

	var text string
	if err := json.Unmarshal(usd.Last, &text); err == nil {
		return text, nil
	}

	var number json.Number
	if err := json.Unmarshal(usd.Last, &number); err != nil {
		return "", fmt.Errorf("USD.last is neither a string nor a number: %s", usd.Last)
	}
	return number.String(), nil
}
