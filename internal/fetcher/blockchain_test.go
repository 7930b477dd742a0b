package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btc-metrics/internal/domain"
)

func newSource(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	for path, h := range routes {
		mux.HandleFunc(path, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func text(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}
}

func TestFetch_PlainMetrics(t *testing.T) {
	var calls atomic.Int32
	srv := newSource(t, map[string]http.HandlerFunc{
		"/q/unconfirmedcount": text("4521"),
		"/q/getblockcount": func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			assert.Equal(t, http.MethodGet, r.Method)
			w.Write([]byte("870000\n"))
		},
		"/q/totalbc":          text("1978156250000000"),
		"/q/24hravgblocksize": text("1573215.42"),
	})

	f := NewBlockchainFetcher(srv.URL, time.Second)
	ctx := context.Background()

	assert.Equal(t, domain.Success("4521"), f.Fetch(ctx, domain.MempoolSize))
	assert.Equal(t, domain.Success("870000"), f.Fetch(ctx, domain.BlockHeight))
	assert.Equal(t, domain.Success("1978156250000000"), f.Fetch(ctx, domain.TotalCirculatingBitcoin))
	assert.Equal(t, domain.Success("1573215.42"), f.Fetch(ctx, domain.AverageBlockSize))
	assert.Equal(t, int32(1), calls.Load(), "one outbound call per fetch")
}

func TestFetch_MarketPrice(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    string
		wantErr error
	}{
		{name: "string field", payload: `{"USD":{"last":"97000.12"}}`, want: "97000.12"},
		{name: "numeric field", payload: `{"USD":{"15m":97001.5,"last":97000.12,"symbol":"$"},"EUR":{"last":89000}}`, want: "97000.12"},
		{name: "empty object", payload: `{}`, wantErr: domain.ErrDecode},
		{name: "missing last", payload: `{"USD":{"buy":1}}`, wantErr: domain.ErrDecode},
		{name: "null last", payload: `{"USD":{"last":null}}`, wantErr: domain.ErrDecode},
		{name: "object last", payload: `{"USD":{"last":{"v":1}}}`, wantErr: domain.ErrDecode},
		{name: "invalid json", payload: `<html>oops</html>`, wantErr: domain.ErrDecode},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newSource(t, map[string]http.HandlerFunc{"/ticker": text(tc.payload)})
			res := NewBlockchainFetcher(srv.URL, time.Second).Fetch(context.Background(), domain.MarketPrice)

			if tc.wantErr != nil {
				require.True(t, res.Failed())
				assert.True(t, errors.Is(res.Err, tc.wantErr))
				assert.Contains(t, res.Text(), "decode error fetching market price")
				return
			}
			require.False(t, res.Failed(), res.Text())
			assert.Equal(t, tc.want, res.Value)
		})
	}
}

func TestFetch_FailureKinds(t *testing.T) {
	srv := newSource(t, map[string]http.HandlerFunc{
		"/q/getblockcount": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
	})

	res := NewBlockchainFetcher(srv.URL, time.Second).Fetch(context.Background(), domain.BlockHeight)
	require.True(t, res.Failed())
	assert.ErrorIs(t, res.Err, domain.ErrRemoteStatus)
	assert.Contains(t, res.Text(), "remote error fetching block height")
	assert.Contains(t, res.Text(), "503")

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	res = NewBlockchainFetcher(closedURL, time.Second).Fetch(context.Background(), domain.MempoolSize)
	require.True(t, res.Failed())
	assert.ErrorIs(t, res.Err, domain.ErrTransport)
	assert.Contains(t, res.Text(), "transport error fetching mempool size")

	res = NewBlockchainFetcher(srv.URL, time.Second).Fetch(context.Background(), domain.MetricName("hashrate"))
	assert.True(t, res.Failed())
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := newSource(t, map[string]http.HandlerFunc{
		"/q/totalbc": func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		},
	})
	defer close(release)

	res := NewBlockchainFetcher(srv.URL, 50*time.Millisecond).Fetch(context.Background(), domain.TotalCirculatingBitcoin)
	require.True(t, res.Failed())
	assert.ErrorIs(t, res.Err, domain.ErrTransport)
}
