package loadtest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/launchpad/api"
)

func TestLoadTestAgainstServer(t *testing.T) {
	svc, err := api.NewService(api.DefaultServiceConfig(), log.NewNopLogger(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	cfg := api.DefaultConfig()
	cfg.DisableRateLimit = true
	srv := api.NewServer(cfg, svc, log.NewNopLogger(), nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx, 20*time.Millisecond)

	lt := New(&Config{
		BaseURL:     ts.URL,
		Concurrency: 4,
		Duration:    300 * time.Millisecond,
		Pools:       2,
		TraderCount: 5,
		FactoryID:   "loadtest",
		QuoteAsset:  "uatom",
		Seed:        7,
	})
	summary, err := lt.Run(ctx)
	require.NoError(t, err)
	require.Len(t, lt.Pools(), 2)
	require.Positive(t, summary.TotalRequests)
	require.Positive(t, summary.StatusCodes[http.StatusOK])
	require.Equal(t, summary.TotalRequests, summary.SuccessRequests+summary.FailedRequests)
}

func TestLoadTestFailsWithoutServer(t *testing.T) {
	lt := New(&Config{BaseURL: "http://127.0.0.1:1", Concurrency: 1, Duration: time.Millisecond, Pools: 1})
	_, err := lt.Run(context.Background())
	require.Error(t, err)
}

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond, 4 * time.Millisecond}
	require.Equal(t, 3.0, percentileMs(sorted, 0.5))
	require.Equal(t, 4.0, percentileMs(sorted, 0.99))
	require.Zero(t, percentileMs(nil, 0.5))
}

func TestTraderAddressIsStable(t *testing.T) {
	require.Equal(t, traderAddress("w1", 3), traderAddress("w1", 3))
	require.NotEqual(t, traderAddress("w1", 3), traderAddress("w2", 3))
}
