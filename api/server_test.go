package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/launchpad/api/middleware"
	"github.com/openalpha/launchpad/api/types"
	lptypes "github.com/openalpha/launchpad/x/launchpad/types"
)

func newTestServer(t *testing.T, cfg *Config) (*Server, *Service, http.Handler) {
	t.Helper()
	svc := newTestService(t, DefaultServiceConfig())
	if cfg == nil {
		cfg = DefaultConfig()
		cfg.DisableRateLimit = true
	}
	srv := NewServer(cfg, svc, log.NewNopLogger(), nil)
	t.Cleanup(func() { srv.rateLimiter.Stop() })
	return srv, svc, srv.Handler()
}

func do(t *testing.T, h http.Handler, method, target string, body interface{}, trader string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if trader != "" {
		req.Header.Set(middleware.TraderHeader, trader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHTTPLaunchAndTrade(t *testing.T) {
	_, svc, h := newTestServer(t, nil)

	rec := do(t, h, http.MethodPost, "/v1/factories", lptypes.MsgCreateFactory{
		FactoryID:           "pump",
		QuoteAsset:          quoteDenom,
		Shift:               "100000000000",
		InitialRealReserveB: "1000000000000",
		FeeTemplate:         testFees(),
		Decimals:            6,
	}, ownerAddr)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/v1/launch", lptypes.MsgLaunch{FactoryID: "pump", Symbol: "DOGE"}, ownerAddr)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var launch lptypes.MsgLaunchResponse
	decodeBody(t, rec, &launch)
	require.Equal(t, lptypes.LaunchDenom("pump", ownerAddr, "DOGE"), launch.AssetB)
	svc.Commit()

	poolQuery := url.QueryEscape(launch.PoolID)
	rec = do(t, h, http.MethodGet, "/v1/quote?side=buy&amount=1000000000&pool_id="+poolQuery, nil, traderAddr)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var quote types.QuoteResponse
	decodeBody(t, rec, &quote)
	require.Equal(t, uint16(100), quote.FeeBps)

	rec = do(t, h, http.MethodPost, "/v1/swap/buy", lptypes.MsgBuy{PoolID: launch.PoolID, AmountAIn: "1000000000"}, traderAddr)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var buy lptypes.MsgSwapResponse
	decodeBody(t, rec, &buy)
	require.Equal(t, quote.Net, buy.AmountOut)

	rec = do(t, h, http.MethodGet, "/v1/pool?id="+poolQuery, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view types.PoolView
	decodeBody(t, rec, &view)
	require.Equal(t, launch.PoolID, view.PoolID)
	require.Equal(t, "1000000000", view.Pool.RealReserveA.String())

	rec = do(t, h, http.MethodGet, "/v1/history?pool_id="+poolQuery, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Swaps []types.SwapRecord `json:"swaps"`
	}
	decodeBody(t, rec, &history)
	require.Len(t, history.Swaps, 1)
	require.Equal(t, buy.ReceiptID, history.Swaps[0].ReceiptID)

	rec = do(t, h, http.MethodGet, "/v1/leaderboard", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/claims/royalties", lptypes.MsgClaimRoyalties{PoolID: launch.PoolID}, ownerAddr)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/v1/pools?owner="+ownerAddr, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pools types.ListPoolsResponse
	decodeBody(t, rec, &pools)
	require.Equal(t, uint64(1), pools.Total)
}

func TestHTTPErrorMapping(t *testing.T) {
	_, svc, h := newTestServer(t, nil)
	poolID := launchTestPool(t, svc, "DOGE")
	svc.Commit()

	tests := []struct {
		name   string
		method string
		target string
		body   interface{}
		trader string
		status int
	}{
		{"unknown pool", http.MethodGet, "/v1/pool?id=nope", nil, "", http.StatusNotFound},
		{"missing id", http.MethodGet, "/v1/pool", nil, "", http.StatusBadRequest},
		{"bad side", http.MethodGet, "/v1/quote?side=hold&amount=1&pool_id=" + url.QueryEscape(poolID), nil, "", http.StatusBadRequest},
		{"bad amount", http.MethodGet, "/v1/quote?side=buy&amount=-1&pool_id=" + url.QueryEscape(poolID), nil, "", http.StatusBadRequest},
		{"wrong method", http.MethodGet, "/v1/swap/buy", nil, "", http.StatusMethodNotAllowed},
		{"bad json", http.MethodPost, "/v1/swap/sell", "not an object", traderAddr, http.StatusBadRequest},
		{"not the owner", http.MethodPost, "/v1/pools/enabled", lptypes.MsgSetPoolEnabled{PoolID: poolID}, traderAddr, http.StatusForbidden},
		{"illegal claimant", http.MethodPost, "/v1/claims/protocol", lptypes.MsgClaimProtocolFees{PoolID: poolID}, traderAddr, http.StatusForbidden},
		{"slippage", http.MethodPost, "/v1/swap/buy", lptypes.MsgBuy{PoolID: poolID, AmountAIn: "1000", MinAmountBOut: "1000000000000"}, traderAddr, http.StatusUnprocessableEntity},
		{"duplicate factory", http.MethodPost, "/v1/factories", lptypes.MsgCreateFactory{
			FactoryID: "pump", QuoteAsset: quoteDenom, Shift: "100000000000", InitialRealReserveB: "1000000000000", FeeTemplate: testFees(),
		}, ownerAddr, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.target, tt.body, tt.trader)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestHTTPHealthAndCORS(t *testing.T) {
	_, _, h := newTestServer(t, nil)

	rec := do(t, h, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, h, http.MethodOptions, "/v1/swap/buy", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/status", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status types.Status
	decodeBody(t, rec, &status)
	require.Equal(t, uint64(1), status.Tick)
}

func TestHTTPWriteRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit.WritesPerSecond = 0.001
	cfg.RateLimit.WriteBurst = 1
	_, svc, h := newTestServer(t, cfg)
	poolID := launchTestPool(t, svc, "DOGE")
	svc.Commit()

	msg := lptypes.MsgBuy{PoolID: poolID, AmountAIn: "1000"}
	rec := do(t, h, http.MethodPost, "/v1/swap/buy", msg, traderAddr)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/v1/swap/buy", msg, traderAddr)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// reads are not charged against the write budget
	rec = do(t, h, http.MethodGet, "/v1/pool?id="+url.QueryEscape(poolID), nil, traderAddr)
	require.Equal(t, http.StatusOK, rec.Code)
}
