// Package loadtest drives swap traffic against a running launchpad API.
package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"

	apitypes "github.com/openalpha/launchpad/api/types"
	lptypes "github.com/openalpha/launchpad/x/launchpad/types"
)

// Operations issued by the workers
const (
	OpBuy   = "buy"
	OpSell  = "sell"
	OpQuote = "quote"
)

// Config describes one load test run
type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	RampUp      time.Duration
	Pools       int // pools launched during setup
	TraderCount int // traders per worker
	FactoryID   string
	QuoteAsset  string
	Seed        int64
}

// DefaultConfig returns a small local run
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "http://localhost:8080",
		Concurrency: 50,
		Duration:    60 * time.Second,
		RampUp:      5 * time.Second,
		Pools:       3,
		TraderCount: 100,
		FactoryID:   "loadtest",
		QuoteAsset:  "uatom",
		Seed:        1,
	}
}

// Results aggregates every request made by the workers
type Results struct {
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	StatusCodes     map[int]int64
	Ops             map[string]int64
	Errors          map[string]int64
	StartTime       time.Time
	EndTime         time.Time

	latencies []time.Duration
	mu        sync.Mutex
}

// Summary is the JSON report of a run
type Summary struct {
	Duration          string           `json:"duration"`
	TotalRequests     int64            `json:"total_requests"`
	SuccessRequests   int64            `json:"success_requests"`
	FailedRequests    int64            `json:"failed_requests"`
	RequestsPerSecond float64          `json:"requests_per_second"`
	P50Ms             float64          `json:"p50_ms"`
	P90Ms             float64          `json:"p90_ms"`
	P99Ms             float64          `json:"p99_ms"`
	MaxMs             float64          `json:"max_ms"`
	StatusCodes       map[int]int64    `json:"status_codes"`
	Ops               map[string]int64 `json:"ops"`
	Errors            map[string]int64 `json:"errors,omitempty"`
}

// LoadTester runs the workers
type LoadTester struct {
	config  *Config
	results *Results
	client  *http.Client
	pools   []string
	wg      sync.WaitGroup
}

// New creates a load tester
func New(config *Config) *LoadTester {
	if config == nil {
		config = DefaultConfig()
	}
	return &LoadTester{
		config: config,
		results: &Results{
			StatusCodes: make(map[int]int64),
			Ops:         make(map[string]int64),
			Errors:      make(map[string]int64),
		},
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        1000,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Pools returns the pools created during setup
func (lt *LoadTester) Pools() []string {
	return lt.pools
}

// Run checks health, launches the pools and drives traffic until the
// configured duration elapses or ctx is cancelled
func (lt *LoadTester) Run(ctx context.Context) (*Summary, error) {
	if err := lt.checkHealth(ctx); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}
	if err := lt.setup(ctx); err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, lt.config.Duration)
	defer cancel()

	lt.results.StartTime = time.Now()
	step := lt.config.RampUp / time.Duration(max(lt.config.Concurrency, 1))
	for i := 0; i < lt.config.Concurrency; i++ {
		lt.wg.Add(1)
		go lt.worker(runCtx, i)
		if step > 0 {
			select {
			case <-time.After(step):
			case <-runCtx.Done():
			}
		}
	}

	<-runCtx.Done()
	lt.wg.Wait()
	lt.results.EndTime = time.Now()
	return lt.Summary(), nil
}

func (lt *LoadTester) checkHealth(ctx context.Context) error {
	var health map[string]interface{}
	status, err := lt.call(ctx, http.MethodGet, "/health", "", nil, &health)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("unhealthy status: %d", status)
	}
	return nil
}

// setup creates the factory if needed, launches the pools and waits one
// block so the launch fee has decayed below its maximum
func (lt *LoadTester) setup(ctx context.Context) error {
	owner := traderAddress("owner", 0)
	factory := lptypes.MsgCreateFactory{
		FactoryID:           lt.config.FactoryID,
		QuoteAsset:          lt.config.QuoteAsset,
		Shift:               "100000000000",
		InitialRealReserveB: "1000000000000",
		FeeTemplate: lptypes.FeeSchedule{
			NormalizationPeriod: 10,
			Decay:               5,
			RoyaltiesBps:        100,
		},
		Decimals: 6,
	}
	status, err := lt.call(ctx, http.MethodPost, "/v1/factories", owner, factory, nil)
	if err != nil {
		return err
	}
	if status != http.StatusCreated && status != http.StatusConflict {
		return fmt.Errorf("create factory: status %d", status)
	}

	var launchTick uint64
	for i := 0; i < lt.config.Pools; i++ {
		var resp lptypes.MsgLaunchResponse
		symbol := fmt.Sprintf("LT%d%d", time.Now().Unix()%100000, i)
		status, err := lt.call(ctx, http.MethodPost, "/v1/launch", owner,
			lptypes.MsgLaunch{FactoryID: lt.config.FactoryID, Symbol: symbol}, &resp)
		if err != nil {
			return err
		}
		if status != http.StatusCreated {
			return fmt.Errorf("launch %s: status %d", symbol, status)
		}
		lt.pools = append(lt.pools, resp.PoolID)
	}
	if len(lt.pools) == 0 {
		return fmt.Errorf("no pools to trade")
	}

	var st apitypes.Status
	if _, err := lt.call(ctx, http.MethodGet, "/v1/status", "", nil, &st); err != nil {
		return err
	}
	launchTick = st.Tick
	for st.Tick <= launchTick {
		select {
		case <-time.After(50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
		if _, err := lt.call(ctx, http.MethodGet, "/v1/status", "", nil, &st); err != nil {
			return err
		}
	}
	return nil
}

func (lt *LoadTester) worker(ctx context.Context, id int) {
	defer lt.wg.Done()

	rng := rand.New(rand.NewSource(lt.config.Seed + int64(id)))
	traders := make([]string, max(lt.config.TraderCount, 1))
	for i := range traders {
		traders[i] = traderAddress(fmt.Sprintf("w%d", id), i)
	}

	for ctx.Err() == nil {
		trader := traders[rng.Intn(len(traders))]
		poolID := lt.pools[rng.Intn(len(lt.pools))]
		amount := fmt.Sprintf("%d", 1_000+rng.Int63n(1_000_000))

		switch p := rng.Float64(); {
		case p < 0.6:
			lt.do(ctx, OpBuy, http.MethodPost, "/v1/swap/buy", trader,
				lptypes.MsgBuy{PoolID: poolID, AmountAIn: amount})
		case p < 0.8:
			lt.do(ctx, OpSell, http.MethodPost, "/v1/swap/sell", trader,
				lptypes.MsgSell{PoolID: poolID, AmountBIn: amount})
		default:
			path := "/v1/quote?side=buy&amount=" + amount + "&pool_id=" + url.QueryEscape(poolID)
			lt.do(ctx, OpQuote, http.MethodGet, path, trader, nil)
		}
	}
}

func (lt *LoadTester) do(ctx context.Context, op, method, path, trader string, body interface{}) {
	start := time.Now()
	status, err := lt.call(ctx, method, path, trader, body, nil)
	latency := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		lt.recordError("network_error")
	}
	lt.record(op, latency, status)
}

func (lt *LoadTester) call(ctx context.Context, method, path, trader string, body, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		bz, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(bz)
	}
	req, err := http.NewRequestWithContext(ctx, method, lt.config.BaseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if trader != "" {
		req.Header.Set("X-Trader-Address", trader)
	}

	resp, err := lt.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < http.StatusMultipleChoices {
		return resp.StatusCode, json.NewDecoder(resp.Body).Decode(out)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (lt *LoadTester) record(op string, latency time.Duration, status int) {
	atomic.AddInt64(&lt.results.TotalRequests, 1)
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		atomic.AddInt64(&lt.results.SuccessRequests, 1)
	} else {
		atomic.AddInt64(&lt.results.FailedRequests, 1)
	}

	lt.results.mu.Lock()
	lt.results.latencies = append(lt.results.latencies, latency)
	lt.results.StatusCodes[status]++
	lt.results.Ops[op]++
	lt.results.mu.Unlock()
}

func (lt *LoadTester) recordError(errType string) {
	lt.results.mu.Lock()
	lt.results.Errors[errType]++
	lt.results.mu.Unlock()
}

// Summary computes the report from the collected results
func (lt *LoadTester) Summary() *Summary {
	r := lt.results
	r.mu.Lock()
	defer r.mu.Unlock()

	sorted := append([]time.Duration(nil), r.latencies...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	elapsed := r.EndTime.Sub(r.StartTime)
	s := &Summary{
		Duration:        elapsed.Round(time.Millisecond).String(),
		TotalRequests:   r.TotalRequests,
		SuccessRequests: r.SuccessRequests,
		FailedRequests:  r.FailedRequests,
		P50Ms:           percentileMs(sorted, 0.50),
		P90Ms:           percentileMs(sorted, 0.90),
		P99Ms:           percentileMs(sorted, 0.99),
		StatusCodes:     copyCounts(r.StatusCodes),
		Ops:             copyCounts(r.Ops),
		Errors:          copyCounts(r.Errors),
	}
	if len(sorted) > 0 {
		s.MaxMs = ms(sorted[len(sorted)-1])
	}
	if elapsed > 0 {
		s.RequestsPerSecond = float64(r.TotalRequests) / elapsed.Seconds()
	}
	return s
}

func percentileMs(sorted []time.Duration, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return ms(sorted[index])
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func copyCounts[K comparable](in map[K]int64) map[K]int64 {
	out := make(map[K]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// traderAddress derives a stable bech32 address for a load test account
func traderAddress(prefix string, i int) string {
	raw := []byte(fmt.Sprintf("%-20s", fmt.Sprintf("lt-%s-%d", prefix, i)))
	return sdk.AccAddress(raw[:20]).String()
}
