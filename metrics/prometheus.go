package metrics

import (
	"math/big"
	"net/http"
	"sync"
	"time"

	"cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Launchpad Metrics Collector

const namespace = "launchpad"

var (
	// Singleton collector
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds all launchpad metrics
type Collector struct {
	// Swap metrics
	SwapsTotal  *prometheus.CounterVec
	SwapErrors  *prometheus.CounterVec
	SwapVolume  *prometheus.CounterVec
	SwapFeeBps  *prometheus.HistogramVec
	ExemptSwaps *prometheus.CounterVec
	SwapLatency *prometheus.HistogramVec

	// Fee metrics
	RoyaltiesAccrued    *prometheus.CounterVec
	ProtocolFeesAccrued *prometheus.CounterVec
	FeesClaimed         *prometheus.CounterVec

	// Pool metrics
	PoolsTotal    prometheus.Gauge
	LaunchesTotal *prometheus.CounterVec
	SpotPrice     *prometheus.GaugeVec
	ReserveA      *prometheus.GaugeVec
	ReserveB      *prometheus.GaugeVec

	// WebSocket metrics
	WSConnectionsActive *prometheus.GaugeVec
	WSMessagesTotal     *prometheus.CounterVec

	// API metrics
	APIRequestsTotal  *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec
	RateLimitHits     *prometheus.CounterVec

	// Service metrics
	Tick prometheus.Gauge
}

// GetCollector returns the singleton metrics collector
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector()
	})
	return collector
}

// newCollector creates a new metrics collector
func newCollector() *Collector {
	c := &Collector{}

	// Swap metrics
	c.SwapsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swaps",
			Name:      "total",
			Help:      "Total number of executed swaps",
		},
		[]string{"pool_id", "side"},
	)

	c.SwapErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swaps",
			Name:      "errors_total",
			Help:      "Rejected swaps by error",
		},
		[]string{"side", "reason"},
	)

	c.SwapVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swaps",
			Name:      "volume",
			Help:      "Swap input volume in base units of the input asset",
		},
		[]string{"pool_id", "side"},
	)

	c.SwapFeeBps = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "swaps",
			Name:      "fee_bps",
			Help:      "Effective fee rate charged per swap",
			Buckets:   []float64{0, 25, 50, 100, 250, 500, 1000, 2500, 5000, 7500, 10000},
		},
		[]string{"side"},
	)

	c.ExemptSwaps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swaps",
			Name:      "exempt_total",
			Help:      "Swaps that paid no fee",
		},
		[]string{"pool_id"},
	)

	c.SwapLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "swaps",
			Name:      "latency_ms",
			Help:      "Swap processing latency in milliseconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50},
		},
		[]string{"side"},
	)

	// Fee metrics
	c.RoyaltiesAccrued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fees",
			Name:      "royalties_accrued",
			Help:      "Royalties accrued in base units of asset A",
		},
		[]string{"pool_id"},
	)

	c.ProtocolFeesAccrued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fees",
			Name:      "protocol_accrued",
			Help:      "Protocol fees accrued in base units of asset A",
		},
		[]string{"pool_id"},
	)

	c.FeesClaimed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fees",
			Name:      "claimed",
			Help:      "Fees paid out by claims",
		},
		[]string{"pool_id", "kind"},
	)

	// Pool metrics
	c.PoolsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pools",
			Name:      "total",
			Help:      "Number of pools",
		},
	)

	c.LaunchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pools",
			Name:      "launches_total",
			Help:      "Pools launched per factory",
		},
		[]string{"factory_id"},
	)

	c.SpotPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pools",
			Name:      "spot_price",
			Help:      "Marginal price of asset B in units of asset A",
		},
		[]string{"pool_id"},
	)

	c.ReserveA = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pools",
			Name:      "reserve_a",
			Help:      "Real reserve of asset A including unclaimed fees",
		},
		[]string{"pool_id"},
	)

	c.ReserveB = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pools",
			Name:      "reserve_b",
			Help:      "Real reserve of asset B",
		},
		[]string{"pool_id"},
	)

	// WebSocket metrics
	c.WSConnectionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "connections_active",
			Help:      "Number of active WebSocket connections",
		},
		[]string{},
	)

	c.WSMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "messages_total",
			Help:      "Total WebSocket messages broadcast",
		},
		[]string{"channel"},
	)

	// API metrics
	c.APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	c.APIRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_latency_ms",
			Help:      "API request latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"method", "path"},
	)

	c.RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "rate_limit_hits",
			Help:      "Requests rejected by the rate limiter",
		},
		[]string{"path"},
	)

	c.Tick = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "tick",
			Help:      "Current service tick",
		},
	)

	c.registerAll()
	return c
}

// registerAll registers all metrics with Prometheus
func (c *Collector) registerAll() {
	prometheus.MustRegister(
		c.SwapsTotal,
		c.SwapErrors,
		c.SwapVolume,
		c.SwapFeeBps,
		c.ExemptSwaps,
		c.SwapLatency,
		c.RoyaltiesAccrued,
		c.ProtocolFeesAccrued,
		c.FeesClaimed,
		c.PoolsTotal,
		c.LaunchesTotal,
		c.SpotPrice,
		c.ReserveA,
		c.ReserveB,
		c.WSConnectionsActive,
		c.WSMessagesTotal,
		c.APIRequestsTotal,
		c.APIRequestLatency,
		c.RateLimitHits,
		c.Tick,
	)
}

// ============ Recording Helpers ============

// RecordSwap records an executed swap
func (c *Collector) RecordSwap(poolID, side string, amountIn math.Int, feeBps uint16, exempt bool, royalty, protocol uint64) {
	c.SwapsTotal.WithLabelValues(poolID, side).Inc()
	c.SwapVolume.WithLabelValues(poolID, side).Add(IntToFloat(amountIn))
	c.SwapFeeBps.WithLabelValues(side).Observe(float64(feeBps))
	if exempt {
		c.ExemptSwaps.WithLabelValues(poolID).Inc()
	}
	c.RoyaltiesAccrued.WithLabelValues(poolID).Add(float64(royalty))
	c.ProtocolFeesAccrued.WithLabelValues(poolID).Add(float64(protocol))
}

// RecordSwapError records a rejected swap
func (c *Collector) RecordSwapError(side, reason string) {
	c.SwapErrors.WithLabelValues(side, reason).Inc()
}

// RecordSwapLatency records swap processing latency
func (c *Collector) RecordSwapLatency(side string, latencyMs float64) {
	c.SwapLatency.WithLabelValues(side).Observe(latencyMs)
}

// RecordClaim records a fee claim
func (c *Collector) RecordClaim(poolID, kind string, amount uint64) {
	c.FeesClaimed.WithLabelValues(poolID, kind).Add(float64(amount))
}

// RecordLaunch records a factory launch
func (c *Collector) RecordLaunch(factoryID string) {
	c.LaunchesTotal.WithLabelValues(factoryID).Inc()
}

// RecordPoolState records the reserves and price of a pool
func (c *Collector) RecordPoolState(poolID string, reserveA, reserveB math.Int, spotPrice math.LegacyDec) {
	c.ReserveA.WithLabelValues(poolID).Set(IntToFloat(reserveA))
	c.ReserveB.WithLabelValues(poolID).Set(IntToFloat(reserveB))
	if price, err := spotPrice.Float64(); err == nil {
		c.SpotPrice.WithLabelValues(poolID).Set(price)
	}
}

// SetPoolCount records the number of pools
func (c *Collector) SetPoolCount(n int) {
	c.PoolsTotal.Set(float64(n))
}

// RecordAPIRequest records an API request
func (c *Collector) RecordAPIRequest(method, path, status string, latencyMs float64) {
	c.APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.APIRequestLatency.WithLabelValues(method, path).Observe(latencyMs)
}

// RecordRateLimitHit records a rate limited request
func (c *Collector) RecordRateLimitHit(path string) {
	c.RateLimitHits.WithLabelValues(path).Inc()
}

// RecordWSConnection records WebSocket connection changes
func (c *Collector) RecordWSConnection(delta int) {
	c.WSConnectionsActive.WithLabelValues().Add(float64(delta))
}

// RecordWSMessage records a broadcast WebSocket message
func (c *Collector) RecordWSMessage(channel string) {
	c.WSMessagesTotal.WithLabelValues(channel).Inc()
}

// SetTick records the service tick
func (c *Collector) SetTick(tick uint64) {
	c.Tick.Set(float64(tick))
}

// IntToFloat converts an integer amount for gauges; precision loss is acceptable
func IntToFloat(v math.Int) float64 {
	if v.IsNil() {
		return 0
	}
	f, _ := new(big.Float).SetInt(v.BigInt()).Float64()
	return f
}

// ============ HTTP Handler ============

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for measuring latency
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed time in milliseconds
func (t *Timer) ElapsedMs() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000.0
}
