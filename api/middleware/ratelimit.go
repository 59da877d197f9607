package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// TraderHeader carries the caller address on write requests
const TraderHeader = "X-Trader-Address"

// RateLimiter is a token bucket limiter keyed by client IP, with a
// stricter bucket per trader for state-changing requests
type RateLimiter struct {
	config *RateLimitConfig

	buckets   map[string]*Bucket
	bucketsMu sync.Mutex

	// OnLimited is called with the request path whenever a request is rejected
	OnLimited func(path string)

	stopCh   chan struct{}
	stopOnce sync.Once
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	IPRequestsPerSecond float64
	IPBurst             int
	BlockDuration       time.Duration

	WritesPerSecond float64 // per trader address
	WriteBurst      int

	CleanupInterval time.Duration
	BucketTTL       time.Duration
}

// DefaultRateLimitConfig returns default configuration
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		IPRequestsPerSecond: 100,
		IPBurst:             200,
		BlockDuration:       10 * time.Second,

		WritesPerSecond: 10,
		WriteBurst:      20,

		CleanupInterval: 5 * time.Minute,
		BucketTTL:       time.Hour,
	}
}

// Bucket is a single token bucket
type Bucket struct {
	mu           sync.Mutex
	tokens       float64
	maxTokens    float64
	refillRate   float64
	lastUpdate   time.Time
	blockedUntil time.Time
}

// RateLimitInfo describes the outcome of one admission check
type RateLimitInfo struct {
	Allowed    bool   `json:"allowed"`
	Remaining  int    `json:"remaining"`
	Limit      int    `json:"limit"`
	RetryAfter int    `json:"retry_after,omitempty"`
	LimitType  string `json:"limit_type"`
}

// NewRateLimiter creates a limiter and starts its cleanup loop
func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	rl := &RateLimiter{
		config:  config,
		buckets: make(map[string]*Bucket),
		stopCh:  make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop stops the cleanup loop
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	threshold := now.Add(-rl.config.BucketTTL)

	rl.bucketsMu.Lock()
	defer rl.bucketsMu.Unlock()
	for key, b := range rl.buckets {
		b.mu.Lock()
		stale := b.lastUpdate.Before(threshold)
		b.mu.Unlock()
		if stale {
			delete(rl.buckets, key)
		}
	}
}

func (rl *RateLimiter) bucket(key string, burst int, rate float64) *Bucket {
	rl.bucketsMu.Lock()
	defer rl.bucketsMu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &Bucket{
			tokens:     float64(burst),
			maxTokens:  float64(burst),
			refillRate: rate,
			lastUpdate: time.Now(),
		}
		rl.buckets[key] = b
	}
	return b
}

// AllowIP checks the general request budget of an IP
func (rl *RateLimiter) AllowIP(ip string) RateLimitInfo {
	b := rl.bucket("ip:"+ip, rl.config.IPBurst, rl.config.IPRequestsPerSecond)
	return rl.take(b, "ip", time.Now())
}

// AllowWrite checks the write budget of a trader
func (rl *RateLimiter) AllowWrite(trader string) RateLimitInfo {
	b := rl.bucket("write:"+trader, rl.config.WriteBurst, rl.config.WritesPerSecond)
	return rl.take(b, "write", time.Now())
}

// BucketCount returns the number of live buckets
func (rl *RateLimiter) BucketCount() int {
	rl.bucketsMu.Lock()
	defer rl.bucketsMu.Unlock()
	return len(rl.buckets)
}

func (rl *RateLimiter) take(b *Bucket, limitType string, now time.Time) RateLimitInfo {
	b.mu.Lock()
	defer b.mu.Unlock()

	limit := int(b.maxTokens)
	if now.Before(b.blockedUntil) {
		return RateLimitInfo{
			Limit:      limit,
			RetryAfter: int(b.blockedUntil.Sub(now).Seconds()) + 1,
			LimitType:  limitType,
		}
	}

	b.tokens += now.Sub(b.lastUpdate).Seconds() * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastUpdate = now

	if b.tokens >= 1 {
		b.tokens--
		return RateLimitInfo{Allowed: true, Remaining: int(b.tokens), Limit: limit, LimitType: limitType}
	}

	b.blockedUntil = now.Add(rl.config.BlockDuration)
	return RateLimitInfo{
		Limit:      limit,
		RetryAfter: int(rl.config.BlockDuration.Seconds()) + 1,
		LimitType:  limitType,
	}
}

// RateLimitMiddleware rejects requests over the IP budget and, for
// non-GET requests carrying a trader header, over the trader write budget
func RateLimitMiddleware(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := rl.AllowIP(ClientIP(r))
			if info.Allowed && r.Method != http.MethodGet && r.Method != http.MethodOptions {
				if trader := r.Header.Get(TraderHeader); trader != "" {
					info = rl.AllowWrite(trader)
				}
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
			if !info.Allowed {
				if rl.OnLimited != nil {
					rl.OnLimited(r.URL.Path)
				}
				w.Header().Set("Retry-After", strconv.Itoa(info.RetryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"error":       "rate_limit_exceeded",
					"message":     "Too many requests, please slow down",
					"limit_type":  info.LimitType,
					"retry_after": info.RetryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the client IP, honoring proxy headers
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
