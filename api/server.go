package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cosmossdk.io/log"

	"github.com/openalpha/launchpad/api/handlers"
	"github.com/openalpha/launchpad/api/middleware"
	"github.com/openalpha/launchpad/api/websocket"
	"github.com/openalpha/launchpad/metrics"
)

// Server is the launchpad HTTP API
type Server struct {
	httpServer *http.Server
	wsServer   *websocket.Server
	config     *Config
	logger     log.Logger
	metrics    *metrics.Collector

	service        *Service
	poolHandler    *handlers.PoolHandler
	factoryHandler *handlers.FactoryHandler
	rateLimiter    *middleware.RateLimiter
}

// Config contains server configuration
type Config struct {
	Host             string
	Port             int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	BlockInterval    time.Duration // how often the service commits and advances the tick
	DisableRateLimit bool
	RateLimit        *middleware.RateLimitConfig
	WebSocket        *websocket.ServerConfig
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Host:          "0.0.0.0",
		Port:          8080,
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  30 * time.Second,
		BlockInterval: time.Second,
		RateLimit:     middleware.DefaultRateLimitConfig(),
		WebSocket:     websocket.DefaultServerConfig(),
	}
}

// NewServer wires the handlers, websocket stream and rate limiter around service
func NewServer(config *Config, service *Service, logger log.Logger, collector *metrics.Collector) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	s := &Server{
		config:         config,
		logger:         logger.With("component", "api"),
		metrics:        collector,
		service:        service,
		wsServer:       websocket.NewServer(config.WebSocket, logger),
		poolHandler:    handlers.NewPoolHandler(service),
		factoryHandler: handlers.NewFactoryHandler(service),
		rateLimiter:    middleware.NewRateLimiter(config.RateLimit),
	}
	service.SetPublisher(s.wsServer.GetHub())

	if collector != nil {
		s.rateLimiter.OnLimited = collector.RecordRateLimitHit
		s.wsServer.OnConnection = collector.RecordWSConnection
		s.wsServer.GetHub().OnMessage = collector.RecordWSMessage
	}
	return s
}

// Handler returns the full HTTP handler chain
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.Handle("/metrics", metrics.Handler())

	mux.HandleFunc("/v1/factories", s.factoryHandler.HandleFactories)
	mux.HandleFunc("/v1/launch", s.factoryHandler.HandleLaunch)

	mux.HandleFunc("/v1/pools", s.poolHandler.HandlePools)
	mux.HandleFunc("/v1/pool", s.poolHandler.HandlePool)
	mux.HandleFunc("/v1/pools/enabled", s.poolHandler.HandleSetEnabled)
	mux.HandleFunc("/v1/quote", s.poolHandler.HandleQuote)
	mux.HandleFunc("/v1/swap/buy", s.poolHandler.HandleBuy)
	mux.HandleFunc("/v1/swap/sell", s.poolHandler.HandleSell)
	mux.HandleFunc("/v1/claims/royalties", s.poolHandler.HandleClaimRoyalties)
	mux.HandleFunc("/v1/claims/protocol", s.poolHandler.HandleClaimProtocolFees)
	mux.HandleFunc("/v1/leaderboard", s.poolHandler.HandleLeaderboard)
	mux.HandleFunc("/v1/history", s.poolHandler.HandleHistory)

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		s.wsServer.ServeWS(w, r, middleware.ClientIP(r))
	})

	// CORS -> metrics -> rate limit -> mux
	var handler http.Handler = mux
	if !s.config.DisableRateLimit {
		handler = middleware.RateLimitMiddleware(s.rateLimiter)(handler)
	}
	return corsMiddleware(s.instrument(handler))
}

// Start serves HTTP and commits blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.wsServer.Start()
	go s.service.Run(ctx, s.config.BlockInterval)

	s.logger.Info("API server starting",
		"addr", addr,
		"block_interval", s.config.BlockInterval,
		"rate_limit", !s.config.DisableRateLimit,
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.wsServer.Stop()
	s.rateLimiter.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"tick":      s.service.Tick(),
		"ws_conns":  s.wsServer.GetHub().GetClientCount(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.service.Status(r.Context()))
}

// statusRecorder captures the response status for metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument records request counts and latency. The websocket route is
// passed through untouched since the upgrade needs the raw writer.
func (s *Server) instrument(next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		timer := metrics.NewTimer()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.RecordAPIRequest(r.Method, r.URL.Path, strconv.Itoa(rec.status), timer.ElapsedMs())
	})
}
