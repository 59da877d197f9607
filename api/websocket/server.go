package websocket

import (
	"net/http"
	"sync"

	"cosmossdk.io/log"
	"github.com/google/uuid"
)

// Server upgrades HTTP requests and attaches the connections to a hub
type Server struct {
	hub    *Hub
	config *ServerConfig
	logger log.Logger

	connectionsPerIP map[string]int
	ipMu             sync.Mutex

	// OnConnection is called with +1 on connect and -1 on disconnect
	OnConnection func(delta int)
}

// ServerConfig contains server configuration
type ServerConfig struct {
	MaxConnPerIP int
	HubConfig    *HubConfig
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		MaxConnPerIP: 10,
		HubConfig:    DefaultHubConfig(),
	}
}

// NewServer creates a new WebSocket server with its own hub
func NewServer(config *ServerConfig, logger log.Logger) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	return &Server{
		hub:              NewHub(config.HubConfig),
		config:           config,
		logger:           logger.With("component", "websocket"),
		connectionsPerIP: make(map[string]int),
	}
}

// Start runs the hub loop in the background
func (s *Server) Start() {
	go s.hub.Run()
}

// Stop disconnects every client and stops the hub
func (s *Server) Stop() {
	s.hub.Stop()
}

// GetHub returns the hub
func (s *Server) GetHub() *Hub {
	return s.hub
}

// ServeWS handles WebSocket upgrade requests
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request, ip string) {
	if !s.acquire(ip) {
		http.Error(w, "Too many connections from this IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.release(ip)
		s.logger.Debug("WebSocket upgrade failed", "ip", ip, "error", err)
		return
	}

	client := NewClient(s.hub, conn, uuid.NewString(), ip)
	if !s.hub.Register(client) {
		conn.Close()
		s.release(ip)
		return
	}
	if s.OnConnection != nil {
		s.OnConnection(1)
	}
	s.logger.Debug("WebSocket client connected", "client_id", client.GetID(), "ip", ip)

	go client.writePump()
	go client.readPump(func() {
		s.release(ip)
		if s.OnConnection != nil {
			s.OnConnection(-1)
		}
		s.logger.Debug("WebSocket client disconnected", "client_id", client.GetID())
	})
}

func (s *Server) acquire(ip string) bool {
	s.ipMu.Lock()
	defer s.ipMu.Unlock()
	if s.connectionsPerIP[ip] >= s.config.MaxConnPerIP {
		return false
	}
	s.connectionsPerIP[ip]++
	return true
}

func (s *Server) release(ip string) {
	s.ipMu.Lock()
	defer s.ipMu.Unlock()
	s.connectionsPerIP[ip]--
	if s.connectionsPerIP[ip] <= 0 {
		delete(s.connectionsPerIP, ip)
	}
}
