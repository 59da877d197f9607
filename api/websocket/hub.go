package websocket

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Channel names. Per-pool channels append ":" and the pool id.
const (
	ChannelSwaps    = "swaps"
	ChannelLaunches = "launches"
	ChannelPool     = "pool"
	ChannelClaims   = "claims"
)

// PoolChannel returns the channel carrying updates for one pool
func PoolChannel(poolID string) string {
	return ChannelPool + ":" + poolID
}

// Hub maintains the set of active clients and routes channel messages
type Hub struct {
	clients  map[*Client]bool
	channels map[string]map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	subscribe   chan *SubscriptionRequest
	unsubscribe chan *SubscriptionRequest
	stop        chan struct{}
	stopOnce    sync.Once

	mu     sync.RWMutex
	config *HubConfig

	// OnMessage is called with the channel of every delivered broadcast
	OnMessage func(channel string)
}

// HubConfig contains hub configuration
type HubConfig struct {
	MaxSubscriptions int
	MessageRateLimit int // inbound messages per second per client
}

// DefaultHubConfig returns default hub configuration
func DefaultHubConfig() *HubConfig {
	return &HubConfig{
		MaxSubscriptions: 50,
		MessageRateLimit: 20,
	}
}

// SubscriptionRequest asks the hub to (un)subscribe a client
type SubscriptionRequest struct {
	Client  *Client
	Channel string
}

// NewHub creates a new Hub
func NewHub(config *HubConfig) *Hub {
	if config == nil {
		config = DefaultHubConfig()
	}
	return &Hub{
		clients:     make(map[*Client]bool),
		channels:    make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan *SubscriptionRequest, 256),
		unsubscribe: make(chan *SubscriptionRequest, 256),
		stop:        make(chan struct{}),
		config:      config,
	}
}

// Run processes registrations and subscriptions until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.unregisterClient(client)

		case req := <-h.subscribe:
			h.handleSubscription(req)

		case req := <-h.unsubscribe:
			h.handleUnsubscription(req)

		case <-h.stop:
			h.closeAll()
			return
		}
	}
}

// Stop terminates Run and disconnects every client
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// closeAll drops the connections; the pumps observe the stop channel and exit
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.conn.Close()
	}
	h.clients = make(map[*Client]bool)
	h.channels = make(map[string]map[*Client]bool)
}

// Register adds a client; it reports false once the hub is stopped
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.stop:
		return false
	}
}

func (h *Hub) request(ch chan *SubscriptionRequest, req *SubscriptionRequest) {
	select {
	case ch <- req:
	case <-h.stop:
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	for channel, clients := range h.channels {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.channels, channel)
		}
	}
	close(client.send)
}

func (h *Hub) handleSubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	if !h.clients[req.Client] {
		h.mu.Unlock()
		return
	}
	if _, ok := h.channels[req.Channel]; !ok {
		h.channels[req.Channel] = make(map[*Client]bool)
	}
	h.channels[req.Channel][req.Client] = true
	h.mu.Unlock()

	req.Client.reply(&WSMessage{Type: "subscribed", Channel: req.Channel})
}

func (h *Hub) handleUnsubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	if !h.clients[req.Client] {
		h.mu.Unlock()
		return
	}
	if clients, ok := h.channels[req.Channel]; ok {
		delete(clients, req.Client)
		if len(clients) == 0 {
			delete(h.channels, req.Channel)
		}
	}
	h.mu.Unlock()

	req.Client.reply(&WSMessage{Type: "unsubscribed", Channel: req.Channel})
}

// BroadcastToChannel sends a message to all clients subscribed to a channel.
// Slow clients whose buffer is full miss the message.
func (h *Hub) BroadcastToChannel(channel string, message *WSMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.channels[channel]
	if !ok {
		return
	}
	for client := range clients {
		select {
		case client.send <- data:
		default:
		}
	}
	if h.OnMessage != nil {
		h.OnMessage(channel)
	}
}

// ============ Domain broadcasts ============

// BroadcastSwap publishes a swap on the global and per-pool channels
func (h *Hub) BroadcastSwap(swap *SwapMessage) {
	msg := &WSMessage{Type: "swap", Channel: ChannelSwaps, Data: swap}
	h.BroadcastToChannel(ChannelSwaps, msg)

	perPool := *msg
	perPool.Channel = PoolChannel(swap.PoolID)
	h.BroadcastToChannel(perPool.Channel, &perPool)
}

// BroadcastLaunch publishes a new pool
func (h *Hub) BroadcastLaunch(launch *LaunchMessage) {
	h.BroadcastToChannel(ChannelLaunches, &WSMessage{Type: "launch", Channel: ChannelLaunches, Data: launch})
}

// BroadcastPool publishes a pool state snapshot
func (h *Hub) BroadcastPool(pool *PoolMessage) {
	channel := PoolChannel(pool.PoolID)
	h.BroadcastToChannel(channel, &WSMessage{Type: "pool", Channel: channel, Data: pool})
}

// BroadcastClaim publishes a fee claim
func (h *Hub) BroadcastClaim(claim *ClaimMessage) {
	h.BroadcastToChannel(ChannelClaims, &WSMessage{Type: "claim", Channel: ChannelClaims, Data: claim})
}

// validChannel reports whether clients may subscribe to channel
func validChannel(channel string) bool {
	switch channel {
	case ChannelSwaps, ChannelLaunches, ChannelClaims:
		return true
	}
	id, ok := strings.CutPrefix(channel, ChannelPool+":")
	return ok && id != ""
}

// ============ Message Types ============

// WSMessage is the envelope of every server message
type WSMessage struct {
	Type    string      `json:"type"`
	Channel string      `json:"channel,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// SwapMessage describes a committed swap
type SwapMessage struct {
	ReceiptID   string `json:"receipt_id"`
	PoolID      string `json:"pool_id"`
	Trader      string `json:"trader"`
	Side        string `json:"side"`
	AmountIn    string `json:"amount_in"`
	AmountOut   string `json:"amount_out"`
	FeeBps      uint16 `json:"fee_bps"`
	RoyaltyFee  uint64 `json:"royalty_fee"`
	ProtocolFee uint64 `json:"protocol_fee"`
	Exempt      bool   `json:"exempt"`
	Tick        uint64 `json:"tick"`
}

// LaunchMessage describes a newly launched pool
type LaunchMessage struct {
	PoolID    string `json:"pool_id"`
	FactoryID string `json:"factory_id,omitempty"`
	Owner     string `json:"owner"`
	AssetB    string `json:"asset_b"`
	Tick      uint64 `json:"tick"`
}

// PoolMessage is a pool state snapshot
type PoolMessage struct {
	PoolID       string `json:"pool_id"`
	RealReserveA string `json:"real_reserve_a"`
	RealReserveB string `json:"real_reserve_b"`
	SpotPrice    string `json:"spot_price"`
	Enabled      bool   `json:"enabled"`
	Tick         uint64 `json:"tick"`
}

// ClaimMessage describes a royalty or protocol fee claim
type ClaimMessage struct {
	PoolID   string `json:"pool_id"`
	Kind     string `json:"kind"`
	Receiver string `json:"receiver"`
	Denom    string `json:"denom"`
	Amount   uint64 `json:"amount"`
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetChannelCount returns the number of active channels
func (h *Hub) GetChannelCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}

// GetChannelClientCount returns the number of clients in a channel
func (h *Hub) GetChannelClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
