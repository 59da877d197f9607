package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, cfg *ServerConfig) (*Server, string) {
	t.Helper()
	srv := NewServer(cfg, log.NewNopLogger())
	srv.Start()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.ServeWS(w, r, "127.0.0.1")
	}))
	t.Cleanup(func() {
		srv.Stop()
		ts.Close()
	})
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestSubscribeAndReceiveSwap(t *testing.T) {
	srv, url := startServer(t, nil)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(ClientMessage{Action: "subscribe", Channel: PoolChannel("p1")}))
	msg := readMsg(t, conn)
	require.Equal(t, "subscribed", msg["type"])
	require.Equal(t, "pool:p1", msg["channel"])
	require.Equal(t, 1, srv.GetHub().GetChannelClientCount("pool:p1"))

	srv.GetHub().BroadcastSwap(&SwapMessage{PoolID: "other", Side: "buy"})
	srv.GetHub().BroadcastSwap(&SwapMessage{PoolID: "p1", Side: "sell", AmountOut: "42"})

	msg = readMsg(t, conn)
	require.Equal(t, "swap", msg["type"])
	data := msg["data"].(map[string]interface{})
	require.Equal(t, "p1", data["pool_id"])
	require.Equal(t, "42", data["amount_out"])
}

func TestClientErrorsAndPing(t *testing.T) {
	_, url := startServer(t, nil)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(ClientMessage{Action: "subscribe", Channel: "ticker:BTC"}))
	msg := readMsg(t, conn)
	require.Equal(t, "error", msg["type"])
	require.Equal(t, "invalid_channel", msg["data"].(map[string]interface{})["code"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	msg = readMsg(t, conn)
	require.Equal(t, "invalid_message", msg["data"].(map[string]interface{})["code"])

	require.NoError(t, conn.WriteJSON(ClientMessage{Action: "ping"}))
	msg = readMsg(t, conn)
	require.Equal(t, "pong", msg["type"])
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	srv, url := startServer(t, nil)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(ClientMessage{Action: "subscribe", Channel: ChannelLaunches}))
	require.Equal(t, "subscribed", readMsg(t, conn)["type"])
	require.NoError(t, conn.WriteJSON(ClientMessage{Action: "unsubscribe", Channel: ChannelLaunches}))
	require.Equal(t, "unsubscribed", readMsg(t, conn)["type"])
	require.Zero(t, srv.GetHub().GetChannelCount())

	srv.GetHub().BroadcastLaunch(&LaunchMessage{PoolID: "p1"})
	require.NoError(t, conn.WriteJSON(ClientMessage{Action: "ping"}))
	require.Equal(t, "pong", readMsg(t, conn)["type"])
}

func TestConnectionLimitPerIP(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.MaxConnPerIP = 1
	_, url := startServer(t, cfg)

	dial(t, url)
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestValidChannel(t *testing.T) {
	require.True(t, validChannel(ChannelSwaps))
	require.True(t, validChannel(ChannelClaims))
	require.True(t, validChannel("pool:owner/a/b"))
	require.False(t, validChannel("pool:"))
	require.False(t, validChannel("depth:BTC"))
}
