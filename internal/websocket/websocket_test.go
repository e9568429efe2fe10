package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(hub *Hub, addr string, buf int) *Client {
	return &Client{Address: addr, Send: make(chan OutgoingMessage, buf), Hub: hub}
}

func TestHubBroadcastPublicState(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	c1 := newClient(hub, "0xA", 1)
	c2 := newClient(hub, "0xB", 1)
	hub.register <- c1
	hub.register <- c2

	hub.BroadcastToPlayers([]string{"0xA", "0xB"}, OutgoingMessage{
		Event: EventHandState,
		Data:  map[string]interface{}{"tableId": "room123"},
	})

	select {
	case m := <-c1.Send:
		assert.Equal(t, EventHandState, m.Event)
	case <-time.After(time.Second):
		t.Fatal("0xA got nothing")
	}
	select {
	case m := <-c2.Send:
		assert.Equal(t, EventHandState, m.Event)
	case <-time.After(time.Second):
		t.Fatal("0xB got nothing")
	}
}

func TestHubSendPrivateOnlyToOwner(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	c1 := newClient(hub, "0xA", 1)
	c2 := newClient(hub, "0xB", 1)
	hub.register <- c1
	hub.register <- c2

	hub.SendToPlayer("0xA", OutgoingMessage{Event: EventHandPrivate, Data: "hole cards"})

	select {
	case received := <-c1.Send:
		assert.Equal(t, EventHandPrivate, received.Event)
		assert.Equal(t, "hole cards", received.Data)
	case <-time.After(time.Second):
		t.Fatal("0xA got nothing")
	}

	time.Sleep(20 * time.Millisecond)
	select {
	case <-c2.Send:
		assert.Fail(t, "B should NOT receive anything")
	default:
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	c := newClient(hub, "0xA", 1)
	hub.register <- c
	assert.Eventually(t, func() bool {
		_, ok := hub.ClientByAddress("0xA")
		return ok
	}, time.Second, 5*time.Millisecond)

	hub.unregister <- c
	assert.Eventually(t, func() bool {
		_, ok := hub.ClientByAddress("0xA")
		return !ok
	}, time.Second, 5*time.Millisecond)

	_, open := <-c.Send
	assert.False(t, open)
}

func TestHubSlowClientDoesNotBlock(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	slow := newClient(hub, "0xSLOW", 1)
	hub.register <- slow

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.SendToPlayer("0xSLOW", OutgoingMessage{Event: "spam"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub blocked on a slow client")
	}
}

func TestHubIncomingCallbackCanReply(t *testing.T) {
	hub := NewHub()
	c := newClient(hub, "0xA", 4)
	hub.OnIncoming = func(m IncomingMessage) {
		// 回调里再调 hub 不能死锁
		hub.SendToPlayer(m.From, OutgoingMessage{Event: "ack", Data: m.Event})
	}
	go hub.Run()
	defer hub.Close()
	hub.register <- c

	hub.incoming <- IncomingMessage{From: "0xA", Event: EventPlayerAction}

	select {
	case m := <-c.Send:
		assert.Equal(t, "ack", m.Event)
		assert.Equal(t, EventPlayerAction, m.Data)
	case <-time.After(time.Second):
		t.Fatal("no reply")
	}
}

func TestIncomingDecode(t *testing.T) {
	m := IncomingMessage{Data: json.RawMessage(`{"type":"CALL","amount":3}`)}
	var v struct {
		Type   string `json:"type"`
		Amount int64  `json:"amount"`
	}
	require.NoError(t, m.Decode(&v))
	assert.Equal(t, "CALL", v.Type)
	assert.Equal(t, int64(3), v.Amount)
	assert.NoError(t, IncomingMessage{}.Decode(&v))
}

func TestServeWSRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	got := make(chan IncomingMessage, 1)
	hub.OnIncoming = func(m IncomingMessage) { got <- m }
	go hub.Run()
	defer hub.Close()

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { c.Set("address", "0xA") }, ServeWS(hub))
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{
		"from":  "0xSPOOF",
		"event": EventPlayerAction,
		"data":  map[string]any{"type": "CHECK"},
	}))
	select {
	case m := <-got:
		assert.Equal(t, "0xA", m.From)
		assert.Equal(t, EventPlayerAction, m.Event)
	case <-time.After(2 * time.Second):
		t.Fatal("message not forwarded")
	}

	require.Eventually(t, func() bool {
		_, ok := hub.ClientByAddress("0xA")
		return ok
	}, time.Second, 5*time.Millisecond)
	hub.SendToPlayer("0xA", OutgoingMessage{Event: EventHandState, Data: map[string]any{"phase": "PREFLOP"}})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var out OutgoingMessage
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, EventHandState, out.Event)
}

func TestServeWSRequiresAddress(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	r := gin.New()
	r.GET("/ws", ServeWS(hub))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ws", nil))
	assert.Equal(t, 401, w.Code)
}

func BenchmarkHubBroadcast(b *testing.B) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	c1 := newClient(hub, "0xA", 1024)
	c2 := newClient(hub, "0xB", 1024)

	// 所有 Send 都需要有人接收
	go func() {
		for range c1.Send {
		}
	}()
	go func() {
		for range c2.Send {
		}
	}()

	hub.register <- c1
	hub.register <- c2

	b.ResetTimer()
	msg := OutgoingMessage{Event: "bench", Data: nil}
	for i := 0; i < b.N; i++ {
		hub.BroadcastToPlayers([]string{"0xA", "0xB"}, msg)
	}
}
