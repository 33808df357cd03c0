package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// writeWait caps how long a single frame write may take before the
// connection is considered dead.
const writeWait = 10 * time.Second

// sendBuffer is the per-connection backlog. A peer that falls this far
// behind is dropped rather than allowed to stall emitters.
const sendBuffer = 16

// wsConn is the slice of the websocket connection the hub writes to.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// client is one registered connection. All writes go through the buffered
// send channel and a dedicated writer goroutine, so emitting never touches
// the network directly.
type client struct {
	channel string
	conn    wsConn
	send    chan []byte
}

// Hub is the emit-only realtime sink: connected dashboards and customer
// apps subscribe to a channel ("business:<id>" or "user:<id>") and receive
// every event emitted for it. The hub never reads application data from
// clients.
type Hub struct {
	mu       sync.Mutex
	channels map[string]map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{channels: make(map[string]map[*client]struct{})}
}

// BusinessChannel names the channel for a business dashboard.
func BusinessChannel(businessID string) string {
	return "business:" + businessID
}

// UserChannel names the channel for a customer.
func UserChannel(userID string) string {
	return "user:" + userID
}

type envelope struct {
	Event     string      `json:"event"`
	Data      interface{} `json:"data"`
	EmittedAt time.Time   `json:"emitted_at"`
}

// Emit queues one event for every connection on the channel. The call is
// non-blocking: a connection whose backlog is full is dropped on the spot,
// so one stalled peer can never delay the caller or its siblings.
func (h *Hub) Emit(channel, event string, data interface{}) {
	payload, err := json.Marshal(envelope{Event: event, Data: data, EmittedAt: time.Now()})
	if err != nil {
		log.Printf("Failed to marshal realtime event %q: %v", event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for cl := range h.channels[channel] {
		select {
		case cl.send <- payload:
		default:
			log.Printf("Dropping slow realtime consumer on %q", channel)
			delete(h.channels[channel], cl)
			close(cl.send)
		}
	}
}

func (h *Hub) register(channel string, conn wsConn) *client {
	cl := &client{
		channel: channel,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*client]struct{})
	}
	h.channels[channel][cl] = struct{}{}
	h.mu.Unlock()

	go h.writePump(cl)
	return cl
}

// unregister removes the client and closes its send channel exactly once;
// membership under the mutex is the single-close guard.
func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.channels[cl.channel][cl]; ok {
		delete(h.channels[cl.channel], cl)
		close(cl.send)
	}
}

// writePump drains the client's send channel onto the wire. Each write
// carries a deadline; a failed or timed-out write drops the connection.
func (h *Hub) writePump(cl *client) {
	defer cl.conn.Close()

	for payload := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.unregister(cl)
			for range cl.send {
				// drain anything queued before unregister closed it
			}
			return
		}
	}
}

// ConnectionCount reports live connections on a channel.
func (h *Hub) ConnectionCount(channel string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.channels[channel])
}

// Upgrade gates the websocket route: non-upgrade requests get 426.
func Upgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// Handler returns the websocket endpoint for GET /ws/:channel. Clients only
// listen; inbound frames are drained until the connection drops.
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		channel := conn.Params("channel")
		if channel == "" {
			conn.Close()
			return
		}

		cl := h.register(channel, conn)
		defer h.unregister(cl)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
