// Package realtime pushes notification events to connected clients over
// websockets. Each authenticated user gets an independent channel; events are
// discrete callbacks, mirroring the hosted platform's per-user change feed.
package realtime

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/davrd/invoicery/internal/models"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 16
)

// Event is one message on a user's feed. UnreadCount is recomputed from the
// store by the publisher, so push consumers never drift from pull consumers.
type Event struct {
	Type         string               `json:"type"` // "notification.created", "notification.read", ...
	Notification *models.Notification `json:"notification,omitempty"`
	UnreadCount  int64                `json:"unread_count"`
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// Hub fans events out to every connection a user holds. Slow consumers are
// dropped rather than allowed to block the publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*client]struct{}

	upgrader websocket.Upgrader
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[uint]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// ServeWS upgrades the request and pumps events for userID until the peer
// disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID uint) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		slog.Debug("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan Event, sendBuffer)}
	h.register(userID, c)

	go c.writePump()
	c.readPump()
	h.unregister(userID, c)
}

// Publish delivers an event to every connection userID holds. Connections
// with a full send buffer are disconnected.
func (h *Hub) Publish(userID uint, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.send <- ev:
		default:
			// Buffer full; the write pump is stuck. Close and let the read
			// pump clean up.
			c.conn.Close()
		}
	}
}

// ConnectionCount returns the number of open connections for a user.
func (h *Hub) ConnectionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) register(userID uint, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]struct{})
	}
	h.clients[userID][c] = struct{}{}
}

func (h *Hub) unregister(userID uint, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.clients[userID]; ok {
		if _, ok := conns[c]; ok {
			delete(conns, c)
			close(c.send)
			if len(conns) == 0 {
				delete(h.clients, userID)
			}
		}
	}
	c.conn.Close()
}

// readPump discards inbound frames; the feed is one-way. Returning means the
// peer went away.
func (c *client) readPump() {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.conn.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}
