// Package ws streams finished risk reports to WebSocket subscribers.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/quantedge/options-risk-engine/pkg/models"
	"github.com/quantedge/options-risk-engine/pkg/utils/logger"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, implement proper origin checking
		return true
	},
}

// Hub maintains the set of connected clients and pushes each new report to
// all of them.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
	log        *logger.Logger
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string
}

// NewHub creates a report broadcast hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		log:        logger.GetLogger("ws.hub"),
	}
}

// Run owns the client set until the context is canceled.
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("websocket hub started")
	for {
		select {
		case <-ctx.Done():
			h.log.Info("websocket hub shutting down")
			close(h.done)
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			h.log.Infow("client connected", "client_id", c.id)

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.log.Infow("client disconnected", "client_id", c.id)
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow client; drop it rather than block the hub.
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// BroadcastReport pushes a report to every connected client. Reports are
// dropped when the hub's queue is full rather than blocking the engine.
func (h *Hub) BroadcastReport(report *models.RiskReport) {
	payload, err := json.Marshal(report)
	if err != nil {
		h.log.Errorw("encoding report for broadcast failed", "error", err)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.log.Warn("broadcast queue full, dropping report")
	}
}

// HandleWebSocket upgrades the connection and registers the client.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorw("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 64),
		id:   uuid.NewString(),
	}
	select {
	case h.register <- c:
	case <-h.done:
		// Hub already stopped; refuse the client instead of blocking.
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump drains the connection so pings and close frames are processed.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Errorw("websocket read error", "client_id", c.id, "error", err)
			}
			return
		}
	}
}

// writePump pushes queued reports and pings to the connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
