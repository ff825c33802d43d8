// Package events fans daemon events out to connected browser clients
// over websockets.
package events

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Event types published by the daemon.
const (
	TypeRootChanged         = "root_changed"
	TypeFileGenerated       = "file_generated"
	TypeModificationStaged  = "modification_staged"
	TypeModificationApplied = "modification_applied"
	TypeModificationDropped = "modification_discarded"
	TypeEditorOpened        = "editor_opened"
	TypeEditorError         = "editor_error"
	TypeFilesChanged        = "files_changed"
)

// Event is a single notification sent to clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	Time    time.Time   `json:"time"`
}

const (
	writeWait      = 10 * time.Second
	pingPeriod     = 30 * time.Second
	clientBufSize  = 16
	maxMessageSize = 512
)

// Hub tracks connected clients and broadcasts events to them. Slow clients
// are dropped rather than blocking the rest.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  *logrus.Entry

	upgrader websocket.Upgrader
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// NewHub creates an empty hub.
func NewHub(logger *logrus.Entry, checkOrigin func(*http.Request) bool) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Publish sends an event to every connected client.
func (h *Hub) Publish(eventType string, payload interface{}) {
	evt := Event{Type: eventType, Payload: payload, Time: time.Now()}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- evt:
		default:
			// Client is not draining; it will be cleaned up by its writer.
			h.logger.Debug("Dropping event for slow websocket client")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades an HTTP request to a websocket and streams events until
// the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}

	c := &client{
		conn: conn,
		send: make(chan Event, clientBufSize),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.WithField("clients", h.ClientCount()).Debug("Websocket client connected")

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards client messages and detects disconnects.
func (h *Hub) readPump(c *client) {
	defer h.remove(c)

	c.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump sends queued events and keepalive pings.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.remove(c)
	}()

	for {
		select {
		case evt, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(evt); err != nil {
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

// remove unregisters a client and closes its connection. Safe to call from
// both pumps.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	c.conn.Close()
}
