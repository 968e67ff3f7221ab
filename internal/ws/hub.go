// Package ws provides the WebSocket hub for the live conversion session.
// Clients push input and configuration changes; the hub streams every
// resulting snapshot and token update back to all connected clients.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iptoux/tokentools/internal/session"
)

// WSMessage is the envelope for all WebSocket messages, both directions.
type WSMessage struct {
	Type      string          `json:"type"`
	Message   string          `json:"message,omitempty"`
	Data      interface{}     `json:"data,omitempty"`
	Text      *string         `json:"text,omitempty"`
	Config    *session.Config `json:"config,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Server-to-client message type constants.
const (
	TypeConversion  = "conversion"
	TypeTokens      = "tokens"
	TypeTokensError = "tokens_error"
)

// Client-to-server message type constants.
const (
	TypeInput  = "input"
	TypeConfig = "config"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Session is the engine surface the hub drives from client messages.
// *session.Engine satisfies it.
type Session interface {
	SetInput(input string)
	SetConfig(cfg session.Config)
}

// Hub manages all connected WebSocket clients and pushes engine results
// out as they arrive. It implements session.Sink.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*client]struct{}
	broadcast  chan []byte
	register   chan *client
	unregister chan *client

	engine Session
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client, 8),
		unregister: make(chan *client, 8),
	}
}

// AttachEngine wires the session engine the hub drives. Must be called
// before ServeWS accepts connections; the hub and engine reference each
// other so neither can be built first with the other already in hand.
func (h *Hub) AttachEngine(e Session) {
	h.engine = e
}

// Run starts the hub event loop. Must be run in a goroutine.
func (h *Hub) Run(ctx interface{ Done() <-chan struct{} }) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Drop slow clients.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends a WSMessage to all connected clients. It never blocks,
// which keeps it safe to call from inside the engine's lock.
func (h *Hub) Broadcast(msg WSMessage) {
	msg.Timestamp = time.Now()
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- b:
	default:
	}
}

// ConversionUpdate implements session.Sink.
func (h *Hub) ConversionUpdate(snap *session.Snapshot) {
	h.Broadcast(WSMessage{Type: TypeConversion, Data: snap})
}

// TokensUpdate implements session.Sink.
func (h *Hub) TokensUpdate(snap *session.Snapshot) {
	h.Broadcast(WSMessage{Type: TypeTokens, Data: snap})
}

// TokensError implements session.Sink.
func (h *Hub) TokensError(msg string) {
	h.Broadcast(WSMessage{Type: TypeTokensError, Message: msg})
}

// ServeWS handles the WebSocket upgrade and starts pump goroutines.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws.ServeWS: upgrade: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 64)}
	h.register <- c
	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(1 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		h.handleClientMessage(data)
	}
}

// handleClientMessage dispatches one inbound message to the engine.
// Malformed messages are logged and dropped; the connection stays up.
func (h *Hub) handleClientMessage(data []byte) {
	if h.engine == nil {
		return
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("ws.handleClientMessage: %v", err)
		return
	}
	switch msg.Type {
	case TypeInput:
		if msg.Text != nil {
			h.engine.SetInput(*msg.Text)
		}
	case TypeConfig:
		if msg.Config != nil {
			h.engine.SetConfig(*msg.Config)
		}
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
