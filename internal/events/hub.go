package events

import (
	"net/http"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/openpool/betledger/internal/ledger"
	"go.uber.org/zap"
)

// Hub fans committed lifecycle events out to WebSocket subscribers. It is a
// read-side convenience only: clients that miss events rebuild state from the
// record scans, and nothing the hub does can move funds.
type Hub struct {
	upgrader   websocket.Upgrader
	logger     *zap.Logger
	bufferSize int

	mu      sync.RWMutex
	clients map[string]*client
}

// client's send channel is never closed; done tells the writer to stop.
// Publish goroutines race disconnects, so closing send would panic a sender.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// Config holds hub configuration.
type Config struct {
	BufferSize int // per-client send buffer; slow clients past it are dropped
	Logger     *zap.Logger
}

// NewHub creates a new event hub.
func NewHub(cfg *Config) *Hub {
	return &Hub{
		upgrader:   websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		logger:     cfg.Logger,
		bufferSize: cfg.BufferSize,
		clients:    make(map[string]*client),
	}
}

// Publish implements ledger.Publisher. Events are queued per client; a client
// whose buffer is full is disconnected rather than allowed to block the
// ledger path.
func (h *Hub) Publish(event ledger.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("event-marshal-failed", zap.Error(err))
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- payload:
		case <-c.done:
		default:
			h.logger.Warn("event-client-too-slow", zap.String("client", c.id))
			h.remove(c)
		}
	}
}

// HandleWS upgrades the request and streams events until the client
// disconnects.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws-upgrade-failed", zap.Error(err))
		return
	}

	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, h.bufferSize),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	h.logger.Info("event-client-connected", zap.String("client", c.id))

	go h.writeLoop(c)
	h.readLoop(c)
}

// writeLoop drains the client's queue. Returns when the client is removed.
func (h *Hub) writeLoop(c *client) {
	for {
		select {
		case payload := <-c.send:
			err := c.conn.WriteMessage(websocket.TextMessage, payload)
			if err != nil {
				h.remove(c)
				return
			}
		case <-c.done:
			return
		}
	}
}

// readLoop discards inbound messages and detects disconnects.
func (h *Hub) readLoop(c *client) {
	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			h.remove(c)
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, present := h.clients[c.id]
	if present {
		delete(h.clients, c.id)
		close(c.done)
	}
	h.mu.Unlock()

	if present {
		_ = c.conn.Close()
		h.logger.Info("event-client-disconnected", zap.String("client", c.id))
	}
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*client)
	h.mu.Unlock()

	for _, c := range clients {
		close(c.done)
		_ = c.conn.Close()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
