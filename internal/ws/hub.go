package ws

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Hub manages WebSocket connections and per-symbol subscriptions.
type Hub struct {
	clients    map[*Client]bool
	groups     map[string]map[*Client]bool // symbol -> clients
	register   chan *Client
	unregister chan *Client
	broadcast  chan *GroupMessage
	mu         sync.RWMutex
	logger     *zap.Logger
}

// GroupMessage represents a message to broadcast to a symbol group.
type GroupMessage struct {
	Symbol  string
	Payload []byte
}

// NewHub creates a new Hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		groups:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *GroupMessage, 256),
		logger:     logger,
	}
}

// Run processes hub events. Call this in a goroutine.
// Returns when context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("hub shutting down")
			h.shutdown()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", zap.String("connID", client.connID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				// Remove from all groups
				for symbol := range client.groups {
					if clients, ok := h.groups[symbol]; ok {
						delete(clients, client)
						if len(clients) == 0 {
							delete(h.groups, symbol)
						}
					}
				}
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", zap.String("connID", client.connID))

		case msg := <-h.broadcast:
			h.mu.RLock()
			if clients, ok := h.groups[msg.Symbol]; ok {
				for client := range clients {
					select {
					case client.send <- msg.Payload:
					default:
						// Buffer full, schedule disconnect
						go func(c *Client) {
							h.unregister <- c
						}(client)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// shutdown gracefully closes all client connections.
func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.groups = make(map[string]map[*Client]bool)
}

// Subscribe adds a client to a symbol group.
func (h *Hub) Subscribe(client *Client, symbol string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.groups[symbol] == nil {
		h.groups[symbol] = make(map[*Client]bool)
	}
	h.groups[symbol][client] = true
	client.groups[symbol] = true

	h.logger.Debug("client subscribed",
		zap.String("connID", client.connID),
		zap.String("symbol", symbol),
	)
}

// Unsubscribe removes a client from a symbol group.
func (h *Hub) Unsubscribe(client *Client, symbol string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.groups[symbol]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.groups, symbol)
		}
	}
	delete(client.groups, symbol)

	h.logger.Debug("client unsubscribed",
		zap.String("connID", client.connID),
		zap.String("symbol", symbol),
	)
}

// ActiveSymbols returns all symbols with at least one subscriber.
func (h *Hub) ActiveSymbols() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var symbols []string
	for symbol, clients := range h.groups {
		if len(clients) > 0 {
			symbols = append(symbols, symbol)
		}
	}
	return symbols
}

// Broadcast sends a payload to all clients subscribed to a symbol.
func (h *Hub) Broadcast(symbol string, payload []byte) {
	h.broadcast <- &GroupMessage{Symbol: symbol, Payload: payload}
}
