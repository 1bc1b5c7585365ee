package web

import (
	"encoding/json"
	"sync"

	"github.com/mikey/spam-stream/internal/core"
	"go.uber.org/zap"
)

// Hub fans stream events out to the websocket clients watching a session
type Hub struct {
	// Registered clients: session id -> clients (several tabs may watch one session)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	stopOnce   sync.Once

	mu     sync.RWMutex
	logger *zap.Logger
}

// NewHub creates a hub; call Run to start processing registrations
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes registrations until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Debug("Client registered", zap.String("session_id", client.SessionID))

		case client := <-h.unregister:
			h.remove(client)

		case <-h.stop:
			h.mu.Lock()
			for id, clients := range h.clients {
				for _, client := range clients {
					client.closeSend()
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop closes every client and ends Run
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[client.SessionID]
	for i, c := range clients {
		if c == client {
			h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
			client.closeSend()
			break
		}
	}
	if len(h.clients[client.SessionID]) == 0 {
		delete(h.clients, client.SessionID)
		h.logger.Debug("Session has no more clients", zap.String("session_id", client.SessionID))
	}
}

// Publish sends an event to every client of its session. Slow clients are dropped.
func (h *Hub) Publish(event core.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to encode event", zap.Error(err))
		return
	}

	// remove closes Send under the write lock
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients[event.SessionID] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Dropping slow websocket client", zap.String("session_id", event.SessionID))
			go func(c *Client) {
				select {
				case h.unregister <- c:
				case <-h.stop:
				}
			}(client)
		}
	}
}

// ClientCount returns how many clients watch a session
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}
