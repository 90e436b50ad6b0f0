package sse

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/davidwalker2235/hcongame/internal/model"
)

// RankingTopic is the hub shared by every open ranking page
const RankingTopic = "ranking"

// PlayerTopic is the hub of one player's open levels pages
func PlayerTopic(token model.SessionToken) string {
	return "player:" + string(token)
}

// Hub manages SSE clients subscribed to one topic
type Hub struct {
	topic   string
	clients map[*Client]bool
	mu      sync.RWMutex
	logger  *slog.Logger

	// Channels for managing clients
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	closeOnce sync.Once
	onClose   []func()
}

// NewHub creates a new Hub for a topic
func NewHub(topic string, logger *slog.Logger) *Hub {
	return &Hub{
		topic:      topic,
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("topic", logTopic(topic))),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// logTopic keeps session tokens out of the logs
func logTopic(topic string) string {
	if strings.HasPrefix(topic, "player:") {
		return "player"
	}
	return topic
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Debug("sse hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("sse client registered",
				slog.String("client_id", client.id),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				clientCount := len(h.clients)
				h.mu.Unlock()
				h.logger.Debug("sse client unregistered",
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.mu.RLock()
			sentCount := 0
			droppedCount := 0
			for client := range h.clients {
				select {
				case client.send <- message:
					sentCount++
				default:
					droppedCount++
				}
			}
			h.mu.RUnlock()
			if droppedCount > 0 {
				h.logger.Warn("sse broadcast partial failure",
					slog.Int("sent", sentCount),
					slog.Int("dropped", droppedCount))
			}

		case <-h.done:
			h.mu.Lock()
			clientCount := len(h.clients)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Debug("sse hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

// Register adds a client to the hub. It returns false if the hub has
// already been closed.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast sends a message to all clients
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("sse broadcast dropped - hub buffer full")
	}
}

// BroadcastEvent sends an SSE event with a name and data
func (h *Hub) BroadcastEvent(eventName, data string) {
	h.Broadcast(formatSSEMessage(eventName, data))
}

// OnClose registers fn to run when the hub is closed. fn runs at once if
// the hub is already closed.
func (h *Hub) OnClose(fn func()) {
	h.mu.Lock()
	select {
	case <-h.done:
		h.mu.Unlock()
		fn()
		return
	default:
	}
	h.onClose = append(h.onClose, fn)
	h.mu.Unlock()
}

// Close shuts down the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		close(h.done)
		hooks := h.onClose
		h.onClose = nil
		h.mu.Unlock()
		for _, fn := range hooks {
			fn()
		}
	})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// formatSSEMessage formats an SSE message with event name and data.
// Each line of data gets its own "data: " prefix.
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: " + eventName + "\n")
	for _, line := range splitLines(data) {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

// splitLines splits s on \n, dropping \r. A trailing newline does not
// produce an extra empty line.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

// HubManager manages one hub per topic
type HubManager struct {
	hubs   map[string]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[string]*Hub),
		logger: logger.With(slog.String("component", "sse")),
	}
}

// GetOrCreateHub returns the hub for a topic, creating and starting one if
// it doesn't exist. created reports whether the hub is new.
func (m *HubManager) GetOrCreateHub(topic string) (hub *Hub, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[topic]; ok {
		return hub, false
	}

	hub = NewHub(topic, m.logger)
	m.hubs[topic] = hub
	go hub.Run()
	return hub, true
}

// GetHub returns the hub for a topic, or nil if it doesn't exist
func (m *HubManager) GetHub(topic string) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[topic]
}

// RemoveHub removes and closes a hub
func (m *HubManager) RemoveHub(topic string) {
	m.mu.Lock()
	hub, ok := m.hubs[topic]
	delete(m.hubs, topic)
	m.mu.Unlock()

	if ok {
		hub.Close()
		m.logger.Debug("sse hub removed", slog.String("topic", logTopic(topic)))
	}
}

// CleanupEmptyHubs removes hubs with no clients
func (m *HubManager) CleanupEmptyHubs() int {
	m.mu.Lock()
	var empty []*Hub
	for topic, hub := range m.hubs {
		if hub.ClientCount() == 0 {
			empty = append(empty, hub)
			delete(m.hubs, topic)
		}
	}
	m.mu.Unlock()

	for _, hub := range empty {
		hub.Close()
	}
	if len(empty) > 0 {
		m.logger.Info("sse empty hubs cleaned up", slog.Int("removed", len(empty)))
	}
	return len(empty)
}

// Run removes empty hubs every interval until ctx is done
func (m *HubManager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CleanupEmptyHubs()
		}
	}
}

// Close closes every hub
func (m *HubManager) Close() {
	m.mu.Lock()
	hubs := m.hubs
	m.hubs = make(map[string]*Hub)
	m.mu.Unlock()

	for _, hub := range hubs {
		hub.Close()
	}
}
