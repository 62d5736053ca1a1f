// Package realtime routes chat events to live WebSocket connections.
// Uses github.com/coder/websocket for the transport.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/chatrizz/backend/internal/logger"
	prommetrics "github.com/chatrizz/backend/internal/metrics"
	"go.uber.org/zap"
)

// Hub owns the connection registry and the room fan-out sets. Membership
// state is process-local and mutated only through Hub methods; disconnect
// cleanup removes a connection from every room it joined.
type Hub struct {
	// Connections by user ID for targeted delivery
	clients map[string]map[*Client]struct{}

	// All connections
	allClients map[*Client]struct{}

	// Live fan-out sets per room
	rooms map[string]map[*Client]struct{}

	mu sync.RWMutex

	// Counters
	stats *Stats

	// Shutdown handling
	ctx    context.Context
	cancel context.CancelFunc

	// Incoming event handlers by type
	handlers   map[string]EventHandler
	handlersMu sync.RWMutex

	rateLimitConfig RateLimitConfig
}

// Stats tracks WebSocket counters
type Stats struct {
	TotalConnections  atomic.Int64
	ActiveConnections atomic.Int64
	EventsReceived    atomic.Int64
	EventsSent        atomic.Int64
	Errors            atomic.Int64
	SendDrops         atomic.Int64
}

// RateLimitConfig defines per-client rate limiting parameters
type RateLimitConfig struct {
	MaxEventsPerSecond int
	BurstSize          int
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxEventsPerSecond: 10,
		BurstSize:          20,
	}
}

// EventHandler processes incoming events of a specific type
type EventHandler func(client *Client, event *Event) error

// NewHub creates a new Hub instance
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:         make(map[string]map[*Client]struct{}),
		allClients:      make(map[*Client]struct{}),
		rooms:           make(map[string]map[*Client]struct{}),
		stats:           &Stats{},
		ctx:             ctx,
		cancel:          cancel,
		handlers:        make(map[string]EventHandler),
		rateLimitConfig: DefaultRateLimitConfig(),
	}
}

// RegisterHandler registers a handler for a specific event type
func (h *Hub) RegisterHandler(eventType string, handler EventHandler) {
	h.handlersMu.Lock()
	defer h.handlersMu.Unlock()
	h.handlers[eventType] = handler
}

// GetHandler returns the handler for an event type
func (h *Hub) GetHandler(eventType string) (EventHandler, bool) {
	h.handlersMu.RLock()
	defer h.handlersMu.RUnlock()
	handler, ok := h.handlers[eventType]
	return handler, ok
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.UserID] == nil {
		h.clients[client.UserID] = make(map[*Client]struct{})
	}
	h.clients[client.UserID][client] = struct{}{}
	h.allClients[client] = struct{}{}

	h.stats.TotalConnections.Add(1)
	h.stats.ActiveConnections.Add(1)
	prommetrics.Get().ActiveConnections.Inc()

	logger.Log.Info("Client connected",
		logger.WithUserID(client.UserID),
		zap.Int64("active", h.stats.ActiveConnections.Load()))
}

// Unregister removes a client from the hub and from every room it joined
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.allClients[client]; !ok {
		return
	}
	delete(h.allClients, client)

	if clients, ok := h.clients[client.UserID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, client.UserID)
		}
	}

	// Disconnect cleanup: drop the connection from all joined rooms
	for roomID := range client.joined {
		if set, ok := h.rooms[roomID]; ok {
			delete(set, client)
			if len(set) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	client.joined = make(map[string]struct{})

	client.detach()

	h.stats.ActiveConnections.Add(-1)
	prommetrics.Get().ActiveConnections.Dec()

	logger.Log.Info("Client disconnected",
		logger.WithUserID(client.UserID),
		zap.Int64("active", h.stats.ActiveConnections.Load()))
}

// JoinRoom registers a connection in a room's live fan-out set.
// Joining twice is a no-op.
func (h *Hub) JoinRoom(client *Client, roomID string) {
	if roomID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.allClients[client]; !ok {
		return
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]struct{})
	}
	h.rooms[roomID][client] = struct{}{}
	client.joined[roomID] = struct{}{}
}

// LeaveRoom removes a connection from a room's fan-out set.
// Unknown rooms and non-members are silent no-ops.
func (h *Hub) LeaveRoom(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.rooms[roomID]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(h.rooms, roomID)
		}
	}
	delete(client.joined, roomID)
}

// JoinUser joins every current connection of a user to a room. Used when a
// user is added to a room after their connections were established.
func (h *Hub) JoinUser(userID, roomID string) {
	if roomID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[userID]
	if !ok {
		return
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]struct{})
	}
	for client := range clients {
		h.rooms[roomID][client] = struct{}{}
		client.joined[roomID] = struct{}{}
	}
}

// BroadcastToRoom fans an event out to every connection joined to roomID,
// skipping excludeUserID's connections (pass "" to include everyone).
// Returns the number of connections notified. A full send buffer on one
// connection never blocks delivery to the rest. Broadcasts to a room are
// delivered to each connection in call order on this process; no
// cross-process ordering is provided.
func (h *Hub) BroadcastToRoom(roomID string, event *Event, excludeUserID string) int {
	data, err := json.Marshal(event)
	if err != nil {
		logger.ErrorWithFields("Failed to marshal broadcast event", err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	set, ok := h.rooms[roomID]
	if !ok {
		return 0
	}

	notified := 0
	for client := range set {
		if excludeUserID != "" && client.UserID == excludeUserID {
			continue
		}
		if h.deliver(client, event.Type, data) {
			notified++
		}
	}

	prommetrics.Get().BroadcastFanout.Observe(float64(notified))
	return notified
}

// SendToUser delivers an event to all of a user's connections.
// Returns the number of connections notified; 0 when the user is offline.
func (h *Hub) SendToUser(userID string, event *Event) int {
	data, err := json.Marshal(event)
	if err != nil {
		logger.ErrorWithFields("Failed to marshal unicast event", err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	notified := 0
	for client := range h.clients[userID] {
		if h.deliver(client, event.Type, data) {
			notified++
		}
	}
	return notified
}

// deliver pushes pre-marshaled bytes to one client. Callers hold h.mu;
// the send channel is only closed under the write lock, so this send
// cannot race a close.
func (h *Hub) deliver(client *Client, eventType string, data []byte) bool {
	select {
	case client.send <- data:
		h.stats.EventsSent.Add(1)
		prommetrics.Get().EventsSentTotal.WithLabelValues(eventType).Inc()
		return true
	default:
		// Buffer full: the connection is stalled. Drop it rather than
		// blocking delivery to other connections.
		h.stats.SendDrops.Add(1)
		prommetrics.Get().SendDropsTotal.Inc()
		logger.Log.Warn("Send buffer full, dropping connection",
			logger.WithUserID(client.UserID))
		go h.Unregister(client)
		return false
	}
}

// IsUserOnline checks if a user has any active connections
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.clients[userID]
	return ok && len(clients) > 0
}

// RoomConnectionCount returns the number of connections joined to a room
func (h *Hub) RoomConnectionCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// UserConnectionCount returns the number of connections for a user
func (h *Hub) UserConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// OnlineUsers returns a list of all online user IDs
func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		users = append(users, userID)
	}
	return users
}

// GetStats returns a point-in-time snapshot of hub counters
func (h *Hub) GetStats() StatsSnapshot {
	return StatsSnapshot{
		TotalConnections:  h.stats.TotalConnections.Load(),
		ActiveConnections: h.stats.ActiveConnections.Load(),
		EventsReceived:    h.stats.EventsReceived.Load(),
		EventsSent:        h.stats.EventsSent.Load(),
		Errors:            h.stats.Errors.Load(),
		SendDrops:         h.stats.SendDrops.Load(),
	}
}

// StatsSnapshot is a point-in-time snapshot of hub counters
type StatsSnapshot struct {
	TotalConnections  int64 `json:"total_connections"`
	ActiveConnections int64 `json:"active_connections"`
	EventsReceived    int64 `json:"events_received"`
	EventsSent        int64 `json:"events_sent"`
	Errors            int64 `json:"errors"`
	SendDrops         int64 `json:"send_drops"`
}

// String implements Stringer for StatsSnapshot
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"connections=%d/%d events=rx:%d/tx:%d errors=%d drops=%d",
		s.ActiveConnections, s.TotalConnections,
		s.EventsReceived, s.EventsSent,
		s.Errors, s.SendDrops,
	)
}

// SetRateLimitConfig updates the rate limiting configuration
func (h *Hub) SetRateLimitConfig(config RateLimitConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rateLimitConfig = config
}

// GetRateLimitConfig returns the current rate limit configuration
func (h *Hub) GetRateLimitConfig() RateLimitConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rateLimitConfig
}

// Shutdown closes all client connections and stops the hub
func (h *Hub) Shutdown(ctx context.Context) error {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	shutdownEvent := NewEvent(EventTypeSystem, SystemPayload{Event: "server_shutdown"})
	data, _ := json.Marshal(shutdownEvent)

	for client := range h.allClients {
		select {
		case client.send <- data:
		default:
		}
		client.detach()
	}

	closed := len(h.allClients)
	h.clients = make(map[string]map[*Client]struct{})
	h.allClients = make(map[*Client]struct{})
	h.rooms = make(map[string]map[*Client]struct{})

	logger.Log.Info("WebSocket hub shut down", zap.Int("closed_connections", closed))
	return nil
}
