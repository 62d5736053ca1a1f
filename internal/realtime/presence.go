package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/chatrizz/backend/internal/logger"
	"github.com/chatrizz/backend/internal/store"
)

// PresenceStatus represents the current status of a user
type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusOffline PresenceStatus = "offline"
)

// UserPresence tracks a single user's presence state
type UserPresence struct {
	UserID       string         `json:"user_id"`
	Username     string         `json:"username"`
	Status       PresenceStatus `json:"status"`
	LastActivity time.Time      `json:"last_activity"`
	ConnectedAt  time.Time      `json:"connected_at"`
}

// PresenceManager tracks user presence and announces transitions to the
// rooms each user belongs to. State is in-memory and process-local.
type PresenceManager struct {
	hub   *Hub
	store *store.Store

	presence map[string]*UserPresence
	mu       sync.RWMutex

	timeoutDuration time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// PresenceConfig holds configuration for the presence manager
type PresenceConfig struct {
	TimeoutDuration time.Duration // Default: 5 minutes
}

// DefaultPresenceConfig returns sensible defaults
func DefaultPresenceConfig() PresenceConfig {
	return PresenceConfig{
		TimeoutDuration: 5 * time.Minute,
	}
}

// NewPresenceManager creates a new presence manager
func NewPresenceManager(hub *Hub, st *store.Store, config PresenceConfig) *PresenceManager {
	ctx, cancel := context.WithCancel(context.Background())

	if config.TimeoutDuration == 0 {
		config.TimeoutDuration = 5 * time.Minute
	}

	return &PresenceManager{
		hub:             hub,
		store:           st,
		presence:        make(map[string]*UserPresence),
		timeoutDuration: config.TimeoutDuration,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// Start begins the background sweep for timed-out presence entries
func (pm *PresenceManager) Start() {
	go pm.sweepLoop()
}

// Stop shuts down the presence manager
func (pm *PresenceManager) Stop() {
	pm.cancel()
}

// OnClientConnect marks a user online and announces the transition
func (pm *PresenceManager) OnClientConnect(client *Client) {
	pm.mu.Lock()
	_, wasOnline := pm.presence[client.UserID]
	now := time.Now().UTC()
	pm.presence[client.UserID] = &UserPresence{
		UserID:       client.UserID,
		Username:     client.Username,
		Status:       StatusOnline,
		LastActivity: now,
		ConnectedAt:  now,
	}
	pm.mu.Unlock()

	// Announce only the offline -> online edge, not extra devices
	if !wasOnline {
		pm.announce(client.UserID, client.Username, StatusOnline)
	}
}

// OnClientDisconnect marks a user offline once their last connection closes
func (pm *PresenceManager) OnClientDisconnect(client *Client) {
	if pm.hub.IsUserOnline(client.UserID) {
		return // other devices still connected
	}

	pm.mu.Lock()
	delete(pm.presence, client.UserID)
	pm.mu.Unlock()

	pm.announce(client.UserID, client.Username, StatusOffline)
}

// GetPresence returns the presence entry for a user, if online
func (pm *PresenceManager) GetPresence(userID string) (*UserPresence, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	p, ok := pm.presence[userID]
	if !ok {
		return nil, false
	}
	copied := *p
	return &copied, true
}

// announce broadcasts a presence transition to every room the user belongs
// to. Best-effort: lookup failures are logged and dropped.
func (pm *PresenceManager) announce(userID, username string, status PresenceStatus) {
	eventType := EventTypeUserOnline
	if status == StatusOffline {
		eventType = EventTypeUserOffline
	}

	event := NewEvent(eventType, PresencePayload{
		UserID:    userID,
		Username:  username,
		Status:    string(status),
		Timestamp: time.Now().UnixMilli(),
	})

	rooms, err := pm.store.ListRoomsForUser(pm.ctx, userID)
	if err != nil {
		logger.WarnWithFields("Failed to load rooms for presence announce", err)
		return
	}
	for i := range rooms {
		pm.hub.BroadcastToRoom(rooms[i].ID, event, userID)
	}
}

// sweepLoop periodically drops presence entries with no recent activity.
// Connections normally clean up on disconnect; this covers half-open ones.
func (pm *PresenceManager) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-pm.ctx.Done():
			return
		case <-ticker.C:
			pm.sweep()
		}
	}
}

func (pm *PresenceManager) sweep() {
	cutoff := time.Now().UTC().Add(-pm.timeoutDuration)

	pm.mu.Lock()
	var stale []*UserPresence
	for userID, p := range pm.presence {
		if p.LastActivity.Before(cutoff) && !pm.hub.IsUserOnline(userID) {
			stale = append(stale, p)
			delete(pm.presence, userID)
		}
	}
	pm.mu.Unlock()

	for _, p := range stale {
		pm.announce(p.UserID, p.Username, StatusOffline)
	}
}

// Touch refreshes a user's activity timestamp
func (pm *PresenceManager) Touch(userID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if p, ok := pm.presence[userID]; ok {
		p.LastActivity = time.Now().UTC()
	}
}
