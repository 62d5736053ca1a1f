package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chatrizz/backend/internal/logger"
	"github.com/coder/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write an event to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024 // 64KB; chat bodies are capped well below this

	// Send buffer size
	sendBufferSize = 256
)

// Client represents a single WebSocket connection bound to a user.
// Many clients may map to one user (multiple devices).
type Client struct {
	conn *websocket.Conn
	hub  *Hub

	UserID   string
	Username string

	// Buffered channel of outbound marshaled events
	send chan []byte

	// Rooms this connection has joined; guarded by hub.mu
	joined map[string]struct{}

	// Connection metadata
	ConnectedAt time.Time
	RemoteAddr  string
	UserAgent   string

	rateLimiter *RateLimiter

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// RateLimiter implements a simple token bucket rate limiter
type RateLimiter struct {
	tokens    float64
	maxTokens float64
	refill    float64
	lastTime  time.Time
	mu        sync.Mutex
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(maxPerSecond int, burst int) *RateLimiter {
	return &RateLimiter{
		tokens:    float64(burst),
		maxTokens: float64(burst),
		refill:    float64(maxPerSecond),
		lastTime:  time.Now(),
	}
}

// Allow checks if an action is allowed and consumes a token
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastTime).Seconds()
	r.lastTime = now

	r.tokens += elapsed * r.refill
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}

	if r.tokens >= 1 {
		r.tokens--
		return true
	}
	return false
}

// NewClient creates a new Client. conn may be nil in tests that exercise
// hub routing without a live transport.
func NewClient(hub *Hub, conn *websocket.Conn, userID, username string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	config := hub.GetRateLimitConfig()

	return &Client{
		hub:         hub,
		conn:        conn,
		UserID:      userID,
		Username:    username,
		send:        make(chan []byte, sendBufferSize),
		joined:      make(map[string]struct{}),
		ConnectedAt: time.Now(),
		rateLimiter: NewRateLimiter(config.MaxEventsPerSecond, config.BurstSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// ReadPump pumps events from the WebSocket connection to the hub handlers
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		readCtx, readCancel := context.WithTimeout(c.ctx, pongWait)
		_, data, err := c.conn.Read(readCtx)
		readCancel()

		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				logger.Log.Info("Client disconnected normally", logger.WithUserID(c.UserID))
			} else if c.ctx.Err() == nil {
				// Only log errors if we're not shutting down
				logger.Log.Error("Read error for client", logger.WithUserID(c.UserID), zap.Error(err))
				c.hub.stats.Errors.Add(1)
			}
			return
		}

		if !c.rateLimiter.Allow() {
			c.SendError("rate_limited", "Too many events, please slow down")
			c.hub.stats.Errors.Add(1)
			continue
		}

		c.hub.stats.EventsReceived.Add(1)

		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			logger.Log.Warn("WebSocket JSON parse error",
				logger.WithUserID(c.UserID),
				zap.Error(err))
			c.SendError("invalid_json", "Failed to parse event")
			continue
		}

		c.handleEvent(&event)
	}
}

// WritePump pumps events from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.Close(websocket.StatusGoingAway, "server shutdown")
			return

		case data, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				c.conn.Close(websocket.StatusNormalClosure, "closing")
				return
			}

			ctx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, data)
			cancel()

			if err != nil {
				logger.Log.Error("Write error for client", logger.WithUserID(c.UserID), zap.Error(err))
				c.hub.stats.Errors.Add(1)
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Ping(ctx)
			cancel()

			if err != nil {
				logger.Log.Warn("Ping failed for client", logger.WithUserID(c.UserID), zap.Error(err))
				return
			}
		}
	}
}

// handleEvent routes incoming events to registered handlers
func (c *Client) handleEvent(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = FlexibleTime{Time: time.Now().UTC()}
	}

	switch event.Type {
	case EventTypePing, "heartbeat": // "heartbeat" is an alias for ping
		c.handlePing(event)
		return

	case EventTypeAuth:
		// Auth happens at connection time; acknowledge re-auth attempts
		c.Send(NewEvent(EventTypeAuth, AuthPayload{
			UserID: c.UserID,
			Status: "authenticated",
		}))
		return
	}

	if handler, ok := c.hub.GetHandler(event.Type); ok {
		if err := handler(c, event); err != nil {
			logger.Log.Error("Handler error",
				zap.String("type", event.Type),
				zap.Error(err))
			c.SendError("handler_error", fmt.Sprintf("Failed to process %s", event.Type))
		}
		return
	}

	logger.Log.Warn("Unknown event type",
		logger.WithUserID(c.UserID),
		zap.String("type", event.Type))
	c.SendError("unknown_type", fmt.Sprintf("Unknown event type: %s", event.Type))
}

// handlePing responds to ping events with pong
func (c *Client) handlePing(event *Event) {
	var ping PingPayload
	if err := event.ParsePayload(&ping); err != nil {
		ping.ClientTime = 0
	}

	serverTime := time.Now().UnixMilli()

	pong := NewEvent(EventTypePong, PongPayload{
		ClientTime: ping.ClientTime,
		ServerTime: serverTime,
		Latency:    serverTime - ping.ClientTime,
	})
	if event.ID != "" {
		pong.ReplyTo = event.ID
	}

	// Best-effort: the connection may be closing
	_ = c.Send(pong)
}

// Send queues an event for this client.
// The lock is held across the channel send so detach cannot close the
// channel underneath an in-flight queue.
func (c *Client) Send(event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return fmt.Errorf("client connection closed")
	}

	select {
	case c.send <- data:
		return nil
	case <-c.ctx.Done():
		return fmt.Errorf("client shutting down")
	default:
		return fmt.Errorf("send buffer full")
	}
}

// SendError sends an error event to the client
func (c *Client) SendError(code, message string) {
	_ = c.Send(NewErrorEvent(code, message))
}

// detach marks the client closed and releases its send channel. Only the hub
// calls this, with its registry lock held, so it runs at most once per
// registered client; Send holds mu while queueing, so the close cannot race
// an in-flight write.
func (c *Client) detach() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.cancel()
	close(c.send)
}

// Close closes the client connection. Safe to call after the hub has
// detached the client; closing the transport twice is a no-op.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	c.cancel()
	c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close(websocket.StatusNormalClosure, "closing")
	}
}

// IsClosed returns whether the client connection is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
