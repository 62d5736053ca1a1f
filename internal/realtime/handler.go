package realtime

import (
	"net/http"
	"strings"
	"time"

	"github.com/chatrizz/backend/internal/auth"
	"github.com/chatrizz/backend/internal/logger"
	"github.com/chatrizz/backend/internal/store"
	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles WebSocket HTTP upgrade requests
type Handler struct {
	hub         *Hub
	authService *auth.Service
	store       *store.Store
	presence    *PresenceManager
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, authService *auth.Service, st *store.Store) *Handler {
	return &Handler{
		hub:         hub,
		authService: authService,
		store:       st,
	}
}

// SetPresenceManager sets the presence manager for the handler
func (h *Handler) SetPresenceManager(pm *PresenceManager) {
	h.presence = pm
}

// HandleWebSocket handles WebSocket upgrade requests.
// Authentication is via JWT in the `token` query param or bearer header.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	tokenString := c.Query("token")
	if auth := c.GetHeader("Authorization"); tokenString == "" && auth != "" {
		tokenString = strings.TrimPrefix(auth, "Bearer ")
	}
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "authentication_failed",
			"message": "no authentication token provided",
		})
		return
	}

	user, err := h.authService.ValidateToken(tokenString)
	if err != nil {
		logger.Log.Warn("WebSocket auth failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "authentication_failed",
			"message": err.Error(),
		})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // origin checks are handled by the CORS layer
		CompressionMode:    websocket.CompressionContextTakeover,
	})
	if err != nil {
		logger.Log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, user.ID, user.Username)
	client.RemoteAddr = c.ClientIP()
	client.UserAgent = c.GetHeader("User-Agent")

	h.hub.Register(client)

	// Join the connection to every room the user belongs to so room
	// broadcasts reach it immediately.
	rooms, err := h.store.ListRoomsForUser(c.Request.Context(), user.ID)
	if err != nil {
		logger.WarnWithFields("Failed to load rooms for new connection", err)
	} else {
		for i := range rooms {
			h.hub.JoinRoom(client, rooms[i].ID)
		}
	}

	if h.presence != nil {
		h.presence.OnClientConnect(client)
	}

	_ = client.Send(NewEvent(EventTypeSystem, SystemPayload{
		Event:   "connected",
		Message: "Welcome to ChatRizz!",
		Data: map[string]interface{}{
			"user_id":     user.ID,
			"username":    user.Username,
			"server_time": time.Now().UTC().UnixMilli(),
		},
	}))

	go client.WritePump()
	client.ReadPump() // blocks until the client disconnects

	if h.presence != nil {
		h.presence.OnClientDisconnect(client)
	}
}
