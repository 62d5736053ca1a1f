// Package handlers wires the REST surface to the messaging pipeline.
package handlers

import (
	"strings"

	"github.com/chatrizz/backend/internal/auth"
	"github.com/chatrizz/backend/internal/cache"
	"github.com/chatrizz/backend/internal/delivery"
	"github.com/chatrizz/backend/internal/realtime"
	"github.com/chatrizz/backend/internal/store"
	"github.com/chatrizz/backend/internal/translate"
	"github.com/chatrizz/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// Handlers bundles the dependencies shared by all REST handlers
type Handlers struct {
	store       *store.Store
	hub         *realtime.Hub
	tracker     *delivery.Tracker
	translator  *translate.Gateway
	redis       *cache.RedisClient
	authService *auth.Service
}

// New creates the handler set. redis may be nil (unread counts degrade to 0).
func New(st *store.Store, hub *realtime.Hub, tracker *delivery.Tracker, translator *translate.Gateway, redis *cache.RedisClient, authService *auth.Service) *Handlers {
	return &Handlers{
		store:       st,
		hub:         hub,
		tracker:     tracker,
		translator:  translator,
		redis:       redis,
		authService: authService,
	}
}

// AuthMiddleware validates the bearer token and stores the user in context
func (h *Handlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			util.RespondUnauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		user, err := h.authService.ValidateToken(tokenString)
		if err != nil {
			util.RespondUnauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}
