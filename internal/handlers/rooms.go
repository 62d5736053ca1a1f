package handlers

import (
	"net/http"

	"github.com/chatrizz/backend/internal/logger"
	"github.com/chatrizz/backend/internal/models"
	"github.com/chatrizz/backend/internal/realtime"
	"github.com/chatrizz/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// roomResponse decorates a room with per-caller data
type roomResponse struct {
	models.ChatRoom
	UnreadCount int64           `json:"unread_count"`
	LastMessage *models.Message `json:"last_message,omitempty"`
}

// CreateRoom creates a direct or group chat
// POST /api/v1/chats
func (h *Handlers) CreateRoom(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Name      string   `json:"name"`
		IsGroup   bool     `json:"is_group"`
		MemberIDs []string `json:"member_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	room, err := h.store.CreateRoom(c.Request.Context(), userID, req.Name, req.IsGroup, req.MemberIDs)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	// Pull every member's live connections into the new room and tell them
	event := realtime.NewEvent(realtime.EventTypeChatCreated, realtime.ChatCreatedPayload{
		ChatID:  room.ID,
		Room:    room,
		Creator: userID,
	})
	for _, memberID := range room.MemberIDs() {
		h.hub.JoinUser(memberID, room.ID)
		if memberID != userID {
			h.hub.SendToUser(memberID, event)
		}
	}

	c.JSON(http.StatusCreated, room)
}

// ListRooms returns the caller's chats, most recently active first
// GET /api/v1/chats
func (h *Handlers) ListRooms(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	rooms, err := h.store.ListRoomsForUser(c.Request.Context(), userID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	resp := make([]roomResponse, 0, len(rooms))
	for i := range rooms {
		unread, err := h.redis.UnreadCount(c.Request.Context(), userID, rooms[i].ID)
		if err != nil {
			logger.WarnWithFields("Failed to read unread count", err)
		}
		last, err := h.store.LatestMessage(c.Request.Context(), rooms[i].ID)
		if err != nil {
			logger.WarnWithFields("Failed to load latest message", err)
		}
		resp = append(resp, roomResponse{ChatRoom: rooms[i], UnreadCount: unread, LastMessage: last})
	}

	c.JSON(http.StatusOK, gin.H{"chats": resp})
}

// GetRoom returns one chat with members
// GET /api/v1/chats/:id
func (h *Handlers) GetRoom(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	room, err := h.store.GetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	if !room.HasMember(userID) {
		util.RespondForbidden(c, "not a member of this chat")
		return
	}

	c.JSON(http.StatusOK, room)
}
