package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/chatrizz/backend/internal/logger"
	"github.com/chatrizz/backend/internal/models"
	"github.com/chatrizz/backend/internal/realtime"
	"github.com/chatrizz/backend/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// translationFanoutTimeout bounds the whole per-recipient translation pass
// for one message
const translationFanoutTimeout = 15 * time.Second

// SendMessage persists a message and fans it out to the room.
// POST /api/v1/chats/:id/messages
//
// Pipeline: persist (with seeded receipts) -> raw room broadcast ->
// best-effort per-recipient translated copies. Translation never blocks or
// fails delivery of the original.
func (h *Handlers) SendMessage(c *gin.Context) {
	chatID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Body string `json:"body" binding:"required,min=1,max=4000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	msg, err := h.store.CreateMessage(c.Request.Context(), chatID, userID, req.Body)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	notified := h.hub.BroadcastToRoom(chatID, realtime.NewEvent(realtime.EventTypeNewMessage, realtime.NewMessagePayload{
		ChatID:  chatID,
		Message: msg,
	}), userID)

	logger.Log.Debug("Message broadcast",
		logger.WithChatID(chatID),
		logger.WithMessageID(msg.ID),
		zap.Int("notified", notified))

	// Unread counters for every recipient, connected or not
	for _, r := range msg.Receipts {
		if err := h.redis.IncrUnread(c.Request.Context(), r.RecipientID, chatID); err != nil {
			logger.WarnWithFields("Failed to bump unread count", err)
		}
	}

	go h.fanoutTranslations(msg)

	c.JSON(http.StatusCreated, msg)
}

// fanoutTranslations pushes a translated copy of the message to each
// recipient whose preferred language differs from the detected source.
// Failures degrade to silence; the raw message already reached everyone.
func (h *Handlers) fanoutTranslations(msg *models.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), translationFanoutTimeout)
	defer cancel()

	room, err := h.store.GetRoom(ctx, msg.ChatID)
	if err != nil {
		logger.WarnWithFields("Failed to load room for translation fan-out", err)
		return
	}

	for _, member := range room.Members {
		if member.UserID == msg.SenderID {
			continue
		}
		target := member.User.PreferredLanguage
		if target == "" || target == msg.SourceLanguage {
			continue
		}
		if !h.hub.IsUserOnline(member.UserID) {
			continue
		}

		translated := h.translator.Translate(ctx, msg.Body, target, msg.SourceLanguage)
		if translated == msg.Body {
			continue
		}

		h.hub.SendToUser(member.UserID, realtime.NewEvent(realtime.EventTypeMessageTranslation, realtime.TranslationPayload{
			ChatID:         msg.ChatID,
			MessageID:      msg.ID,
			Body:           translated,
			SourceLanguage: msg.SourceLanguage,
			TargetLanguage: target,
		}))
	}
}

// ListMessages returns message history, newest first
// GET /api/v1/chats/:id/messages?limit=50&before=RFC3339
func (h *Handlers) ListMessages(c *gin.Context) {
	chatID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	isMember, err := h.store.IsMember(c.Request.Context(), chatID, userID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	if !isMember {
		util.RespondForbidden(c, "not a member of this chat")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	var before time.Time
	if raw := c.Query("before"); raw != "" {
		before, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			util.RespondValidationError(c, "before", "must be an RFC3339 timestamp")
			return
		}
	}

	msgs, err := h.store.ListMessages(c.Request.Context(), chatID, limit, before)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// MarkDelivered acknowledges receipt of a message
// POST /api/v1/messages/:id/delivered
func (h *Handlers) MarkDelivered(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.tracker.MarkDelivered(c.Request.Context(), c.Param("id"), userID); err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MarkRead marks a message read and clears the chat's unread counter
// POST /api/v1/messages/:id/read
func (h *Handlers) MarkRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	messageID := c.Param("id")
	if err := h.tracker.MarkRead(c.Request.Context(), messageID, userID); err != nil {
		util.RespondWithError(c, err)
		return
	}

	if msg, err := h.store.GetMessage(c.Request.Context(), messageID); err == nil {
		if err := h.redis.ResetUnread(c.Request.Context(), userID, msg.ChatID); err != nil {
			logger.WarnWithFields("Failed to reset unread count", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
