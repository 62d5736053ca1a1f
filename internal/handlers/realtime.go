package handlers

import (
	"context"
	"time"

	"github.com/chatrizz/backend/internal/realtime"
)

// wsAckTimeout bounds receipt writes triggered over the socket
const wsAckTimeout = 10 * time.Second

// RegisterRealtimeHandlers routes incoming WebSocket events into the
// delivery tracker and typing relay.
func (h *Handlers) RegisterRealtimeHandlers(presence *realtime.PresenceManager) {
	h.hub.RegisterHandler(realtime.EventTypeMessageDelivered, func(client *realtime.Client, event *realtime.Event) error {
		var ack realtime.ReceiptAckPayload
		if err := event.ParsePayload(&ack); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), wsAckTimeout)
		defer cancel()
		return h.tracker.MarkDelivered(ctx, ack.MessageID, client.UserID)
	})

	h.hub.RegisterHandler(realtime.EventTypeMessageRead, func(client *realtime.Client, event *realtime.Event) error {
		var ack realtime.ReceiptAckPayload
		if err := event.ParsePayload(&ack); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), wsAckTimeout)
		defer cancel()
		if err := h.tracker.MarkRead(ctx, ack.MessageID, client.UserID); err != nil {
			return err
		}

		if msg, err := h.store.GetMessage(ctx, ack.MessageID); err == nil {
			_ = h.redis.ResetUnread(ctx, client.UserID, msg.ChatID)
		}
		return nil
	})

	h.hub.RegisterHandler(realtime.EventTypeTyping, func(client *realtime.Client, event *realtime.Event) error {
		var typing realtime.TypingPayload
		if err := event.ParsePayload(&typing); err != nil {
			return err
		}
		if typing.ChatID == "" {
			return nil
		}

		if presence != nil {
			presence.Touch(client.UserID)
		}

		ctx, cancel := context.WithTimeout(context.Background(), wsAckTimeout)
		defer cancel()
		if ok, err := h.store.IsMember(ctx, typing.ChatID, client.UserID); err != nil || !ok {
			return err
		}

		// Relay, never persist; echo suppressed
		h.hub.BroadcastToRoom(typing.ChatID, realtime.NewEvent(realtime.EventTypeUserTyping, realtime.TypingPayload{
			ChatID:    typing.ChatID,
			UserID:    client.UserID,
			Username:  client.Username,
			Timestamp: time.Now().UnixMilli(),
		}), client.UserID)
		return nil
	})
}
