package realtime

import (
	"github.com/chatrizz/backend/internal/models"
)

// NotifyStatus pushes a receipt transition to the sender's connections.
// Fire-and-forget: an offline sender simply misses the event. Implements
// the delivery tracker's StatusNotifier.
func (h *Hub) NotifyStatus(senderID, messageID, recipientID string, state models.DeliveryState) {
	h.SendToUser(senderID, NewEvent(EventTypeStatusUpdate, StatusUpdatePayload{
		MessageID:   messageID,
		RecipientID: recipientID,
		State:       string(state),
	}))
}
