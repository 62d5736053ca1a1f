package store

import (
	"context"
	"strings"
	"time"

	"github.com/chatrizz/backend/internal/errors"
	"github.com/chatrizz/backend/internal/metrics"
	"github.com/chatrizz/backend/internal/models"
	"github.com/chatrizz/backend/internal/translate"
	"gorm.io/gorm"
)

// MaxMessageLength caps message bodies, matching the client's limit
const MaxMessageLength = 4000

// CreateMessage validates membership, persists the message and seeds one
// `sent` receipt per non-sender room member, all in one transaction.
// Returns UnknownChat or NotMember on validation failure.
func (s *Store) CreateMessage(ctx context.Context, chatID, senderID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.ValidationError("body", "message body must not be empty")
	}
	if len(text) > MaxMessageLength {
		return nil, errors.ValidationError("body", "message body too long")
	}

	room, err := s.GetRoom(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !room.HasMember(senderID) {
		return nil, errors.NotMember(senderID, chatID)
	}

	now := time.Now().UTC()
	msg := models.Message{
		ChatID:         chatID,
		SenderID:       senderID,
		Body:           text,
		SourceLanguage: translate.DetectLanguage(text),
	}

	for _, m := range room.Members {
		if m.UserID == senderID {
			continue
		}
		msg.Receipts = append(msg.Receipts, models.MessageReceipt{
			RecipientID: m.UserID,
			State:       models.DeliverySent,
			StateAt:     now,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		// Bump the room so it sorts to the top of chat lists
		return tx.Model(&models.ChatRoom{}).
			Where("id = ?", chatID).
			UpdateColumn("updated_at", now).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.Get().MessagesCreatedTotal.Inc()

	return s.GetMessage(ctx, msg.ID)
}

// GetMessage fetches a message with its receipts and sender, or UnknownMessage
func (s *Store) GetMessage(ctx context.Context, messageID string) (*models.Message, error) {
	var msg models.Message
	err := s.db.WithContext(ctx).
		Preload("Receipts").
		Preload("Sender").
		First(&msg, "id = ?", messageID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.UnknownMessage(messageID)
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// LatestMessage returns the most recent message in a chat, or nil for an
// empty chat.
func (s *Store) LatestMessage(ctx context.Context, chatID string) (*models.Message, error) {
	var msg models.Message
	err := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Preload("Sender").
		Order("created_at DESC").
		First(&msg).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListMessages returns messages for a chat in reverse-chronological order,
// paginated by a before-timestamp. limit is clamped to [1, 100].
func (s *Store) ListMessages(ctx context.Context, chatID string, limit int, before time.Time) ([]models.Message, error) {
	if _, err := s.GetRoom(ctx, chatID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	q := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Preload("Receipts").
		Preload("Sender").
		Order("created_at DESC").
		Limit(limit)

	if !before.IsZero() {
		q = q.Where("created_at < ?", before)
	}

	var msgs []models.Message
	err := q.Find(&msgs).Error
	return msgs, err
}
