package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeliveryState is the per-recipient status of a message.
// States only advance: sent -> delivered -> read.
type DeliveryState string

const (
	DeliverySent      DeliveryState = "sent"
	DeliveryDelivered DeliveryState = "delivered"
	DeliveryRead      DeliveryState = "read"
)

// Rank orders delivery states for monotonic comparison
func (s DeliveryState) Rank() int {
	switch s {
	case DeliverySent:
		return 0
	case DeliveryDelivered:
		return 1
	case DeliveryRead:
		return 2
	default:
		return -1
	}
}

// Valid reports whether s is a known delivery state
func (s DeliveryState) Valid() bool {
	return s.Rank() >= 0
}

// Message represents one chat message.
// Body and sender are immutable after creation; only receipts mutate.
type Message struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	ChatID   string `gorm:"not null;index:idx_messages_chat_created" json:"chat_id"`
	SenderID string `gorm:"not null;index" json:"sender_id"`
	Body     string `gorm:"type:text;not null" json:"body"`

	// ISO 639-1 code detected at creation; empty when detection was inconclusive
	SourceLanguage string `json:"source_language,omitempty"`

	Sender   User             `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receipts []MessageReceipt `gorm:"foreignKey:MessageID" json:"receipts,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_messages_chat_created" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the default table name
func (Message) TableName() string {
	return "messages"
}

// BeforeCreate assigns a UUID so the model works on both postgres and sqlite
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// ReceiptFor returns the receipt for a recipient, or nil.
// Receipts must be preloaded.
func (m *Message) ReceiptFor(recipientID string) *MessageReceipt {
	for i := range m.Receipts {
		if m.Receipts[i].RecipientID == recipientID {
			return &m.Receipts[i]
		}
	}
	return nil
}

// MessageReceipt is the per-recipient delivery status entry.
// Exactly one exists per non-sender room member, created with the message.
type MessageReceipt struct {
	ID          string        `gorm:"primaryKey;type:uuid" json:"id"`
	MessageID   string        `gorm:"not null;index:idx_receipts_message_recipient,unique" json:"message_id"`
	RecipientID string        `gorm:"not null;index:idx_receipts_message_recipient,unique;index" json:"recipient_id"`
	State       DeliveryState `gorm:"not null;default:'sent'" json:"state"`
	StateAt     time.Time     `json:"state_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the default table name
func (MessageReceipt) TableName() string {
	return "message_receipts"
}

// BeforeCreate assigns a UUID and the initial transition timestamp
func (r *MessageReceipt) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.State == "" {
		r.State = DeliverySent
	}
	if r.StateAt.IsZero() {
		r.StateAt = time.Now().UTC()
	}
	return nil
}
