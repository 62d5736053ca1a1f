package realtime

import (
	"encoding/json"
	"fmt"
	"time"
)

// FlexibleTime handles both Unix millisecond timestamps and RFC3339 strings
type FlexibleTime struct {
	time.Time
}

// UnmarshalJSON implements custom unmarshaling for timestamps
func (ft *FlexibleTime) UnmarshalJSON(b []byte) error {
	// Try Unix milliseconds first
	var ms int64
	if err := json.Unmarshal(b, &ms); err == nil {
		ft.Time = time.UnixMilli(ms)
		return nil
	}

	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("timestamp must be Unix milliseconds (integer) or RFC3339 string")
	}

	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return err
	}
	ft.Time = t
	return nil
}

// MarshalJSON implements custom marshaling (always output as RFC3339)
func (ft FlexibleTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(ft.Time)
}

// Event types for WebSocket communication
const (
	// System events
	EventTypeSystem = "system"
	EventTypePing   = "ping"
	EventTypePong   = "pong"
	EventTypeError  = "error"
	EventTypeAuth   = "auth"

	// Message pipeline events (server -> client)
	EventTypeNewMessage         = "new_message"
	EventTypeStatusUpdate       = "message_status_update"
	EventTypeMessageTranslation = "message_translation"
	EventTypeChatCreated        = "chat_created"

	// Message pipeline events (client -> server)
	EventTypeMessageDelivered = "message_delivered"
	EventTypeMessageRead      = "message_read"

	// Presence events
	EventTypeUserOnline  = "user_online"
	EventTypeUserOffline = "user_offline"

	// Typing indicators
	EventTypeTyping     = "typing"
	EventTypeUserTyping = "user_typing"
)

// Event represents a WebSocket event envelope
type Event struct {
	// Type identifies the event for routing
	Type string `json:"type"`

	// Payload contains the event-specific data
	Payload interface{} `json:"payload,omitempty"`

	// ID is a unique event identifier for acknowledgment
	ID string `json:"id,omitempty"`

	// ReplyTo references the original event ID for responses
	ReplyTo string `json:"reply_to,omitempty"`

	// Timestamp when the event was created (accepts Unix ms or RFC3339)
	Timestamp FlexibleTime `json:"timestamp"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType string, payload interface{}) *Event {
	return &Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: FlexibleTime{Time: time.Now().UTC()},
	}
}

// NewErrorEvent creates an error event
func NewErrorEvent(code string, message string) *Event {
	return &Event{
		Type: EventTypeError,
		Payload: ErrorPayload{
			Code:    code,
			Message: message,
		},
		Timestamp: FlexibleTime{Time: time.Now().UTC()},
	}
}

// ParsePayload unmarshals the payload into a specific type
func (e *Event) ParsePayload(target interface{}) error {
	if e.Payload == nil {
		return nil
	}

	// Re-marshal and unmarshal to properly type the payload
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// ErrorPayload represents an error event payload
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PingPayload represents a ping event payload
type PingPayload struct {
	ClientTime int64 `json:"client_time"`
}

// PongPayload represents a pong event payload
type PongPayload struct {
	ClientTime int64 `json:"client_time"`
	ServerTime int64 `json:"server_time"`
	Latency    int64 `json:"latency_ms"`
}

// NewMessagePayload carries a freshly created chat message to room members
type NewMessagePayload struct {
	ChatID  string      `json:"chat_id"`
	Message interface{} `json:"message"`
}

// StatusUpdatePayload notifies a sender of a receipt transition
type StatusUpdatePayload struct {
	MessageID   string `json:"message_id"`
	RecipientID string `json:"recipient_id"`
	State       string `json:"state"`
}

// TranslationPayload carries a per-recipient translated copy of a message
type TranslationPayload struct {
	ChatID         string `json:"chat_id"`
	MessageID      string `json:"message_id"`
	Body           string `json:"body"`
	SourceLanguage string `json:"source_language,omitempty"`
	TargetLanguage string `json:"target_language"`
}

// ReceiptAckPayload is the client -> server acknowledgment body
type ReceiptAckPayload struct {
	MessageID string `json:"message_id"`
}

// PresencePayload represents a presence update
type PresencePayload struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Status    string `json:"status"` // "online", "offline"
	Timestamp int64  `json:"timestamp"`
}

// TypingPayload indicates a user is typing in a chat
type TypingPayload struct {
	ChatID    string `json:"chat_id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Timestamp int64  `json:"timestamp"`
}

// ChatCreatedPayload tells members a new room now includes them
type ChatCreatedPayload struct {
	ChatID  string      `json:"chat_id"`
	Room    interface{} `json:"room,omitempty"`
	Creator string      `json:"creator_id"`
}

// SystemPayload represents system event payloads
type SystemPayload struct {
	Event   string                 `json:"event"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// AuthPayload represents authentication event payload
type AuthPayload struct {
	UserID string `json:"user_id,omitempty"`
	Status string `json:"status,omitempty"`
}
