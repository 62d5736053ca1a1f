package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatRoom represents one chat (direct or group)
type ChatRoom struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	Name      string `json:"name"`
	IsGroup   bool   `gorm:"default:false" json:"is_group"`
	CreatorID string `gorm:"not null;index" json:"creator_id"`

	// Relationships
	Members []RoomMember `gorm:"foreignKey:RoomID" json:"members,omitempty"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the default table name
func (ChatRoom) TableName() string {
	return "chat_rooms"
}

// BeforeCreate assigns a UUID so the model works on both postgres and sqlite
func (r *ChatRoom) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// HasMember reports whether userID belongs to the room.
// Members must be preloaded.
func (r *ChatRoom) HasMember(userID string) bool {
	for _, m := range r.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// MemberIDs returns the ids of all room members.
// Members must be preloaded.
func (r *ChatRoom) MemberIDs() []string {
	ids := make([]string, 0, len(r.Members))
	for _, m := range r.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// RoomMember links a user to a chat room
type RoomMember struct {
	ID     string   `gorm:"primaryKey;type:uuid" json:"id"`
	RoomID string   `gorm:"not null;index:idx_room_members_room_user,unique" json:"room_id"`
	UserID string   `gorm:"not null;index:idx_room_members_room_user,unique;index" json:"user_id"`
	Room   ChatRoom `gorm:"foreignKey:RoomID" json:"-"`
	User   User     `gorm:"foreignKey:UserID" json:"user,omitempty"`

	JoinedAt  time.Time      `json:"joined_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the default table name
func (RoomMember) TableName() string {
	return "room_members"
}

// BeforeCreate assigns a UUID and join time
func (m *RoomMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}
	return nil
}
