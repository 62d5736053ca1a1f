package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a registered chat user
type User struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// ISO 639-1 code used as the translation target for incoming messages
	PreferredLanguage string `gorm:"default:''" json:"preferred_language"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the default table name
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a UUID so the model works on both postgres and sqlite
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// PublicProfile is the user shape exposed to other users
type PublicProfile struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	PreferredLanguage string `json:"preferred_language,omitempty"`
}

// ToPublicProfile strips private fields
func (u *User) ToPublicProfile() PublicProfile {
	return PublicProfile{
		ID:                u.ID,
		Username:          u.Username,
		PreferredLanguage: u.PreferredLanguage,
	}
}
