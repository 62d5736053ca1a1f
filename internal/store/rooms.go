// Package store is the single source of truth for rooms, messages and
// delivery receipts. All persisted mutation goes through it.
package store

import (
	"context"

	"github.com/chatrizz/backend/internal/errors"
	"github.com/chatrizz/backend/internal/models"
	"gorm.io/gorm"
)

// Store wraps the database for chat persistence
type Store struct {
	db *gorm.DB
}

// New creates a Store on top of an open gorm connection
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection for transactional composition
func (s *Store) DB() *gorm.DB {
	return s.db
}

// CreateRoom creates a chat room with the given members. The creator is
// always included in the member set.
func (s *Store) CreateRoom(ctx context.Context, creatorID, name string, isGroup bool, memberIDs []string) (*models.ChatRoom, error) {
	seen := map[string]bool{creatorID: true}
	members := []models.RoomMember{{UserID: creatorID}}
	for _, id := range memberIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, models.RoomMember{UserID: id})
	}

	if !isGroup && len(members) != 2 {
		return nil, errors.ValidationError("member_ids", "a direct chat needs exactly one other member")
	}

	// Membership rows reference users; reject unknown IDs up front instead
	// of surfacing a foreign-key failure from the insert.
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	var known int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id IN ?", ids).Count(&known).Error; err != nil {
		return nil, err
	}
	if int(known) != len(ids) {
		return nil, errors.ValidationError("member_ids", "one or more members do not exist")
	}

	room := models.ChatRoom{
		Name:      name,
		IsGroup:   isGroup,
		CreatorID: creatorID,
		Members:   members,
	}

	if err := s.db.WithContext(ctx).Create(&room).Error; err != nil {
		return nil, err
	}

	return s.GetRoom(ctx, room.ID)
}

// GetRoom fetches a room with its members, or UnknownChat
func (s *Store) GetRoom(ctx context.Context, roomID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.db.WithContext(ctx).
		Preload("Members").
		Preload("Members.User").
		First(&room, "id = ?", roomID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.UnknownChat(roomID)
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ListRoomsForUser returns every room the user belongs to, most recently
// updated first.
func (s *Store) ListRoomsForUser(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := s.db.WithContext(ctx).
		Joins("JOIN room_members ON room_members.room_id = chat_rooms.id").
		Where("room_members.user_id = ? AND room_members.deleted_at IS NULL", userID).
		Preload("Members").
		Preload("Members.User").
		Order("chat_rooms.updated_at DESC").
		Find(&rooms).Error
	return rooms, err
}

// IsMember reports whether userID belongs to roomID
func (s *Store) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	return count > 0, err
}
