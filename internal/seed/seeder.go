// Package seed populates a development database with demo users and chats.
package seed

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/chatrizz/backend/internal/models"
	"github.com/chatrizz/backend/internal/store"
)

// DefaultPassword is the password every seeded account gets
const DefaultPassword = "chatrizz-dev"

type demoUser struct {
	username string
	language string
}

var demoUsers = []demoUser{
	{"alice", "en"},
	{"bruno", "pt"},
	{"chiyo", "ja"},
	{"diego", "es"},
	{"elif", "tr"},
	{"farah", "ar"},
}

var demoMessages = []string{
	"hey, is everyone here?",
	"good morning! just joined",
	"did you see the game last night?",
	"let's plan the weekend trip",
	"I'll share the photos later today",
}

// Seeder creates demo data through the same store the handlers use
type Seeder struct {
	db    *gorm.DB
	store *store.Store
}

// New creates a Seeder
func New(db *gorm.DB) *Seeder {
	return &Seeder{db: db, store: store.New(db)}
}

// Run seeds users, one group chat with everyone and a direct chat per pair
// of the first three users. Idempotent per username: existing accounts are
// reused, not duplicated.
func (s *Seeder) Run(ctx context.Context) error {
	users, err := s.users()
	if err != nil {
		return err
	}

	memberIDs := make([]string, 0, len(users)-1)
	for _, u := range users[1:] {
		memberIDs = append(memberIDs, u.ID)
	}
	group, err := s.store.CreateRoom(ctx, users[0].ID, "everyone", true, memberIDs)
	if err != nil {
		return fmt.Errorf("seed group chat: %w", err)
	}

	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if _, err := s.store.CreateRoom(ctx, users[i].ID, "", false, []string{users[j].ID}); err != nil {
				return fmt.Errorf("seed direct chat: %w", err)
			}
		}
	}

	for i, body := range demoMessages {
		sender := users[i%len(users)]
		if _, err := s.store.CreateMessage(ctx, group.ID, sender.ID, body); err != nil {
			return fmt.Errorf("seed message: %w", err)
		}
	}

	return nil
}

// Clean removes all seeded chat data. Users are kept.
func (s *Seeder) Clean() error {
	for _, table := range []string{"message_receipts", "messages", "room_members", "chat_rooms"} {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) users() ([]*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, len(demoUsers))
	for _, du := range demoUsers {
		var user models.User
		err := s.db.Where("username = ?", du.username).First(&user).Error
		if err == gorm.ErrRecordNotFound {
			user = models.User{
				Username:          du.username,
				Email:             du.username + "@chatrizz.dev",
				PasswordHash:      string(hash),
				PreferredLanguage: du.language,
			}
			err = s.db.Create(&user).Error
		}
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", du.username, err)
		}
		users = append(users, &user)
	}
	return users, nil
}
