package seed

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/chatrizz/backend/internal/logger"
	"github.com/chatrizz/backend/internal/metrics"
	"github.com/chatrizz/backend/internal/models"
)

func TestMain(m *testing.M) {
	_ = logger.Initialize("error", "")
	metrics.Initialize()
	os.Exit(m.Run())
}

func TestSeederRun(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ChatRoom{},
		&models.RoomMember{},
		&models.Message{},
		&models.MessageReceipt{},
	))

	seeder := New(db)
	require.NoError(t, seeder.Run(context.Background()))

	var users, rooms, messages, receipts int64
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.ChatRoom{}).Count(&rooms)
	db.Model(&models.Message{}).Count(&messages)
	db.Model(&models.MessageReceipt{}).Count(&receipts)

	assert.Equal(t, int64(len(demoUsers)), users)
	assert.Equal(t, int64(4), rooms, "one group chat plus three direct chats")
	assert.Equal(t, int64(len(demoMessages)), messages)
	// Every group message gets a receipt per non-sender member
	assert.Equal(t, int64(len(demoMessages)*(len(demoUsers)-1)), receipts)

	// Reseeding must not duplicate accounts
	require.NoError(t, seeder.Run(context.Background()))
	db.Model(&models.User{}).Count(&users)
	assert.Equal(t, int64(len(demoUsers)), users)

	require.NoError(t, seeder.Clean())
	db.Model(&models.ChatRoom{}).Count(&rooms)
	assert.Zero(t, rooms)
}
