package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/chatrizz/backend/internal/models"
	"github.com/chatrizz/backend/internal/store"
)

func presenceFixture(t *testing.T) (*Hub, *PresenceManager, *models.User, *models.User) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ChatRoom{},
		&models.RoomMember{},
	))

	alice := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	bob := &models.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(alice).Error)
	require.NoError(t, db.Create(bob).Error)

	st := store.New(db)
	_, err = st.CreateRoom(context.Background(), alice.ID, "", false, []string{bob.ID})
	require.NoError(t, err)

	hub := NewHub()
	pm := NewPresenceManager(hub, st, DefaultPresenceConfig())
	return hub, pm, alice, bob
}

func TestPresenceConnectAnnouncesToRoomMembers(t *testing.T) {
	hub, pm, alice, bob := presenceFixture(t)

	// Bob is already connected and joined to the shared room
	bobClient := NewClient(hub, nil, bob.ID, "bob")
	hub.Register(bobClient)
	rooms, err := pm.store.ListRoomsForUser(context.Background(), bob.ID)
	require.NoError(t, err)
	hub.JoinRoom(bobClient, rooms[0].ID)

	aliceClient := NewClient(hub, nil, alice.ID, "alice")
	hub.Register(aliceClient)
	pm.OnClientConnect(aliceClient)

	ev := drain(t, bobClient)
	assert.Equal(t, EventTypeUserOnline, ev.Type)

	var payload PresencePayload
	require.NoError(t, ev.ParsePayload(&payload))
	assert.Equal(t, alice.ID, payload.UserID)
	assert.Equal(t, "online", payload.Status)

	_, online := pm.GetPresence(alice.ID)
	assert.True(t, online)
}

func TestPresenceSecondDeviceIsSilent(t *testing.T) {
	hub, pm, alice, _ := presenceFixture(t)

	phone := NewClient(hub, nil, alice.ID, "alice")
	laptop := NewClient(hub, nil, alice.ID, "alice")
	hub.Register(phone)
	pm.OnClientConnect(phone)

	hub.Register(laptop)
	pm.OnClientConnect(laptop)

	p, ok := pm.GetPresence(alice.ID)
	require.True(t, ok)
	assert.Equal(t, StatusOnline, p.Status)
}

func TestPresenceDisconnectWaitsForLastDevice(t *testing.T) {
	hub, pm, alice, _ := presenceFixture(t)

	phone := NewClient(hub, nil, alice.ID, "alice")
	laptop := NewClient(hub, nil, alice.ID, "alice")
	hub.Register(phone)
	hub.Register(laptop)
	pm.OnClientConnect(phone)
	pm.OnClientConnect(laptop)

	hub.Unregister(phone)
	pm.OnClientDisconnect(phone)
	_, online := pm.GetPresence(alice.ID)
	assert.True(t, online, "user stays online while another device is connected")

	hub.Unregister(laptop)
	pm.OnClientDisconnect(laptop)
	_, online = pm.GetPresence(alice.ID)
	assert.False(t, online)
}

func TestPresenceTouchAndSweep(t *testing.T) {
	hub, pm, alice, _ := presenceFixture(t)
	pm.timeoutDuration = 50 * time.Millisecond

	client := NewClient(hub, nil, alice.ID, "alice")
	hub.Register(client)
	pm.OnClientConnect(client)

	// Still connected: sweep must not evict regardless of activity age
	time.Sleep(80 * time.Millisecond)
	pm.sweep()
	_, online := pm.GetPresence(alice.ID)
	assert.True(t, online)

	// Half-open: hub lost the connection but disconnect never fired
	hub.Unregister(client)
	time.Sleep(80 * time.Millisecond)
	pm.Touch(alice.ID) // Touch on a live entry refreshes it
	pm.sweep()
	_, online = pm.GetPresence(alice.ID)
	assert.True(t, online, "touched entry survives one sweep")

	time.Sleep(80 * time.Millisecond)
	pm.sweep()
	_, online = pm.GetPresence(alice.ID)
	assert.False(t, online, "stale entry is swept once activity ages out")
}
