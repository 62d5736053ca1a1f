package realtime

import (
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatrizz/backend/internal/logger"
	"github.com/chatrizz/backend/internal/metrics"
	"github.com/chatrizz/backend/internal/models"
)

func TestMain(m *testing.M) {
	_ = logger.Initialize("error", "")
	metrics.Initialize()
	os.Exit(m.Run())
}

// drain reads one queued event off a client's send buffer
func drain(t *testing.T, c *Client) *Event {
	select {
	case data := <-c.send:
		var ev Event
		require.NoError(t, json.Unmarshal(data, &ev))
		return &ev
	default:
		t.Fatal("expected a queued event")
		return nil
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub()
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.allClients)
	assert.NotNil(t, hub.rooms)
	assert.NotNil(t, hub.handlers)
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub()
	client := NewClient(hub, nil, "user-1", "alice")

	hub.Register(client)
	assert.True(t, hub.IsUserOnline("user-1"))
	assert.Equal(t, 1, hub.UserConnectionCount("user-1"))
	assert.Equal(t, []string{"user-1"}, hub.OnlineUsers())

	hub.Unregister(client)
	assert.False(t, hub.IsUserOnline("user-1"))
	assert.Equal(t, 0, hub.UserConnectionCount("user-1"))
}

func TestUnregisterTwiceIsSafe(t *testing.T) {
	hub := NewHub()
	client := NewClient(hub, nil, "user-1", "alice")

	hub.Register(client)
	hub.Unregister(client)
	hub.Unregister(client) // must not double-close the send channel
}

func TestSendAfterUnregisterFails(t *testing.T) {
	hub := NewHub()
	client := NewClient(hub, nil, "user-1", "alice")

	hub.Register(client)
	hub.Unregister(client)

	err := client.Send(NewEvent(EventTypeNewMessage, nil))
	assert.Error(t, err)
	assert.True(t, client.IsClosed())
}

func TestConcurrentSendAndUnregister(t *testing.T) {
	// Queueing events while the hub is tearing the client down must
	// degrade to an error, never a send on a closed channel.
	for i := 0; i < 50; i++ {
		hub := NewHub()
		client := NewClient(hub, nil, "user-1", "alice")
		hub.Register(client)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_ = client.Send(NewEvent(EventTypeNewMessage, nil))
			}
		}()
		go func() {
			defer wg.Done()
			hub.Unregister(client)
		}()
		wg.Wait()

		assert.Error(t, client.Send(NewEvent(EventTypeNewMessage, nil)))
	}
}

func TestMultipleConnectionsPerUser(t *testing.T) {
	hub := NewHub()
	phone := NewClient(hub, nil, "user-1", "alice")
	laptop := NewClient(hub, nil, "user-1", "alice")

	hub.Register(phone)
	hub.Register(laptop)
	assert.Equal(t, 2, hub.UserConnectionCount("user-1"))

	hub.Unregister(phone)
	assert.True(t, hub.IsUserOnline("user-1"))

	hub.Unregister(laptop)
	assert.False(t, hub.IsUserOnline("user-1"))
}

func TestJoinRoomAndBroadcast(t *testing.T) {
	hub := NewHub()
	alice := NewClient(hub, nil, "alice", "alice")
	bob := NewClient(hub, nil, "bob", "bob")
	hub.Register(alice)
	hub.Register(bob)

	hub.JoinRoom(alice, "room-1")
	hub.JoinRoom(bob, "room-1")
	assert.Equal(t, 2, hub.RoomConnectionCount("room-1"))

	event := NewEvent(EventTypeNewMessage, NewMessagePayload{ChatID: "room-1"})
	notified := hub.BroadcastToRoom("room-1", event, "")
	assert.Equal(t, 2, notified)

	assert.Equal(t, EventTypeNewMessage, drain(t, alice).Type)
	assert.Equal(t, EventTypeNewMessage, drain(t, bob).Type)
}

func TestBroadcastExcludesSender(t *testing.T) {
	hub := NewHub()
	alice := NewClient(hub, nil, "alice", "alice")
	bob := NewClient(hub, nil, "bob", "bob")
	hub.Register(alice)
	hub.Register(bob)
	hub.JoinRoom(alice, "room-1")
	hub.JoinRoom(bob, "room-1")

	notified := hub.BroadcastToRoom("room-1", NewEvent(EventTypeNewMessage, nil), "alice")
	assert.Equal(t, 1, notified)

	assert.Empty(t, alice.send)
	assert.Equal(t, EventTypeNewMessage, drain(t, bob).Type)
}

func TestBroadcastToUnknownRoom(t *testing.T) {
	hub := NewHub()
	assert.Equal(t, 0, hub.BroadcastToRoom("nope", NewEvent(EventTypeNewMessage, nil), ""))
}

func TestJoinRoomIdempotent(t *testing.T) {
	hub := NewHub()
	alice := NewClient(hub, nil, "alice", "alice")
	hub.Register(alice)

	hub.JoinRoom(alice, "room-1")
	hub.JoinRoom(alice, "room-1")
	assert.Equal(t, 1, hub.RoomConnectionCount("room-1"))

	notified := hub.BroadcastToRoom("room-1", NewEvent(EventTypeNewMessage, nil), "")
	assert.Equal(t, 1, notified, "double join must not double delivery")
}

func TestJoinRoomRequiresRegistration(t *testing.T) {
	hub := NewHub()
	ghost := NewClient(hub, nil, "ghost", "ghost")

	// Not registered: join must be a no-op
	hub.JoinRoom(ghost, "room-1")
	assert.Equal(t, 0, hub.RoomConnectionCount("room-1"))
}

func TestLeaveRoom(t *testing.T) {
	hub := NewHub()
	alice := NewClient(hub, nil, "alice", "alice")
	hub.Register(alice)
	hub.JoinRoom(alice, "room-1")

	hub.LeaveRoom(alice, "room-1")
	assert.Equal(t, 0, hub.RoomConnectionCount("room-1"))

	// Leaving a room never joined is a silent no-op
	hub.LeaveRoom(alice, "room-2")
}

func TestDisconnectCleansAllRooms(t *testing.T) {
	hub := NewHub()
	alice := NewClient(hub, nil, "alice", "alice")
	bob := NewClient(hub, nil, "bob", "bob")
	hub.Register(alice)
	hub.Register(bob)

	hub.JoinRoom(alice, "room-1")
	hub.JoinRoom(alice, "room-2")
	hub.JoinRoom(bob, "room-1")

	hub.Unregister(alice)

	assert.Equal(t, 1, hub.RoomConnectionCount("room-1"))
	assert.Equal(t, 0, hub.RoomConnectionCount("room-2"))

	notified := hub.BroadcastToRoom("room-1", NewEvent(EventTypeNewMessage, nil), "")
	assert.Equal(t, 1, notified, "disconnected client must not count as notified")
}

func TestJoinUser(t *testing.T) {
	hub := NewHub()
	phone := NewClient(hub, nil, "alice", "alice")
	laptop := NewClient(hub, nil, "alice", "alice")
	hub.Register(phone)
	hub.Register(laptop)

	hub.JoinUser("alice", "room-1")
	assert.Equal(t, 2, hub.RoomConnectionCount("room-1"))

	// Unknown user is a no-op
	hub.JoinUser("nobody", "room-2")
	assert.Equal(t, 0, hub.RoomConnectionCount("room-2"))
}

func TestSendToUser(t *testing.T) {
	hub := NewHub()
	phone := NewClient(hub, nil, "alice", "alice")
	laptop := NewClient(hub, nil, "alice", "alice")
	hub.Register(phone)
	hub.Register(laptop)

	notified := hub.SendToUser("alice", NewEvent(EventTypeSystem, SystemPayload{Event: "hi"}))
	assert.Equal(t, 2, notified)

	assert.Equal(t, 0, hub.SendToUser("offline-user", NewEvent(EventTypeSystem, nil)))
}

func TestStalledConnectionIsDropped(t *testing.T) {
	hub := NewHub()
	alice := NewClient(hub, nil, "alice", "alice")
	hub.Register(alice)
	hub.JoinRoom(alice, "room-1")

	// Saturate the send buffer to simulate a stalled reader
	for i := 0; i < sendBufferSize; i++ {
		alice.send <- []byte("{}")
	}

	notified := hub.BroadcastToRoom("room-1", NewEvent(EventTypeNewMessage, nil), "")
	assert.Equal(t, 0, notified)

	// The drop unregisters asynchronously
	assert.Eventually(t, func() bool {
		return !hub.IsUserOnline("alice")
	}, time.Second, 10*time.Millisecond)
}

func TestNotifyStatus(t *testing.T) {
	hub := NewHub()
	sender := NewClient(hub, nil, "sender", "sender")
	hub.Register(sender)

	hub.NotifyStatus("sender", "msg-1", "recipient", models.DeliveryRead)

	ev := drain(t, sender)
	assert.Equal(t, EventTypeStatusUpdate, ev.Type)

	var payload StatusUpdatePayload
	require.NoError(t, ev.ParsePayload(&payload))
	assert.Equal(t, "msg-1", payload.MessageID)
	assert.Equal(t, "recipient", payload.RecipientID)
	assert.Equal(t, "read", payload.State)
}

func TestHubRegisterHandler(t *testing.T) {
	hub := NewHub()
	hub.RegisterHandler("custom", func(client *Client, event *Event) error { return nil })

	_, ok := hub.GetHandler("custom")
	assert.True(t, ok)
	_, ok = hub.GetHandler("missing")
	assert.False(t, ok)
}

func TestHubShutdown(t *testing.T) {
	hub := NewHub()
	alice := NewClient(hub, nil, "alice", "alice")
	hub.Register(alice)
	hub.JoinRoom(alice, "room-1")

	require.NoError(t, hub.Shutdown(t.Context()))
	assert.False(t, hub.IsUserOnline("alice"))
	assert.Equal(t, 0, hub.RoomConnectionCount("room-1"))
	assert.Error(t, alice.Send(NewEvent(EventTypeNewMessage, nil)))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(5, 10)

	for i := 0; i < 10; i++ {
		assert.True(t, rl.Allow(), "request %d should be allowed", i+1)
	}
	assert.False(t, rl.Allow(), "request 11 should be denied")

	time.Sleep(300 * time.Millisecond)
	assert.True(t, rl.Allow(), "request after refill should be allowed")
}

func TestStatsSnapshotString(t *testing.T) {
	hub := NewHub()
	snapshot := hub.GetStats()
	assert.Contains(t, snapshot.String(), "connections=0/0")
}
