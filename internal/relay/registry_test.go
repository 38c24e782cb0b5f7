package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prico-realtime/internal/auth"
)

func newTestSession(id, userID string) *Session {
	return NewSession(id, auth.Identity{UserID: userID, Username: userID}, nil)
}

func TestRegistryJoinLeave(t *testing.T) {
	reg := NewRegistry()
	s := newTestSession("conn-1", "user-1")
	reg.Add(s)

	require.True(t, reg.Join("conn-1", "room-a"))
	assert.False(t, reg.Join("conn-1", "room-a"), "second join must be a noop")
	assert.True(t, reg.IsMember("conn-1", "room-a"))
	assert.Equal(t, 1, reg.RoomCount())

	require.True(t, reg.Leave("conn-1", "room-a"))
	assert.False(t, reg.Leave("conn-1", "room-a"), "second leave must be a noop")
	assert.False(t, reg.IsMember("conn-1", "room-a"))
	assert.Equal(t, 0, reg.RoomCount(), "empty room must be dropped")
}

func TestRegistryJoinUnknownConnection(t *testing.T) {
	reg := NewRegistry()
	assert.False(t, reg.Join("nope", "room-a"))
	assert.False(t, reg.Leave("nope", "room-a"))
}

func TestRegistryMembers(t *testing.T) {
	reg := NewRegistry()
	a := newTestSession("conn-a", "user-a")
	b := newTestSession("conn-b", "user-b")
	reg.Add(a)
	reg.Add(b)
	reg.Join("conn-a", "room-1")
	reg.Join("conn-b", "room-1")
	reg.Join("conn-b", "room-2")

	members := reg.Members("room-1")
	require.Len(t, members, 2)
	assert.Len(t, reg.Members("room-2"), 1)
	assert.Empty(t, reg.Members("missing"))
}

func TestRegistryRemoveConnection(t *testing.T) {
	reg := NewRegistry()
	a := newTestSession("conn-a", "user-a")
	b := newTestSession("conn-b", "user-b")
	reg.Add(a)
	reg.Add(b)
	reg.Join("conn-a", "room-1")
	reg.Join("conn-a", "room-2")
	reg.Join("conn-b", "room-1")

	affected := reg.RemoveConnection("conn-a")
	assert.ElementsMatch(t, []string{"room-1", "room-2"}, affected)

	_, ok := reg.Get("conn-a")
	assert.False(t, ok)
	assert.Equal(t, 1, reg.SessionCount())
	assert.Len(t, reg.Members("room-1"), 1, "other members stay in the room")
	assert.Equal(t, 1, reg.RoomCount(), "room-2 emptied out")

	assert.Empty(t, reg.RemoveConnection("conn-a"), "removing twice is a noop")
}
