package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomStatusTransitions(t *testing.T) {
	assert.True(t, RoomStatusActive.CanTransitionTo(RoomStatusClosed))
	assert.True(t, RoomStatusClosed.CanTransitionTo(RoomStatusArchived))

	assert.False(t, RoomStatusActive.CanTransitionTo(RoomStatusArchived))
	assert.False(t, RoomStatusClosed.CanTransitionTo(RoomStatusActive))
	assert.False(t, RoomStatusArchived.CanTransitionTo(RoomStatusActive))
	assert.False(t, RoomStatusArchived.CanTransitionTo(RoomStatusClosed))
	assert.False(t, RoomStatusActive.CanTransitionTo(RoomStatusActive))
}

func TestRoomIsParticipant(t *testing.T) {
	managerID := uint(2)
	room := &Room{CustomerID: 1, ManagerID: &managerID}

	assert.True(t, room.IsParticipant(1))
	assert.True(t, room.IsParticipant(2))
	assert.False(t, room.IsParticipant(3))

	unassigned := &Room{CustomerID: 1}
	assert.True(t, unassigned.IsParticipant(1))
	assert.False(t, unassigned.IsParticipant(2))
}

func TestRoomCounterpart(t *testing.T) {
	managerID := uint(2)
	room := &Room{CustomerID: 1, ManagerID: &managerID}

	// Customer message notifies the manager and vice versa.
	if got := room.Counterpart(1); assert.NotNil(t, got) {
		assert.Equal(t, uint(2), *got)
	}
	if got := room.Counterpart(2); assert.NotNil(t, got) {
		assert.Equal(t, uint(1), *got)
	}

	// Nobody to notify in an unassigned room.
	unassigned := &Room{CustomerID: 1}
	assert.Nil(t, unassigned.Counterpart(1))
}
