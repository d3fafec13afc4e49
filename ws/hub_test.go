package ws

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatmodels "supportchat/internal/models/chat"
	chatsvc "supportchat/internal/services/chat"
)

type stubStore struct {
	nextID uint
	posted []chatsvc.PostMessageInput
	err    error
}

func (s *stubStore) PostMessage(input chatsvc.PostMessageInput) (*chatmodels.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.nextID++
	s.posted = append(s.posted, input)
	msg := &chatmodels.Message{
		ID:        s.nextID,
		RoomID:    input.RoomID,
		Type:      chatmodels.MessageTypeText,
		Content:   input.Content,
		CreatedAt: time.Now(),
	}
	if input.Sender == nil {
		msg.Type = chatmodels.MessageTypeSystem
	} else {
		senderID := input.Sender.ID
		msg.SenderID = &senderID
	}
	return msg, nil
}

// gatedStore blocks non-system posts until released, exposing the window
// between persist and fan-out.
type gatedStore struct {
	stubStore
	entered chan struct{}
	release chan struct{}
}

func (s *gatedStore) PostMessage(input chatsvc.PostMessageInput) (*chatmodels.Message, error) {
	if input.Sender != nil {
		s.entered <- struct{}{}
		<-s.release
	}
	return s.stubStore.PostMessage(input)
}

type stubTracker struct {
	roomID     uint
	readerID   uint
	messageIDs []uint
}

func (s *stubTracker) MarkRead(roomID, readerID uint, messageIDs []uint) error {
	s.roomID = roomID
	s.readerID = readerID
	s.messageIDs = messageIDs
	return nil
}

func newTestClient(hub *Hub, userID uint, name string, roomID uint, queueSize int) *Client {
	return NewClient(name, hub, nil, chatsvc.Actor{ID: userID, Name: name}, roomID, queueSize)
}

// drain pops every buffered event from the client's queue.
func drain(c *Client) []any {
	var events []any
	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				return events
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestHubJoinAnnouncesToOthersOnly(t *testing.T) {
	hub := NewHub(&stubStore{}, &stubTracker{})

	alice := newTestClient(hub, 1, "alice", 7, 8)
	bob := newTestClient(hub, 2, "bob", 7, 8)

	hub.Join(7, alice)
	hub.Join(7, bob)

	// Alice saw bob join; bob saw nothing about himself.
	aliceEvents := drain(alice)
	require.Len(t, aliceEvents, 1)
	join, ok := aliceEvents[0].(PresenceEvent)
	require.True(t, ok)
	assert.Equal(t, EventUserJoin, join.Type)
	assert.Equal(t, uint(2), join.UserID)

	assert.Empty(t, drain(bob))
	assert.Equal(t, 2, hub.RoomMemberCount(7))
}

func TestHubJoinIsIdempotent(t *testing.T) {
	hub := NewHub(&stubStore{}, &stubTracker{})

	alice := newTestClient(hub, 1, "alice", 7, 8)
	bob := newTestClient(hub, 2, "bob", 7, 8)
	hub.Join(7, alice)
	hub.Join(7, bob)
	drain(alice)

	hub.Join(7, bob)

	assert.Empty(t, drain(alice), "Re-joining must not repeat the announcement")
	assert.Equal(t, 2, hub.RoomMemberCount(7))
}

func TestHubLeaveAnnouncesOnce(t *testing.T) {
	hub := NewHub(&stubStore{}, &stubTracker{})

	alice := newTestClient(hub, 1, "alice", 7, 8)
	bob := newTestClient(hub, 2, "bob", 7, 8)
	hub.Join(7, alice)
	hub.Join(7, bob)
	drain(alice)

	hub.Leave(7, bob)
	hub.Leave(7, bob)

	aliceEvents := drain(alice)
	require.Len(t, aliceEvents, 1)
	leave, ok := aliceEvents[0].(PresenceEvent)
	require.True(t, ok)
	assert.Equal(t, EventUserLeave, leave.Type)
	assert.Equal(t, uint(2), leave.UserID)
	assert.Equal(t, 1, hub.RoomMemberCount(7))
}

func TestHubEmptyGroupIsDropped(t *testing.T) {
	hub := NewHub(&stubStore{}, &stubTracker{})

	alice := newTestClient(hub, 1, "alice", 7, 8)
	hub.Join(7, alice)
	hub.Leave(7, alice)

	assert.Equal(t, 0, hub.RoomMemberCount(7))
	hub.mu.Lock()
	_, ok := hub.rooms[7]
	hub.mu.Unlock()
	assert.False(t, ok)

	// A straggling Leave must not resurrect the entry.
	hub.Leave(7, alice)
	hub.mu.Lock()
	_, ok = hub.rooms[7]
	hub.mu.Unlock()
	assert.False(t, ok)
}

func TestHubSendMessagePersistsThenBroadcasts(t *testing.T) {
	store := &stubStore{}
	hub := NewHub(store, &stubTracker{})

	alice := newTestClient(hub, 1, "alice", 7, 8)
	bob := newTestClient(hub, 2, "bob", 7, 8)
	hub.Join(7, alice)
	hub.Join(7, bob)
	drain(alice)

	msg, err := hub.SendMessage(7, alice.actor(), alice, InboundEvent{
		Type:    EventMessage,
		Message: "hello",
	})
	require.NoError(t, err)
	require.Len(t, store.posted, 1)
	assert.Equal(t, "hello", store.posted[0].Content)

	// Bob receives the broadcast with the store-assigned id.
	bobEvents := drain(bob)
	require.Len(t, bobEvents, 1)
	broadcast, ok := bobEvents[0].(MessageEvent)
	require.True(t, ok)
	assert.Equal(t, EventMessage, broadcast.Type)
	assert.Equal(t, msg.ID, broadcast.MessageID)
	assert.Equal(t, "alice", broadcast.Username)

	// Alice receives the same payload as an ack instead.
	aliceEvents := drain(alice)
	require.Len(t, aliceEvents, 1)
	ack, ok := aliceEvents[0].(MessageEvent)
	require.True(t, ok)
	assert.Equal(t, EventMessageAck, ack.Type)
	assert.Equal(t, msg.ID, ack.MessageID)
}

func TestHubFailedPersistBroadcastsNothing(t *testing.T) {
	store := &stubStore{err: errors.New("db down")}
	hub := NewHub(store, &stubTracker{})

	alice := newTestClient(hub, 1, "alice", 7, 8)
	bob := newTestClient(hub, 2, "bob", 7, 8)
	hub.Join(7, alice)
	hub.Join(7, bob)
	drain(alice)

	_, err := hub.SendMessage(7, alice.actor(), alice, InboundEvent{
		Type:    EventMessage,
		Message: "hello",
	})
	require.Error(t, err)
	assert.Empty(t, drain(alice))
	assert.Empty(t, drain(bob))
}

func TestHubSlowConsumerIsDropped(t *testing.T) {
	hub := NewHub(&stubStore{}, &stubTracker{})

	alice := newTestClient(hub, 1, "alice", 7, 8)
	slow := newTestClient(hub, 2, "slow", 7, 1)
	hub.Join(7, alice)
	hub.Join(7, slow)

	// First typing fan-out fills slow's single-slot queue; the second
	// overflows it and evicts the connection.
	hub.BroadcastTyping(7, alice, true)
	hub.BroadcastTyping(7, alice, false)

	assert.Eventually(t, func() bool {
		return hub.RoomMemberCount(7) == 1
	}, time.Second, 10*time.Millisecond, "Overflowing member must be removed")

	// Alice is unaffected and keeps receiving.
	drain(alice)
	hub.BroadcastTyping(7, slow, false)
	assert.NotEmpty(t, drain(alice))
}

func TestHubMarkReadDelegates(t *testing.T) {
	tracker := &stubTracker{}
	hub := NewHub(&stubStore{}, tracker)

	err := hub.MarkRead(7, 1, []uint{3, 4})
	require.NoError(t, err)
	assert.Equal(t, uint(7), tracker.roomID)
	assert.Equal(t, uint(1), tracker.readerID)
	assert.Equal(t, []uint{3, 4}, tracker.messageIDs)
}

func TestHubPostSystemReachesEveryone(t *testing.T) {
	store := &stubStore{}
	hub := NewHub(store, &stubTracker{})

	alice := newTestClient(hub, 1, "alice", 7, 8)
	bob := newTestClient(hub, 2, "bob", 7, 8)
	hub.Join(7, alice)
	hub.Join(7, bob)
	drain(alice)

	sys, err := hub.PostSystem(7, "Support has joined the chat.")
	require.NoError(t, err)
	require.Len(t, store.posted, 1)
	assert.Nil(t, store.posted[0].Sender)

	for _, c := range []*Client{alice, bob} {
		events := drain(c)
		require.Len(t, events, 1)
		ev, ok := events[0].(MessageEvent)
		require.True(t, ok)
		assert.Equal(t, sys.ID, ev.MessageID)
		assert.Nil(t, ev.UserID)
		assert.Equal(t, "system", ev.MessageType)
		assert.Equal(t, "System", ev.Username)
	}
}

func TestHubPostSystemWaitsForInFlightSend(t *testing.T) {
	store := &gatedStore{entered: make(chan struct{}), release: make(chan struct{})}
	hub := NewHub(store, &stubTracker{})

	alice := newTestClient(hub, 1, "alice", 7, 8)
	bob := newTestClient(hub, 2, "bob", 7, 8)
	hub.Join(7, alice)
	hub.Join(7, bob)
	drain(alice)

	sendDone := make(chan struct{})
	go func() {
		defer close(sendDone)
		_, err := hub.SendMessage(7, alice.actor(), alice, InboundEvent{
			Type:    EventMessage,
			Message: "first",
		})
		assert.NoError(t, err)
	}()
	<-store.entered

	sysDone := make(chan *chatmodels.Message, 1)
	go func() {
		sys, err := hub.PostSystem(7, "Support has joined the chat.")
		assert.NoError(t, err)
		sysDone <- sys
	}()

	// The system post must not slip past the send that is still persisting.
	select {
	case <-sysDone:
		t.Fatal("system message fanned out before the in-flight send finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(store.release)
	<-sendDone
	sys := <-sysDone

	events := drain(bob)
	require.Len(t, events, 2)
	first, ok := events[0].(MessageEvent)
	require.True(t, ok)
	second, ok := events[1].(MessageEvent)
	require.True(t, ok)
	assert.Equal(t, "first", first.Message)
	assert.Equal(t, sys.ID, second.MessageID)
	assert.Less(t, first.MessageID, second.MessageID)
}

func TestHubPostsWithoutSocketsLeaveNoGroup(t *testing.T) {
	store := &stubStore{}
	hub := NewHub(store, &stubTracker{})

	_, err := hub.SendMessage(7, chatsvc.Actor{ID: 1, Name: "alice"}, nil, InboundEvent{
		Type:    EventMessage,
		Message: "hello",
	})
	require.NoError(t, err)
	_, err = hub.PostSystem(7, "Chat closed by alice")
	require.NoError(t, err)

	require.Len(t, store.posted, 2)
	assert.Equal(t, 0, hub.RoomMemberCount(7))
	hub.mu.Lock()
	_, ok := hub.rooms[7]
	hub.mu.Unlock()
	assert.False(t, ok, "Broadcast paths must not create empty groups")
}
