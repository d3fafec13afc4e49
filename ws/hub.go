package ws

import (
	"sync"

	"supportchat/internal/logger"
	chatmodels "supportchat/internal/models/chat"
	chatsvc "supportchat/internal/services/chat"
)

// MessageStore persists message events before they are broadcast.
type MessageStore interface {
	PostMessage(input chatsvc.PostMessageInput) (*chatmodels.Message, error)
}

// ReadMarker handles mark_read events. Read state is pulled by catch-up, not
// pushed, so marking produces no broadcast.
type ReadMarker interface {
	MarkRead(roomID, readerID uint, messageIDs []uint) error
}

// Hub is the registry of room broadcast groups: room id -> set of live
// connections. Each group's lock serializes persist + fan-out for that room,
// so every member's outbound queue observes store order. Delivery to one
// member never blocks on another: enqueue is non-blocking and a member whose
// queue overflows is dropped from the group.
type Hub struct {
	mu    sync.Mutex
	rooms map[uint]*roomGroup

	store   MessageStore
	tracker ReadMarker
}

type roomGroup struct {
	mu      sync.Mutex
	members map[*Client]struct{}
}

func NewHub(store MessageStore, tracker ReadMarker) *Hub {
	return &Hub{
		rooms:   make(map[uint]*roomGroup),
		store:   store,
		tracker: tracker,
	}
}

func (h *Hub) group(roomID uint) *roomGroup {
	h.mu.Lock()
	defer h.mu.Unlock()

	g, ok := h.rooms[roomID]
	if !ok {
		g = &roomGroup{members: make(map[*Client]struct{})}
		h.rooms[roomID] = g
	}
	return g
}

// peek looks up the room group without creating one. Broadcast paths use it
// so posts into rooms with no live sockets leave no entry behind.
func (h *Hub) peek(roomID uint) *roomGroup {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms[roomID]
}

// Join subscribes the connection to the room group and announces it to the
// other members. Joining twice is a no-op: the connection is never
// double-registered and no duplicate user_join goes out.
func (h *Hub) Join(roomID uint, c *Client) {
	g := h.group(roomID)

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.members[c]; ok {
		return
	}
	g.members[c] = struct{}{}

	h.fanOutLocked(g, PresenceEvent{Type: EventUserJoin, UserID: c.UserID, Username: c.Name}, c)
	logger.Debug("ws join", "room_id", roomID, "user_id", c.UserID, "members", len(g.members))
}

// Leave unsubscribes the connection and announces the departure to the
// remaining members. Safe to call multiple times; only the call that actually
// removes the member broadcasts user_leave.
func (h *Hub) Leave(roomID uint, c *Client) {
	g := h.peek(roomID)
	if g == nil {
		return
	}

	g.mu.Lock()
	if _, ok := g.members[c]; !ok {
		g.mu.Unlock()
		return
	}
	delete(g.members, c)
	h.fanOutLocked(g, PresenceEvent{Type: EventUserLeave, UserID: c.UserID, Username: c.Name}, nil)
	empty := len(g.members) == 0
	g.mu.Unlock()

	c.closeSend()

	if empty {
		h.mu.Lock()
		if g2, ok := h.rooms[roomID]; ok && g2 == g {
			g2.mu.Lock()
			if len(g2.members) == 0 {
				delete(h.rooms, roomID)
			}
			g2.mu.Unlock()
		}
		h.mu.Unlock()
	}
	logger.Debug("ws leave", "room_id", roomID, "user_id", c.UserID)
}

// SendMessage persists the message and then broadcasts the enriched event to
// the whole group. A failed persist aborts before any broadcast. sender may
// be nil (REST-originated posts have no connection); when present, it gets a
// message_ack instead of the plain broadcast so it can correlate.
func (h *Hub) SendMessage(roomID uint, actor chatsvc.Actor, sender *Client, in InboundEvent) (*chatmodels.Message, error) {
	input := chatsvc.PostMessageInput{
		RoomID:         roomID,
		Sender:         &actor,
		Content:        in.Message,
		AttachmentURL:  in.AttachmentURL,
		AttachmentName: in.AttachmentName,
	}

	// No live sockets: persist only. A member joining mid-persist misses
	// this fan-out and recovers it through catch-up.
	g := h.peek(roomID)
	if g == nil {
		return h.store.PostMessage(input)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	msg, err := h.store.PostMessage(input)
	if err != nil {
		return nil, err
	}

	ev := MessageEvent{
		Type:        EventMessage,
		MessageID:   msg.ID,
		Message:     msg.Content,
		MessageType: string(msg.Type),
		UserID:      msg.SenderID,
		Username:    actor.Name,
		Timestamp:   FormatTimestamp(msg.CreatedAt),
	}

	h.fanOutLocked(g, ev, sender)
	if sender != nil {
		ack := ev
		ack.Type = EventMessageAck
		h.enqueue(g, sender, ack)
	}
	return msg, nil
}

// PostSystem persists a system message and fans it out under the same group
// lock as regular sends. Assignment and closing announcements go through
// here, never around it: a persist-then-broadcast done outside the lock
// could interleave with an in-flight send and invert delivery order.
func (h *Hub) PostSystem(roomID uint, content string) (*chatmodels.Message, error) {
	input := chatsvc.PostMessageInput{RoomID: roomID, Content: content}

	g := h.peek(roomID)
	if g == nil {
		return h.store.PostMessage(input)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	msg, err := h.store.PostMessage(input)
	if err != nil {
		return nil, err
	}

	h.fanOutLocked(g, MessageEvent{
		Type:        EventMessage,
		MessageID:   msg.ID,
		Message:     msg.Content,
		MessageType: string(msg.Type),
		UserID:      msg.SenderID,
		Username:    "System",
		Timestamp:   FormatTimestamp(msg.CreatedAt),
	}, nil)
	return msg, nil
}

// BroadcastTyping fans out an ephemeral typing notification to the other
// members. Nothing is persisted.
func (h *Hub) BroadcastTyping(roomID uint, c *Client, isTyping bool) {
	g := h.peek(roomID)
	if g == nil {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	h.fanOutLocked(g, TypingEvent{
		Type:     EventTyping,
		UserID:   c.UserID,
		Username: c.Name,
		IsTyping: isTyping,
	}, c)
}

// MarkRead delegates to the tracker; read state is not broadcast.
func (h *Hub) MarkRead(roomID, readerID uint, messageIDs []uint) error {
	return h.tracker.MarkRead(roomID, readerID, messageIDs)
}

// RoomMemberCount reports the current group size.
func (h *Hub) RoomMemberCount(roomID uint) int {
	h.mu.Lock()
	g, ok := h.rooms[roomID]
	h.mu.Unlock()
	if !ok {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.members)
}

// fanOutLocked enqueues the event for every member except skip. Callers hold
// g.mu.
func (h *Hub) fanOutLocked(g *roomGroup, event any, skip *Client) {
	for member := range g.members {
		if member == skip {
			continue
		}
		h.enqueue(g, member, event)
	}
}

// enqueue delivers without blocking. A full queue means the consumer cannot
// keep up: it is removed from the group and its socket closed, isolating the
// failure to that one connection. The removal happens outside g.mu via
// Leave on a fresh goroutine.
func (h *Hub) enqueue(g *roomGroup, c *Client, event any) {
	if c.trySend(event) {
		return
	}
	logger.Warn("ws slow consumer dropped", "room_id", c.RoomID, "user_id", c.UserID)
	go func() {
		h.Leave(c.RoomID, c)
		c.closeConn()
	}()
}
