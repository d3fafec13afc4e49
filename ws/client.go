package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"supportchat/internal/logger"
	chatsvc "supportchat/internal/services/chat"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

// Client is one live connection subscribed to a single room group.
type Client struct {
	ID      string // connection id, unique per socket
	UserID  uint
	Name    string
	IsStaff bool
	RoomID  uint

	conn *websocket.Conn
	hub  *Hub

	sendMu sync.Mutex
	send   chan any
	closed bool
}

// NewClient wraps an upgraded connection.
func NewClient(id string, hub *Hub, conn *websocket.Conn, actor chatsvc.Actor, roomID uint, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Client{
		ID:      id,
		UserID:  actor.ID,
		Name:    actor.Name,
		IsStaff: actor.IsStaff,
		RoomID:  roomID,
		conn:    conn,
		hub:     hub,
		send:    make(chan any, queueSize),
	}
}

func (c *Client) actor() chatsvc.Actor {
	return chatsvc.Actor{ID: c.UserID, Name: c.Name, IsStaff: c.IsStaff}
}

// trySend enqueues without blocking. Returns false when the client is closed
// or its queue is full.
func (c *Client) trySend(event any) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

// closeSend shuts the outbound queue exactly once, ending writePump.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) closeConn() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// readPump consumes inbound frames until the connection dies, then leaves
// the room group. Leaving runs exactly once per connection no matter how the
// pump exits: clean close, read error, or a drop by the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.Leave(c.RoomID, c)
		c.closeConn()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws read error", "user_id", c.UserID, "error", err.Error())
			}
			return
		}

		event, err := DecodeInbound(data)
		if err != nil {
			logger.Debug("ws dropping bad frame", "user_id", c.UserID, "error", err.Error())
			continue
		}
		c.dispatch(event)
	}
}

// dispatch routes one decoded inbound event by its type tag.
func (c *Client) dispatch(event InboundEvent) {
	switch event.Type {
	case EventMessage:
		if event.Message == "" && event.AttachmentURL == nil {
			return
		}
		if _, err := c.hub.SendMessage(c.RoomID, c.actor(), c, event); err != nil {
			// Persistence or permission failure: nothing was broadcast.
			// Report to this connection only.
			c.trySend(ErrorEvent{Type: EventErrorNotice, Message: err.Error()})
		}

	case EventTyping:
		c.hub.BroadcastTyping(c.RoomID, c, event.IsTyping)

	case EventMarkRead:
		if err := c.hub.MarkRead(c.RoomID, c.UserID, event.MessageIDs); err != nil {
			logger.WithError(err).Warn("ws mark_read failed", "room_id", c.RoomID, "user_id", c.UserID)
		}
	}
}

// writePump drains the outbound queue onto the socket and keeps the
// connection alive with pings. A write failure ends the pump; readPump's
// deferred Leave does the cleanup.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConn()
	}()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				logger.Debug("ws write error", "user_id", c.UserID, "error", err.Error())
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
