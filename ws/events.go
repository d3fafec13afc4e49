package ws

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType is the wire discriminator of every frame, inbound and outbound.
type EventType string

const (
	// Client -> server and server -> clients.
	EventMessage EventType = "message"
	EventTyping  EventType = "typing"

	// Client -> server only.
	EventMarkRead EventType = "mark_read"

	// Server -> clients only.
	EventUserJoin    EventType = "user_join"
	EventUserLeave   EventType = "user_leave"
	EventMessageAck  EventType = "message_ack"
	EventErrorNotice EventType = "error"
)

// InboundEvent is the decoded client frame: a flat JSON object dispatched on
// its type tag. Exactly one of the payload groups is meaningful per type.
type InboundEvent struct {
	Type EventType `json:"type"`

	// message
	Message        string  `json:"message"`
	AttachmentURL  *string `json:"attachment_url,omitempty"`
	AttachmentName *string `json:"attachment_name,omitempty"`

	// typing
	IsTyping bool `json:"is_typing"`

	// mark_read
	MessageIDs []uint `json:"message_ids"`
}

// DecodeInbound parses and validates a client frame.
func DecodeInbound(data []byte) (InboundEvent, error) {
	var ev InboundEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, fmt.Errorf("malformed event: %w", err)
	}
	switch ev.Type {
	case EventMessage, EventTyping, EventMarkRead:
		return ev, nil
	default:
		return ev, fmt.Errorf("unknown event type %q", ev.Type)
	}
}

// MessageEvent is the enriched broadcast for a persisted message. The id and
// timestamp are the store-assigned authoritative values; the broadcast never
// precedes the store write. The sender's own connection receives the same
// payload under the message_ack type so it can correlate its send.
type MessageEvent struct {
	Type        EventType `json:"type"`
	MessageID   uint      `json:"message_id"`
	Message     string    `json:"message"`
	MessageType string    `json:"message_type"`
	UserID      *uint     `json:"user_id"`
	Username    string    `json:"username"`
	Timestamp   string    `json:"timestamp"` // ISO-8601
}

// TypingEvent is ephemeral: broadcast only, never persisted.
type TypingEvent struct {
	Type     EventType `json:"type"`
	UserID   uint      `json:"user_id"`
	Username string    `json:"username"`
	IsTyping bool      `json:"is_typing"`
}

// PresenceEvent announces user_join / user_leave to the rest of the group.
type PresenceEvent struct {
	Type     EventType `json:"type"`
	UserID   uint      `json:"user_id"`
	Username string    `json:"username"`
}

// ErrorEvent is delivered to a single connection when its own request failed.
type ErrorEvent struct {
	Type    EventType `json:"type"`
	Message string    `json:"message"`
}

// FormatTimestamp renders store timestamps for the wire.
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
