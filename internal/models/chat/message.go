package chat

import "time"

type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeFile   MessageType = "file"
	MessageTypeSystem MessageType = "system"
)

// Message is one entry in a room's ordered log. SenderID == nil denotes a
// system-generated message. ReadAt is set if and only if IsRead is true.
// Room order is (CreatedAt, ID); ID breaks ties and serves as the catch-up
// cursor.
type Message struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	RoomID         uint        `gorm:"not null;index:idx_chat_messages_room_created,priority:1" json:"room_id"`
	SenderID       *uint       `gorm:"index" json:"sender_id"`
	Type           MessageType `gorm:"type:varchar(20);default:'text'" json:"type"`
	Content        string      `gorm:"type:text" json:"content"`
	AttachmentURL  *string     `json:"attachment_url,omitempty"`
	AttachmentName *string     `json:"attachment_name,omitempty"`
	IsRead         bool        `gorm:"default:false" json:"is_read"`
	ReadAt         *time.Time  `json:"read_at,omitempty"`
	CreatedAt      time.Time   `gorm:"index:idx_chat_messages_room_created,priority:2" json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`

	Notifications []Notification `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Message) TableName() string {
	return "chat_messages"
}

// IsSystem reports whether the message was generated by a lifecycle event.
func (m *Message) IsSystem() bool {
	return m.SenderID == nil
}
