package chat

import (
	"time"

	"gorm.io/datatypes"
)

// Notification is a projection for unseen-count queries: exactly one per
// message per counterpart of the sender. It never mutates the message it
// references.
type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"index:idx_chat_notifications_user_seen,priority:1;not null" json:"user_id"`
	RoomID    uint           `gorm:"index;not null" json:"room_id"`
	MessageID uint           `gorm:"index;not null" json:"message_id"`
	IsSeen    bool           `gorm:"default:false;index:idx_chat_notifications_user_seen,priority:2" json:"is_seen"`
	Data      datatypes.JSON `gorm:"type:jsonb" json:"data"` // {"sender_name": "...", "preview": "..."}
	CreatedAt time.Time      `json:"created_at"`
}

func (Notification) TableName() string {
	return "chat_notifications"
}
