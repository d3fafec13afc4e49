package chat

import (
	"gorm.io/gorm"

	"supportchat/internal/models/chat"
)

type NotificationRepository struct {
	DB *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *NotificationRepository) WithTx(tx *gorm.DB) *NotificationRepository {
	return &NotificationRepository{DB: tx}
}

func (r *NotificationRepository) Create(n *chat.Notification) error {
	return r.DB.Create(n).Error
}

// MarkSeen flags the user's notifications for the given messages as seen.
func (r *NotificationRepository) MarkSeen(userID, roomID uint, messageIDs []uint) error {
	if len(messageIDs) == 0 {
		return nil
	}
	return r.DB.Model(&chat.Notification{}).
		Where("user_id = ? AND room_id = ? AND message_id IN ?", userID, roomID, messageIDs).
		Update("is_seen", true).Error
}

// MarkRoomSeen flags all of the user's notifications for the room as seen.
func (r *NotificationRepository) MarkRoomSeen(userID, roomID uint) error {
	return r.DB.Model(&chat.Notification{}).
		Where("user_id = ? AND room_id = ?", userID, roomID).
		Update("is_seen", true).Error
}

// CountUnseen counts the user's unseen notifications across all rooms.
func (r *NotificationRepository) CountUnseen(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&chat.Notification{}).
		Where("user_id = ? AND is_seen = false", userID).
		Count(&count).Error
	return count, err
}
