package chat

import (
	"time"

	"gorm.io/gorm"

	"supportchat/internal/models/chat"
)

type MessageRepository struct {
	DB *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{DB: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *MessageRepository) WithTx(tx *gorm.DB) *MessageRepository {
	return &MessageRepository{DB: tx}
}

func (r *MessageRepository) Create(message *chat.Message) error {
	return r.DB.Create(message).Error
}

func (r *MessageRepository) FindByID(id uint) (*chat.Message, error) {
	var message chat.Message
	if err := r.DB.First(&message, id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// ListAfter returns up to pageSize messages of the room ordered by
// (created_at, id), starting after the message identified by afterID.
// afterID == 0 starts from the beginning.
func (r *MessageRepository) ListAfter(roomID, afterID uint, pageSize int) ([]chat.Message, error) {
	q := r.DB.Where("room_id = ?", roomID)

	if afterID > 0 {
		var cursor chat.Message
		if err := r.DB.Select("id", "created_at").First(&cursor, afterID).Error; err != nil {
			return nil, err
		}
		q = q.Where("created_at > ? OR (created_at = ? AND id > ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var messages []chat.Message
	err := q.Order("created_at ASC, id ASC").Limit(pageSize).Find(&messages).Error
	return messages, err
}

// ListNewFromOthers returns messages after the cursor that were not authored
// by the reader. System messages are included. Used by the catch-up endpoint.
func (r *MessageRepository) ListNewFromOthers(roomID, afterID, readerID uint) ([]chat.Message, error) {
	var messages []chat.Message
	err := r.DB.
		Where("room_id = ? AND id > ?", roomID, afterID).
		Where("sender_id IS NULL OR sender_id <> ?", readerID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// MarkRead flags the given messages as read, skipping the reader's own
// messages and anything already read. Re-marking is a no-op: read_at is only
// set on the unread rows the WHERE clause selects.
func (r *MessageRepository) MarkRead(roomID, readerID uint, messageIDs []uint, at time.Time) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}
	res := r.DB.Model(&chat.Message{}).
		Where("room_id = ? AND id IN ? AND is_read = false", roomID, messageIDs).
		Where("sender_id IS NULL OR sender_id <> ?", readerID).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

// MarkRoomRead flags every unread message in the room not authored by the
// reader.
func (r *MessageRepository) MarkRoomRead(roomID, readerID uint, at time.Time) (int64, error) {
	res := r.DB.Model(&chat.Message{}).
		Where("room_id = ? AND is_read = false", roomID).
		Where("sender_id IS NULL OR sender_id <> ?", readerID).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

func (r *MessageRepository) CountByRoom(roomID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&chat.Message{}).Where("room_id = ?", roomID).Count(&count).Error
	return count, err
}

// UnreadByRooms returns per-room unread counts for the reader across the
// given rooms, in one grouped query. System messages never count toward the
// badge.
func (r *MessageRepository) UnreadByRooms(readerID uint, roomIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(roomIDs))
	if len(roomIDs) == 0 {
		return counts, nil
	}

	type row struct {
		RoomID uint
		Count  int64
	}
	var rows []row
	err := r.DB.Model(&chat.Message{}).
		Select("room_id, COUNT(*) AS count").
		Where("room_id IN ? AND is_read = false", roomIDs).
		Where("sender_id IS NOT NULL AND sender_id <> ?", readerID).
		Group("room_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		counts[r.RoomID] = r.Count
	}
	return counts, nil
}
