package chat

import (
	"time"

	"supportchat/internal/cache"
	"supportchat/internal/logger"
	chatmodels "supportchat/internal/models/chat"
	chatrepo "supportchat/internal/repositories/chat"
	"supportchat/pkg/apperrors"
)

// ReadTracker maintains read flags and unseen-notification counts. All of its
// operations are idempotent; the cache, when present, is invalidated on every
// mutation and repopulated lazily on reads.
type ReadTracker struct {
	messages      *chatrepo.MessageRepository
	notifications *chatrepo.NotificationRepository
	unseen        *cache.UnseenCache
}

func NewReadTracker(
	messages *chatrepo.MessageRepository,
	notifications *chatrepo.NotificationRepository,
	unseen *cache.UnseenCache,
) *ReadTracker {
	return &ReadTracker{
		messages:      messages,
		notifications: notifications,
		unseen:        unseen,
	}
}

// MarkRead flags the reader's unread counterpart messages among messageIDs
// as read and the matching notifications as seen.
func (t *ReadTracker) MarkRead(roomID, readerID uint, messageIDs []uint) error {
	if len(messageIDs) == 0 {
		return nil
	}

	if _, err := t.messages.MarkRead(roomID, readerID, messageIDs, time.Now()); err != nil {
		return apperrors.DatabaseError(err)
	}
	if err := t.notifications.MarkSeen(readerID, roomID, messageIDs); err != nil {
		return apperrors.DatabaseError(err)
	}

	t.unseen.Invalidate(readerID)
	return nil
}

// MarkRoomRead flags everything unread in the room for the reader, plus all
// of the reader's notifications for the room. Used when a participant opens
// the room.
func (t *ReadTracker) MarkRoomRead(roomID, readerID uint) error {
	if _, err := t.messages.MarkRoomRead(roomID, readerID, time.Now()); err != nil {
		return apperrors.DatabaseError(err)
	}
	if err := t.notifications.MarkRoomSeen(readerID, roomID); err != nil {
		return apperrors.DatabaseError(err)
	}

	t.unseen.Invalidate(readerID)
	return nil
}

// UnseenCount returns the user's unseen-notification count, preferring the
// cache when it is configured and warm.
func (t *ReadTracker) UnseenCount(userID uint) (int64, error) {
	if count, ok := t.unseen.Get(userID); ok {
		return count, nil
	}

	count, err := t.notifications.CountUnseen(userID)
	if err != nil {
		return 0, apperrors.DatabaseError(err)
	}

	t.unseen.Set(userID, count)
	return count, nil
}

// NotifyPosted invalidates the recipient's cached count after a new
// notification was persisted.
func (t *ReadTracker) NotifyPosted(recipientID uint) {
	t.unseen.Invalidate(recipientID)
}

// MarkReadFor marks a fetched batch of messages read, logging instead of
// failing the read path. Used by the catch-up endpoint where the listing is
// the primary result and marking is a side effect.
func (t *ReadTracker) MarkReadFor(roomID, readerID uint, messages []chatmodels.Message) {
	ids := make([]uint, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.ID)
	}
	if err := t.MarkRead(roomID, readerID, ids); err != nil {
		logger.WithError(err).Warn("catch-up mark read failed", "room_id", roomID, "user_id", readerID)
	}
}
