package chat

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"supportchat/internal/logger"
	chatmodels "supportchat/internal/models/chat"
	chatrepo "supportchat/internal/repositories/chat"
	"supportchat/pkg/apperrors"
)

// Actor is the current authenticated identity, resolved from token claims by
// the transport layer and injected into every operation that needs
// permissions or a display name.
type Actor struct {
	ID      uint
	Name    string
	IsStaff bool
}

// PostMessageInput describes one message append. Sender == nil produces a
// system message.
type PostMessageInput struct {
	RoomID         uint
	Sender         *Actor
	Content        string
	AttachmentURL  *string
	AttachmentName *string
}

// RoomWithUnread is a room annotated with the caller's unread count, used by
// the listing endpoints.
type RoomWithUnread struct {
	chatmodels.Room
	UnreadCount int64 `json:"unread_count"`
}

// ChatService owns the room/message store operations and the room lifecycle.
// Mutations of one room are serialized through a per-room lock; message
// insert, last-activity bump and notification creation commit in a single
// transaction.
type ChatService struct {
	db            *gorm.DB
	rooms         *chatrepo.RoomRepository
	messages      *chatrepo.MessageRepository
	notifications *chatrepo.NotificationRepository
	tracker       *ReadTracker
	locks         *roomLocks
}

func NewChatService(
	db *gorm.DB,
	rooms *chatrepo.RoomRepository,
	messages *chatrepo.MessageRepository,
	notifications *chatrepo.NotificationRepository,
	tracker *ReadTracker,
) *ChatService {
	return &ChatService{
		db:            db,
		rooms:         rooms,
		messages:      messages,
		notifications: notifications,
		tracker:       tracker,
		locks:         newRoomLocks(),
	}
}

// Tracker exposes the read tracker sharing this service's cache wiring.
func (s *ChatService) Tracker() *ReadTracker {
	return s.tracker
}

// CreateRoom opens a new active, unassigned room for the customer and
// optionally posts the first message.
func (s *ChatService) CreateRoom(customer Actor, subject, initialMessage string) (*chatmodels.Room, error) {
	if customer.IsStaff {
		return nil, apperrors.NewForbiddenError("Staff members cannot create chats")
	}

	room := &chatmodels.Room{
		CustomerID:     customer.ID,
		Subject:        subject,
		Status:         chatmodels.RoomStatusActive,
		LastActivityAt: time.Now(),
	}
	if err := s.rooms.Create(room); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	if initialMessage != "" {
		if _, err := s.PostMessage(PostMessageInput{
			RoomID:  room.ID,
			Sender:  &customer,
			Content: initialMessage,
		}); err != nil {
			return nil, err
		}
	}

	logger.Info("chat room created", "room_id", room.ID, "customer_id", customer.ID)
	return room, nil
}

// PostMessage appends a message to the room's log. The message row, the
// room's last-activity bump and the counterpart notification commit together;
// a failed write aborts the whole operation before any caller-side broadcast.
func (s *ChatService) PostMessage(input PostMessageInput) (*chatmodels.Message, error) {
	unlock := s.locks.Lock(input.RoomID)
	defer unlock()

	room, err := s.rooms.FindByID(input.RoomID)
	if err != nil {
		if apperrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRoomNotFound
		}
		return nil, apperrors.DatabaseError(err)
	}

	message := &chatmodels.Message{
		RoomID:         room.ID,
		Content:        input.Content,
		AttachmentURL:  input.AttachmentURL,
		AttachmentName: input.AttachmentName,
	}

	if input.Sender == nil {
		message.Type = chatmodels.MessageTypeSystem
	} else {
		if !room.IsParticipant(input.Sender.ID) {
			return nil, apperrors.ErrRoomAccessDenied
		}
		if room.Status != chatmodels.RoomStatusActive {
			return nil, apperrors.ErrRoomClosed
		}
		senderID := input.Sender.ID
		message.SenderID = &senderID
		message.Type = InferMessageType(input.AttachmentName)
	}

	var recipientID *uint
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.messages.WithTx(tx).Create(message); err != nil {
			return err
		}
		if err := s.rooms.WithTx(tx).TouchLastActivity(room.ID, message.CreatedAt); err != nil {
			return err
		}

		if input.Sender == nil {
			return nil
		}
		recipientID = room.Counterpart(input.Sender.ID)
		if recipientID == nil {
			// Unassigned room: nobody to notify yet.
			return nil
		}

		notification := &chatmodels.Notification{
			UserID:    *recipientID,
			RoomID:    room.ID,
			MessageID: message.ID,
			Data:      notificationData(input.Sender.Name, input.Content),
		}
		return s.notifications.WithTx(tx).Create(notification)
	})
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	if recipientID != nil {
		s.tracker.NotifyPosted(*recipientID)
	}

	return message, nil
}

// ListMessages returns one ordered page of the room's log.
func (s *ChatService) ListMessages(roomID uint, viewer Actor, afterID uint, pageSize int) ([]chatmodels.Message, error) {
	if _, err := s.roomForViewer(roomID, viewer); err != nil {
		return nil, err
	}

	messages, err := s.messages.ListAfter(roomID, afterID, pageSize)
	if err != nil {
		if apperrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, apperrors.DatabaseError(err)
	}
	return messages, nil
}

// CatchUp returns the messages created after the cursor and authored by
// someone other than the caller, marking them read as a side effect.
func (s *ChatService) CatchUp(roomID uint, viewer Actor, lastMessageID uint) ([]chatmodels.Message, error) {
	if _, err := s.roomForViewer(roomID, viewer); err != nil {
		return nil, err
	}

	messages, err := s.messages.ListNewFromOthers(roomID, lastMessageID, viewer.ID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	s.tracker.MarkReadFor(roomID, viewer.ID, messages)
	return messages, nil
}

// OpenRoom is the participant's entry into a room: it checks access, runs
// staff auto-assignment, and marks the room read for the opener. The returned
// announcement is non-empty only for the one staff opener that won the
// assignment; the caller posts it through the hub so the persist and the
// fan-out share the room group's critical section.
func (s *ChatService) OpenRoom(roomID uint, opener Actor) (*chatmodels.Room, string, error) {
	room, err := s.roomForViewer(roomID, opener)
	if err != nil {
		return nil, "", err
	}

	announce := ""
	if opener.IsStaff && room.ManagerID == nil && room.Status == chatmodels.RoomStatusActive {
		claimed, err := s.rooms.ClaimManager(room.ID, opener.ID)
		if err != nil {
			return nil, "", apperrors.DatabaseError(err)
		}
		if claimed {
			managerID := opener.ID
			room.ManagerID = &managerID
			announce = fmt.Sprintf("%s has joined the chat.", opener.Name)
			logger.Info("chat room assigned", "room_id", room.ID, "manager_id", opener.ID)
		} else {
			// Lost the race: reload to see the winner.
			room, err = s.roomForViewer(roomID, opener)
			if err != nil {
				return nil, "", err
			}
		}
	}

	if err := s.tracker.MarkRoomRead(room.ID, opener.ID); err != nil {
		return nil, "", err
	}

	return room, announce, nil
}

// CloseRoom transitions active -> closed. Only the customer or the assigned
// manager may close; the returned announcement records who did it and is
// posted through the hub by the caller. Closed rooms stop accepting
// non-system messages (enforced in PostMessage).
func (s *ChatService) CloseRoom(roomID uint, closer Actor) (*chatmodels.Room, string, error) {
	room, err := s.roomForViewer(roomID, closer)
	if err != nil {
		return nil, "", err
	}

	if !room.IsParticipant(closer.ID) {
		return nil, "", apperrors.ErrRoomAccessDenied
	}
	if !room.Status.CanTransitionTo(chatmodels.RoomStatusClosed) {
		return nil, "", apperrors.ErrInvalidStatus("chat", "Chat room is not active")
	}

	if err := s.rooms.UpdateStatus(room.ID, chatmodels.RoomStatusClosed); err != nil {
		return nil, "", apperrors.DatabaseError(err)
	}
	room.Status = chatmodels.RoomStatusClosed

	logger.Info("chat room closed", "room_id", room.ID, "user_id", closer.ID)
	return room, fmt.Sprintf("Chat closed by %s", closer.Name), nil
}

// ArchiveRoom transitions closed -> archived.
func (s *ChatService) ArchiveRoom(roomID uint, staff Actor) (*chatmodels.Room, error) {
	if !staff.IsStaff {
		return nil, apperrors.ErrRoomAccessDenied
	}

	room, err := s.roomForViewer(roomID, staff)
	if err != nil {
		return nil, err
	}
	if !room.Status.CanTransitionTo(chatmodels.RoomStatusArchived) {
		return nil, apperrors.ErrInvalidStatus("chat", "Only closed rooms can be archived")
	}

	if err := s.rooms.UpdateStatus(room.ID, chatmodels.RoomStatusArchived); err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	room.Status = chatmodels.RoomStatusArchived
	return room, nil
}

// AssignManager sets the room's manager explicitly. Assigning the same
// manager again is a no-op; replacing a different manager requires reassign.
func (s *ChatService) AssignManager(roomID, managerID uint, reassign bool) (*chatmodels.Room, error) {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.rooms.FindByID(roomID)
	if err != nil {
		if apperrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRoomNotFound
		}
		return nil, apperrors.DatabaseError(err)
	}

	if room.ManagerID != nil {
		if *room.ManagerID == managerID {
			return room, nil
		}
		if !reassign {
			return nil, apperrors.ErrManagerAlreadyAssigned
		}
	}

	if err := s.rooms.UpdateManager(room.ID, managerID); err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	room.ManagerID = &managerID

	logger.Info("chat room manager set", "room_id", room.ID, "manager_id", managerID, "reassign", reassign)
	return room, nil
}

// ListRooms returns the rooms visible to the viewer with unread counts:
// customers see their own rooms, staff see the filtered listing.
func (s *ChatService) ListRooms(viewer Actor, filter chatrepo.StaffRoomFilter) ([]RoomWithUnread, error) {
	var (
		rooms []chatmodels.Room
		err   error
	)
	if viewer.IsStaff {
		rooms, err = s.rooms.FindFiltered(filter, viewer.ID)
	} else {
		rooms, err = s.rooms.FindByCustomer(viewer.ID)
	}
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	roomIDs := make([]uint, len(rooms))
	for i, r := range rooms {
		roomIDs[i] = r.ID
	}
	unread, err := s.messages.UnreadByRooms(viewer.ID, roomIDs)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	result := make([]RoomWithUnread, len(rooms))
	for i, r := range rooms {
		result[i] = RoomWithUnread{Room: r, UnreadCount: unread[r.ID]}
	}
	return result, nil
}

// Stats returns the staff dashboard counters.
func (s *ChatService) Stats(staff Actor) (*chatrepo.RoomStats, error) {
	stats, err := s.rooms.Stats(staff.ID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return stats, nil
}

// roomForViewer loads the room and checks view access: the room's customer
// or any staff member.
func (s *ChatService) roomForViewer(roomID uint, viewer Actor) (*chatmodels.Room, error) {
	room, err := s.rooms.FindByID(roomID)
	if err != nil {
		if apperrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRoomNotFound
		}
		return nil, apperrors.DatabaseError(err)
	}
	if !viewer.IsStaff && room.CustomerID != viewer.ID {
		return nil, apperrors.ErrRoomAccessDenied
	}
	return room, nil
}

const previewLength = 80

func notificationData(senderName, content string) datatypes.JSON {
	preview := content
	if runes := []rune(preview); len(runes) > previewLength {
		preview = string(runes[:previewLength])
	}
	data, _ := json.Marshal(map[string]string{
		"sender_name": senderName,
		"preview":     preview,
	})
	return datatypes.JSON(data)
}
