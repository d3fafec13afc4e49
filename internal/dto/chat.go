package dto

import (
	"time"

	chatmodels "supportchat/internal/models/chat"
)

type CreateRoomRequest struct {
	Subject        string `json:"subject" binding:"required,max=200"`
	InitialMessage string `json:"initial_message"`
}

type SendMessageRequest struct {
	Content        string  `json:"content"`
	AttachmentURL  *string `json:"attachment_url"`
	AttachmentName *string `json:"attachment_name"`
}

type AssignManagerRequest struct {
	ManagerID uint `json:"manager_id" binding:"required"`
	Reassign  bool `json:"reassign"`
}

// MessageResponse is the REST shape of one message. Timestamps render as
// RFC 3339 / ISO-8601 strings.
type MessageResponse struct {
	ID             uint       `json:"id"`
	RoomID         uint       `json:"room_id"`
	SenderID       *uint      `json:"sender_id"`
	Type           string     `json:"type"`
	Content        string     `json:"content"`
	AttachmentURL  *string    `json:"attachment_url,omitempty"`
	AttachmentName *string    `json:"attachment_name,omitempty"`
	IsRead         bool       `json:"is_read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func NewMessageResponse(m *chatmodels.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		RoomID:         m.RoomID,
		SenderID:       m.SenderID,
		Type:           string(m.Type),
		Content:        m.Content,
		AttachmentURL:  m.AttachmentURL,
		AttachmentName: m.AttachmentName,
		IsRead:         m.IsRead,
		ReadAt:         m.ReadAt,
		CreatedAt:      m.CreatedAt,
	}
}

type MessageListResponse struct {
	Messages   []MessageResponse `json:"messages"`
	Count      int               `json:"count"`
	NextCursor uint              `json:"next_cursor"` // last message id in the page; 0 when empty
}

func NewMessageListResponse(messages []chatmodels.Message) MessageListResponse {
	resp := MessageListResponse{Messages: make([]MessageResponse, len(messages))}
	for i := range messages {
		resp.Messages[i] = NewMessageResponse(&messages[i])
	}
	resp.Count = len(messages)
	if len(messages) > 0 {
		resp.NextCursor = messages[len(messages)-1].ID
	}
	return resp
}

type UnseenCountResponse struct {
	Count int64 `json:"count"`
}
