package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"supportchat/internal/dto"
	"supportchat/internal/middleware"
	chatrepo "supportchat/internal/repositories/chat"
	chatsvc "supportchat/internal/services/chat"
	"supportchat/pkg/apperrors"
	"supportchat/ws"
)

// ChatHandler exposes the room/message REST surface. Posting goes through
// the hub so REST-originated messages reach connected sockets with the same
// persist-then-broadcast ordering as websocket sends.
type ChatHandler struct {
	chat     *chatsvc.ChatService
	hub      *ws.Hub
	pageSize int
}

func NewChatHandler(chat *chatsvc.ChatService, hub *ws.Hub, pageSize int) *ChatHandler {
	return &ChatHandler{chat: chat, hub: hub, pageSize: pageSize}
}

func (h *ChatHandler) RegisterRoutes(api *gin.RouterGroup) {
	group := api.Group("/chat")
	{
		group.POST("/rooms", h.CreateRoom)
		group.GET("/rooms", h.ListRooms)
		group.GET("/rooms/:id", h.OpenRoom)
		group.POST("/rooms/:id/messages", h.PostMessage)
		group.GET("/rooms/:id/messages", h.ListMessages)
		group.GET("/rooms/:id/messages/new", h.CatchUp)
		group.POST("/rooms/:id/close", h.CloseRoom)
		group.POST("/rooms/:id/archive", middleware.StaffOnly(), h.ArchiveRoom)
		group.POST("/rooms/:id/assign", middleware.StaffOnly(), h.AssignManager)
		group.GET("/unseen-count", h.UnseenCount)
		group.GET("/stats", middleware.StaffOnly(), h.Stats)
	}
}

func currentActor(c *gin.Context) chatsvc.Actor {
	return chatsvc.Actor{
		ID:      middleware.CurrentUserID(c),
		Name:    middleware.CurrentUserName(c),
		IsStaff: middleware.CurrentIsStaff(c),
	}
}

func roomIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("invalid room id"))
		return 0, false
	}
	return uint(id), true
}

func (h *ChatHandler) CreateRoom(c *gin.Context) {
	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.HandleValidationError(c, err)
		return
	}

	room, err := h.chat.CreateRoom(currentActor(c), req.Subject, req.InitialMessage)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, room)
}

func (h *ChatHandler) ListRooms(c *gin.Context) {
	filter := chatrepo.StaffRoomFilter(c.DefaultQuery("filter", string(chatrepo.FilterAll)))

	rooms, err := h.chat.ListRooms(currentActor(c), filter)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms, "count": len(rooms)})
}

// OpenRoom returns the room together with its first message page, running
// auto-assignment and marking the room read for the opener.
func (h *ChatHandler) OpenRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	actor := currentActor(c)

	room, announce, err := h.chat.OpenRoom(roomID, actor)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	if announce != "" {
		if _, err := h.hub.PostSystem(roomID, announce); err != nil {
			apperrors.HandleError(c, err)
			return
		}
	}

	messages, err := h.chat.ListMessages(roomID, actor, 0, h.pageSize)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room":     room,
		"messages": dto.NewMessageListResponse(messages),
	})
}

func (h *ChatHandler) PostMessage(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.HandleValidationError(c, err)
		return
	}
	if req.Content == "" && req.AttachmentURL == nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("message content or attachment required"))
		return
	}

	msg, err := h.hub.SendMessage(roomID, currentActor(c), nil, ws.InboundEvent{
		Type:           ws.EventMessage,
		Message:        req.Content,
		AttachmentURL:  req.AttachmentURL,
		AttachmentName: req.AttachmentName,
	})
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewMessageResponse(msg))
}

func (h *ChatHandler) ListMessages(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	after, _ := strconv.ParseUint(c.DefaultQuery("after", "0"), 10, 64)
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))
	if pageSize <= 0 || pageSize > 200 {
		pageSize = h.pageSize
	}

	messages, err := h.chat.ListMessages(roomID, currentActor(c), uint(after), pageSize)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMessageListResponse(messages))
}

// CatchUp returns messages after the client's cursor that were authored by
// others, marking them read as a side effect.
func (h *ChatHandler) CatchUp(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	lastID, _ := strconv.ParseUint(c.DefaultQuery("last_message_id", "0"), 10, 64)

	messages, err := h.chat.CatchUp(roomID, currentActor(c), uint(lastID))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMessageListResponse(messages))
}

func (h *ChatHandler) CloseRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	room, announce, err := h.chat.CloseRoom(roomID, currentActor(c))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	if announce != "" {
		if _, err := h.hub.PostSystem(roomID, announce); err != nil {
			apperrors.HandleError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, room)
}

func (h *ChatHandler) ArchiveRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	room, err := h.chat.ArchiveRoom(roomID, currentActor(c))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

func (h *ChatHandler) AssignManager(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	var req dto.AssignManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.HandleValidationError(c, err)
		return
	}

	room, err := h.chat.AssignManager(roomID, req.ManagerID, req.Reassign)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

func (h *ChatHandler) UnseenCount(c *gin.Context) {
	count, err := h.chat.Tracker().UnseenCount(middleware.CurrentUserID(c))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UnseenCountResponse{Count: count})
}

func (h *ChatHandler) Stats(c *gin.Context) {
	stats, err := h.chat.Stats(currentActor(c))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
