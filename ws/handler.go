package ws

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"supportchat/internal/logger"
	"supportchat/internal/middleware"
	chatsvc "supportchat/internal/services/chat"
	"supportchat/pkg/apperrors"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is enforced by the deployment proxy
	},
}

// Handler upgrades authenticated requests into room-group subscriptions.
type Handler struct {
	hub       *Hub
	chat      *chatsvc.ChatService
	queueSize int
}

func NewHandler(hub *Hub, chat *chatsvc.ChatService, queueSize int) *Handler {
	return &Handler{hub: hub, chat: chat, queueSize: queueSize}
}

// ServeChat handles GET /ws/chat/:roomID. Room access is checked and staff
// auto-assignment runs before the upgrade, so a rejected caller gets a
// proper HTTP error instead of an immediately closed socket.
func (h *Handler) ServeChat(c *gin.Context) {
	roomID64, err := strconv.ParseUint(c.Param("roomID"), 10, 64)
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("invalid room id"))
		return
	}
	roomID := uint(roomID64)

	actor := chatsvc.Actor{
		ID:      middleware.CurrentUserID(c),
		Name:    middleware.CurrentUserName(c),
		IsStaff: middleware.CurrentIsStaff(c),
	}

	_, announce, err := h.chat.OpenRoom(roomID, actor)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	// The opener won the auto-assignment race: post the announcement before
	// the upgrade so the claim never lands without its system message.
	if announce != "" {
		if _, err := h.hub.PostSystem(roomID, announce); err != nil {
			apperrors.HandleError(c, err)
			return
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WithError(err).Warn("ws upgrade failed", "room_id", roomID, "user_id", actor.ID)
		return
	}

	client := NewClient(uuid.New().String(), h.hub, conn, actor, roomID, h.queueSize)
	h.hub.Join(roomID, client)

	go client.writePump()
	go client.readPump()

	logger.Info("ws connected", "room_id", roomID, "user_id", actor.ID, "connection_id", client.ID)
}
