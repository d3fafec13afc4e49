package routes

import (
	"github.com/gin-gonic/gin"

	"supportchat/internal/config"
	"supportchat/internal/handlers"
	"supportchat/internal/logger"
	"supportchat/internal/middleware"
	"supportchat/ws"
)

// RegisterRoutes wires all HTTP and WebSocket routes.
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	appHandlers *handlers.AppHandlers,
	wsHandler *ws.Handler,
) {
	api := router.Group("/api/v1")
	{
		appHandlers.AuthHandler.RegisterRoutes(api)

		authed := api.Group("")
		authed.Use(middleware.AuthMiddleware(cfg))
		appHandlers.ChatHandler.RegisterRoutes(authed)
	}

	wsGroup := router.Group("/ws")
	wsGroup.Use(middleware.AuthMiddleware(cfg))
	{
		wsGroup.GET("/chat/:roomID", wsHandler.ServeChat)
	}
	logger.Info("routes registered")
}
