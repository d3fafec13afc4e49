package app

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"supportchat/internal/cache"
	"supportchat/internal/config"
	"supportchat/internal/handlers"
	"supportchat/internal/logger"
	"supportchat/internal/middleware"
	"supportchat/internal/models"
	chatmodels "supportchat/internal/models/chat"
	"supportchat/internal/repositories"
	chatrepo "supportchat/internal/repositories/chat"
	"supportchat/internal/routes"
	"supportchat/internal/services"
	chatsvc "supportchat/internal/services/chat"
	"supportchat/ws"
)

// Run loads configuration, connects to the database, runs migrations and
// starts the HTTP server.
func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := migrate(gormDB); err != nil {
		logger.Fatal("Migration failed", "error", err)
	}

	ginRouter := SetupRouter(cfg, gormDB, sqlDB)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&chatmodels.Room{},
		&chatmodels.Message{},
		&chatmodels.Notification{},
	)
}

// SetupRouter builds the full dependency graph and returns a configured
// gin engine. Shared with the integration test harness.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB, sqlDB *sql.DB) *gin.Engine {
	userRepo := repositories.NewUserRepository(gormDB)
	roomRepo := chatrepo.NewRoomRepository(gormDB)
	messageRepo := chatrepo.NewMessageRepository(gormDB)
	notificationRepo := chatrepo.NewNotificationRepository(gormDB)

	unseenCache, err := cache.New(cfg.Redis.Addr, time.Duration(cfg.Redis.CacheTTL)*time.Second)
	if err != nil {
		logger.Warn("Redis unavailable, unseen-count cache disabled", "error", err)
		unseenCache = nil
	}

	tracker := chatsvc.NewReadTracker(messageRepo, notificationRepo, unseenCache)
	chatService := chatsvc.NewChatService(gormDB, roomRepo, messageRepo, notificationRepo, tracker)
	authService := services.NewAuthService(cfg, userRepo)

	hub := ws.NewHub(chatService, tracker)
	wsHandler := ws.NewHandler(hub, chatService, cfg.Chat.SendQueueSize)

	appHandlers := &handlers.AppHandlers{
		AuthHandler: handlers.NewAuthHandler(authService),
		ChatHandler: handlers.NewChatHandler(chatService, hub, cfg.Chat.PageSize),
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.Server.Env == "test" {
		gin.SetMode(gin.TestMode)
	}
	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery())
	ginRouter.Use(middleware.RequestIDMiddleware())
	ginRouter.Use(middleware.LoggingMiddleware())

	routes.RegisterRoutes(ginRouter, cfg, appHandlers, wsHandler)

	return ginRouter
}
