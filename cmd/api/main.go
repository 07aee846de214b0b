package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/eventverse/chat-api/internal/config"
	"github.com/eventverse/chat-api/internal/database"
	"github.com/eventverse/chat-api/internal/handler"
	"github.com/eventverse/chat-api/internal/middleware"
	"github.com/eventverse/chat-api/internal/models"
	"github.com/eventverse/chat-api/internal/realtime"
	"github.com/eventverse/chat-api/internal/repository"
	"github.com/eventverse/chat-api/internal/router"
	"github.com/eventverse/chat-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Conversation{}, &models.Participant{}, &models.Message{}, &models.Notification{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Redis and NATS back the cross-node realtime bridge and the last-message
	// replay cache. Either can be absent in a single-node deployment.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer func() {
			if err := natsConn.Drain(); err != nil {
				logger.Warn().Err(err).Msg("nats drain failed")
			}
		}()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	hub := realtime.NewHub(logger)

	var bridge *realtime.Bridge
	if redisClient != nil || natsConn != nil {
		bridge = realtime.NewBridge(hub, redisClient, cfg.RealtimeChannelBase, natsConn, logger)
	}

	var cache *realtime.MessageCache
	if redisClient != nil {
		cache = realtime.NewMessageCache(redisClient, cfg.RealtimeChannelBase, cfg.LastMessageCacheTTL, logger)
	}

	gateway := realtime.NewGateway(hub, bridge, cache, validate, cfg.LegacyCommitteeEvents, logger)

	conversationRepo := repository.NewConversationRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notifier := service.NewNotificationService(notificationRepo, hub, logger)
	conversationService := service.NewConversationService(conversationRepo, directoryRepo, notifier, hub, logger)

	conversationHandler := handler.NewConversationHandler(conversationService, validate, logger)
	realtimeHandler := handler.NewRealtimeHandler(gateway, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ConversationHandler: conversationHandler,
		RealtimeHandler:     realtimeHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if bridge != nil {
		bridge.Start(runCtx)
	}

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-runCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
