package bootstrap

import (
	"context"
	"log"

	"ai-companion-be/internal/config"
	"ai-companion-be/internal/constant"
	"ai-companion-be/internal/handler"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/repository/implementation"
	"ai-companion-be/internal/service"
	"ai-companion-be/internal/websocket"
	"ai-companion-be/pkg/llm/ollama"
	pktNats "ai-companion-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	ChatHandler *handler.ChatHandler

	// Background services (exposed for main.go to run)
	GenerationService service.IGenerationService
	WebSocketHub      *websocket.Hub

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. In-process event bus for generation dispatch
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Infrastructure
	// NATS: best-effort downstream event publishing
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis: cross-instance broadcast leg
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket hub
	relayLogger := logger.NewIsolatedLogger("logs/relay.log")
	wsHub := websocket.NewHub(rdb, relayLogger)
	go wsHub.Run()

	// Generation engine
	llmProvider := ollama.NewProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	log.Printf("[INFO] Using generation engine: OLLAMA (%s)", cfg.Ai.OllamaModel)

	// 4. Repositories
	chatRepo := implementation.NewChatRepository(db)
	messageRepo := implementation.NewMessageRepository(db)

	// 5. Services
	chatService := service.NewChatService(chatRepo, messageRepo)
	publisherService := service.NewPublisherService(constant.GenerateReplyTopic, pubSub)
	relayService := service.NewRelayService(messageRepo, wsHub, publisherService, relayLogger)
	generationService := service.NewGenerationService(
		pubSub,
		constant.GenerateReplyTopic,
		messageRepo,
		wsHub,
		llmProvider,
		natsPub,
		relayLogger,
	)

	// 6. Handlers
	wsHandler := handler.NewChatWsHandler(wsHub, relayService, chatService, relayLogger)
	chatHandler := handler.NewChatHandler(chatService, wsHandler)

	return &Container{
		ChatHandler:       chatHandler,
		GenerationService: generationService,
		WebSocketHub:      wsHub,
		Logger:            sysLogger,
	}
}
