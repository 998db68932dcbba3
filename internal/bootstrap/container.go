package bootstrap

import (
	"context"
	"log"
	"time"

	"ai-assistant-be/internal/config"
	"ai-assistant-be/internal/constant"
	"ai-assistant-be/internal/controller"
	"ai-assistant-be/internal/handler"
	"ai-assistant-be/internal/pkg/logger"
	"ai-assistant-be/internal/pkg/mailer"
	"ai-assistant-be/internal/repository/memory"
	"ai-assistant-be/internal/repository/unitofwork"
	"ai-assistant-be/internal/service"
	"ai-assistant-be/internal/websocket"
	"ai-assistant-be/pkg/llm/factory"

	pktNats "ai-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController    controller.IAuthController
	OAuthController   controller.IOAuthController
	ChatbotController controller.IChatbotController

	// Background services (exposed for main.go to run)
	GenerationService service.IGenerationService

	// WebSockets & event relay
	StreamHandler *handler.StreamHandler
	WebSocketHub  *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Command bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. LLM provider
	apiKey := ""
	switch cfg.Ai.Provider {
	case "gemini":
		apiKey = cfg.Keys.GoogleGemini
	case "huggingface":
		apiKey = cfg.Keys.HuggingFace
	}
	llmProvider, err := factory.NewLLMProvider(cfg.Ai.Provider, apiKey, cfg.Ai.Model, cfg.Ai.BaseURL)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM provider: %v", err)
	}
	log.Printf("[INFO] Using LLM provider: %s (%s)", cfg.Ai.Provider, cfg.Ai.Model)

	// Per-user UI state lives in memory, not the database
	stateRepo := memory.NewSessionStateRepository()

	// 4. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS subscriber: %v", err)
	}

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

	wsLogger := logger.NewIsolatedLogger("logs/stream.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 5. Services
	publisherService := service.NewPublisherService(pubSub, constant.GenerateReplyTopic)
	generationService := service.NewGenerationService(
		pubSub,
		constant.GenerateReplyTopic,
		uowFactory,
		llmProvider,
		stateRepo,
		wsHub,
		time.Duration(cfg.Ai.TimeoutSeconds)*time.Second,
		sysLogger,
	)

	chatbotService := service.NewChatbotService(
		uowFactory,
		stateRepo,
		publisherService,
		natsPub,
		cfg.App.ClientURL,
		sysLogger,
	)

	authService := service.NewAuthService(uowFactory, emailService, natsPub)
	oauthService := service.NewOAuthService(uowFactory, sysLogger)

	// 6. Event relay (NATS -> websocket)
	if natsSub != nil {
		relay := service.NewEventRelayService(natsSub, wsHub, wsLogger)
		go relay.Start()
	}

	streamHandler := handler.NewStreamHandler(natsPub, wsHub, wsLogger)

	return &Container{
		AuthController:    controller.NewAuthController(authService),
		OAuthController:   controller.NewOAuthController(oauthService),
		ChatbotController: controller.NewChatbotController(chatbotService),

		GenerationService: generationService,

		StreamHandler: streamHandler,
		WebSocketHub:  wsHub,
	}
}
