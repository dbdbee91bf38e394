package builder

import (
	"context"
	"fmt"
	"net/http"

	"github.com/neuraltalk/chat-backend/internal/api"
	chatapi "github.com/neuraltalk/chat-backend/internal/api/chat"
	chatbotapi "github.com/neuraltalk/chat-backend/internal/api/chatbot"
	conversationapi "github.com/neuraltalk/chat-backend/internal/api/conversation"
	documentapi "github.com/neuraltalk/chat-backend/internal/api/document"
	"github.com/neuraltalk/chat-backend/internal/chain"
	"github.com/neuraltalk/chat-backend/internal/client"
	"github.com/neuraltalk/chat-backend/internal/config"
	"github.com/neuraltalk/chat-backend/internal/pkg/formatter"
	"github.com/neuraltalk/chat-backend/internal/pkg/ratelimit"
	"github.com/neuraltalk/chat-backend/internal/pkg/validator"
	"github.com/neuraltalk/chat-backend/internal/repository"
	"github.com/neuraltalk/chat-backend/internal/store"
	"github.com/neuraltalk/chat-backend/internal/telegram"
	"github.com/neuraltalk/chat-backend/internal/telegram/bot"
	"github.com/neuraltalk/chat-backend/internal/telegram/state"
	"github.com/neuraltalk/chat-backend/internal/usecase/chat"
	"github.com/neuraltalk/chat-backend/internal/usecase/chatbot"
	"github.com/neuraltalk/chat-backend/internal/usecase/conversation"
	"github.com/neuraltalk/chat-backend/internal/usecase/document"
	"go.uber.org/zap"
)

// Build wires the HTTP backend
func Build() (*App, error) {
	ctx := context.Background()

	c, err := newComponents(ctx, "chat-backend", config.LoadConfig, serverNeedsDatabase)
	if err != nil {
		return nil, err
	}
	cfg, logger := c.cfg, c.logger

	vectors, err := c.vectorStore(ctx)
	if err != nil {
		c.close(ctx)
		return nil, fmt.Errorf("setup vector store: %w", err)
	}

	pipeline := chain.New(c.languageModel(), vectors, chain.Config{
		AlwaysCondense: cfg.ChainCfg.AlwaysCondense,
	})
	logger.Info("Retrieval chain initialized")

	v := validator.New(cfg.DocumentCfg)

	chatUC := chat.NewUsecase(pipeline, v, chat.Config{
		DefaultNamespace: cfg.DefaultNamespace,
		RequireNamespace: cfg.RequireNamespace,
	}, logger)
	documentUC := document.NewUsecase(vectors, v, document.Config{
		ChunkSize:    cfg.DocumentCfg.ChunkSize,
		ChunkOverlap: cfg.DocumentCfg.ChunkOverlap,
	}, logger)

	handlers := api.Handlers{
		Chat:     chatapi.NewHandler(chatUC, cfg.ChatRequestTimeout),
		Document: documentapi.NewHandler(documentUC, documentBodyLimit(cfg)),
	}

	if c.db != nil {
		conversationUC := conversation.NewUsecase(
			repository.NewConversationPostgres(c.db),
			v,
			formatter.NewFactory(),
			logger,
		)
		chatbotUC := chatbot.NewUsecase(
			repository.NewUserPostgres(c.db),
			repository.NewChatbotPostgres(c.db),
			v,
			chatbot.CacheConfig{
				TTL:             cfg.ChatbotCache.TTL,
				CleanupInterval: cfg.ChatbotCache.CleanupInterval,
			},
			logger,
		)
		handlers.Conversation = conversationapi.NewHandler(conversationUC)
		handlers.Chatbot = chatbotapi.NewHandler(chatbotUC)
	} else {
		logger.Warn("No database configured, conversation and chatbot routes are disabled")
	}
	logger.Info("Use cases and handlers initialized")

	var limiter *ratelimit.Limiter
	if cfg.RateLimitCfg.Enabled {
		limiter = ratelimit.New(cfg.RateLimitCfg.RequestsPerMinute, cfg.RateLimitCfg.Burst, cfg.RateLimitCfg.IdleExpiry)
		logger.Info("Chat rate limiting enabled",
			zap.Int("requests_per_minute", cfg.RateLimitCfg.RequestsPerMinute),
			zap.Int("burst", cfg.RateLimitCfg.Burst),
		)
	}

	router := api.SetupRouter(handlers, limiter, logger)

	// No WriteTimeout: it would cut long answer streams. Each stream is bounded by CHAT_REQUEST_TIMEOUT instead.
	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ServerReadTimeout,
		ReadTimeout:       cfg.ServerReadTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	logger.Info("Application built successfully",
		zap.String("server_addr", cfg.ServerAddr),
		zap.String("vector_backend", string(cfg.VectorCfg.Backend)),
	)

	return &App{server: server, components: c}, nil
}

// documentBodyLimit bounds an ingestion request: every document at full size plus JSON overhead
func documentBodyLimit(cfg *config.Config) int64 {
	return int64(cfg.DocumentCfg.MaxDocuments)*int64(cfg.DocumentCfg.MaxDocumentSize) + 1<<20
}

// BuildTelegramBot wires the telegram front end. The returned cleanup flushes stores and closes the database.
func BuildTelegramBot() (telegram.Bot, *zap.Logger, func(), error) {
	ctx := context.Background()

	c, err := newComponents(ctx, "telegram-bot", config.LoadConfig, clientNeedsDatabase)
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() { c.close(context.Background()) }

	consumer, conversations, err := buildConsumer(c)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}

	var storage state.Storage = state.NewMemoryStorage()
	if c.db != nil {
		storage = repository.NewTelegramChatPostgres(c.db)
	}

	tcfg := c.cfg.TelegramCfg
	defaultNamespace := tcfg.DefaultNamespace
	if defaultNamespace == "" {
		defaultNamespace = c.cfg.ClientCfg.Namespace
	}

	b, err := telegram.NewBot(&tcfg, bot.Deps{
		State:         state.NewManager(storage, defaultNamespace),
		Consumer:      consumer,
		Conversations: conversations,
		Limiter:       ratelimit.New(tcfg.RateLimitPerMinute, tcfg.RateLimitBurst, c.cfg.RateLimitCfg.IdleExpiry),
	}, c.logger)
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	c.logger.Info("Telegram bot built successfully", zap.String("default_namespace", defaultNamespace))

	return b, c.logger, cleanup, nil
}

// Client is everything the terminal client needs
type Client struct {
	Consumer      *client.Consumer
	Canceller     *client.Canceller
	Conversations store.ConversationStore
	Namespace     string
	Logger        *zap.Logger
	Close         func()
}

// BuildClient wires the terminal client for the given environment
func BuildClient(env string) (*Client, error) {
	ctx := context.Background()

	load := func() (*config.Config, error) { return config.Load(env) }
	c, err := newComponents(ctx, "chat-cli", load, clientNeedsDatabase)
	if err != nil {
		return nil, err
	}
	cleanup := func() { c.close(context.Background()) }

	consumer, conversations, err := buildConsumer(c)
	if err != nil {
		cleanup()
		return nil, err
	}

	canceller := client.NewCanceller()

	return &Client{
		Consumer:      consumer.WithCanceller(canceller),
		Canceller:     canceller,
		Conversations: conversations,
		Namespace:     c.cfg.ClientCfg.Namespace,
		Logger:        c.logger,
		Close:         cleanup,
	}, nil
}

func buildConsumer(c *components) (*client.Consumer, store.ConversationStore, error) {
	if c.cfg.ClientCfg.Url == "" {
		return nil, nil, fmt.Errorf("CHAT_CLIENT_SERVICE_URL is required")
	}

	conversations, err := c.conversationStore()
	if err != nil {
		return nil, nil, fmt.Errorf("setup conversation store: %w", err)
	}

	consumer := client.NewConsumer(c.cfg.ClientCfg, conversations, client.NewCanceller(), c.logger)
	return consumer, conversations, nil
}
