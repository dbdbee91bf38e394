package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/client"
	"github.com/neuraltalk/chat-backend/internal/config"
	"github.com/neuraltalk/chat-backend/internal/pkg/ratelimit"
	"github.com/neuraltalk/chat-backend/internal/store"
	"github.com/neuraltalk/chat-backend/internal/telegram/middleware"
	"github.com/neuraltalk/chat-backend/internal/telegram/render"
	"github.com/neuraltalk/chat-backend/internal/telegram/state"
	"go.uber.org/zap"
)

// API is the subset of *tgbotapi.BotAPI the bot talks through
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Deps are the collaborators the bot answers with
type Deps struct {
	State         *state.Manager
	Consumer      *client.Consumer
	Conversations store.ConversationStore
	Limiter       *ratelimit.Limiter
}

// Bot answers questions in telegram chats by streaming them through the chat endpoint
type Bot struct {
	api           API
	cfg           *config.TelegramConfig
	state         *state.Manager
	consumer      *client.Consumer
	conversations store.ConversationStore
	sessions      *sessions
	handle        middleware.Next
	logger        *zap.Logger
	updatesChan   tgbotapi.UpdatesChannel
	stopChan      chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
	now           func() time.Time
}

func New(api API, cfg *config.TelegramConfig, deps Deps, logger *zap.Logger) *Bot {
	b := &Bot{
		api:           api,
		cfg:           cfg,
		state:         deps.State,
		consumer:      deps.Consumer,
		conversations: deps.Conversations,
		sessions:      newSessions(),
		logger:        logger,
		stopChan:      make(chan struct{}),
		now:           time.Now,
	}

	// rate limit → logging → recovery → handler
	b.handle = middleware.Chain(b.handleUpdate,
		middleware.NewRateLimiterMiddleware(deps.Limiter, api),
		middleware.NewLoggingMiddleware(),
		middleware.NewRecoveryMiddleware(api),
	)

	return b
}

// Start begins long polling. Updates are handled concurrently until ctx ends or Stop is called.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting telegram bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout
	b.updatesChan = b.api.GetUpdatesChan(u)

	ctx = ctxzap.ToContext(ctx, b.logger)
	go b.processUpdates(ctx)

	b.logger.Info("telegram bot started successfully")
	return nil
}

// Stop stops polling and waits for in-flight updates, bounded by the shutdown timeout
func (b *Bot) Stop() error {
	b.logger.Info("stopping telegram bot")

	b.stopOnce.Do(func() {
		close(b.stopChan)
		b.api.StopReceivingUpdates()
	})

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	shutdownTimeout := time.Duration(b.cfg.ShutdownTimeout) * time.Second
	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(shutdownTimeout):
		b.logger.Warn("shutdown timeout exceeded, some handlers may not have completed",
			zap.Duration("timeout", shutdownTimeout),
		)
		return fmt.Errorf("shutdown timeout exceeded")
	}

	b.logger.Info("telegram bot stopped successfully")
	return nil
}

func (b *Bot) processUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			ctxzap.Info(ctx, "context cancelled, stopping update processing")
			return
		case <-b.stopChan:
			ctxzap.Info(ctx, "stop signal received, stopping update processing")
			return
		case update, ok := <-b.updatesChan:
			if !ok {
				return
			}
			b.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer b.wg.Done()
				b.handle(ctx, u)
			}(update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	if message == nil || message.Chat == nil {
		return
	}

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	if message.Text == "" {
		return
	}

	b.ask(ctx, message.Chat.ID, message.Text)
}

func (b *Bot) send(ctx context.Context, chatID int64, text string) (tgbotapi.Message, error) {
	msg, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		ctxzap.Error(ctx, "failed to send message", zap.Error(err), zap.Int64("chat_id", chatID))
	}
	return msg, err
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	_, _ = b.send(ctx, chatID, text)
}

func (b *Bot) sendError(ctx context.Context, chatID int64, err error) {
	b.reply(ctx, chatID, render.ClassifyError(err))
}
