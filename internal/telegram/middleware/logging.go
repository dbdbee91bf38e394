package middleware

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

// LoggingMiddleware tags the context logger with the update origin and logs its duration
type LoggingMiddleware struct{}

func NewLoggingMiddleware() *LoggingMiddleware {
	return &LoggingMiddleware{}
}

func (m *LoggingMiddleware) Handle(ctx context.Context, update tgbotapi.Update, next Next) {
	start := time.Now()
	userID, chatID := origin(update)

	ctx = logger.AddFields(ctx,
		zap.Int("update_id", update.UpdateID),
		zap.Int64("user_id", userID),
		zap.Int64("chat_id", chatID),
	)

	ctxzap.Info(ctx, "telegram update received", zap.String("type", updateType(update)))

	next(ctx, update)

	ctxzap.Info(ctx, "telegram update processed", zap.Duration("duration", time.Since(start)))
}

func updateType(update tgbotapi.Update) string {
	switch {
	case update.CallbackQuery != nil:
		return "callback"
	case update.Message == nil:
		return "other"
	case update.Message.IsCommand():
		return "command"
	case update.Message.Text != "":
		return "text"
	default:
		return "other"
	}
}
