package middleware

import (
	"context"
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/telegram/render"
	"go.uber.org/zap"
)

// RecoveryMiddleware turns a panicking handler into a logged error and a reply
type RecoveryMiddleware struct {
	sender Sender
}

func NewRecoveryMiddleware(sender Sender) *RecoveryMiddleware {
	return &RecoveryMiddleware{sender: sender}
}

func (m *RecoveryMiddleware) Handle(ctx context.Context, update tgbotapi.Update, next Next) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		ctxzap.Error(ctx, "panic recovered in telegram handler",
			zap.Any("panic", r),
			zap.String("stack", string(debug.Stack())),
		)

		if _, chatID := origin(update); chatID != 0 {
			if _, err := m.sender.Send(tgbotapi.NewMessage(chatID, render.ErrGeneric)); err != nil {
				ctxzap.Error(ctx, "failed to send error message", zap.Error(err))
			}
		}
	}()

	next(ctx, update)
}
