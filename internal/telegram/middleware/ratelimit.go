package middleware

import (
	"context"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/pkg/ratelimit"
	"github.com/neuraltalk/chat-backend/internal/telegram/render"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const warningInterval = 30 * time.Second

// RateLimiterMiddleware drops updates of users above their token bucket.
// At most one warning per user is sent every warningInterval.
type RateLimiterMiddleware struct {
	limiter  *ratelimit.Limiter
	warnings *cache.Cache
	sender   Sender
}

func NewRateLimiterMiddleware(limiter *ratelimit.Limiter, sender Sender) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		limiter:  limiter,
		warnings: cache.New(warningInterval, 2*warningInterval),
		sender:   sender,
	}
}

func (m *RateLimiterMiddleware) Handle(ctx context.Context, update tgbotapi.Update, next Next) {
	userID, chatID := origin(update)
	if userID == 0 {
		next(ctx, update)
		return
	}

	key := strconv.FormatInt(userID, 10)
	if m.limiter.Allow(key) {
		next(ctx, update)
		return
	}

	ctxzap.Warn(ctx, "rate limit exceeded", zap.Int64("user_id", userID))

	// Add fails while a previous warning is still fresh
	if chatID == 0 || m.warnings.Add(key, struct{}{}, cache.DefaultExpiration) != nil {
		return
	}

	text := render.RateLimited(m.limiter.RetryAfter(key))
	if _, err := m.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		ctxzap.Error(ctx, "failed to send rate limit warning", zap.Error(err))
	}
}
