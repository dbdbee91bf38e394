package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	chatapi "github.com/neuraltalk/chat-backend/internal/api/chat"
	chatbotapi "github.com/neuraltalk/chat-backend/internal/api/chatbot"
	conversationapi "github.com/neuraltalk/chat-backend/internal/api/conversation"
	"github.com/neuraltalk/chat-backend/internal/api/docs"
	documentapi "github.com/neuraltalk/chat-backend/internal/api/document"
	"github.com/neuraltalk/chat-backend/internal/api/middleware"
	"github.com/neuraltalk/chat-backend/internal/pkg/ratelimit"
	"github.com/neuraltalk/chat-backend/internal/pkg/response"
	"go.uber.org/zap"
)

// defaultTimeout bounds every non-streaming route. The chat stream has its own deadline.
const defaultTimeout = 60 * time.Second

// Handlers groups the route handlers. Only Chat is required: the
// conversation and chatbot routes need PostgreSQL and are skipped without it.
type Handlers struct {
	Chat         *chatapi.Handler
	Conversation *conversationapi.Handler
	Chatbot      *chatbotapi.Handler
	Document     *documentapi.Handler
}

// SetupRouter creates and configures the HTTP router.
// limiter may be nil to disable rate limiting of the chat endpoint.
func SetupRouter(h Handlers, limiter *ratelimit.Limiter, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))

	var chatMiddlewares []func(http.Handler) http.Handler
	if limiter != nil {
		chatMiddlewares = append(chatMiddlewares, middleware.RateLimit(limiter))
	}
	chatapi.RegisterRoutes(r, h.Chat, chatMiddlewares...)

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(defaultTimeout))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			response.Success(w, map[string]string{"status": "healthy"})
		})

		docs.RegisterRoutes(r)

		if h.Conversation != nil {
			conversationapi.RegisterRoutes(r, h.Conversation)
		}
		if h.Chatbot != nil {
			chatbotapi.RegisterRoutes(r, h.Chatbot)
		}
		if h.Document != nil {
			documentapi.RegisterRoutes(r, h.Document)
		}
	})

	return r
}
