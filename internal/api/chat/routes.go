package chat

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the streaming chat endpoint behind the given middlewares
func RegisterRoutes(r chi.Router, h *Handler, middlewares ...func(http.Handler) http.Handler) {
	r.With(middlewares...).Post("/api/chat", h.Chat)
}
