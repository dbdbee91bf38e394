package conversation

import (
	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/conversations/{conversation_id}", func(r chi.Router) {
		r.Get("/", h.GetConversation)
		r.Put("/", h.UpsertConversation)
		r.Get("/export", h.ExportConversation)
	})
	r.Get("/namespaces/{namespace}/conversations", h.ListConversations)
}
