package chatbot

import (
	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/users", h.CreateUser)
	r.Get("/users/{user_id}/chatbots", h.ListChatbotsForUser)

	r.Post("/chatbots", h.CreateChatbot)
	r.Get("/chatbots/{chatbot_id}", h.GetChatbot)
}
