package document

import (
	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/namespaces/{namespace}/documents", func(r chi.Router) {
		r.Post("/", h.IndexDocuments)
		r.Delete("/", h.DeleteDocuments)
	})
}
