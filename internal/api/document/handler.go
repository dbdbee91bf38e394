package document

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/neuraltalk/chat-backend/internal/pkg/logger"
	"github.com/neuraltalk/chat-backend/internal/pkg/response"
	"go.uber.org/zap"
)

type Handler struct {
	usecase DocumentUsecase
	// maxBodyBytes bounds the JSON body; per-document limits are checked by the usecase
	maxBodyBytes int64
}

func NewHandler(usecase DocumentUsecase, maxBodyBytes int64) *Handler {
	return &Handler{
		usecase:      usecase,
		maxBodyBytes: maxBodyBytes,
	}
}

// IndexDocuments handles POST /namespaces/{namespace}/documents
func (h *Handler) IndexDocuments(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	ctx := logger.WithNamespace(logger.WithAction(r.Context(), "IndexDocuments"), namespace)

	var req entity.IndexDocumentsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		ctxzap.Warn(ctx, "failed to decode request", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.usecase.IndexDocuments(ctx, namespace, &req)
	if err != nil {
		response.UsecaseError(ctx, w, err)
		return
	}

	response.Created(w, resp)
}

// DeleteDocuments handles DELETE /namespaces/{namespace}/documents
func (h *Handler) DeleteDocuments(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	ctx := logger.WithNamespace(logger.WithAction(r.Context(), "DeleteDocuments"), namespace)

	if err := h.usecase.DeleteDocuments(ctx, namespace); err != nil {
		response.UsecaseError(ctx, w, err)
		return
	}

	response.NoContent(w)
}
