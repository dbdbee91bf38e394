package conversation

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/neuraltalk/chat-backend/internal/pkg/logger"
	"github.com/neuraltalk/chat-backend/internal/pkg/response"
	"go.uber.org/zap"
)

type Handler struct {
	usecase ConversationUsecase
}

func NewHandler(usecase ConversationUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// UpsertConversation handles PUT /conversations/{conversation_id}
func (h *Handler) UpsertConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversation_id")
	ctx := logger.AddFields(logger.WithAction(r.Context(), "UpsertConversation"), zap.String("conversation_id", id))

	var req entity.UpsertConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Warn(ctx, "failed to decode request", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	conv, err := h.usecase.UpsertConversation(ctx, id, &req)
	if err != nil {
		response.UsecaseError(ctx, w, err)
		return
	}

	response.Success(w, conv)
}

// GetConversation handles GET /conversations/{conversation_id}
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversation_id")
	ctx := logger.AddFields(logger.WithAction(r.Context(), "GetConversation"), zap.String("conversation_id", id))

	conv, err := h.usecase.GetConversation(ctx, id)
	if err != nil {
		response.UsecaseError(ctx, w, err)
		return
	}

	response.Success(w, conv)
}

// ListConversations handles GET /namespaces/{namespace}/conversations
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	ctx := logger.WithNamespace(logger.WithAction(r.Context(), "ListConversations"), namespace)

	convs, err := h.usecase.ListConversations(ctx, namespace)
	if err != nil {
		response.UsecaseError(ctx, w, err)
		return
	}

	ctxzap.Debug(ctx, "conversations listed", zap.Int("count", len(convs)))
	response.Success(w, convs)
}

// ExportConversation handles GET /conversations/{conversation_id}/export?format=markdown|pdf|docx
func (h *Handler) ExportConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversation_id")
	ctx := logger.AddFields(logger.WithAction(r.Context(), "ExportConversation"), zap.String("conversation_id", id))

	format := entity.ResultFormat(r.URL.Query().Get("format"))

	file, err := h.usecase.ExportConversation(ctx, id, format)
	if err != nil {
		response.UsecaseError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, file.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		ctxzap.Warn(ctx, "failed to write export", zap.Error(err))
	}
}
