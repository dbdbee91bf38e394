package chatbot

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/neuraltalk/chat-backend/internal/pkg/logger"
	"github.com/neuraltalk/chat-backend/internal/pkg/response"
	"go.uber.org/zap"
)

type Handler struct {
	usecase ChatbotUsecase
}

func NewHandler(usecase ChatbotUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// CreateUser handles POST /users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "CreateUser")

	var req entity.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Warn(ctx, "failed to decode request", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := h.usecase.CreateUser(ctx, &req)
	if err != nil {
		response.UsecaseError(ctx, w, err)
		return
	}

	response.Success(w, user)
}

// ListChatbotsForUser handles GET /users/{user_id}/chatbots
func (h *Handler) ListChatbotsForUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	ctx := logger.AddFields(logger.WithAction(r.Context(), "ListChatbotsForUser"), zap.String("user_id", userID))

	bots, err := h.usecase.ListChatbotsForUser(ctx, userID)
	if err != nil {
		response.UsecaseError(ctx, w, err)
		return
	}

	response.Success(w, bots)
}

// CreateChatbot handles POST /chatbots
func (h *Handler) CreateChatbot(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "CreateChatbot")

	var req entity.CreateChatbotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Warn(ctx, "failed to decode request", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	bot, err := h.usecase.CreateChatbot(ctx, &req)
	if err != nil {
		response.UsecaseError(ctx, w, err)
		return
	}

	response.Created(w, bot)
}

// GetChatbot handles GET /chatbots/{chatbot_id}
func (h *Handler) GetChatbot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "chatbot_id")
	ctx := logger.AddFields(logger.WithAction(r.Context(), "GetChatbot"), zap.String("chatbot_id", id))

	bot, err := h.usecase.GetChatbot(ctx, id)
	if err != nil {
		response.UsecaseError(ctx, w, err)
		return
	}

	response.Success(w, bot)
}
