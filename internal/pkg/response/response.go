package response

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/entity"
	"go.uber.org/zap"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Can't change response at this point, just log
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// Error writes an error response with the status text and a human readable message
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: http.StatusText(status), Message: message})
}

// Message writes a {"message": ...} body, the shape chat clients read
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Message: message})
}

// Success writes a success response
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 Created response
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// NoContent writes a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// UsecaseError maps domain errors to a status and writes the error body.
// Server-side failures are logged; the message returned to the client stays generic.
func UsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	status, message := http.StatusInternalServerError, "internal server error"

	switch {
	case errors.Is(err, entity.ErrConversationNotFound),
		errors.Is(err, entity.ErrChatbotNotFound),
		errors.Is(err, entity.ErrUserNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, entity.ErrInvalidParameter),
		errors.Is(err, entity.ErrMissingField),
		errors.Is(err, entity.ErrInvalidFormat),
		errors.Is(err, entity.ErrInvalidConversation),
		errors.Is(err, entity.ErrNamespaceRequired),
		errors.Is(err, entity.ErrUnsupportedFormat),
		errors.Is(err, entity.ErrNoDocuments):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, entity.ErrDocumentTooLarge),
		errors.Is(err, entity.ErrTooManyDocuments):
		status, message = http.StatusRequestEntityTooLarge, err.Error()
	}

	if status >= http.StatusInternalServerError {
		ctxzap.Error(ctx, "request failed", zap.Error(err))
	} else {
		ctxzap.Warn(ctx, "request rejected", zap.Int("status", status), zap.Error(err))
	}

	Error(w, status, message)
}
