package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/chain"
	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/neuraltalk/chat-backend/internal/pkg/logger"
	"github.com/neuraltalk/chat-backend/internal/pkg/response"
	"go.uber.org/zap"
)

const (
	maxBodyBytes = 1 << 20

	msgNoQuestion  = "No question in the request"
	msgInvalidBody = "Invalid JSON body"
)

type Handler struct {
	usecase        ChatUsecase
	requestTimeout time.Duration
}

func NewHandler(usecase ChatUsecase, requestTimeout time.Duration) *Handler {
	return &Handler{
		usecase:        usecase,
		requestTimeout: requestTimeout,
	}
}

// Chat handles POST /api/chat.
// Input errors are answered with 400 JSON before any stream is opened. After that
// the body is raw answer text and the outcome is reported in the X-Stream-Status trailer.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Chat")

	var body entity.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		ctxzap.Warn(ctx, "failed to decode chat request", zap.Error(err))
		response.Message(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	req, err := h.usecase.Prepare(ctx, &body)
	if err != nil {
		ctxzap.Warn(ctx, "chat request rejected", zap.Error(err))
		if errors.Is(err, entity.ErrNoQuestion) {
			response.Message(w, http.StatusBadRequest, msgNoQuestion)
			return
		}
		response.Message(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx = logger.WithNamespace(ctx, req.Namespace)

	var cancel context.CancelFunc
	if h.requestTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, h.requestTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	rc := http.NewResponseController(w)

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache, no-transform")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	header.Set("Trailer", entity.StreamStatusTrailer)
	w.WriteHeader(http.StatusOK)

	// Commit headers before the first model token.
	writeErr := h.write(w, rc, " ")
	if writeErr != nil {
		cancel()
	}

	status := entity.StreamStatusAborted
	tokens := 0

	for ev := range h.usecase.Stream(ctx, req) {
		switch ev.Type {
		case chain.EventToken:
			if writeErr != nil {
				continue
			}
			if writeErr = h.write(w, rc, ev.Token); writeErr != nil {
				ctxzap.Warn(ctx, "client went away mid-stream", zap.Error(writeErr))
				cancel()
				continue
			}
			tokens++
		case chain.EventError:
			status = entity.StreamStatusError
			if errors.Is(ev.Err, context.Canceled) {
				status = entity.StreamStatusAborted
			}
			ctxzap.Error(ctx, "chat stream failed",
				zap.Error(ev.Err),
				zap.Int("tokens_sent", tokens),
			)
		case chain.EventDone:
			status = entity.StreamStatusComplete
		}
	}

	header.Set(entity.StreamStatusTrailer, string(status))

	ctxzap.Info(ctx, "chat stream closed",
		zap.String("status", string(status)),
		zap.Int("tokens_sent", tokens),
	)
}

func (h *Handler) write(w io.Writer, rc *http.ResponseController, s string) error {
	if _, err := io.WriteString(w, s); err != nil {
		return err
	}
	return rc.Flush()
}
