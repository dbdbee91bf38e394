package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/chain"
	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/neuraltalk/chat-backend/internal/pkg/validator"
	"go.uber.org/zap"
)

type Config struct {
	// DefaultNamespace is used when the request names none
	DefaultNamespace string
	// RequireNamespace rejects requests that would search every tenant
	RequireNamespace bool
}

// ChatUsecase turns a chat request into a pipeline run
type ChatUsecase struct {
	pipeline  Pipeline
	validator *validator.Validator
	cfg       Config
	logger    *zap.Logger
}

func NewUsecase(pipeline Pipeline, validator *validator.Validator, cfg Config, logger *zap.Logger) *ChatUsecase {
	return &ChatUsecase{
		pipeline:  pipeline,
		validator: validator,
		cfg:       cfg,
		logger:    logger,
	}
}

// Prepare validates the request, sanitizes the question and resolves the namespace.
// Every error it returns happens before a stream is opened.
func (uc *ChatUsecase) Prepare(ctx context.Context, req *entity.ChatRequest) (chain.Request, error) {
	if err := uc.validator.ValidateChatRequest(req); err != nil {
		if errors.Is(err, entity.ErrMissingField) {
			return chain.Request{}, entity.ErrNoQuestion
		}
		return chain.Request{}, err
	}

	namespace := req.Namespace
	if namespace == "" {
		namespace = uc.cfg.DefaultNamespace
	}
	if namespace == "" {
		if uc.cfg.RequireNamespace {
			return chain.Request{}, fmt.Errorf("%w: no namespace in the request and no default configured", entity.ErrNamespaceRequired)
		}
		ctxzap.Warn(ctx, "chat request without namespace, retrieval is not scoped to a tenant")
	}

	history := req.ChatHistory
	if history == nil {
		history = []entity.HistoryPair{}
	}

	return chain.Request{
		Question:  entity.SanitizeQuestion(req.Question),
		History:   history,
		Namespace: namespace,
	}, nil
}

// Stream starts the pipeline. The returned channel ends with a done or error event.
func (uc *ChatUsecase) Stream(ctx context.Context, req chain.Request) <-chan chain.Event {
	ctxzap.Info(ctx, "chat pipeline started",
		zap.Int("history_pairs", len(req.History)),
		zap.Int("question_length", len(req.Question)),
	)
	return uc.pipeline.Stream(ctx, req)
}
