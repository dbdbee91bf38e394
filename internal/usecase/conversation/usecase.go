package conversation

import (
	"context"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/neuraltalk/chat-backend/internal/pkg/validator"
	"github.com/neuraltalk/chat-backend/internal/repository"
	"go.uber.org/zap"
)

// ConversationUsecase manages server-side conversation records
type ConversationUsecase struct {
	repo       repository.ConversationRepository
	validator  *validator.Validator
	formatters FormatterFactory
	logger     *zap.Logger
}

func NewUsecase(
	repo repository.ConversationRepository,
	validator *validator.Validator,
	formatters FormatterFactory,
	logger *zap.Logger,
) *ConversationUsecase {
	return &ConversationUsecase{
		repo:       repo,
		validator:  validator,
		formatters: formatters,
		logger:     logger,
	}
}

// UpsertConversation creates the conversation when missing and rewrites its messages
func (uc *ConversationUsecase) UpsertConversation(
	ctx context.Context,
	id string,
	req *entity.UpsertConversationRequest,
) (*entity.StoredConversation, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: conversation id", entity.ErrMissingField)
	}
	if err := uc.validator.ValidateUpsertConversation(req); err != nil {
		return nil, err
	}

	conv := entity.StoredConversation{
		Conversation: entity.Conversation{
			ID:          id,
			Name:        req.Name,
			Messages:    req.Messages,
			Prompt:      req.Prompt,
			Temperature: req.Temperature,
			FolderID:    req.FolderID,
		},
		Namespace: req.Namespace,
		UserID:    req.UserID,
		ChatbotID: req.ChatbotID,
	}
	if conv.Name == "" {
		conv.Name = entity.DefaultConversationName
		if len(conv.Messages) > 0 {
			conv.Name = entity.NameFromMessage(conv.Messages[0].Content)
		}
	}
	if conv.Prompt == "" {
		conv.Prompt = entity.DefaultSystemPrompt
	}
	if conv.Messages == nil {
		conv.Messages = []entity.ChatTurn{}
	}

	if err := uc.repo.UpsertConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("upsert conversation: %w", err)
	}

	ctxzap.Info(ctx, "conversation saved",
		zap.String("conversation_id", id),
		zap.Int("messages", len(conv.Messages)),
	)

	return uc.repo.GetConversation(ctx, id)
}

func (uc *ConversationUsecase) GetConversation(ctx context.Context, id string) (*entity.StoredConversation, error) {
	conv, err := uc.repo.GetConversation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return conv, nil
}

func (uc *ConversationUsecase) ListConversations(ctx context.Context, namespace string) ([]entity.StoredConversation, error) {
	if err := validator.ValidateNamespace(namespace); err != nil {
		return nil, err
	}

	convs, err := uc.repo.ListConversations(ctx, namespace)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	if convs == nil {
		convs = []entity.StoredConversation{}
	}
	return convs, nil
}

// ExportConversation renders the transcript in the requested format
func (uc *ConversationUsecase) ExportConversation(
	ctx context.Context,
	id string,
	format entity.ResultFormat,
) (*entity.ExportedFile, error) {
	if format == "" {
		format = entity.FormatMarkdown
	}
	if !format.IsValid() {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnsupportedFormat, format)
	}

	conv, err := uc.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}

	f, err := uc.formatters.Create(format)
	if err != nil {
		return nil, err
	}

	data, err := f.Format(conv.Conversation)
	if err != nil {
		return nil, fmt.Errorf("format conversation: %w", err)
	}

	ctxzap.Info(ctx, "conversation exported",
		zap.String("conversation_id", id),
		zap.String("format", string(format)),
		zap.Int("size", len(data)),
	)

	return &entity.ExportedFile{
		Filename:    "conversation-" + id + f.FileExtension(),
		ContentType: f.ContentType(),
		Data:        data,
	}, nil
}
