package conversation

import (
	"context"

	"github.com/neuraltalk/chat-backend/internal/entity"
)

type ConversationUsecase interface {
	UpsertConversation(ctx context.Context, id string, req *entity.UpsertConversationRequest) (*entity.StoredConversation, error)
	GetConversation(ctx context.Context, id string) (*entity.StoredConversation, error)
	ListConversations(ctx context.Context, namespace string) ([]entity.StoredConversation, error)
	ExportConversation(ctx context.Context, id string, format entity.ResultFormat) (*entity.ExportedFile, error)
}
