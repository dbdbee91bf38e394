package document

import (
	"context"

	"github.com/neuraltalk/chat-backend/internal/entity"
)

type DocumentUsecase interface {
	IndexDocuments(ctx context.Context, namespace string, req *entity.IndexDocumentsRequest) (*entity.IndexDocumentsResponse, error)
	DeleteDocuments(ctx context.Context, namespace string) error
}
