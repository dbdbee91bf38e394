package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/neuraltalk/chat-backend/internal/entity"
	pkgRetry "github.com/neuraltalk/chat-backend/internal/pkg/retry"
	"github.com/neuraltalk/chat-backend/internal/repository"
)

var _ ConversationStore = &PostgresStore{}

// PostgresStore maps the key-value store contract onto relational tables:
// the history key is the namespace's conversation rows, the selected key a pointer row.
type PostgresStore struct {
	repo  repository.ConversationRepository
	retry *pkgRetry.RetryConfig
}

func NewPostgresStore(repo repository.ConversationRepository, retry *pkgRetry.RetryConfig) *PostgresStore {
	return &PostgresStore{
		repo:  repo,
		retry: retry,
	}
}

func (s *PostgresStore) SaveConversation(ctx context.Context, namespace string, conv entity.Conversation) error {
	return pkgRetry.Do(ctx, s.retry, "save conversation", func(ctx context.Context) error {
		if err := s.repo.UpsertConversation(ctx, stored(namespace, conv)); err != nil {
			return err
		}
		return s.repo.SetSelected(ctx, namespace, conv.ID)
	})
}

func (s *PostgresStore) SaveConversations(ctx context.Context, namespace string, convs []entity.Conversation) error {
	ids := make([]string, 0, len(convs))
	for _, c := range convs {
		ids = append(ids, c.ID)
	}

	return pkgRetry.Do(ctx, s.retry, "save conversations", func(ctx context.Context) error {
		for _, c := range convs {
			if err := s.repo.UpsertConversation(ctx, stored(namespace, c)); err != nil {
				return err
			}
		}
		return s.repo.DeleteConversationsExcept(ctx, namespace, ids)
	})
}

func (s *PostgresStore) LoadConversation(ctx context.Context, namespace string) (*entity.Conversation, error) {
	id, err := s.repo.GetSelected(ctx, namespace)
	if err != nil {
		return nil, err
	}

	sc, err := s.repo.GetConversation(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrConversationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load selected conversation: %w", err)
	}

	conv := sc.Conversation
	return &conv, nil
}

func (s *PostgresStore) LoadConversations(ctx context.Context, namespace string) ([]entity.Conversation, error) {
	rows, err := s.repo.ListConversations(ctx, namespace)
	if err != nil {
		return nil, err
	}

	convs := make([]entity.Conversation, 0, len(rows))
	for _, r := range rows {
		convs = append(convs, r.Conversation)
	}
	return convs, nil
}

func stored(namespace string, conv entity.Conversation) entity.StoredConversation {
	return entity.StoredConversation{
		Conversation: conv,
		Namespace:    namespace,
	}
}
