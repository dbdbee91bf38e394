package store

import (
	"context"
	"fmt"

	"github.com/neuraltalk/chat-backend/internal/entity"
)

const (
	selectedKeyPrefix = "selectedConversation:"
	historyKeyPrefix  = "conversationHistory:"
)

// SelectedKey is the storage key of the namespace's currently selected conversation
func SelectedKey(namespace string) string {
	return selectedKeyPrefix + namespace
}

// HistoryKey is the storage key of the namespace's full conversation list
func HistoryKey(namespace string) string {
	return historyKeyPrefix + namespace
}

// ConversationStore persists conversations per namespace.
// Writes are last-write-wins; concurrent writers are not coordinated.
type ConversationStore interface {
	SaveConversation(ctx context.Context, namespace string, conv entity.Conversation) error
	SaveConversations(ctx context.Context, namespace string, convs []entity.Conversation) error
	// LoadConversation returns entity.ErrConversationNotFound when nothing is selected
	LoadConversation(ctx context.Context, namespace string) (*entity.Conversation, error)
	// LoadConversations returns an empty list when nothing was saved
	LoadConversations(ctx context.Context, namespace string) ([]entity.Conversation, error)
}

// ReplaceConversation returns a copy of all with updated swapped in by id, appended when absent
func ReplaceConversation(all []entity.Conversation, updated entity.Conversation) []entity.Conversation {
	out := make([]entity.Conversation, 0, len(all)+1)
	found := false
	for _, c := range all {
		if c.ID == updated.ID {
			out = append(out, updated)
			found = true
			continue
		}
		out = append(out, c)
	}
	if !found {
		out = append(out, updated)
	}
	return out
}

// UpdateConversation persists updated as the selected conversation and writes the
// list with updated swapped in. It returns the stored single value and list.
func UpdateConversation(
	ctx context.Context,
	s ConversationStore,
	namespace string,
	updated entity.Conversation,
	all []entity.Conversation,
) (entity.Conversation, []entity.Conversation, error) {
	list := ReplaceConversation(all, updated)

	if err := s.SaveConversation(ctx, namespace, updated); err != nil {
		return updated, list, fmt.Errorf("save conversation: %w", err)
	}
	if err := s.SaveConversations(ctx, namespace, list); err != nil {
		return updated, list, fmt.Errorf("save conversations: %w", err)
	}

	return updated, list, nil
}
