package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/neuraltalk/chat-backend/internal/entity"
	pkgRetry "github.com/neuraltalk/chat-backend/internal/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleConversation(id string) entity.Conversation {
	folder := "work"
	return entity.Conversation{
		ID:   id,
		Name: "What is X?",
		Messages: []entity.ChatTurn{
			{Role: entity.RoleUser, Content: "What is X?"},
			{Role: entity.RoleAssistant, Content: "X is a product."},
		},
		Prompt:      entity.DefaultSystemPrompt,
		Temperature: 0.7,
		FolderID:    &folder,
	}
}

func newLocal(t *testing.T, path string) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(path, pkgRetry.DefaultRetryConfig(), zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "selectedConversation:acme", SelectedKey("acme"))
	assert.Equal(t, "conversationHistory:acme", HistoryKey("acme"))
}

func TestLocalStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t, "")
	conv := sampleConversation("c1")

	require.NoError(t, s.SaveConversation(ctx, "acme", conv))
	require.NoError(t, s.SaveConversations(ctx, "acme", []entity.Conversation{conv}))

	loaded, err := s.LoadConversation(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, conv, *loaded)

	list, err := s.LoadConversations(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, []entity.Conversation{conv}, list)
}

func TestLocalStore_NamespaceScoping(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t, "")

	require.NoError(t, s.SaveConversation(ctx, "acme", sampleConversation("c1")))

	_, err := s.LoadConversation(ctx, "globex")
	assert.ErrorIs(t, err, entity.ErrConversationNotFound)

	list, err := s.LoadConversations(ctx, "globex")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestLocalStore_LoadedValueIsIndependent(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t, "")
	require.NoError(t, s.SaveConversation(ctx, "acme", sampleConversation("c1")))

	first, err := s.LoadConversation(ctx, "acme")
	require.NoError(t, err)
	first.Messages[0].Content = "mutated"

	second, err := s.LoadConversation(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "What is X?", second.Messages[0].Content)
}

func TestLocalStore_FilePersistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "conversations.gob")

	s := newLocal(t, path)
	conv := sampleConversation("c1")
	require.NoError(t, s.SaveConversation(ctx, "acme", conv))
	require.NoError(t, s.SaveConversations(ctx, "acme", []entity.Conversation{conv}))

	reopened := newLocal(t, path)
	loaded, err := reopened.LoadConversation(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, conv, *loaded)
}

func TestUpdateConversation_ReplacesById(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t, "")
	a := sampleConversation("a")
	b := sampleConversation("b")

	updated := b.Clone()
	updated.Name = "renamed"

	single, all, err := UpdateConversation(ctx, s, "acme", updated, []entity.Conversation{a, b})
	require.NoError(t, err)
	assert.Equal(t, "renamed", single.Name)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "renamed", all[1].Name)

	stored, err := s.LoadConversations(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, all, stored)
}

func TestReplaceConversation_AppendsMissing(t *testing.T) {
	all := ReplaceConversation([]entity.Conversation{sampleConversation("a")}, sampleConversation("z"))
	require.Len(t, all, 2)
	assert.Equal(t, "z", all[1].ID)
}
