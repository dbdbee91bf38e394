package state

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
)

// ErrChatNotFound is returned by Storage when nothing is known about a chat
var ErrChatNotFound = errors.New("telegram chat not found")

// ChatState is what the bot remembers about a telegram chat between updates
type ChatState struct {
	ChatID int64 `json:"chat_id"`
	// Namespace selected with /use; empty means the configured default
	Namespace string    `json:"namespace,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Storage persists chat state
type Storage interface {
	Get(ctx context.Context, chatID int64) (*ChatState, error)
	Set(ctx context.Context, chat *ChatState) error
	Delete(ctx context.Context, chatID int64) error
}

// MemoryStorage keeps chat state in process. Used when no database is configured.
type MemoryStorage struct {
	chats *cache.Cache
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{chats: cache.New(cache.NoExpiration, 0)}
}

func (s *MemoryStorage) Get(_ context.Context, chatID int64) (*ChatState, error) {
	v, ok := s.chats.Get(chatKey(chatID))
	if !ok {
		return nil, ErrChatNotFound
	}
	chat := v.(ChatState)
	return &chat, nil
}

func (s *MemoryStorage) Set(_ context.Context, chat *ChatState) error {
	s.chats.SetDefault(chatKey(chat.ChatID), *chat)
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, chatID int64) error {
	s.chats.Delete(chatKey(chatID))
	return nil
}
