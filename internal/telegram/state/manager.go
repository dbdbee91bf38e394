package state

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	cacheTTL     = 10 * time.Minute
	cacheCleanup = 20 * time.Minute
)

// Manager reads chat state through a short-lived cache in front of Storage
type Manager struct {
	storage          Storage
	cache            *cache.Cache
	defaultNamespace string
}

func NewManager(storage Storage, defaultNamespace string) *Manager {
	return &Manager{
		storage:          storage,
		cache:            cache.New(cacheTTL, cacheCleanup),
		defaultNamespace: defaultNamespace,
	}
}

// Namespace returns the namespace selected for the chat, or the default one
func (m *Manager) Namespace(ctx context.Context, chatID int64) (string, error) {
	chat, err := m.get(ctx, chatID)
	if errors.Is(err, ErrChatNotFound) {
		return m.defaultNamespace, nil
	}
	if err != nil {
		return "", err
	}
	if chat.Namespace == "" {
		return m.defaultNamespace, nil
	}
	return chat.Namespace, nil
}

// SetNamespace records the namespace chosen for the chat
func (m *Manager) SetNamespace(ctx context.Context, chatID int64, namespace string) error {
	now := time.Now()

	chat, err := m.get(ctx, chatID)
	switch {
	case errors.Is(err, ErrChatNotFound):
		chat = &ChatState{ChatID: chatID, CreatedAt: now}
	case err != nil:
		return err
	}

	chat.Namespace = namespace
	chat.UpdatedAt = now

	if err := m.storage.Set(ctx, chat); err != nil {
		return fmt.Errorf("save telegram chat: %w", err)
	}
	m.cache.SetDefault(chatKey(chatID), *chat)

	return nil
}

// Forget drops everything known about the chat
func (m *Manager) Forget(ctx context.Context, chatID int64) error {
	m.cache.Delete(chatKey(chatID))
	if err := m.storage.Delete(ctx, chatID); err != nil {
		return fmt.Errorf("delete telegram chat: %w", err)
	}
	return nil
}

func (m *Manager) get(ctx context.Context, chatID int64) (*ChatState, error) {
	if v, ok := m.cache.Get(chatKey(chatID)); ok {
		chat := v.(ChatState)
		return &chat, nil
	}

	chat, err := m.storage.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, ErrChatNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get telegram chat: %w", err)
	}

	m.cache.SetDefault(chatKey(chatID), *chat)
	return chat, nil
}

func chatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
