package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/entity"
	pkgRetry "github.com/neuraltalk/chat-backend/internal/pkg/retry"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

var _ ConversationStore = &LocalStore{}

// LocalStore keeps JSON snapshots in a go-cache keyed like browser storage.
// With a file path set, the cache is loaded on open and flushed after every write.
type LocalStore struct {
	cache  *cache.Cache
	path   string
	retry  *pkgRetry.RetryConfig
	fileMu sync.Mutex
	logger *zap.Logger
}

func NewLocalStore(path string, retry *pkgRetry.RetryConfig, logger *zap.Logger) (*LocalStore, error) {
	s := &LocalStore{
		cache:  cache.New(cache.NoExpiration, 0),
		path:   path,
		retry:  retry,
		logger: logger,
	}

	if path != "" {
		if err := s.cache.LoadFile(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load store file %s: %w", path, err)
		}
	}

	return s, nil
}

func (s *LocalStore) SaveConversation(ctx context.Context, namespace string, conv entity.Conversation) error {
	return s.put(ctx, SelectedKey(namespace), conv)
}

func (s *LocalStore) SaveConversations(ctx context.Context, namespace string, convs []entity.Conversation) error {
	if convs == nil {
		convs = []entity.Conversation{}
	}
	return s.put(ctx, HistoryKey(namespace), convs)
}

func (s *LocalStore) LoadConversation(ctx context.Context, namespace string) (*entity.Conversation, error) {
	var conv entity.Conversation
	found, err := s.get(SelectedKey(namespace), &conv)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, entity.ErrConversationNotFound
	}
	return &conv, nil
}

func (s *LocalStore) LoadConversations(ctx context.Context, namespace string) ([]entity.Conversation, error) {
	convs := []entity.Conversation{}
	if _, err := s.get(HistoryKey(namespace), &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

func (s *LocalStore) put(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	s.cache.Set(key, raw, cache.NoExpiration)

	if s.path == "" {
		return nil
	}

	return pkgRetry.Do(ctx, s.retry, "flush store file", func(context.Context) error {
		return s.flush()
	})
}

func (s *LocalStore) get(key string, dst any) (bool, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return false, nil
	}

	raw, ok := v.([]byte)
	if !ok {
		return false, fmt.Errorf("%s: unexpected value type %T", key, v)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("%w: %s: %v", entity.ErrInvalidConversation, key, err)
	}
	return true, nil
}

// flush writes the whole cache to a temp file and renames it over the target
func (s *LocalStore) flush() error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	tmp := s.path + ".tmp"
	if err := s.cache.SaveFile(tmp); err != nil {
		return fmt.Errorf("save store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}

	s.logger.Debug("store file flushed", zap.String("path", s.path), zap.Int("items", s.cache.ItemCount()))
	return nil
}

// Flush forces a write of the store file, used on shutdown
func (s *LocalStore) Flush(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	if err := s.flush(); err != nil {
		ctxzap.Error(ctx, "failed to flush store file", zap.Error(err))
		return err
	}
	return nil
}
