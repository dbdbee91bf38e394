package bot

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/neuraltalk/chat-backend/internal/client"
	"github.com/patrickmn/go-cache"
)

const sessionIdleExpiry = time.Hour

// chatSession is the in-process state of one chat: its stop flag and whether an answer is streaming
type chatSession struct {
	canceller *client.Canceller
	busy      atomic.Bool
}

type sessions struct {
	mu     sync.Mutex
	byChat *cache.Cache
}

func newSessions() *sessions {
	return &sessions{byChat: cache.New(sessionIdleExpiry, sessionIdleExpiry)}
}

// get returns the chat's session, creating it on first use. Every access extends its lifetime.
func (s *sessions) get(chatID int64) *chatSession {
	key := strconv.FormatInt(chatID, 10)

	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.byChat.Get(key); ok {
		sess := v.(*chatSession)
		s.byChat.SetDefault(key, sess)
		return sess
	}

	sess := &chatSession{canceller: client.NewCanceller()}
	s.byChat.SetDefault(key, sess)
	return sess
}
