package chat

import (
	"context"

	"github.com/neuraltalk/chat-backend/internal/chain"
)

// Pipeline streams the answer of a single chat request
type Pipeline interface {
	Stream(ctx context.Context, req chain.Request) <-chan chain.Event
}
