package chat

import (
	"context"

	"github.com/neuraltalk/chat-backend/internal/chain"
	"github.com/neuraltalk/chat-backend/internal/entity"
)

type ChatUsecase interface {
	Prepare(ctx context.Context, req *entity.ChatRequest) (chain.Request, error)
	Stream(ctx context.Context, req chain.Request) <-chan chain.Event
}
