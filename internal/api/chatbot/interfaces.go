package chatbot

import (
	"context"

	"github.com/neuraltalk/chat-backend/internal/entity"
)

type ChatbotUsecase interface {
	CreateUser(ctx context.Context, req *entity.CreateUserRequest) (*entity.User, error)
	CreateChatbot(ctx context.Context, req *entity.CreateChatbotRequest) (*entity.Chatbot, error)
	GetChatbot(ctx context.Context, id string) (*entity.Chatbot, error)
	ListChatbotsForUser(ctx context.Context, userID string) ([]entity.Chatbot, error)
}
