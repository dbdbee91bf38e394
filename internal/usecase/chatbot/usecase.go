package chatbot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/neuraltalk/chat-backend/internal/pkg/validator"
	"github.com/neuraltalk/chat-backend/internal/repository"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

type CacheConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

// ChatbotUsecase manages users and the chatbots (tenants) they can reach
type ChatbotUsecase struct {
	users     repository.UserRepository
	chatbots  repository.ChatbotRepository
	validator *validator.Validator
	cache     *cache.Cache
	logger    *zap.Logger
}

func NewUsecase(
	users repository.UserRepository,
	chatbots repository.ChatbotRepository,
	validator *validator.Validator,
	cacheCfg CacheConfig,
	logger *zap.Logger,
) *ChatbotUsecase {
	return &ChatbotUsecase{
		users:     users,
		chatbots:  chatbots,
		validator: validator,
		cache:     cache.New(cacheCfg.TTL, cacheCfg.CleanupInterval),
		logger:    logger,
	}
}

// CreateUser is idempotent by email: an existing user is returned unchanged
func (uc *ChatbotUsecase) CreateUser(ctx context.Context, req *entity.CreateUserRequest) (*entity.User, error) {
	if err := uc.validator.ValidateCreateUser(req); err != nil {
		return nil, err
	}

	user, err := uc.users.InsertUser(ctx, req.ID, req.Email)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	ctxzap.Info(ctx, "user ensured", zap.String("user_id", user.ID))
	return user, nil
}

func (uc *ChatbotUsecase) CreateChatbot(ctx context.Context, req *entity.CreateChatbotRequest) (*entity.Chatbot, error) {
	if err := uc.validator.ValidateCreateChatbot(req); err != nil {
		return nil, err
	}

	if req.UserID != nil {
		if _, err := uc.users.GetUserByID(ctx, *req.UserID); err != nil {
			return nil, fmt.Errorf("get user: %w", err)
		}
	}

	bot, err := uc.chatbots.CreateChatbot(ctx, entity.Chatbot{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Namespace:   req.Namespace,
		Description: req.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("create chatbot: %w", err)
	}

	if req.UserID != nil {
		if err := uc.chatbots.LinkUser(ctx, *req.UserID, bot.ID); err != nil {
			return nil, fmt.Errorf("link chatbot to user: %w", err)
		}
	}

	ctxzap.Info(ctx, "chatbot created",
		zap.String("chatbot_id", bot.ID),
		zap.String("namespace", bot.Namespace),
	)

	return bot, nil
}

// GetChatbot serves lookups from the cache for the configured TTL
func (uc *ChatbotUsecase) GetChatbot(ctx context.Context, id string) (*entity.Chatbot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: invalid chatbot ID format", entity.ErrInvalidParameter)
	}

	if cached, ok := uc.cache.Get(id); ok {
		bot := cached.(entity.Chatbot)
		return &bot, nil
	}

	bot, err := uc.chatbots.GetChatbotByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get chatbot: %w", err)
	}

	uc.cache.SetDefault(id, *bot)
	return bot, nil
}

// ListChatbotsForUser returns every chatbot to admins and the linked ones to everybody else
func (uc *ChatbotUsecase) ListChatbotsForUser(ctx context.Context, userID string) ([]entity.Chatbot, error) {
	user, err := uc.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	var bots []entity.Chatbot
	if user.Role == entity.UserRoleAdmin {
		bots, err = uc.chatbots.ListChatbots(ctx)
	} else {
		bots, err = uc.chatbots.ListChatbotsForUser(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("list chatbots: %w", err)
	}

	if bots == nil {
		bots = []entity.Chatbot{}
	}
	return bots, nil
}
