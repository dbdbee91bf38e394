package chatbot

import (
	"context"
	"testing"
	"time"

	"github.com/neuraltalk/chat-backend/internal/config"
	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/neuraltalk/chat-backend/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUsers struct {
	users map[string]entity.User
}

func (f *fakeUsers) InsertUser(ctx context.Context, id, email string) (*entity.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return &u, nil
		}
	}
	u := entity.User{ID: id, Email: email, Role: entity.UserRoleMember}
	f.users[id] = u
	return &u, nil
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id string) (*entity.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, entity.ErrUserNotFound
	}
	return &u, nil
}

type fakeChatbots struct {
	bots  map[string]entity.Chatbot
	links map[string][]string
	gets  int
}

func (f *fakeChatbots) CreateChatbot(ctx context.Context, bot entity.Chatbot) (*entity.Chatbot, error) {
	f.bots[bot.ID] = bot
	return &bot, nil
}

func (f *fakeChatbots) GetChatbotByID(ctx context.Context, id string) (*entity.Chatbot, error) {
	f.gets++
	b, ok := f.bots[id]
	if !ok {
		return nil, entity.ErrChatbotNotFound
	}
	return &b, nil
}

func (f *fakeChatbots) ListChatbots(ctx context.Context) ([]entity.Chatbot, error) {
	var out []entity.Chatbot
	for _, b := range f.bots {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeChatbots) ListChatbotsForUser(ctx context.Context, userID string) ([]entity.Chatbot, error) {
	var out []entity.Chatbot
	for _, id := range f.links[userID] {
		out = append(out, f.bots[id])
	}
	return out, nil
}

func (f *fakeChatbots) LinkUser(ctx context.Context, userID, chatbotID string) error {
	f.links[userID] = append(f.links[userID], chatbotID)
	return nil
}

func newUsecase() (*ChatbotUsecase, *fakeUsers, *fakeChatbots) {
	users := &fakeUsers{users: map[string]entity.User{
		"admin": {ID: "admin", Email: "admin@example.com", Role: entity.UserRoleAdmin},
		"bob":   {ID: "bob", Email: "bob@example.com", Role: entity.UserRoleMember},
	}}
	bots := &fakeChatbots{bots: map[string]entity.Chatbot{}, links: map[string][]string{}}
	uc := NewUsecase(users, bots, validator.New(config.DocumentConfig{}), CacheConfig{TTL: time.Minute, CleanupInterval: time.Minute}, zap.NewNop())
	return uc, users, bots
}

func TestCreateUser_IdempotentByEmail(t *testing.T) {
	uc, _, _ := newUsecase()

	u, err := uc.CreateUser(context.Background(), &entity.CreateUserRequest{ID: "new-id", Email: "bob@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "bob", u.ID)

	_, err = uc.CreateUser(context.Background(), &entity.CreateUserRequest{ID: "x"})
	assert.ErrorIs(t, err, entity.ErrMissingField)
}

func TestCreateChatbot_LinksUser(t *testing.T) {
	uc, _, bots := newUsecase()
	bob := "bob"

	bot, err := uc.CreateChatbot(context.Background(), &entity.CreateChatbotRequest{Name: "Docs", Namespace: "acme", UserID: &bob})
	require.NoError(t, err)
	assert.Equal(t, []string{bot.ID}, bots.links["bob"])

	ghost := "ghost"
	_, err = uc.CreateChatbot(context.Background(), &entity.CreateChatbotRequest{Name: "Docs", Namespace: "other", UserID: &ghost})
	assert.ErrorIs(t, err, entity.ErrUserNotFound)
}

func TestGetChatbot_Cached(t *testing.T) {
	uc, _, bots := newUsecase()
	bot, err := uc.CreateChatbot(context.Background(), &entity.CreateChatbotRequest{Name: "Docs", Namespace: "acme"})
	require.NoError(t, err)

	for range 3 {
		got, err := uc.GetChatbot(context.Background(), bot.ID)
		require.NoError(t, err)
		assert.Equal(t, "acme", got.Namespace)
	}
	assert.Equal(t, 1, bots.gets)

	_, err = uc.GetChatbot(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)

	_, err = uc.GetChatbot(context.Background(), "7d3b5f4e-0f0a-4c5e-9d43-2f1d2a3b4c5d")
	assert.ErrorIs(t, err, entity.ErrChatbotNotFound)
}

func TestListChatbotsForUser_AdminSeesAll(t *testing.T) {
	uc, _, _ := newUsecase()
	bob := "bob"
	_, err := uc.CreateChatbot(context.Background(), &entity.CreateChatbotRequest{Name: "A", Namespace: "a", UserID: &bob})
	require.NoError(t, err)
	_, err = uc.CreateChatbot(context.Background(), &entity.CreateChatbotRequest{Name: "B", Namespace: "b"})
	require.NoError(t, err)

	all, err := uc.ListChatbotsForUser(context.Background(), "admin")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	linked, err := uc.ListChatbotsForUser(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, "a", linked[0].Namespace)

	_, err = uc.ListChatbotsForUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, entity.ErrUserNotFound)
}
