package repository

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/neuraltalk/chat-backend/internal/telegram/state"
)

type userRow struct {
	ID        string
	Email     string
	Role      string
	CreatedAt pgtype.Timestamptz
}

type chatbotRow struct {
	ID          pgtype.UUID
	Name        string
	Namespace   string
	Description string
	CreatedAt   pgtype.Timestamptz
}

type conversationRow struct {
	ID          string
	Namespace   string
	UserID      pgtype.Text
	ChatbotID   pgtype.UUID
	Name        string
	Prompt      string
	Temperature float64
	FolderID    pgtype.Text
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

func toEntityUser(row *userRow) *entity.User {
	return &entity.User{
		ID:        row.ID,
		Email:     row.Email,
		Role:      entity.UserRole(row.Role),
		CreatedAt: row.CreatedAt.Time,
	}
}

func toEntityChatbot(row *chatbotRow) *entity.Chatbot {
	return &entity.Chatbot{
		ID:          uuid.UUID(row.ID.Bytes).String(),
		Name:        row.Name,
		Namespace:   row.Namespace,
		Description: row.Description,
		CreatedAt:   row.CreatedAt.Time,
	}
}

func toEntityConversation(row *conversationRow, messages []entity.ChatTurn) *entity.StoredConversation {
	if messages == nil {
		messages = []entity.ChatTurn{}
	}

	conv := &entity.StoredConversation{
		Conversation: entity.Conversation{
			ID:          row.ID,
			Name:        row.Name,
			Messages:    messages,
			Prompt:      row.Prompt,
			Temperature: row.Temperature,
		},
		Namespace: row.Namespace,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}

	if row.UserID.Valid {
		userID := row.UserID.String
		conv.UserID = &userID
	}

	if row.ChatbotID.Valid {
		chatbotID := uuid.UUID(row.ChatbotID.Bytes).String()
		conv.ChatbotID = &chatbotID
	}

	if row.FolderID.Valid {
		folderID := row.FolderID.String
		conv.FolderID = &folderID
	}

	return conv
}

func toPgText(s *string) pgtype.Text {
	if s == nil || *s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func toPgUUID(s *string) (pgtype.UUID, error) {
	if s == nil || *s == "" {
		return pgtype.UUID{}, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: id, Valid: true}, nil
}

type telegramChatRow struct {
	ChatID    int64
	Namespace string
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

func toStateChat(row *telegramChatRow) *state.ChatState {
	return &state.ChatState{
		ChatID:    row.ChatID,
		Namespace: row.Namespace,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}
