package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neuraltalk/chat-backend/internal/entity"
)

const chatbotColumns = `c.id, c.name, c.namespace, c.description, c.created_at`

// ChatbotRepository defines the interface for chatbot persistence
type ChatbotRepository interface {
	CreateChatbot(ctx context.Context, bot entity.Chatbot) (*entity.Chatbot, error)
	GetChatbotByID(ctx context.Context, id string) (*entity.Chatbot, error)
	ListChatbots(ctx context.Context) ([]entity.Chatbot, error)
	ListChatbotsForUser(ctx context.Context, userID string) ([]entity.Chatbot, error)
	LinkUser(ctx context.Context, userID, chatbotID string) error
}

var _ ChatbotRepository = &ChatbotPostgres{}

type ChatbotPostgres struct {
	db *pgxpool.Pool
}

func NewChatbotPostgres(db *pgxpool.Pool) *ChatbotPostgres {
	return &ChatbotPostgres{db: db}
}

func (r *ChatbotPostgres) CreateChatbot(ctx context.Context, bot entity.Chatbot) (*entity.Chatbot, error) {
	id, err := uuid.Parse(bot.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid chatbot ID: %w", err)
	}

	var row chatbotRow
	err = r.db.QueryRow(ctx,
		`INSERT INTO chatbots AS c (id, name, namespace, description) VALUES ($1, $2, $3, $4)
		RETURNING `+chatbotColumns,
		pgtype.UUID{Bytes: id, Valid: true}, bot.Name, bot.Namespace, bot.Description,
	).Scan(&row.ID, &row.Name, &row.Namespace, &row.Description, &row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create chatbot: %w", err)
	}

	return toEntityChatbot(&row), nil
}

func (r *ChatbotPostgres) GetChatbotByID(ctx context.Context, id string) (*entity.Chatbot, error) {
	botID, err := uuid.Parse(id)
	if err != nil {
		return nil, entity.ErrChatbotNotFound
	}

	var row chatbotRow
	err = r.db.QueryRow(ctx,
		`SELECT `+chatbotColumns+` FROM chatbots c WHERE c.id = $1`,
		pgtype.UUID{Bytes: botID, Valid: true},
	).Scan(&row.ID, &row.Name, &row.Namespace, &row.Description, &row.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrChatbotNotFound
		}
		return nil, fmt.Errorf("get chatbot: %w", err)
	}

	return toEntityChatbot(&row), nil
}

func (r *ChatbotPostgres) ListChatbots(ctx context.Context) ([]entity.Chatbot, error) {
	return r.list(ctx, `SELECT `+chatbotColumns+` FROM chatbots c ORDER BY c.name`)
}

func (r *ChatbotPostgres) ListChatbotsForUser(ctx context.Context, userID string) ([]entity.Chatbot, error) {
	return r.list(ctx,
		`SELECT `+chatbotColumns+` FROM chatbots c
		JOIN user_chatbots uc ON uc.chatbot_id = c.id
		WHERE uc.user_id = $1
		ORDER BY c.name`,
		userID,
	)
}

func (r *ChatbotPostgres) LinkUser(ctx context.Context, userID, chatbotID string) error {
	botID, err := uuid.Parse(chatbotID)
	if err != nil {
		return entity.ErrChatbotNotFound
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO user_chatbots (user_id, chatbot_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, pgtype.UUID{Bytes: botID, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("link user to chatbot: %w", err)
	}
	return nil
}

func (r *ChatbotPostgres) list(ctx context.Context, sql string, args ...any) ([]entity.Chatbot, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list chatbots: %w", err)
	}
	defer rows.Close()

	bots := []entity.Chatbot{}
	for rows.Next() {
		var row chatbotRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Namespace, &row.Description, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chatbot: %w", err)
		}
		bots = append(bots, *toEntityChatbot(&row))
	}

	return bots, rows.Err()
}
