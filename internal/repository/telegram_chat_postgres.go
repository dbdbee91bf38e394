package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neuraltalk/chat-backend/internal/telegram/state"
)

var _ state.Storage = &TelegramChatPostgres{}

// TelegramChatPostgres stores the per-chat bot state
type TelegramChatPostgres struct {
	db *pgxpool.Pool
}

func NewTelegramChatPostgres(db *pgxpool.Pool) *TelegramChatPostgres {
	return &TelegramChatPostgres{db: db}
}

func (r *TelegramChatPostgres) Get(ctx context.Context, chatID int64) (*state.ChatState, error) {
	var row telegramChatRow
	err := r.db.QueryRow(ctx,
		`SELECT chat_id, namespace, created_at, updated_at FROM telegram_chats WHERE chat_id = $1`, chatID,
	).Scan(&row.ChatID, &row.Namespace, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, state.ErrChatNotFound
		}
		return nil, fmt.Errorf("query telegram chat: %w", err)
	}

	return toStateChat(&row), nil
}

func (r *TelegramChatPostgres) Set(ctx context.Context, chat *state.ChatState) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO telegram_chats (chat_id, namespace, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chat_id) DO UPDATE SET namespace = EXCLUDED.namespace, updated_at = EXCLUDED.updated_at`,
		chat.ChatID, chat.Namespace, chat.CreatedAt, chat.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert telegram chat: %w", err)
	}
	return nil
}

func (r *TelegramChatPostgres) Delete(ctx context.Context, chatID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM telegram_chats WHERE chat_id = $1`, chatID); err != nil {
		return fmt.Errorf("delete telegram chat: %w", err)
	}
	return nil
}
