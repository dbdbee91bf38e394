package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neuraltalk/chat-backend/internal/entity"
)

const conversationColumns = `id, namespace, user_id, chatbot_id, name, prompt, temperature, folder_id, created_at, updated_at`

// ConversationRepository defines the interface for conversation persistence
type ConversationRepository interface {
	UpsertConversation(ctx context.Context, conv entity.StoredConversation) error
	GetConversation(ctx context.Context, id string) (*entity.StoredConversation, error)
	ListConversations(ctx context.Context, namespace string) ([]entity.StoredConversation, error)
	DeleteConversationsExcept(ctx context.Context, namespace string, keep []string) error
	SetSelected(ctx context.Context, namespace, conversationID string) error
	GetSelected(ctx context.Context, namespace string) (string, error)
}

var _ ConversationRepository = &ConversationPostgres{}

type ConversationPostgres struct {
	db *pgxpool.Pool
}

func NewConversationPostgres(db *pgxpool.Pool) *ConversationPostgres {
	return &ConversationPostgres{db: db}
}

// UpsertConversation creates or updates the conversation and writes its messages by position.
// Messages beyond the new length are removed.
func (r *ConversationPostgres) UpsertConversation(ctx context.Context, conv entity.StoredConversation) error {
	chatbotID, err := toPgUUID(conv.ChatbotID)
	if err != nil {
		return fmt.Errorf("invalid chatbot ID: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO conversations (id, namespace, user_id, chatbot_id, name, prompt, temperature, folder_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			namespace = EXCLUDED.namespace,
			user_id = COALESCE(EXCLUDED.user_id, conversations.user_id),
			chatbot_id = COALESCE(EXCLUDED.chatbot_id, conversations.chatbot_id),
			name = EXCLUDED.name,
			prompt = EXCLUDED.prompt,
			temperature = EXCLUDED.temperature,
			folder_id = EXCLUDED.folder_id,
			updated_at = NOW()`,
		conv.ID, conv.Namespace, toPgText(conv.UserID), chatbotID,
		conv.Name, conv.Prompt, conv.Temperature, toPgText(conv.FolderID),
	)
	if err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}

	batch := &pgx.Batch{}
	for i, m := range conv.Messages {
		batch.Queue(
			`INSERT INTO messages (conversation_id, position, role, content) VALUES ($1, $2, $3, $4)
			ON CONFLICT (conversation_id, position) DO UPDATE SET role = EXCLUDED.role, content = EXCLUDED.content`,
			conv.ID, i, string(m.Role), m.Content,
		)
	}
	batch.Queue(`DELETE FROM messages WHERE conversation_id = $1 AND position >= $2`, conv.ID, len(conv.Messages))

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert messages: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (r *ConversationPostgres) GetConversation(ctx context.Context, id string) (*entity.StoredConversation, error) {
	var row conversationRow
	err := r.db.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id,
	).Scan(scanTargets(&row)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrConversationNotFound
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	messages, err := r.messages(ctx, []string{id})
	if err != nil {
		return nil, err
	}

	return toEntityConversation(&row, messages[id]), nil
}

func (r *ConversationPostgres) ListConversations(ctx context.Context, namespace string) ([]entity.StoredConversation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE namespace = $1 ORDER BY created_at`, namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	var convRows []conversationRow
	for rows.Next() {
		var row conversationRow
		if err := rows.Scan(scanTargets(&row)...); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convRows = append(convRows, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	ids := make([]string, len(convRows))
	for i := range convRows {
		ids[i] = convRows[i].ID
	}

	messages, err := r.messages(ctx, ids)
	if err != nil {
		return nil, err
	}

	convs := make([]entity.StoredConversation, 0, len(convRows))
	for i := range convRows {
		convs = append(convs, *toEntityConversation(&convRows[i], messages[convRows[i].ID]))
	}

	return convs, nil
}

// DeleteConversationsExcept removes the namespace's conversations whose ids are not in keep
func (r *ConversationPostgres) DeleteConversationsExcept(ctx context.Context, namespace string, keep []string) error {
	if keep == nil {
		keep = []string{}
	}
	_, err := r.db.Exec(ctx,
		`DELETE FROM conversations WHERE namespace = $1 AND NOT (id = ANY($2))`, namespace, keep,
	)
	if err != nil {
		return fmt.Errorf("delete conversations: %w", err)
	}
	return nil
}

func (r *ConversationPostgres) SetSelected(ctx context.Context, namespace, conversationID string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO selected_conversations (namespace, conversation_id) VALUES ($1, $2)
		ON CONFLICT (namespace) DO UPDATE SET conversation_id = EXCLUDED.conversation_id, updated_at = NOW()`,
		namespace, conversationID,
	)
	if err != nil {
		return fmt.Errorf("set selected conversation: %w", err)
	}
	return nil
}

func (r *ConversationPostgres) GetSelected(ctx context.Context, namespace string) (string, error) {
	var id string
	err := r.db.QueryRow(ctx,
		`SELECT conversation_id FROM selected_conversations WHERE namespace = $1`, namespace,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", entity.ErrConversationNotFound
		}
		return "", fmt.Errorf("get selected conversation: %w", err)
	}
	return id, nil
}

func (r *ConversationPostgres) messages(ctx context.Context, ids []string) (map[string][]entity.ChatTurn, error) {
	out := make(map[string][]entity.ChatTurn, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT conversation_id, role, content FROM messages
		WHERE conversation_id = ANY($1)
		ORDER BY conversation_id, position`, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			convID, role, content string
		)
		if err := rows.Scan(&convID, &role, &content); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out[convID] = append(out[convID], entity.ChatTurn{Role: entity.Role(role), Content: content})
	}

	return out, rows.Err()
}

func scanTargets(row *conversationRow) []any {
	return []any{
		&row.ID, &row.Namespace, &row.UserID, &row.ChatbotID, &row.Name,
		&row.Prompt, &row.Temperature, &row.FolderID, &row.CreatedAt, &row.UpdatedAt,
	}
}
