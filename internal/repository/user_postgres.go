package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neuraltalk/chat-backend/internal/entity"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	InsertUser(ctx context.Context, id, email string) (*entity.User, error)
	GetUserByID(ctx context.Context, id string) (*entity.User, error)
}

var _ UserRepository = &UserPostgres{}

type UserPostgres struct {
	db *pgxpool.Pool
}

func NewUserPostgres(db *pgxpool.Pool) *UserPostgres {
	return &UserPostgres{db: db}
}

// InsertUser creates the user unless one with the same email exists, and returns the stored row
func (r *UserPostgres) InsertUser(ctx context.Context, id, email string) (*entity.User, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, email) VALUES ($1, $2) ON CONFLICT (email) DO NOTHING`,
		id, email,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	var row userRow
	err = r.db.QueryRow(ctx,
		`SELECT id, email, role, created_at FROM users WHERE email = $1`, email,
	).Scan(&row.ID, &row.Email, &row.Role, &row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return toEntityUser(&row), nil
}

func (r *UserPostgres) GetUserByID(ctx context.Context, id string) (*entity.User, error) {
	var row userRow
	err := r.db.QueryRow(ctx,
		`SELECT id, email, role, created_at FROM users WHERE id = $1`, id,
	).Scan(&row.ID, &row.Email, &row.Role, &row.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return toEntityUser(&row), nil
}
