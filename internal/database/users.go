package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spot-annotator/backend/internal/models"
)

// CreateUser inserts u. A duplicate email yields ErrEmailTaken.
func (r *PostgresRepository) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	query := `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	if isUniqueViolation(err) {
		return models.User{}, ErrEmailTaken
	}
	if err != nil {
		r.logger.Error("Failed to create user", zap.Error(err))
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Info("Created user", zap.String("id", u.ID))
	return u, nil
}

// GetUserByEmail looks up an account.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`

	var u models.User
	err := r.pool.QueryRow(ctx, query, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
