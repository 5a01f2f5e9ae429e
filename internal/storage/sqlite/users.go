package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/lessonbook/internal/models"
)

// CreateUser inserts a new user into the database.
func (r *repo) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, display_name, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.DisplayName,
		user.PasswordHash,
		string(user.Role),
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByUsername retrieves a user by their login name.
func (r *repo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, display_name, password_hash, role, created_at, updated_at
		FROM users
		WHERE username = ?
	`

	return r.getUser(ctx, query, username)
}

// GetUserByID retrieves a user by their ID.
func (r *repo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, username, display_name, password_hash, role, created_at, updated_at
		FROM users
		WHERE id = ?
	`

	return r.getUser(ctx, query, id)
}

func (r *repo) getUser(ctx context.Context, query string, arg string) (*models.User, error) {
	user := &models.User{}
	var role string
	err := r.q.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.DisplayName,
		&user.PasswordHash,
		&role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil // User not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Role = models.Role(role)
	return user, nil
}
