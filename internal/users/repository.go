package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const userColumns = `id, email, name, is_active, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	exec pgExecutor
}

// NewRepository constructs a repository.
func NewRepository(exec pgExecutor) *Repository {
	return &Repository{exec: exec}
}

// ListUsers returns all users ordered by e-mail.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.exec.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("users: scan: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("users: iterate: %w", err)
	}
	return users, nil
}

// FindByEmail looks a user up by e-mail, ignoring case and surrounding space.
func (r *Repository) FindByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := r.exec.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`,
		strings.TrimSpace(email),
	).Scan(&user.ID, &user.Email, &user.Name, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("users: find by email: %w", err)
	}
	return user, nil
}
