package users

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates that no user matches the lookup.
var ErrNotFound = errors.New("users: not found")

// User represents a user account.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
