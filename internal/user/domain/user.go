// Package domain defines the user entity registered through the API.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/pubflow/internal/errors"
)

// User is a platform account. Password holds the encoded hash, never the
// plaintext.
type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrUserAlreadyExists indicates a user with the same email already exists.
	ErrUserAlreadyExists = errors.Wrap(errors.ErrConflict, "user already exists")
)
