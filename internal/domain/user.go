package domain

import (
	"context"
	"time"
)

// User represents a domain user object
type User struct {
	ID               string
	Username         string
	PasswordHash     string
	SecretQuestion   string
	SecretAnswerHash string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewUser creates a new User instance
func NewUser(id, username, passwordHash, secretQuestion, secretAnswerHash string) *User {
	now := time.Now()
	return &User{
		ID:               id,
		Username:         username,
		PasswordHash:     passwordHash,
		SecretQuestion:   secretQuestion,
		SecretAnswerHash: secretAnswerHash,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Validate validates the user
func (u *User) Validate() error {
	if u.ID == "" {
		return NewValidationError("id is required")
	}
	if u.Username == "" {
		return NewValidationError("username is required")
	}
	if u.PasswordHash == "" {
		return NewValidationError("password hash is required")
	}
	return nil
}

// ErrDuplicateUsername is returned by UserRepository.CreateUser when the username is taken.
var ErrDuplicateUsername = NewValidationError("username already exists")

// UserRepository defines the interface for user data persistence.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, userID string) (*User, error)
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
}
