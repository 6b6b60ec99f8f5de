package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quiz-tutor/internal/domain"
	"quiz-tutor/internal/repository/models"
)

const userColumns = "ID, USERNAME, PASSWORD_HASH, SECRET_QUESTION, SECRET_ANSWER_HASH, CREATED_AT, UPDATED_AT"

// sqlxUserRepository implements domain.UserRepository using sqlx.
type sqlxUserRepository struct {
	db DBTX
}

// NewSQLXUserRepository creates a new instance of sqlxUserRepository.
func NewSQLXUserRepository(db DBTX) domain.UserRepository {
	return &sqlxUserRepository{db: db}
}

// CreateUser inserts a new user. A taken username yields domain.ErrDuplicateUsername.
func (r *sqlxUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (` + userColumns + `)
		VALUES (:ID, :USERNAME, :PASSWORD_HASH, :SECRET_QUESTION, :SECRET_ANSWER_HASH, :CREATED_AT, :UPDATED_AT)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if _, err := GetExecutor(ctx, r.db).NamedExecContext(ctx, query, fromDomainUser(user)); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByUsername returns (nil, nil) when no user has that name.
func (r *sqlxUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, "USERNAME", username)
}

// GetUserByID returns (nil, nil) when the user does not exist.
func (r *sqlxUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return r.getOne(ctx, "ID", userID)
}

func (r *sqlxUserRepository) getOne(ctx context.Context, column, value string) (*domain.User, error) {
	exec := GetExecutor(ctx, r.db)
	query := exec.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`)

	var user models.User
	if err := exec.GetContext(ctx, &user, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	return toDomainUser(&user), nil
}

// UpdatePasswordHash replaces the stored password hash. sql.ErrNoRows means no such user.
func (r *sqlxUserRepository) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	exec := GetExecutor(ctx, r.db)
	query := exec.Rebind(`UPDATE users SET PASSWORD_HASH = ?, UPDATED_AT = ? WHERE ID = ?`)

	result, err := exec.ExecContext(ctx, query, passwordHash, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func toDomainUser(m *models.User) *domain.User {
	if m == nil {
		return nil
	}
	return &domain.User{
		ID:               m.ID,
		Username:         m.Username,
		PasswordHash:     m.PasswordHash,
		SecretQuestion:   m.SecretQuestion,
		SecretAnswerHash: m.SecretAnswerHash,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func fromDomainUser(u *domain.User) *models.User {
	if u == nil {
		return nil
	}
	return &models.User{
		ID:               u.ID,
		Username:         u.Username,
		PasswordHash:     u.PasswordHash,
		SecretQuestion:   u.SecretQuestion,
		SecretAnswerHash: u.SecretAnswerHash,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}
