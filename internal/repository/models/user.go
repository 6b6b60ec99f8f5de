package models

import "time"

// User is a row of the users table.
type User struct {
	ID               string    `db:"ID"`
	Username         string    `db:"USERNAME"`
	PasswordHash     string    `db:"PASSWORD_HASH"`
	SecretQuestion   string    `db:"SECRET_QUESTION"`
	SecretAnswerHash string    `db:"SECRET_ANSWER_HASH"`
	CreatedAt        time.Time `db:"CREATED_AT"`
	UpdatedAt        time.Time `db:"UPDATED_AT"`
}
