package dto

import "github.com/golang-jwt/jwt/v5"

// AuthClaims defines the custom claims for JWT.
type AuthClaims struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"sid,omitempty"` // access tokens only
	TokenType string `json:"token_type"`    // "access" or "reset"
	jwt.RegisteredClaims
}

// RegisterRequest represents the request body for creating an account
// @Description Request body for registration
type RegisterRequest struct {
	Username       string `json:"username" validate:"required,min=3,max=150"`
	Password       string `json:"password" validate:"required,min=8,max=72"`
	SecretQuestion string `json:"secret_question" validate:"required,max=500"`
	SecretAnswer   string `json:"secret_answer" validate:"required,max=200"`
}

// RegisterResponse is returned after a successful registration
type RegisterResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// LoginRequest represents the request body for logging in
// @Description Request body for login
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required,max=72"`
}

// TokenResponse represents the response containing the access token.
// @Description Response body for authentication tokens
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"` // seconds
}

// ForgotPasswordRequest starts password recovery for a username
type ForgotPasswordRequest struct {
	Username string `json:"username" validate:"required,max=150"`
}

// SecretQuestionResponse carries the user's recovery question
type SecretQuestionResponse struct {
	Username       string `json:"username"`
	SecretQuestion string `json:"secret_question"`
}

// AnswerSecretRequest answers the recovery question
type AnswerSecretRequest struct {
	Username     string `json:"username" validate:"required,max=150"`
	SecretAnswer string `json:"secret_answer" validate:"required,max=200"`
}

// ResetTokenResponse carries a short-lived password reset token
type ResetTokenResponse struct {
	ResetToken string `json:"reset_token"`
	ExpiresIn  int64  `json:"expires_in"` // seconds
}

// ResetPasswordRequest sets a new password with a reset token
type ResetPasswordRequest struct {
	ResetToken  string `json:"reset_token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// MessageResponse represents a generic message response.
// @Description Generic message response
type MessageResponse struct {
	Message string `json:"message"`
}
