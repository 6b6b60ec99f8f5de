package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"quiz-tutor/internal/cache"
	"quiz-tutor/internal/config"
	"quiz-tutor/internal/domain"
	"quiz-tutor/internal/dto"
	"quiz-tutor/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenTypeAccess = "access"
	tokenTypeReset  = "reset"
)

var ErrInvalidJWTToken = errors.New("invalid jwt token")

// passwordHashCost is lowered by tests.
var passwordHashCost = bcrypt.DefaultCost

// AuthService handles accounts, login sessions and password recovery.
type AuthService interface {
	Register(ctx context.Context, username, password, secretQuestion, secretAnswer string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, domain.SessionContext, error)
	ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error)
	// Authenticate validates an access token and checks that its session is still live.
	Authenticate(ctx context.Context, tokenString string) (domain.SessionContext, error)
	Logout(ctx context.Context, sess domain.SessionContext) error
	GetSecretQuestion(ctx context.Context, username string) (string, error)
	VerifySecretAnswer(ctx context.Context, username, answer string) (string, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	AccessTokenTTL() time.Duration
	ResetTokenTTL() time.Duration
}

type authServiceImpl struct {
	userRepo domain.UserRepository
	sessions domain.SessionStore
	cache    domain.Cache
	ids      domain.IDGenerator
	authCfg  config.AuthConfig
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(
	userRepo domain.UserRepository,
	sessions domain.SessionStore,
	c domain.Cache,
	ids domain.IDGenerator,
	authCfg config.AuthConfig,
) (AuthService, error) {
	if authCfg.JWTSecretKey == "" {
		return nil, errors.New("jwt secret key is not configured")
	}
	if authCfg.AccessTokenTTL <= 0 {
		authCfg.AccessTokenTTL = 24 * time.Hour
	}
	if authCfg.ResetTokenTTL <= 0 {
		authCfg.ResetTokenTTL = 10 * time.Minute
	}
	return &authServiceImpl{
		userRepo: userRepo,
		sessions: sessions,
		cache:    c,
		ids:      ids,
		authCfg:  authCfg,
	}, nil
}

func (s *authServiceImpl) AccessTokenTTL() time.Duration { return s.authCfg.AccessTokenTTL }
func (s *authServiceImpl) ResetTokenTTL() time.Duration  { return s.authCfg.ResetTokenTTL }

func normalizeSecretAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}

func (s *authServiceImpl) Register(ctx context.Context, username, password, secretQuestion, secretAnswer string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	secretQuestion = strings.TrimSpace(secretQuestion)

	var verrs domain.ValidationErrors
	if username == "" {
		verrs = append(verrs, domain.NewMissingFieldError("username"))
	}
	if password == "" {
		verrs = append(verrs, domain.NewMissingFieldError("password"))
	}
	if secretQuestion == "" {
		verrs = append(verrs, domain.NewMissingFieldError("secret_question"))
	}
	if normalizeSecretAnswer(secretAnswer) == "" {
		verrs = append(verrs, domain.NewMissingFieldError("secret_answer"))
	}
	if len(verrs) > 0 {
		return nil, verrs
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return nil, domain.NewInvalidInputError("password cannot be used").WithContext("reason", err.Error())
	}
	answerHash, err := bcrypt.GenerateFromPassword([]byte(normalizeSecretAnswer(secretAnswer)), passwordHashCost)
	if err != nil {
		return nil, domain.NewInvalidInputError("secret answer cannot be used").WithContext("reason", err.Error())
	}

	user := domain.NewUser(s.ids.NewID(), username, string(passwordHash), secretQuestion, string(answerHash))
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) {
			return nil, domain.NewUsernameTakenError(username)
		}
		return nil, domain.NewInternalError("failed to create user", err)
	}

	logger.Get().Info("User registered", zap.String("userID", user.ID), zap.String("username", username))
	return user, nil
}

// Login checks credentials, opens a new session and returns an access token bound to it.
func (s *authServiceImpl) Login(ctx context.Context, username, password string) (string, domain.SessionContext, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", domain.SessionContext{}, domain.NewInternalError("failed to look up user", err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", domain.SessionContext{}, domain.NewInvalidCredentialsError()
	}

	sess := domain.SessionContext{SessionID: uuid.NewString(), UserID: user.ID}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return "", domain.SessionContext{}, domain.NewInternalError("failed to create session", err)
	}

	token, err := s.createJWT(dto.AuthClaims{UserID: user.ID, SessionID: sess.SessionID, TokenType: tokenTypeAccess}, s.authCfg.AccessTokenTTL)
	if err != nil {
		return "", domain.SessionContext{}, domain.NewInternalError("failed to create access token", err)
	}

	logger.Get().Info("User logged in", zap.String("userID", user.ID), zap.String("sessionID", sess.SessionID))
	return token, sess, nil
}

func (s *authServiceImpl) createJWT(claims dto.AuthClaims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        s.ids.NewID(),
		Subject:   claims.UserID,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.authCfg.JWTSecretKey))
}

func (s *authServiceImpl) ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &dto.AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.authCfg.JWTSecretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			logger.Get().Debug("JWT token expired", zap.Error(err))
		} else {
			logger.Get().Warn("JWT validation failed", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWTToken, err)
	}

	if claims, ok := token.Claims.(*dto.AuthClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidJWTToken
}

func (s *authServiceImpl) Authenticate(ctx context.Context, tokenString string) (domain.SessionContext, error) {
	claims, err := s.ValidateJWT(ctx, tokenString)
	if err != nil {
		return domain.SessionContext{}, domain.NewUnauthorizedError("Invalid or expired token")
	}
	if claims.TokenType != tokenTypeAccess || claims.SessionID == "" {
		return domain.SessionContext{}, domain.NewUnauthorizedError("Token is not an access token")
	}

	sess := domain.SessionContext{SessionID: claims.SessionID, UserID: claims.UserID}
	active, err := s.sessions.IsActive(ctx, sess)
	if err != nil {
		return domain.SessionContext{}, domain.NewInternalError("failed to check session", err)
	}
	if !active {
		return domain.SessionContext{}, domain.NewUnauthorizedError("Session has ended, please log in again")
	}
	return sess, nil
}

// Logout ends the session together with its in-progress quiz and pending undo.
func (s *authServiceImpl) Logout(ctx context.Context, sess domain.SessionContext) error {
	if err := s.sessions.Destroy(ctx, sess.SessionID); err != nil {
		return domain.NewInternalError("failed to end session", err)
	}
	logger.Get().Info("User logged out", zap.String("userID", sess.UserID), zap.String("sessionID", sess.SessionID))
	return nil
}

func (s *authServiceImpl) findUser(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, domain.NewInternalError("failed to look up user", err)
	}
	if user == nil {
		return nil, domain.NewNotFoundError("User not found")
	}
	return user, nil
}

func (s *authServiceImpl) GetSecretQuestion(ctx context.Context, username string) (string, error) {
	user, err := s.findUser(ctx, username)
	if err != nil {
		return "", err
	}
	return user.SecretQuestion, nil
}

// VerifySecretAnswer compares the answer trimmed and case-insensitively and, on a match,
// returns a short-lived single-use reset token.
func (s *authServiceImpl) VerifySecretAnswer(ctx context.Context, username, answer string) (string, error) {
	user, err := s.findUser(ctx, username)
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.SecretAnswerHash), []byte(normalizeSecretAnswer(answer))) != nil {
		logger.Get().Info("Incorrect secret answer", zap.String("userID", user.ID))
		return "", domain.NewIncorrectSecretAnswerError()
	}

	token, err := s.createJWT(dto.AuthClaims{UserID: user.ID, TokenType: tokenTypeReset}, s.authCfg.ResetTokenTTL)
	if err != nil {
		return "", domain.NewInternalError("failed to create reset token", err)
	}
	return token, nil
}

func (s *authServiceImpl) resetUsedKey(tokenID string) string {
	return cache.GenerateCacheKey("auth", "reset", tokenID, "used")
}

func (s *authServiceImpl) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	claims, err := s.ValidateJWT(ctx, resetToken)
	if err != nil || claims.TokenType != tokenTypeReset || claims.ID == "" {
		return domain.NewUnauthorizedError("Invalid or expired reset token")
	}

	usedKey := s.resetUsedKey(claims.ID)
	if _, err := s.cache.Get(ctx, usedKey); err == nil {
		return domain.NewUnauthorizedError("Reset token has already been used")
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		return domain.NewInternalError("failed to check reset token", err)
	}

	if newPassword == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("new_password")}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), passwordHashCost)
	if err != nil {
		return domain.NewInvalidInputError("password cannot be used").WithContext("reason", err.Error())
	}

	if err := s.userRepo.UpdatePasswordHash(ctx, claims.UserID, string(hash)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewNotFoundError("User not found")
		}
		return domain.NewInternalError("failed to update password", err)
	}

	ttl := s.authCfg.ResetTokenTTL
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time) + time.Minute
	}
	if err := s.cache.Set(ctx, usedKey, "1", ttl); err != nil {
		logger.Get().Warn("Failed to mark reset token as used", zap.String("userID", claims.UserID), zap.Error(err))
	}

	logger.Get().Info("Password reset", zap.String("userID", claims.UserID))
	return nil
}
