package middleware

import (
	"context"
	"strings"

	"quiz-tutor/internal/domain"
	"quiz-tutor/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	AuthorizationHeader = "Authorization"
	BearerSchema        = "Bearer "
	UserIDKey           = "userID"    // Key for storing UserID in fiber.Ctx locals
	SessionIDKey        = "sessionID" // Key for storing the login session id in fiber.Ctx locals
)

// Authenticator resolves an access token to a live session.
type Authenticator interface {
	Authenticate(ctx context.Context, tokenString string) (domain.SessionContext, error)
}

// Protected is a middleware function that protects routes by requiring a valid access token
// whose session has not been logged out. It sets the user and session ids in the context.
func Protected(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(AuthorizationHeader)
		if authHeader == "" {
			return respond(c, fiber.StatusUnauthorized, ErrorResponse{Code: "MISSING_AUTH_HEADER", Message: "Authorization header is missing"})
		}

		if !strings.HasPrefix(authHeader, BearerSchema) {
			return respond(c, fiber.StatusUnauthorized, ErrorResponse{Code: "INVALID_AUTH_SCHEME", Message: "Authorization scheme is not Bearer"})
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerSchema))
		if tokenString == "" {
			return respond(c, fiber.StatusUnauthorized, ErrorResponse{Code: "EMPTY_TOKEN", Message: "Token is empty"})
		}

		sess, err := auth.Authenticate(c.UserContext(), tokenString)
		if err != nil {
			if domain.IsErrorCode(err, domain.CodeUnauthorized) {
				logger.Get().Debug("Rejected bearer token", zap.String("path", c.Path()), zap.Error(err))
			}
			return err // rendered by ErrorHandler
		}

		c.Locals(UserIDKey, sess.UserID)
		c.Locals(SessionIDKey, sess.SessionID)
		return c.Next()
	}
}

// SessionFromContext returns the session set by Protected.
func SessionFromContext(c *fiber.Ctx) (domain.SessionContext, bool) {
	userID, _ := c.Locals(UserIDKey).(string)
	sessionID, _ := c.Locals(SessionIDKey).(string)
	if userID == "" || sessionID == "" {
		return domain.SessionContext{}, false
	}
	return domain.SessionContext{SessionID: sessionID, UserID: userID}, true
}
