package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quiz-tutor/internal/domain"
	"quiz-tutor/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthenticator struct {
	sess domain.SessionContext
	err  error
	seen string
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, tokenString string) (domain.SessionContext, error) {
	s.seen = tokenString
	return s.sess, s.err
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
}

func decode(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestProtected(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		auth       *stubAuthenticator
		wantStatus int
		wantCode   string
	}{
		{"missing header", "", &stubAuthenticator{}, fiber.StatusUnauthorized, "MISSING_AUTH_HEADER"},
		{"wrong scheme", "Basic abc", &stubAuthenticator{}, fiber.StatusUnauthorized, "INVALID_AUTH_SCHEME"},
		{"empty token", "Bearer  ", &stubAuthenticator{}, fiber.StatusUnauthorized, "EMPTY_TOKEN"},
		{"rejected token", "Bearer bad", &stubAuthenticator{err: domain.NewUnauthorizedError("Invalid or expired token")},
			fiber.StatusUnauthorized, string(domain.CodeUnauthorized)},
		{"session store down", "Bearer tok", &stubAuthenticator{err: domain.NewInternalError("failed to check session", errors.New("redis"))},
			fiber.StatusInternalServerError, string(domain.CodeInternal)},
		{"valid token", "Bearer tok", &stubAuthenticator{sess: domain.SessionContext{SessionID: "sess-1", UserID: "user-1"}},
			fiber.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp()
			app.Get("/private", middleware.Protected(tt.auth), func(c *fiber.Ctx) error {
				sess, ok := middleware.SessionFromContext(c)
				if !ok {
					return c.SendStatus(fiber.StatusTeapot)
				}
				return c.JSON(fiber.Map{"user": sess.UserID, "session": sess.SessionID})
			})

			req := httptest.NewRequest("GET", "/private", nil)
			if tt.header != "" {
				req.Header.Set(middleware.AuthorizationHeader, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decode(t, resp.Body)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["code"])
				return
			}
			assert.Equal(t, "user-1", body["user"])
			assert.Equal(t, "sess-1", body["session"])
			assert.Equal(t, "tok", tt.auth.seen)
		})
	}
}

func TestErrorHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.NewInvalidInputError("bad"), 400, "INVALID_INPUT"},
		{domain.NewUnauthorizedError("no"), 401, "UNAUTHORIZED"},
		{domain.NewInvalidCredentialsError(), 401, "INVALID_CREDENTIALS"},
		{domain.NewIncorrectSecretAnswerError(), 401, "INCORRECT_SECRET_ANSWER"},
		{domain.NewNotFoundError("gone"), 404, "NOT_FOUND"},
		{domain.NewQuizNotFoundError("q"), 404, "QUIZ_NOT_FOUND"},
		{domain.NewNoActiveQuizError(), 409, "NO_ACTIVE_QUIZ"},
		{domain.NewUsernameTakenError("alice"), 409, "USERNAME_TAKEN"},
		{domain.NewGenerationFailedError(errors.New("timeout")), 503, "GENERATION_FAILED"},
		{domain.NewInternalError("boom", errors.New("db")), 500, "INTERNAL_ERROR"},
		{errors.New("plain"), 500, "INTERNAL_ERROR"},
		{fiber.ErrMethodNotAllowed, 405, "HTTP_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			app := newApp()
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decode(t, resp.Body)
			assert.Equal(t, tt.code, body["code"])
			assert.Equal(t, float64(tt.status), body["status"])
		})
	}
}

func TestErrorHandler_DetailsAndValidation(t *testing.T) {
	app := newApp()
	app.Get("/stale", func(c *fiber.Ctx) error {
		return domain.NewNoActiveQuizError().WithContext("quiz_id", "q-1")
	})
	app.Get("/invalid", func(c *fiber.Ctx) error {
		return domain.ValidationErrors{domain.NewMissingFieldError("topic")}
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/stale", nil))
	require.NoError(t, err)
	body := decode(t, resp.Body)
	assert.Equal(t, map[string]interface{}{"quiz_id": "q-1"}, body["details"])

	resp, err = app.Test(httptest.NewRequest("GET", "/invalid", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	body = decode(t, resp.Body)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	errs, ok := body["errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "topic", errs[0].(map[string]interface{})["field"])
}

func TestValidationMiddleware(t *testing.T) {
	vm := middleware.NewValidationMiddleware(nil)
	app := newApp()
	app.Get("/quizzes/:quizID", vm.ValidateQuizIDParam(), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(middleware.ValidatedQuizIDKey).(string))
	})
	app.Post("/topic", func(c *fiber.Ctx) error {
		var req struct {
			Topic string `json:"topic" validate:"required,max=5"`
		}
		if err := vm.ParseBody(c, &req); err != nil {
			return err
		}
		return c.SendString(req.Topic)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/quizzes/01HZY3M8V6N2C9T1D5K7Q4R0AB", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	got, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "01HZY3M8V6N2C9T1D5K7Q4R0AB", string(got))

	resp, err = app.Test(httptest.NewRequest("GET", "/quizzes/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	post := func(body string) int {
		req := httptest.NewRequest("POST", "/topic", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}
	assert.Equal(t, 200, post(`{"topic":"Go"}`))
	assert.Equal(t, 400, post(`{"topic":""}`))
	assert.Equal(t, 400, post(`{"topic":"too long"}`))
	assert.Equal(t, 400, post(`{not json`))
}

func TestRequestContext(t *testing.T) {
	var handlerCtx context.Context
	app := newApp()
	app.Use(middleware.RequestContext(time.Minute))
	app.Get("/", func(c *fiber.Ctx) error {
		handlerCtx = c.UserContext()
		deadline, ok := handlerCtx.Deadline()
		assert.True(t, ok, "request context carries a deadline")
		assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
		assert.NoError(t, handlerCtx.Err())
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	require.NotNil(t, handlerCtx)
	assert.ErrorIs(t, handlerCtx.Err(), context.Canceled, "context ends with the request")
}
