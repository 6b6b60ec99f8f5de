package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-tutor/internal/adapter"
	"quiz-tutor/internal/domain"
	"quiz-tutor/internal/dto"
	"quiz-tutor/internal/handler"
	"quiz-tutor/internal/middleware"

	"github.com/go-redis/redismock/v9"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

const (
	testQuizID = "01HZY3M8V6N2C9T1D5K7Q4R0AB"
	testToken  = "good-token"
)

var testSess = domain.SessionContext{SessionID: "sess-1", UserID: "user-1"}

// --- Manual Mocks ---

type MockQuizService struct {
	StartQuizFunc       func(ctx context.Context, sess domain.SessionContext, topic string) (*domain.StartQuizResult, error)
	CurrentQuizFunc     func(ctx context.Context, sess domain.SessionContext) (*domain.Quiz, error)
	GradeQuizFunc       func(ctx context.Context, sess domain.SessionContext, quizID string, answers map[int]string) (string, error)
	GetReportFunc       func(ctx context.Context, userID, quizID string) ([]domain.ResultRecord, error)
	ListQuizzesFunc     func(ctx context.Context, userID string) ([]domain.QuizSummary, error)
	ExportReportPDFFunc func(ctx context.Context, userID, quizID string) (string, []byte, error)
	SoftDeleteQuizFunc  func(ctx context.Context, sess domain.SessionContext, quizID string) error
	UndoDeleteFunc      func(ctx context.Context, sess domain.SessionContext) (*domain.UndoResult, error)
}

func (m *MockQuizService) StartQuiz(ctx context.Context, sess domain.SessionContext, topic string) (*domain.StartQuizResult, error) {
	if m.StartQuizFunc != nil {
		return m.StartQuizFunc(ctx, sess, topic)
	}
	panic("MockQuizService.StartQuizFunc not implemented")
}
func (m *MockQuizService) CurrentQuiz(ctx context.Context, sess domain.SessionContext) (*domain.Quiz, error) {
	if m.CurrentQuizFunc != nil {
		return m.CurrentQuizFunc(ctx, sess)
	}
	panic("MockQuizService.CurrentQuizFunc not implemented")
}
func (m *MockQuizService) GradeQuiz(ctx context.Context, sess domain.SessionContext, quizID string, answers map[int]string) (string, error) {
	if m.GradeQuizFunc != nil {
		return m.GradeQuizFunc(ctx, sess, quizID, answers)
	}
	panic("MockQuizService.GradeQuizFunc not implemented")
}
func (m *MockQuizService) GetReport(ctx context.Context, userID, quizID string) ([]domain.ResultRecord, error) {
	if m.GetReportFunc != nil {
		return m.GetReportFunc(ctx, userID, quizID)
	}
	panic("MockQuizService.GetReportFunc not implemented")
}
func (m *MockQuizService) ListQuizzes(ctx context.Context, userID string) ([]domain.QuizSummary, error) {
	if m.ListQuizzesFunc != nil {
		return m.ListQuizzesFunc(ctx, userID)
	}
	panic("MockQuizService.ListQuizzesFunc not implemented")
}
func (m *MockQuizService) ExportReportPDF(ctx context.Context, userID, quizID string) (string, []byte, error) {
	if m.ExportReportPDFFunc != nil {
		return m.ExportReportPDFFunc(ctx, userID, quizID)
	}
	panic("MockQuizService.ExportReportPDFFunc not implemented")
}
func (m *MockQuizService) SoftDeleteQuiz(ctx context.Context, sess domain.SessionContext, quizID string) error {
	if m.SoftDeleteQuizFunc != nil {
		return m.SoftDeleteQuizFunc(ctx, sess, quizID)
	}
	panic("MockQuizService.SoftDeleteQuizFunc not implemented")
}
func (m *MockQuizService) UndoDelete(ctx context.Context, sess domain.SessionContext) (*domain.UndoResult, error) {
	if m.UndoDeleteFunc != nil {
		return m.UndoDeleteFunc(ctx, sess)
	}
	panic("MockQuizService.UndoDeleteFunc not implemented")
}

type MockAuthService struct {
	RegisterFunc           func(ctx context.Context, username, password, secretQuestion, secretAnswer string) (*domain.User, error)
	LoginFunc              func(ctx context.Context, username, password string) (string, domain.SessionContext, error)
	LogoutFunc             func(ctx context.Context, sess domain.SessionContext) error
	GetSecretQuestionFunc  func(ctx context.Context, username string) (string, error)
	VerifySecretAnswerFunc func(ctx context.Context, username, answer string) (string, error)
	ResetPasswordFunc      func(ctx context.Context, resetToken, newPassword string) error
}

func (m *MockAuthService) Register(ctx context.Context, username, password, secretQuestion, secretAnswer string) (*domain.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, username, password, secretQuestion, secretAnswer)
	}
	panic("MockAuthService.RegisterFunc not implemented")
}
func (m *MockAuthService) Login(ctx context.Context, username, password string) (string, domain.SessionContext, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, username, password)
	}
	panic("MockAuthService.LoginFunc not implemented")
}
func (m *MockAuthService) ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
	panic("not implemented in mock")
}

// Authenticate accepts only testToken.
func (m *MockAuthService) Authenticate(ctx context.Context, tokenString string) (domain.SessionContext, error) {
	if tokenString != testToken {
		return domain.SessionContext{}, domain.NewUnauthorizedError("Invalid or expired token")
	}
	return testSess, nil
}
func (m *MockAuthService) Logout(ctx context.Context, sess domain.SessionContext) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, sess)
	}
	panic("MockAuthService.LogoutFunc not implemented")
}
func (m *MockAuthService) GetSecretQuestion(ctx context.Context, username string) (string, error) {
	if m.GetSecretQuestionFunc != nil {
		return m.GetSecretQuestionFunc(ctx, username)
	}
	panic("MockAuthService.GetSecretQuestionFunc not implemented")
}
func (m *MockAuthService) VerifySecretAnswer(ctx context.Context, username, answer string) (string, error) {
	if m.VerifySecretAnswerFunc != nil {
		return m.VerifySecretAnswerFunc(ctx, username, answer)
	}
	panic("MockAuthService.VerifySecretAnswerFunc not implemented")
}
func (m *MockAuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, resetToken, newPassword)
	}
	panic("MockAuthService.ResetPasswordFunc not implemented")
}
func (m *MockAuthService) AccessTokenTTL() time.Duration { return 15 * time.Minute }
func (m *MockAuthService) ResetTokenTTL() time.Duration  { return 5 * time.Minute }

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

// --- Helpers ---

func setupApp(t *testing.T, quizSvc *MockQuizService, authSvc *MockAuthService) *fiber.App {
	t.Helper()
	return newTestApp(t, quizSvc, authSvc, stubPinger{})
}

func setupAppWithDB(t *testing.T, db handler.DBPinger) *fiber.App {
	t.Helper()
	return newTestApp(t, &MockQuizService{}, &MockAuthService{}, db)
}

func newTestApp(t *testing.T, quizSvc *MockQuizService, authSvc *MockAuthService, sqlDB handler.DBPinger) *fiber.App {
	t.Helper()
	db, rmock := redismock.NewClientMock()
	rmock.ExpectPing().SetVal("PONG")

	validation := middleware.NewValidationMiddleware(nil)
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	handler.RegisterRoutes(app, handler.Handlers{
		Quiz:          handler.NewQuizHandler(quizSvc, validation),
		Auth:          handler.NewAuthHandler(authSvc, validation),
		Health:        handler.NewHealthHandler(sqlDB, adapter.NewRedisCacheAdapter(db)),
		Authenticator: authSvc,
		Validation:    validation,
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body interface{}, authed bool) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set(middleware.AuthorizationHeader, middleware.BearerSchema+testToken)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body middleware.ErrorResponse
	decodeBody(t, resp, &body)
	return body.Code
}

func sampleQuiz() *domain.Quiz {
	return &domain.Quiz{
		ID:    testQuizID,
		Topic: "Go",
		Questions: []domain.QuizQuestion{
			{Question: "What is a goroutine?", Options: []string{"A) a thread", "B) a lightweight thread", "C) a process", "D) a fiber"}, Answer: "B"},
		},
		CreatedAt: time.Now(),
	}
}
