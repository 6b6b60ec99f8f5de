package handler

import (
	"quiz-tutor/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Quiz          *QuizHandler
	Auth          *AuthHandler
	Health        *HealthHandler
	Authenticator middleware.Authenticator
	Validation    *middleware.ValidationMiddleware
}

// RegisterRoutes mounts the API under /api.
func RegisterRoutes(app fiber.Router, h Handlers) {
	apiGroup := app.Group("/api")
	protected := middleware.Protected(h.Authenticator)
	quizID := h.Validation.ValidateQuizIDParam()

	apiGroup.Get("/health", h.Health.Check)

	// Auth routes
	authGroup := apiGroup.Group("/auth")
	authGroup.Post("/register", h.Auth.Register)
	authGroup.Post("/login", h.Auth.Login)
	authGroup.Post("/forgot", h.Auth.Forgot)
	authGroup.Post("/answer-secret", h.Auth.AnswerSecret)
	authGroup.Post("/reset-password", h.Auth.ResetPassword)
	authGroup.Post("/logout", protected, h.Auth.Logout)

	// Quiz routes (all protected)
	quizGroup := apiGroup.Group("/quizzes", protected)
	quizGroup.Get("/", h.Quiz.ListQuizzes)
	quizGroup.Post("/", h.Quiz.StartQuiz)
	quizGroup.Get("/current", h.Quiz.CurrentQuiz)
	quizGroup.Post("/current/submit", h.Quiz.SubmitQuiz)
	quizGroup.Post("/undo", h.Quiz.UndoDelete)
	quizGroup.Get("/:quizID/report", quizID, h.Quiz.GetReport)
	quizGroup.Get("/:quizID/report.pdf", quizID, h.Quiz.DownloadReport)
	quizGroup.Delete("/:quizID", quizID, h.Quiz.DeleteQuiz)
}
