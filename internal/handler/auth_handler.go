package handler

import (
	"quiz-tutor/internal/dto"
	"quiz-tutor/internal/logger"
	"quiz-tutor/internal/middleware"
	"quiz-tutor/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService service.AuthService
	validation  *middleware.ValidationMiddleware
}

func NewAuthHandler(authService service.AuthService, validation *middleware.ValidationMiddleware) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validation:  validation,
	}
}

// Register godoc
// @Summary Create an account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Account details"
// @Success 201 {object} dto.RegisterResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "Username taken"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := h.validation.ParseBody(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.UserContext(), req.Username, req.Password, req.SecretQuestion, req.SecretAnswer)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.RegisterResponse{ID: user.ID, Username: user.Username})
}

// Login godoc
// @Summary Log in
// @Description Opens a session and returns a bearer access token bound to it.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.TokenResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := h.validation.ParseBody(c, &req); err != nil {
		return err
	}

	token, _, err := h.authService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.authService.AccessTokenTTL().Seconds()),
	})
}

// Logout godoc
// @Summary Log out
// @Description Ends the session along with its in-progress quiz and pending undo.
// @Tags auth
// @Produce json
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sess, err := sessionOrUnauthorized(c)
	if err != nil {
		return err
	}

	if err := h.authService.Logout(c.UserContext(), sess); err != nil {
		logger.Get().Error("Logout failed", zap.String("userID", sess.UserID), zap.Error(err))
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Logged out"})
}

// Forgot godoc
// @Summary Start password recovery
// @Description Returns the account's secret question.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ForgotPasswordRequest true "Username"
// @Success 200 {object} dto.SecretQuestionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /auth/forgot [post]
func (h *AuthHandler) Forgot(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := h.validation.ParseBody(c, &req); err != nil {
		return err
	}

	question, err := h.authService.GetSecretQuestion(c.UserContext(), req.Username)
	if err != nil {
		return err
	}
	return c.JSON(dto.SecretQuestionResponse{Username: req.Username, SecretQuestion: question})
}

// AnswerSecret godoc
// @Summary Answer the secret question
// @Description Returns a short-lived single-use password reset token when the answer matches.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.AnswerSecretRequest true "Secret answer"
// @Success 200 {object} dto.ResetTokenResponse
// @Failure 401 {object} middleware.ErrorResponse "Incorrect answer"
// @Failure 404 {object} middleware.ErrorResponse
// @Router /auth/answer-secret [post]
func (h *AuthHandler) AnswerSecret(c *fiber.Ctx) error {
	var req dto.AnswerSecretRequest
	if err := h.validation.ParseBody(c, &req); err != nil {
		return err
	}

	token, err := h.authService.VerifySecretAnswer(c.UserContext(), req.Username, req.SecretAnswer)
	if err != nil {
		return err
	}
	return c.JSON(dto.ResetTokenResponse{
		ResetToken: token,
		ExpiresIn:  int64(h.authService.ResetTokenTTL().Seconds()),
	})
}

// ResetPassword godoc
// @Summary Set a new password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} middleware.ErrorResponse "Invalid, expired or used token"
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := h.validation.ParseBody(c, &req); err != nil {
		return err
	}

	if err := h.authService.ResetPassword(c.UserContext(), req.ResetToken, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Password updated, please log in"})
}
