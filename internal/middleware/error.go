package middleware

import (
	"errors"
	"net/http"

	"quiz-tutor/internal/domain"
	"quiz-tutor/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ValidationErrorResponse lists each rejected field of a request body.
type ValidationErrorResponse struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Status  int                 `json:"status"`
	Errors  []domain.FieldError `json:"errors"`
}

var statusByCode = map[domain.ErrorCode]int{
	domain.CodeNotFound:           http.StatusNotFound,
	domain.CodeQuizNotFound:       http.StatusNotFound,
	domain.CodeInvalidInput:       http.StatusBadRequest,
	domain.CodeValidation:         http.StatusBadRequest,
	domain.CodeMissingField:       http.StatusBadRequest,
	domain.CodeInvalidFormat:      http.StatusBadRequest,
	domain.CodeOutOfRange:         http.StatusBadRequest,
	domain.CodeUnauthorized:       http.StatusUnauthorized,
	domain.CodeInvalidCredentials: http.StatusUnauthorized,
	domain.CodeIncorrectSecret:    http.StatusUnauthorized,
	domain.CodeNoActiveQuiz:       http.StatusConflict,
	domain.CodeUsernameTaken:      http.StatusConflict,
	domain.CodeGenerationFailed:   http.StatusServiceUnavailable,
}

// ErrorHandler turns handler errors into JSON responses. Domain errors keep
// their code; anything unrecognised becomes a 500 without leaking the cause.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		log := logger.Get().With(
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
		)

		var validationErrs domain.ValidationErrors
		if errors.As(err, &validationErrs) {
			log.Warn("Request validation failed", zap.Int("error_count", len(validationErrs)))
			return c.Status(http.StatusBadRequest).JSON(ValidationErrorResponse{
				Code:    string(domain.CodeValidation),
				Message: "Request validation failed",
				Status:  http.StatusBadRequest,
				Errors:  validationErrs,
			})
		}

		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			status := statusForDomainError(domainErr)
			fields := []zap.Field{
				zap.String("code", string(domainErr.Code)),
				zap.Int("status", status),
				zap.Error(domainErr.Cause),
			}
			if status >= http.StatusInternalServerError {
				log.Error(domainErr.Message, fields...)
			} else {
				log.Info(domainErr.Message, fields...)
			}
			resp := ErrorResponse{Code: string(domainErr.Code), Message: domainErr.Message}
			if len(domainErr.Context) > 0 {
				resp.Details = domainErr.Context
			}
			return respond(c, status, resp)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			log.Warn("HTTP error", zap.Int("status", fiberErr.Code), zap.String("message", fiberErr.Message))
			return respond(c, fiberErr.Code, ErrorResponse{Code: "HTTP_ERROR", Message: fiberErr.Message})
		}

		log.Error("Unhandled error", zap.Error(err))
		return respond(c, http.StatusInternalServerError, ErrorResponse{
			Code:    string(domain.CodeInternal),
			Message: "Internal server error",
		})
	}
}

func respond(c *fiber.Ctx, status int, body ErrorResponse) error {
	body.Status = status
	return c.Status(status).JSON(body)
}

func statusForDomainError(err *domain.DomainError) int {
	if status, ok := statusByCode[err.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
