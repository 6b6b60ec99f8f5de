package middleware

import (
	"quiz-tutor/internal/domain"
	"quiz-tutor/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ValidatedQuizIDKey holds the checked :quizID path parameter in fiber.Ctx locals.
const ValidatedQuizIDKey = "validated_quiz_id"

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware(v *validation.Validator) *ValidationMiddleware {
	if v == nil {
		v = validation.NewValidator()
	}
	return &ValidationMiddleware{validator: v}
}

// ValidateQuizIDParam rejects requests whose :quizID path parameter is not a quiz id.
func (vm *ValidationMiddleware) ValidateQuizIDParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		quizID := c.Params("quizID")
		if errs := vm.validator.ValidateQuizID(quizID); len(errs) > 0 {
			return errs // This will be handled by ErrorHandler middleware
		}

		c.Locals(ValidatedQuizIDKey, quizID)
		return c.Next()
	}
}

// ParseBody decodes the JSON body into out and validates it.
func (vm *ValidationMiddleware) ParseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return domain.NewInvalidInputError("Cannot parse request body").WithContext("reason", err.Error())
	}
	if errs := vm.validator.ValidateStruct(out); len(errs) > 0 {
		return errs
	}
	return nil
}
