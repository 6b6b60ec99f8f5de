package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"quiz-tutor/internal/domain"

	"github.com/go-playground/validator/v10"
)

var ulidPattern = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)

// Validator validates request DTOs and path parameters, reporting failures as
// domain.ValidationErrors so the error handler renders them uniformly.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// ValidateStruct checks the `validate` tags of s.
func (v *Validator) ValidateStruct(s interface{}) domain.ValidationErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.ValidationErrors{domain.NewInvalidFormatError("body", nil)}
	}

	out := make(domain.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, toFieldError(fe))
	}
	return out
}

func toFieldError(fe validator.FieldError) domain.FieldError {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return domain.NewMissingFieldError(field)
	case "min":
		return domain.FieldError{
			Code:    domain.CodeOutOfRange,
			Field:   field,
			Message: fmt.Sprintf("field must be at least %s characters", fe.Param()),
			Value:   lengthOf(fe.Value()),
		}
	case "max":
		return domain.FieldError{
			Code:    domain.CodeOutOfRange,
			Field:   field,
			Message: fmt.Sprintf("field must be at most %s characters", fe.Param()),
			Value:   lengthOf(fe.Value()),
		}
	default:
		// values are not echoed; they may be secrets
		return domain.NewInvalidFormatError(field, nil)
	}
}

func lengthOf(value interface{}) int {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return len([]rune(rv.String()))
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len()
	}
	return 0
}

// ValidateQuizID checks that id is a present, well-formed ULID.
func (v *Validator) ValidateQuizID(id string) domain.ValidationErrors {
	if strings.TrimSpace(id) == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("quiz_id")}
	}
	if !IsValidULID(id) {
		return domain.ValidationErrors{domain.NewInvalidFormatError("quiz_id", id)}
	}
	return nil
}

// IsValidULID reports whether s is a 26-character Crockford base32 ULID.
func IsValidULID(s string) bool {
	return len(s) == 26 && ulidPattern.MatchString(s)
}
