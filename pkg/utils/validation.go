package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/engmung/portfolio-Nat/pkg/errors"
)

var validate = newValidator()

var knowledgeFilePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._ -]*$`)

func newValidator() *validator.Validate {
	v := validator.New()
	// knowledgefile: a bare file name, no separators or parent references
	_ = v.RegisterValidation("knowledgefile", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		return knowledgeFilePattern.MatchString(name) && !strings.Contains(name, "..")
	})
	return v
}

// ValidateStruct validates a struct based on its validation tags.
// Failures come back as *errors.ValidationErrors keyed by field.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateVar validates a single value against a tag expression
func ValidateVar(field string, value interface{}, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			out := apperrors.NewValidationErrors()
			for _, e := range fieldErrors {
				out.Add(field, formatFieldMessage(field, e))
			}
			return out
		}
		return err
	}
	return nil
}

// formatValidationError formats validation errors into readable messages
func formatValidationError(err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}
	out := apperrors.NewValidationErrors()
	for _, e := range fieldErrors {
		field := strings.ToLower(e.Field())
		out.Add(field, formatFieldMessage(field, e))
	}
	return out
}

// formatFieldMessage formats a single field validation error
func formatFieldMessage(field string, e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, strings.ToLower(e.Param()))
	case "knowledgefile":
		return fmt.Sprintf("%s must be a bare file name", field)
	case "dive":
		return fmt.Sprintf("%s contains invalid values", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
