package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single property or field violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
	Rule    string `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Validator wraps struct validation and the property-set schema registry.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	validate := validator.New()

	v := &Validator{validate: validate}
	v.registerRules()
	return v
}

// Validate validates a struct against its `validate` tags.
func (v *Validator) Validate(s any) ValidationErrors {
	var errs ValidationErrors

	err := v.validate.Struct(s)
	if err != nil {
		for _, fe := range err.(validator.ValidationErrors) {
			errs = append(errs, ValidationError{
				Field:   fe.Field(),
				Message: v.errorMessage(fe),
				Value:   fe.Value(),
				Rule:    fe.Tag(),
			})
		}
	}

	return errs
}

func (v *Validator) registerRules() {
	// Passwords need at least one letter and one digit.
	v.validate.RegisterValidation("teacher_password", func(fl validator.FieldLevel) bool {
		pw := fl.Field().String()
		if len(pw) < 8 || len(pw) > 128 {
			return false
		}
		var hasLetter, hasDigit bool
		for _, r := range pw {
			switch {
			case r >= '0' && r <= '9':
				hasDigit = true
			case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
				hasLetter = true
			}
		}
		return hasLetter && hasDigit
	})

	// Observation dates arrive as YYYY-MM-DD from the app.
	v.validate.RegisterValidation("observation_date", func(fl validator.FieldLevel) bool {
		return isDateString(fl.Field().String())
	})
}

func (v *Validator) errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "teacher_password":
		return "must be 8-128 characters with at least one letter and one digit"
	case "observation_date":
		return "must be a YYYY-MM-DD date"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func isDateString(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return false
	}
	for _, p := range parts {
		for _, r := range p {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}
