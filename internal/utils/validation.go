package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce   sync.Once
	sharedValidator *validator.Validate
)

// NewValidator returns the shared validator with the password rule registered.
// Field errors are keyed by their json names.
func NewValidator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return IsStrongPassword(fl.Field().String())
		})
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
		sharedValidator = v
	})
	return sharedValidator
}

// IsStrongPassword reports whether the password is 8 to 16 characters long,
// has no whitespace and mixes a digit, an upper case letter, a lower case
// letter and a symbol.
func IsStrongPassword(password string) bool {
	length := len([]rune(password))
	if length < 8 || length > 16 {
		return false
	}

	var digit, upper, lower, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			return false
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return digit && upper && lower && symbol
}

// ValidationDetails flattens validator errors into a field to message map.
// It returns nil when err is not a validation error.
func ValidationDetails(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details[fieldErr.Field()] = describeFieldError(fieldErr)
	}
	return details
}

func describeFieldError(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "password":
		return "must be 8-16 characters with a digit, an upper case letter, a lower case letter and a symbol"
	case "min":
		return fmt.Sprintf("must be at least %s", fieldErr.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fieldErr.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fieldErr.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fieldErr.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fieldErr.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fieldErr.Param())
	case "datetime":
		return fmt.Sprintf("must match the layout %s", fieldErr.Param())
	default:
		return fmt.Sprintf("failed %s validation", fieldErr.Tag())
	}
}
