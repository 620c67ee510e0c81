package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"participa/internal/apperrors"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their json name so error keys match request bodies
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidateStruct validates a struct based on validate tags. The first
// failing field is returned as a ValidationFailure keyed by its json name.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fe := validationErrors[0]
		return apperrors.Validation(fe.Field(), message(fe))
	}
	return fmt.Errorf("validation failed: %w", err)
}

var messages = map[string]func(param string) string{
	"required": func(string) string { return "is required" },
	"min":      func(p string) string { return "must be at least " + p + " characters" },
	"max":      func(p string) string { return "must be at most " + p + " characters" },
	"gt":       func(p string) string { return "must be greater than " + p },
	"oneof": func(p string) string {
		return "must be one of " + strings.Join(strings.Fields(p), ", ")
	},
}

func message(fe validator.FieldError) string {
	if format, ok := messages[fe.Tag()]; ok {
		// numeric min/max bound the value, not its length
		if fe.Kind() != reflect.String && (fe.Tag() == "min" || fe.Tag() == "max") {
			return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
		}
		return format(fe.Param())
	}
	return fmt.Sprintf("failed %s check", fe.Tag())
}

// SanitizeString sanitizes a string by removing potentially dangerous characters
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}
