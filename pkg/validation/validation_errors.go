package validation

import (
	"errors"
	"fmt"

	"go-contact-relay/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

// FieldLabels maps form field names to user-friendly labels
var FieldLabels = map[string]string{
	"names":     "Names",
	"lastnames": "Last names",
	"email":     "Email",
	"cellphone": "Cellphone",
	"subject":   "Subject",
	"message":   "Message",
	"file":      "Attachment",
}

// Check validates s and returns the failures in struct declaration order.
// An empty result means the value is acceptable.
func Check(v *validator.Validate, s interface{}) []apperror.FieldError {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	return FormatValidationErrors(err)
}

// FormatValidationErrors converts validator.ValidationErrors to field/message pairs
func FormatValidationErrors(err error) []apperror.FieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		// Not a validation error, return generic message
		return []apperror.FieldError{{Message: err.Error()}}
	}

	fields := make([]apperror.FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		fields = append(fields, apperror.FieldError{
			Field:   e.Field(),
			Message: formatSingleError(e),
		})
	}
	return fields
}

// formatSingleError formats a single validation error to a user-friendly message
func formatSingleError(e validator.FieldError) string {
	label := getFieldLabel(e.Field())
	param := e.Param()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)

	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, param)

	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, param)

	case "email", "mail_address":
		return fmt.Sprintf("%s must be a valid email address", label)

	case "valid_name":
		return fmt.Sprintf("%s may only contain letters, spaces and . ' -", label)

	case "valid_phone":
		return fmt.Sprintf("%s must be a phone number (digits, optional +, spaces, dashes)", label)

	case "single_line":
		return fmt.Sprintf("%s must be a single line", label)

	default:
		// Fallback for unknown tags
		return fmt.Sprintf("%s failed validation (%s)", label, e.Tag())
	}
}

// getFieldLabel returns the user-friendly label for a field
func getFieldLabel(fieldName string) string {
	if label, ok := FieldLabels[fieldName]; ok {
		return label
	}
	return fieldName
}
