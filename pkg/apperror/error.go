package apperror

import "net/http"

// FieldError is one entry of a 400 response's error list.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type AppError struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"errors,omitempty"`
	// Plain renders Message as text/plain instead of JSON
	Plain bool  `json:"-"`
	Err   error `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Invalid is a 400 carrying field level errors.
func Invalid(fields []FieldError, err error) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Message: "Invalid form submission",
		Fields:  fields,
		Err:     err,
	}
}

// InternalText is a 500 rendered as plain text.
func InternalText(message string, err error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: message,
		Plain:   true,
		Err:     err,
	}
}
