package response

import (
	"go-contact-relay/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// MessageResponse is the body of GET /
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorsResponse is the body of every 400
type ErrorsResponse struct {
	Errors    []apperror.FieldError `json:"errors"`
	RequestID string                `json:"request_id,omitempty"`
}

// Message sends {"message": ...}
func Message(c *gin.Context, code int, message string) {
	c.JSON(code, MessageResponse{Message: message})
}

// Errors sends the field error list of a rejected request
func Errors(c *gin.Context, code int, fields []apperror.FieldError) {
	if fields == nil {
		fields = []apperror.FieldError{}
	}
	c.JSON(code, ErrorsResponse{
		Errors:    fields,
		RequestID: c.GetString("RequestID"),
	})
}

// Text sends a plain text body, used for transport failures
func Text(c *gin.Context, code int, message string) {
	c.String(code, message)
}
