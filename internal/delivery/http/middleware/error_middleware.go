package middleware

import (
	"errors"
	"net/http"

	"go-contact-relay/internal/delivery/http/response"
	"go-contact-relay/pkg/apperror"
	"go-contact-relay/pkg/logger"

	"github.com/gin-gonic/gin"
)

// GenericFailureMessage is what clients see for any server side failure.
const GenericFailureMessage = "Error sending the form."

// ErrorHandler renders the last error attached with c.Error exactly once.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			// Never expose internal error details to clients
			logger.Log.Error("Unhandled error", "error", err, "request_id", c.GetString("RequestID"))
			response.Text(c, http.StatusInternalServerError, GenericFailureMessage)
			return
		}

		if appErr.Err != nil && appErr.Code >= http.StatusInternalServerError {
			logger.Log.Error(appErr.Message, "error", appErr.Err, "request_id", c.GetString("RequestID"))
		}

		switch {
		case appErr.Plain:
			response.Text(c, appErr.Code, appErr.Message)
		case len(appErr.Fields) > 0:
			response.Errors(c, appErr.Code, appErr.Fields)
		default:
			response.Errors(c, appErr.Code, []apperror.FieldError{{Message: appErr.Message}})
		}
	}
}
