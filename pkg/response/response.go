package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"travel-ledger/internal/apperrors"
)

type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    interface{}  `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Error(c *gin.Context, statusCode int, code, message, details string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Error: &ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func InternalError(c *gin.Context, message, details string) {
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, details)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindInvalidInput:
		return http.StatusBadRequest
	case apperrors.KindValidation:
		return http.StatusUnprocessableEntity
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindInvalidState:
		return http.StatusPreconditionFailed
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindTimeout:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// FromError writes err using its kind as the error code. Errors without a
// kind are reported as INTERNAL_ERROR without leaking their text.
func FromError(c *gin.Context, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		InternalError(c, "Request failed", "")
		return
	}
	c.JSON(StatusFor(appErr.Kind), Response{
		Success: false,
		Message: appErr.Error(),
		Error: &ErrorDetail{
			Code:    appErr.Kind.String(),
			Message: appErr.Message,
			Field:   appErr.Field,
		},
	})
}
