package middleware

import (
	"github.com/gin-gonic/gin"

	"travel-ledger/internal/apperrors"
	"travel-ledger/pkg/logger"
	"travel-ledger/pkg/response"
)

func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.GetLogger().WithField("error", err).WithField("path", c.Request.URL.Path).Error("Panic recovered")
				response.InternalError(c, "Internal server error", "An unexpected error occurred")
				c.Abort()
			}
		}()
		c.Next()
	}
}

// ErrorHandler renders the last error a handler attached with c.Error, unless
// a response was already written.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		entry := logger.GetLogger().WithError(err).WithField("path", c.Request.URL.Path)
		if apperrors.KindOf(err) == apperrors.KindUnknown {
			entry.Error("Request error")
		} else {
			entry.WithField("kind", apperrors.KindOf(err).String()).Debug("Request error")
		}

		if !c.Writer.Written() {
			response.FromError(c, err)
		}
	}
}
