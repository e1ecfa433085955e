package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "ledgersync/internal/errors"
	"ledgersync/internal/logger"
)

// ErrorHandler returns a Gin middleware that converts errors set on the Gin
// context into consistent JSON error responses. AppErrors are returned with
// their code and message; unexpected errors are logged and return a generic
// internal error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		log := logger.Get().With("request_id", RequestIDFrom(c), "path", c.Request.URL.Path)

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			switch {
			case appErr.Kind() == apperrors.KindProvider:
				log.Warnw("provider error", "code", appErr.Code, "error", appErr.Error())
			case appErr.Internal != nil:
				log.Errorw("app error",
					"code", appErr.Code,
					"message", appErr.Message,
					"internal", appErr.Internal.Error(),
				)
			}
			abortWithError(c, appErr)
			return
		}

		log.Errorw("unexpected error", "error", err.Error(), "method", c.Request.Method)
		abortWithError(c, apperrors.ErrInternalServer)
	}
}
